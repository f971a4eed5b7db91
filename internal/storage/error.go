package storage

// Error description
const (
	ErrExecuteStatement = "failed to execute statement"
	ErrExecuteQuery     = "failed to execute query"
	ErrScanData         = "failed to scan data"
	ErrRetrieveRows     = "failed to retrieve rows affected"
)
