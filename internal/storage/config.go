package storage

const (
	KEY_POOLSTATE = "storage::pool_state"
)

const (
	TABLE_NAME_TRADE = "trades"
)
