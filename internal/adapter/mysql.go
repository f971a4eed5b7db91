package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"

	db "github.com/iqbalbaharum/constant-product-pool/internal/database"
)

var (
	Database  *db.Database
	mySQLOnce sync.Once
)

// InitMySQLClient opens the journal database and applies the migrations found in
// migrationsDir.
func InitMySQLClient(ctx context.Context, dsn, dbName, migrationsDir string) error {
	if dsn == "" {
		return errors.New("MySQL DSN is empty")
	}

	var initError error

	mySQLOnce.Do(func() {
		client, err := sql.Open("mysql", dsn)
		if err != nil {
			initError = fmt.Errorf("failed to connect to MySQL: %w", err)
			return
		}

		if err := client.PingContext(ctx); err != nil {
			initError = fmt.Errorf("failed to ping MySQL: %w", err)
			return
		}

		database := db.NewDatabase(client, dbName)
		if err := database.CreateDatabaseAndTable(ctx, migrationsDir); err != nil {
			initError = err
			return
		}

		Database = database
	})

	return initError
}

func GetMySQLClient() (*sql.DB, error) {
	if Database == nil {
		return nil, errors.New("MySQL client is not initialized. call InitMySQLClient first")
	}

	return Database.MysqlClient, nil
}
