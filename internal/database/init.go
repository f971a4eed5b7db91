package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Database struct {
	dbName      string
	MysqlClient *sql.DB
}

func NewDatabase(client *sql.DB, dbName string) *Database {
	return &Database{
		dbName:      dbName,
		MysqlClient: client,
	}
}

// CreateDatabaseAndTable creates the database if needed and runs every .sql file of
// migrationsDir in name order.
func (d *Database) CreateDatabaseAndTable(ctx context.Context, migrationsDir string) error {
	createDatabase := `CREATE DATABASE IF NOT EXISTS ` + d.dbName

	if _, err := d.MysqlClient.ExecContext(ctx, createDatabase); err != nil {
		return fmt.Errorf("failed to create db %s: %w", d.dbName, err)
	}

	useDatabase := `USE ` + d.dbName

	if _, err := d.MysqlClient.ExecContext(ctx, useDatabase); err != nil {
		return fmt.Errorf("failed to use db %s: %w", d.dbName, err)
	}

	migrations, err := Migrations(migrationsDir)
	if err != nil {
		return err
	}

	for _, path := range migrations {
		c, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", path, err)
		}

		if _, err := d.MysqlClient.ExecContext(ctx, string(c)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", path, err)
		}
	}

	return nil
}

// Migrations lists the .sql files of dir sorted by name.
func Migrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	return paths, nil
}
