// internal/db/sqlite.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDriver implements Driver for SQLite
type SQLiteDriver struct {
	conn
}

// Connect establishes connection to SQLite
func (d *SQLiteDriver) Connect(params ConnectParams) error {
	// For SQLite, the database string is the filepath
	dsn := strings.TrimPrefix(params.Database, "sqlite://")
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return WrapConnectionError(err)
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite serialises writers anyway
	db.SetMaxOpenConns(1)

	// Apply SQLite pragmas for better performance and safety
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return WrapConnectionError(fmt.Errorf("pragma foreign_keys: %w", err))
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 10000"); err != nil {
		db.Close()
		return WrapConnectionError(fmt.Errorf("pragma busy_timeout: %w", err))
	}

	d.db = db
	return nil
}

// Type returns the driver type
func (d *SQLiteDriver) Type() DriverType {
	return SQLite
}

// GetTables returns a list of tables
func (d *SQLiteDriver) GetTables(ctx context.Context) ([]string, error) {
	return d.queryStrings(ctx, "SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name")
}

// GetColumns returns detailed column metadata for a table
func (d *SQLiteDriver) GetColumns(ctx context.Context, tableName string) ([]Column, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`, tableName)
	if err != nil {
		return nil, WrapQueryError(err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var name, dataType string
		var notNull, pk int
		if err := rows.Scan(&name, &dataType, &notNull, &pk); err != nil {
			return nil, WrapQueryError(err)
		}

		key := ""
		if pk > 0 {
			key = "PRI"
		}

		columns = append(columns, Column{
			Name:     name,
			Type:     dataType,
			Nullable: notNull == 0,
			Key:      key,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, WrapQueryError(err)
	}
	if len(columns) == 0 {
		return nil, WrapQueryError(fmt.Errorf("no such table: %s", tableName))
	}
	return columns, nil
}
