// internal/db/driver.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DriverType represents supported database types
type DriverType string

const (
	Postgres DriverType = "postgres"
	MySQL    DriverType = "mysql"
	SQLite   DriverType = "sqlite"
)

// Column represents table column metadata
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Key      string // PRI, UNI, MUL
}

// ConnectParams holds database connection details
type ConnectParams struct {
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
	SSHConfig *SSHConfig // Optional SSH tunnel config
}

// Address returns host:port of the database server
func (p ConnectParams) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func (p ConnectParams) tunnelled() bool {
	return p.SSHConfig != nil && p.SSHConfig.Host != ""
}

// Driver defines the interface for database operations
type Driver interface {
	Connect(params ConnectParams) error
	Close() error
	Ping(ctx context.Context) error
	Type() DriverType
	Query(ctx context.Context, query string, args ...any) (*Result, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	GetTables(ctx context.Context) ([]string, error)
	GetColumns(ctx context.Context, tableName string) ([]Column, error)
}

// Result holds the rows of a query as raw driver values keyed by column
// name
type Result struct {
	Columns  []string
	Records  []map[string]any
	ExecTime time.Duration
}

// RowCount returns the number of records
func (r *Result) RowCount() int { return len(r.Records) }

// NewDriver creates a new driver instance by type
func NewDriver(driverType DriverType) (Driver, error) {
	switch driverType {
	case Postgres:
		return &PostgresDriver{}, nil
	case MySQL:
		return &MySQLDriver{}, nil
	case SQLite:
		return &SQLiteDriver{}, nil
	default:
		return nil, fmt.Errorf("unknown driver type: %s", driverType)
	}
}

// conn carries the pieces every driver shares: the pool and an optional
// SSH tunnel underneath it
type conn struct {
	db     *sql.DB
	tunnel *SSHTunnel
}

const (
	maxOpenConns    = 5
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 15 * time.Second
)

// openTunnel dials the SSH host of params. The tunnel is owned by c from
// then on and closed with it.
func (c *conn) openTunnel(params ConnectParams) (*SSHTunnel, error) {
	tunnel, err := NewSSHTunnel(params.SSHConfig)
	if err != nil {
		return nil, WrapConnectionError(fmt.Errorf("failed to create SSH tunnel: %w", err))
	}
	c.tunnel = tunnel
	return tunnel, nil
}

// open opens a pool for a networked server and verifies it with a ping,
// since sql.Open is lazy. On failure the pool and any tunnel are closed.
func (c *conn) open(driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		c.Close()
		return WrapConnectionError(err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		c.Close()
		return WrapConnectionError(err)
	}
	c.db = db
	return nil
}

// Query runs a row-returning statement
func (c *conn) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if c.db == nil {
		return nil, WrapConnectionError(fmt.Errorf("not connected"))
	}
	return queryRecords(ctx, c.db, query, args...)
}

// Exec runs a statement and returns the affected row count
func (c *conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c.db == nil {
		return 0, WrapConnectionError(fmt.Errorf("not connected"))
	}
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, WrapQueryError(err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Ping checks if database is reachable
func (c *conn) Ping(ctx context.Context) error {
	if c.db == nil {
		return WrapConnectionError(fmt.Errorf("not connected"))
	}
	return c.db.PingContext(ctx)
}

// Close closes the database connection and SSH tunnel
func (c *conn) Close() error {
	var dbErr error
	if c.db != nil {
		dbErr = c.db.Close()
	}

	if c.tunnel != nil {
		err := c.tunnel.Close()
		c.tunnel = nil
		if err != nil {
			if dbErr != nil {
				return fmt.Errorf("db close err: %v, tunnel close err: %w", dbErr, err)
			}
			return err
		}
	}
	return dbErr
}

func (c *conn) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, WrapQueryError(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, WrapQueryError(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// queryRecords executes a query and keeps every value as the driver
// returned it
func queryRecords(ctx context.Context, db *sql.DB, query string, args ...any) (*Result, error) {
	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, WrapQueryError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, WrapQueryError(err)
	}

	var records []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, WrapQueryError(err)
		}

		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			rec[col] = values[i]
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, WrapQueryError(err)
	}

	return &Result{
		Columns:  columns,
		Records:  records,
		ExecTime: time.Since(start),
	}, nil
}
