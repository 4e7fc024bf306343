// internal/db/postgres.go
package db

import (
	"context"
	"net"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresDriver implements Driver for PostgreSQL
type PostgresDriver struct {
	conn
	connName string // pgx config registered with database/sql
}

// postgresDSN builds the connection URL, escaping credentials
func postgresDSN(params ConnectParams) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(params.User, params.Password),
		Host:   params.Address(),
		Path:   "/" + params.Database,
	}
	return u.String()
}

// Connect establishes connection to PostgreSQL
func (d *PostgresDriver) Connect(params ConnectParams) error {
	cfg, err := pgx.ParseConfig(postgresDSN(params))
	if err != nil {
		return WrapConnectionError(err)
	}

	if params.tunnelled() {
		tunnel, err := d.openTunnel(params)
		if err != nil {
			return err
		}
		// the SSH server resolves the host, not this machine
		cfg.LookupFunc = func(_ context.Context, host string) ([]string, error) {
			return []string{host}, nil
		}
		remote := params.Address()
		cfg.DialFunc = func(ctx context.Context, network, _ string) (net.Conn, error) {
			return tunnel.DialContext(ctx, network, remote)
		}
	}

	d.connName = stdlib.RegisterConnConfig(cfg)
	if err := d.open("pgx", d.connName); err != nil {
		d.unregister()
		return err
	}
	return nil
}

// Close closes the pool and tunnel and forgets the registered config
func (d *PostgresDriver) Close() error {
	err := d.conn.Close()
	d.unregister()
	return err
}

func (d *PostgresDriver) unregister() {
	if d.connName != "" {
		stdlib.UnregisterConnConfig(d.connName)
		d.connName = ""
	}
}

// Type returns the driver type
func (d *PostgresDriver) Type() DriverType {
	return Postgres
}

// GetTables returns a list of tables and views in all non-system schemas
func (d *PostgresDriver) GetTables(ctx context.Context) ([]string, error) {
	return d.queryStrings(ctx, `
		SELECT n.nspname || '.' || c.relname
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		AND c.relkind IN ('r', 'v', 'm', 'f', 'p')
		ORDER BY 1`)
}

// GetColumns returns column metadata for a table. tableName may be
// schema-qualified; a bare name resolves against the current schema.
func (d *PostgresDriver) GetColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			a.attname AS column_name,
			format_type(a.atttypid, a.atttypmod) AS data_type,
			NOT a.attnotnull AS nullable,
			COALESCE(
				(SELECT 'PRI' FROM pg_index i WHERE i.indrelid = a.attrelid AND a.attnum = ANY(i.indkey::int2[]) AND i.indisprimary LIMIT 1),
				(SELECT 'UNI' FROM pg_index i WHERE i.indrelid = a.attrelid AND a.attnum = ANY(i.indkey::int2[]) AND i.indisunique AND NOT i.indisprimary LIMIT 1),
				''
			) AS key_type
		FROM pg_attribute a
		JOIN pg_class cl ON a.attrelid = cl.oid
		JOIN pg_namespace n ON cl.relnamespace = n.oid
		WHERE (n.nspname || '.' || cl.relname = $1 OR (cl.relname = $1 AND n.nspname = current_schema()))
		AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`

	rows, err := d.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, WrapQueryError(err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Key); err != nil {
			return nil, WrapQueryError(err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
