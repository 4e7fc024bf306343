// internal/db/mysql.go
package db

import (
	"context"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// MySQLDriver implements Driver for MySQL
type MySQLDriver struct {
	conn
}

// mysqlConfig describes the connection for the go-sql-driver DSN. network
// is "tcp" or a dialer registered for an SSH tunnel.
func mysqlConfig(params ConnectParams, network string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = network
	cfg.Addr = params.Address()
	cfg.DBName = params.Database
	cfg.ParseTime = true
	return cfg
}

// Connect establishes connection to MySQL
func (d *MySQLDriver) Connect(params ConnectParams) error {
	network := "tcp"
	if params.tunnelled() {
		tunnel, err := d.openTunnel(params)
		if err != nil {
			return err
		}
		// dialers are registered globally, so each tunnel gets its own name
		network = "ssh+" + uuid.NewString()
		mysql.RegisterDialContext(network, func(ctx context.Context, addr string) (net.Conn, error) {
			return tunnel.DialContext(ctx, "tcp", addr)
		})
	}
	return d.open("mysql", mysqlConfig(params, network).FormatDSN())
}

// Type returns the driver type
func (d *MySQLDriver) Type() DriverType {
	return MySQL
}

// GetTables returns a list of tables in the current database
func (d *MySQLDriver) GetTables(ctx context.Context) ([]string, error) {
	return d.queryStrings(ctx, "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name")
}

// GetColumns returns column metadata for a table
func (d *MySQLDriver) GetColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			COLUMN_TYPE,
			IS_NULLABLE = 'YES',
			COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = ? AND TABLE_SCHEMA = DATABASE()
		ORDER BY ORDINAL_POSITION`

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
