package cli

import (
	"context"

	"github.com/nhath/ezgrid/internal/db"
)

const (
	demoTable       = "people"
	defaultDemoRows = 100000
)

var demoSchema = `
	CREATE TABLE IF NOT EXISTS people (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		city TEXT,
		score REAL,
		balance BIGINT,
		active BOOLEAN,
		joined DATE
	)`

// demoRows generates every row in one statement
var demoRows = `
	WITH RECURSIVE seq(n) AS (
		SELECT 1 UNION ALL SELECT n + 1 FROM seq WHERE n < ?
	)
	INSERT INTO people (id, name, email, city, score, balance, active, joined)
	SELECT
		n,
		'person-' || printf('%07d', n),
		CASE WHEN n % 13 = 0 THEN NULL ELSE 'person' || n || '@example.com' END,
		CASE n % 5 WHEN 0 THEN 'Hanoi' WHEN 1 THEN 'Lisbon' WHEN 2 THEN 'Austin' WHEN 3 THEN 'Osaka' ELSE 'Nairobi' END,
		round((n * 7919 % 10000) / 100.0, 2),
		9007199254740000 + n,
		n % 3 <> 0,
		date('2020-01-01', '+' || (n % 1800) || ' days')
	FROM seq`

// seedDemo creates and fills the demo table on an in-memory SQLite driver
func seedDemo(ctx context.Context, d db.Driver, rows int) error {
	if _, err := d.Exec(ctx, demoSchema); err != nil {
		return err
	}
	if rows <= 0 {
		return nil
	}
	_, err := d.Exec(ctx, demoRows, rows)
	return err
}
