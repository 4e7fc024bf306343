// internal/query/clients.go
package query

import (
	"context"
	"fmt"

	"github.com/nhath/ezgrid/internal/schema"
)

// CountRequest is a snapshot of one count query
type CountRequest struct {
	Table  string
	Filter Filter
}

// Run executes the count against src
func (r CountRequest) Run(ctx context.Context, src Source) (int, error) {
	return src.QueryRowCount(ctx, r.Table, r.Filter)
}

// CountClient tracks the total row count of a table under the current
// selection. A selection change marks the count stale and calls the change
// handler so the owner can reissue it.
type CountClient struct {
	table       string
	selection   *Selection
	count       int
	known       bool
	stale       bool
	unsubscribe func()
}

// NewCountClient creates a count client. onChange, if non-nil, runs after
// every selection update.
func NewCountClient(table string, sel *Selection, onChange func()) *CountClient {
	c := &CountClient{table: table, selection: sel, stale: true}
	c.unsubscribe = sel.Subscribe(func(Filter) {
		c.stale = true
		if onChange != nil {
			onChange()
		}
	})
	return c
}

// Request snapshots the current table and filter and clears the stale flag
func (c *CountClient) Request() CountRequest {
	c.stale = false
	return CountRequest{Table: c.table, Filter: c.selection.Current()}
}

// Apply records a count result
func (c *CountClient) Apply(n int) {
	c.count = max(0, n)
	c.known = true
}

// Count returns the last applied count and whether one has arrived
func (c *CountClient) Count() (int, bool) { return c.count, c.known }

// Stale reports whether the selection changed since the last Request
func (c *CountClient) Stale() bool { return c.stale }

// Close stops listening to the selection
func (c *CountClient) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// RowsClient owns the sort and window of a table's row query and shapes
// results into records. It never talks to the backend itself: SetWindow
// only records the desired window, and the owner decides when to run the
// Request.
type RowsClient struct {
	table     string
	columns   []schema.ColumnSchema
	casts     []schema.CastDescriptor
	known     map[string]bool
	selection *Selection

	sort   Sort
	offset int
	limit  int
}

// NewRowsClient creates a rows client over columns
func NewRowsClient(table string, columns []schema.ColumnSchema, sel *Selection) *RowsClient {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.Name] = true
	}
	return &RowsClient{
		table:     table,
		columns:   columns,
		casts:     schema.CastsFor(columns),
		known:     known,
		selection: sel,
	}
}

// Table returns the table name
func (c *RowsClient) Table() string { return c.table }

// Columns returns the column schemas rows are fetched and parsed with
func (c *RowsClient) Columns() []schema.ColumnSchema { return c.columns }

// SetWindow records the window the next Request asks for
func (c *RowsClient) SetWindow(offset, limit int) {
	c.offset = max(0, offset)
	c.limit = max(0, limit)
}

// Window returns the recorded offset and limit
func (c *RowsClient) Window() (offset, limit int) { return c.offset, c.limit }

// Sort returns the current sort
func (c *RowsClient) Sort() Sort { return c.sort }

// SetSort replaces the sort and moves the window back to the first row.
// Every field must name a known column.
func (c *RowsClient) SetSort(s Sort) error {
	for _, f := range s {
		if !c.known[f.Column] {
			return fmt.Errorf("sort by %q: %w", f.Column, ErrUnknownColumn)
		}
	}
	c.sort = append(Sort(nil), s...)
	c.offset = 0
	return nil
}

// Request snapshots the query for the recorded window
func (c *RowsClient) Request() RowsRequest {
	return RowsRequest{
		Table:   c.table,
		Columns: c.casts,
		Sort:    c.sort,
		Filter:  c.selection.Current(),
		Offset:  c.offset,
		Limit:   c.limit,
	}
}

// Parse converts raw records into typed records
func (c *RowsClient) Parse(raw []map[string]any) []schema.Record {
	out := make([]schema.Record, len(raw))
	for i, r := range raw {
		out[i] = schema.ParseRecord(r, c.columns)
	}
	return out
}
