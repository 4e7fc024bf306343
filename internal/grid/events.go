package grid

import (
	"context"

	"github.com/nhath/ezgrid/internal/schema"
)

// Job is backend work the grid wants done. The host runs it off the event
// loop and passes the returned Event to Handle on the loop.
type Job func(ctx context.Context) Event

// Event is the result of a Job
type Event interface {
	grid() string
}

// SchemaLoaded carries the fetched column schemas
type SchemaLoaded struct {
	GridID  string
	Gen     uint64
	Columns []schema.ColumnSchema
	Err     error
}

// CountLoaded carries the total row count under the filter at issue time
type CountLoaded struct {
	GridID string
	Gen    uint64
	Count  int
	Err    error
}

// RowsLoaded carries parsed rows fetched at Offset
type RowsLoaded struct {
	GridID  string
	Gen     uint64
	Offset  int
	Limit   int
	Records []schema.Record
	Err     error
}

func (e SchemaLoaded) grid() string { return e.GridID }
func (e CountLoaded) grid() string  { return e.GridID }
func (e RowsLoaded) grid() string   { return e.GridID }

// Target returns the id of the grid an event belongs to, so a host that
// owns several grids can route it
func Target(e Event) string { return e.grid() }
