// internal/query/source.go
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhath/ezgrid/internal/schema"
)

var (
	// ErrUnknownColumn is returned when a sort, filter or column subset names
	// a column the table does not have
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownTable is returned by sources that know their tables up front
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnsupportedOp is returned for a filter operator a source cannot apply
	ErrUnsupportedOp = errors.New("unsupported filter operator")
)

// Field is a column name and its declared SQL type as reported by the
// backend
type Field struct {
	Column  string
	SQLType string
}

// Op is a filter comparison operator
type Op string

const (
	OpEq      Op = "="
	OpNe      Op = "<>"
	OpLt      Op = "<"
	OpLe      Op = "<="
	OpGt      Op = ">"
	OpGe      Op = ">="
	OpLike    Op = "LIKE"
	OpIn      Op = "IN"
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

// Condition compares one column against a value. For OpIn, Value is a
// []any; for the null checks it is ignored.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

func (c Condition) String() string {
	switch c.Op {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf("%s %s", c.Column, c.Op)
	}
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

// Filter is a conjunction of conditions. The zero Filter matches every row.
type Filter struct {
	Conditions []Condition
}

// IsEmpty reports whether the filter matches every row
func (f Filter) IsEmpty() bool { return len(f.Conditions) == 0 }

func (f Filter) String() string {
	if f.IsEmpty() {
		return "all"
	}
	parts := make([]string, len(f.Conditions))
	for i, c := range f.Conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// RowsRequest is one windowed, sorted, cast row query
type RowsRequest struct {
	Table   string
	Columns []schema.CastDescriptor
	Sort    Sort
	Filter  Filter
	Offset  int
	Limit   int
}

// Source is the query engine a grid reads from. Implementations may block;
// callers run them off the event loop.
type Source interface {
	// QueryRowCount returns the number of rows in table matching f
	QueryRowCount(ctx context.Context, table string, f Filter) (int, error)
	// QueryRows returns raw records keyed by column name. Every record also
	// carries schema.PositionalKey, the row's 1-based position under
	// req.Sort.
	QueryRows(ctx context.Context, req RowsRequest) ([]map[string]any, error)
	// FetchSchema returns the table's columns in declaration order
	FetchSchema(ctx context.Context, table string) ([]Field, error)
}
