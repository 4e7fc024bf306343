// internal/query/memory.go
package query

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/nhath/ezgrid/internal/schema"
)

type memTable struct {
	fields []Field
	known  map[string]bool
	rows   []map[string]any
}

// MemorySource is a Source over rows held in memory. Filtering, sorting and
// windowing happen locally with schema.Compare ordering.
type MemorySource struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

// NewMemorySource creates an empty source
func NewMemorySource() *MemorySource {
	return &MemorySource{tables: make(map[string]*memTable)}
}

// AddTable registers (or replaces) a table. Rows are kept by reference;
// callers must not mutate them afterwards.
func (m *MemorySource) AddTable(name string, fields []Field, rows []map[string]any) {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Column] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &memTable{
		fields: slices.Clone(fields),
		known:  known,
		rows:   rows,
	}
}

func (m *MemorySource) table(name string) (*memTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownTable)
	}
	return t, nil
}

// FetchSchema implements Source
func (m *MemorySource) FetchSchema(ctx context.Context, table string) ([]Field, error) {
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	return slices.Clone(t.fields), nil
}

// QueryRowCount implements Source
func (m *MemorySource) QueryRowCount(ctx context.Context, table string, f Filter) (int, error) {
	t, err := m.table(table)
	if err != nil {
		return 0, err
	}
	rows, err := t.filter(f)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// QueryRows implements Source
func (m *MemorySource) QueryRows(ctx context.Context, req RowsRequest) ([]map[string]any, error) {
	t, err := m.table(req.Table)
	if err != nil {
		return nil, err
	}
	for _, c := range req.Columns {
		if !t.known[c.Column] {
			return nil, fmt.Errorf("%q: %w", c.Column, ErrUnknownColumn)
		}
	}
	for _, f := range req.Sort {
		if !t.known[f.Column] {
			return nil, fmt.Errorf("sort by %q: %w", f.Column, ErrUnknownColumn)
		}
	}

	rows, err := t.filter(req.Filter)
	if err != nil {
		return nil, err
	}
	if len(req.Sort) > 0 {
		slices.SortStableFunc(rows, func(a, b map[string]any) int {
			for _, f := range req.Sort {
				c := schema.Compare(a[f.Column], b[f.Column])
				if f.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	start := min(max(0, req.Offset), len(rows))
	end := len(rows)
	if req.Limit > 0 {
		end = min(start+req.Limit, len(rows))
	}

	out := make([]map[string]any, 0, end-start)
	for i := start; i < end; i++ {
		rec := make(map[string]any, len(req.Columns)+1)
		for _, c := range req.Columns {
			v := rows[i][c.Column]
			if c.NeedsCast() && v != nil {
				v = schema.Format(v)
			}
			rec[c.Column] = v
		}
		rec[schema.PositionalKey] = int64(i + 1)
		out = append(out, rec)
	}
	return out, nil
}

func (t *memTable) filter(f Filter) ([]map[string]any, error) {
	preds := make([]func(map[string]any) bool, len(f.Conditions))
	for i, c := range f.Conditions {
		if !t.known[c.Column] {
			return nil, fmt.Errorf("filter on %q: %w", c.Column, ErrUnknownColumn)
		}
		p, err := predicate(c)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}

	out := make([]map[string]any, 0, len(t.rows))
rows:
	for _, r := range t.rows {
		for _, p := range preds {
			if !p(r) {
				continue rows
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func predicate(c Condition) (func(map[string]any) bool, error) {
	col := c.Column
	compare := func(ok func(int) bool) func(map[string]any) bool {
		return func(r map[string]any) bool {
			v := r[col]
			if v == nil || c.Value == nil {
				return false
			}
			return ok(schema.Compare(v, c.Value))
		}
	}

	switch c.Op {
	case OpEq:
		return compare(func(n int) bool { return n == 0 }), nil
	case OpNe:
		return compare(func(n int) bool { return n != 0 }), nil
	case OpLt:
		return compare(func(n int) bool { return n < 0 }), nil
	case OpLe:
		return compare(func(n int) bool { return n <= 0 }), nil
	case OpGt:
		return compare(func(n int) bool { return n > 0 }), nil
	case OpGe:
		return compare(func(n int) bool { return n >= 0 }), nil
	case OpLike:
		pattern, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%s: LIKE needs a string pattern: %w", col, ErrUnsupportedOp)
		}
		re, err := likePattern(pattern)
		if err != nil {
			return nil, err
		}
		return func(r map[string]any) bool {
			v := r[col]
			if v == nil {
				return false
			}
			return re.MatchString(schema.Format(v))
		}, nil
	case OpIn:
		values, ok := c.Value.([]any)
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("%s: IN needs a non-empty []any: %w", col, ErrUnsupportedOp)
		}
		return func(r map[string]any) bool {
			v := r[col]
			if v == nil {
				return false
			}
			return slices.ContainsFunc(values, func(w any) bool { return schema.Compare(v, w) == 0 })
		}, nil
	case OpIsNull:
		return func(r map[string]any) bool { return r[col] == nil }, nil
	case OpNotNull:
		return func(r map[string]any) bool { return r[col] != nil }, nil
	}
	return nil, fmt.Errorf("%q: %w", c.Op, ErrUnsupportedOp)
}

// likePattern translates a SQL LIKE pattern (% and _ wildcards) to an
// anchored regexp
func likePattern(p string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range p {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile("(?s)" + b.String())
}
