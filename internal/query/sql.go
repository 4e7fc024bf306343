// internal/query/sql.go
package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/nhath/ezgrid/internal/db"
	"github.com/nhath/ezgrid/internal/schema"
)

const (
	tableAlias = "src"
	countAlias = "count"
)

// Statement describes one executed backend statement
type Statement struct {
	Kind     string // count, rows or schema
	Table    string
	SQL      string
	Args     []any
	Duration time.Duration
	Rows     int
	Err      error
}

// Recorder receives every statement a SQLSource executes
type Recorder interface {
	Record(st Statement)
}

// Recorders fans a statement out to several recorders. Nil entries are
// skipped.
type Recorders []Recorder

// Record implements Recorder
func (rs Recorders) Record(st Statement) {
	for _, r := range rs {
		if r != nil {
			r.Record(st)
		}
	}
}

// dialect covers the few places the supported engines disagree
type dialect struct {
	flavor   sqlbuilder.Flavor
	quote    func(string) string
	castText string
}

func quoteDouble(name string) string { return pq.QuoteIdentifier(name) }

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func dialectFor(t db.DriverType) dialect {
	switch t {
	case db.MySQL:
		return dialect{flavor: sqlbuilder.MySQL, quote: quoteBacktick, castText: "CHAR"}
	case db.Postgres:
		return dialect{flavor: sqlbuilder.PostgreSQL, quote: quoteDouble, castText: "TEXT"}
	default:
		return dialect{flavor: sqlbuilder.SQLite, quote: quoteDouble, castText: "TEXT"}
	}
}

// table quotes a possibly schema-qualified table name
func (d dialect) table(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.quote(p)
	}
	return strings.Join(parts, ".")
}

func (d dialect) column(name string) string {
	return d.quote(tableAlias) + "." + d.quote(name)
}

func (d dialect) castTarget(to string) string {
	if to == schema.CastText {
		return d.castText
	}
	return to
}

// SQLSource is a Source over a connected db.Driver
type SQLSource struct {
	driver   db.Driver
	dialect  dialect
	recorder Recorder
	log      logrus.FieldLogger
}

// SQLOption configures a SQLSource
type SQLOption func(*SQLSource)

// WithRecorder sends every executed statement to r
func WithRecorder(r Recorder) SQLOption {
	return func(s *SQLSource) { s.recorder = r }
}

// WithLogger sets the logger statements are traced to
func WithLogger(l logrus.FieldLogger) SQLOption {
	return func(s *SQLSource) { s.log = l }
}

// NewSQLSource creates a source over d. The dialect follows d.Type().
func NewSQLSource(d db.Driver, opts ...SQLOption) *SQLSource {
	s := &SQLSource{
		driver:  d,
		dialect: dialectFor(d.Type()),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLSource) where(sb *sqlbuilder.SelectBuilder, f Filter) error {
	for _, c := range f.Conditions {
		col := s.dialect.column(c.Column)
		var expr string
		switch c.Op {
		case OpEq:
			expr = sb.Equal(col, c.Value)
		case OpNe:
			expr = sb.NotEqual(col, c.Value)
		case OpLt:
			expr = sb.LessThan(col, c.Value)
		case OpLe:
			expr = sb.LessEqualThan(col, c.Value)
		case OpGt:
			expr = sb.GreaterThan(col, c.Value)
		case OpGe:
			expr = sb.GreaterEqualThan(col, c.Value)
		case OpLike:
			expr = sb.Like(col, c.Value)
		case OpIn:
			values, ok := c.Value.([]any)
			if !ok || len(values) == 0 {
				return fmt.Errorf("%s: IN needs a non-empty []any: %w", c.Column, ErrUnsupportedOp)
			}
			expr = sb.In(col, values...)
		case OpIsNull:
			expr = sb.IsNull(col)
		case OpNotNull:
			expr = sb.IsNotNull(col)
		default:
			return fmt.Errorf("%q: %w", c.Op, ErrUnsupportedOp)
		}
		sb.Where(expr)
	}
	return nil
}

// CountSQL builds the count statement for table under f
func (s *SQLSource) CountSQL(table string, f Filter) (string, []any, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.SetFlavor(s.dialect.flavor)
	sb.Select("COUNT(*) AS " + sqlbuilder.Escape(s.dialect.quote(countAlias)))
	sb.From(sqlbuilder.Escape(s.dialect.table(table) + " AS " + s.dialect.quote(tableAlias)))
	if err := s.where(sb, f); err != nil {
		return "", nil, err
	}
	sql, args := sb.Build()
	return sql, args, nil
}

// RowsSQL builds the windowed row statement for req. Cast columns are
// converted to text, every row gets a positional id under the active sort,
// and the window is applied last.
func (s *SQLSource) RowsSQL(req RowsRequest) (string, []any, error) {
	d := s.dialect
	sb := sqlbuilder.NewSelectBuilder()
	sb.SetFlavor(d.flavor)

	cols := make([]string, 0, len(req.Columns)+1)
	for _, c := range req.Columns {
		expr := d.column(c.Column)
		if c.NeedsCast() {
			expr = "CAST(" + expr + " AS " + d.castTarget(c.CastTo) + ")"
		}
		cols = append(cols, expr+" AS "+d.quote(c.Column))
	}

	order := make([]string, len(req.Sort))
	for i, f := range req.Sort {
		order[i] = d.column(f.Column)
		if f.Desc {
			order[i] += " DESC"
		}
	}
	oid := d.quote(schema.PositionalKey)
	over := "ROW_NUMBER() OVER ()"
	if len(order) > 0 {
		over = "ROW_NUMBER() OVER (ORDER BY " + strings.Join(order, ", ") + ")"
	}
	cols = append(cols, over+" AS "+oid)

	// identifiers go into the format string, where '$' is special
	sb.Select(sqlbuilder.EscapeAll(cols...)...)
	sb.From(sqlbuilder.Escape(d.table(req.Table) + " AS " + d.quote(tableAlias)))
	if err := s.where(sb, req.Filter); err != nil {
		return "", nil, err
	}
	sb.OrderBy(sqlbuilder.EscapeAll(append(order, oid)...)...)
	if req.Limit > 0 {
		sb.Limit(req.Limit)
		sb.Offset(max(0, req.Offset))
	}

	sql, args := sb.Build()
	return sql, args, nil
}

func (s *SQLSource) record(st Statement) {
	l := s.log.WithFields(logrus.Fields{
		"kind":     st.Kind,
		"table":    st.Table,
		"rows":     st.Rows,
		"duration": st.Duration,
	})
	if st.Err != nil {
		l.WithError(st.Err).Warn("query failed")
	} else {
		l.Debug("query executed")
	}
	if s.recorder != nil {
		s.recorder.Record(st)
	}
}

func (s *SQLSource) run(ctx context.Context, kind, table, sql string, args []any) (*db.Result, error) {
	start := time.Now()
	res, err := s.driver.Query(ctx, sql, args...)
	st := Statement{Kind: kind, Table: table, SQL: sql, Args: args, Duration: time.Since(start), Err: err}
	if res != nil {
		st.Rows = res.RowCount()
	}
	s.record(st)
	return res, err
}

// QueryRowCount implements Source
func (s *SQLSource) QueryRowCount(ctx context.Context, table string, f Filter) (int, error) {
	sql, args, err := s.CountSQL(table, f)
	if err != nil {
		return 0, err
	}
	res, err := s.run(ctx, "count", table, sql, args)
	if err != nil {
		return 0, err
	}
	if res.RowCount() != 1 {
		return 0, db.WrapQueryError(fmt.Errorf("count returned %d rows", res.RowCount()))
	}
	return toInt(res.Records[0][countAlias])
}

// QueryRows implements Source
func (s *SQLSource) QueryRows(ctx context.Context, req RowsRequest) ([]map[string]any, error) {
	sql, args, err := s.RowsSQL(req)
	if err != nil {
		return nil, err
	}
	res, err := s.run(ctx, "rows", req.Table, sql, args)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// FetchSchema implements Source
func (s *SQLSource) FetchSchema(ctx context.Context, table string) ([]Field, error) {
	start := time.Now()
	cols, err := s.driver.GetColumns(ctx, table)
	s.record(Statement{Kind: "schema", Table: table, Duration: time.Since(start), Rows: len(cols), Err: err})
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(cols))
	for i, c := range cols {
		fields[i] = Field{Column: c.Name, SQLType: c.Type}
	}
	return fields, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	case []byte:
		return strconv.Atoi(string(n))
	case string:
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("unexpected count value %T", v)
}
