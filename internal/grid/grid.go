// internal/grid/grid.go
package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nhath/ezgrid/internal/layout"
	"github.com/nhath/ezgrid/internal/metrics"
	"github.com/nhath/ezgrid/internal/query"
	"github.com/nhath/ezgrid/internal/schema"
	"github.com/nhath/ezgrid/internal/scroll"
	"github.com/nhath/ezgrid/internal/store"
)

// ErrNotReady is returned by operations that need the table schema before
// it has loaded
var ErrNotReady = errors.New("grid: schema not loaded")

// Options configures a Grid
type Options struct {
	Table string
	// Columns restricts and orders the displayed columns. Empty shows every
	// column of the table.
	Columns []string
	// Specs overrides the sizing of individual columns by key. Columns
	// without a spec share the free width equally.
	Specs []layout.ColumnSpec
	// Overscan is the number of rows rendered beyond each edge of the
	// viewport. Zero uses scroll.DefaultOverscan; negative disables it.
	Overscan      int
	RootFontSize  float64
	TableFontSize float64
	RowHeight     *layout.RowHeightConfig

	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// Grid drives one displayed table: it turns scroll, resize, sort and filter
// changes into backend queries and merges their results into a sparse row
// cache the renderer reads from.
//
// A Grid is owned by a single event loop. It never starts goroutines;
// backend work is handed out through Jobs and comes back through Handle.
type Grid struct {
	id        string
	table     string
	opts      Options
	src       query.Source
	selection *query.Selection
	log       logrus.FieldLogger
	metrics   *metrics.Metrics

	layout    *layout.Engine
	scroll    *scroll.Coordinator
	coalescer scroll.Coalescer
	store     *store.Store
	count     *query.CountClient
	rows      *query.RowsClient
	columns   []schema.ColumnSchema

	frame scroll.Frame
	jobs  []Job
	err   error

	schemaPending bool
	countPending  bool

	schemaGen   uint64
	countGen    uint64
	rowsGen     uint64
	rowsFloor   uint64 // results issued at or below this predate the last reset
	rowsSettled uint64
	lastMerged  uint64

	version   uint64
	nextSub   int
	listeners map[int]func(uint64)
}

// New creates a grid over src. sel may be nil when the table is never
// cross-filtered.
func New(src query.Source, sel *query.Selection, opts Options) *Grid {
	overscan := opts.Overscan
	switch {
	case overscan == 0:
		overscan = scroll.DefaultOverscan
	case overscan < 0:
		overscan = 0
	}
	root := opts.RootFontSize
	if root <= 0 {
		root = layout.DefaultRootFontSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.NewString()

	g := &Grid{
		id:        id,
		table:     opts.Table,
		opts:      opts,
		src:       src,
		selection: sel,
		log:       logger.WithFields(logrus.Fields{"grid": id, "table": opts.Table}),
		metrics:   opts.Metrics,
		layout:    layout.NewEngine(root, opts.TableFontSize),
		scroll:    scroll.NewCoordinator(overscan),
		store:     store.New(),
		listeners: make(map[int]func(uint64)),
	}
	if opts.RowHeight != nil {
		g.layout.SetRowHeight(*opts.RowHeight)
	}
	g.scroll.SetRowHeight(float64(g.layout.Layout().RowHeight))
	g.count = query.NewCountClient(opts.Table, sel, g.selectionChanged)
	return g
}

// ID returns the grid's instance id
func (g *Grid) ID() string { return g.id }

// Table returns the displayed table
func (g *Grid) Table() string { return g.table }

// Init queues the schema fetch. It may be called again to reload the
// table from scratch.
func (g *Grid) Init() {
	g.schemaGen++
	gen := g.schemaGen
	src, table, columns := g.src, g.table, g.opts.Columns
	g.schemaPending = true
	g.err = nil
	g.enqueue(func(ctx context.Context) Event {
		cols, err := query.FetchSchema(ctx, src, table, columns)
		return SchemaLoaded{GridID: g.id, Gen: gen, Columns: cols, Err: err}
	})
	g.bump()
}

// Jobs returns and clears the queued backend work
func (g *Grid) Jobs() []Job {
	jobs := g.jobs
	g.jobs = nil
	return jobs
}

// Pending reports whether backend work is queued
func (g *Grid) Pending() bool { return len(g.jobs) > 0 }

func (g *Grid) enqueue(j Job) {
	g.jobs = append(g.jobs, j)
}

// Handle applies a job result. Events for other grids are ignored.
func (g *Grid) Handle(e Event) {
	if e == nil || e.grid() != g.id {
		return
	}
	switch ev := e.(type) {
	case SchemaLoaded:
		g.handleSchema(ev)
	case CountLoaded:
		g.handleCount(ev)
	case RowsLoaded:
		g.handleRows(ev)
	}
}

func (g *Grid) handleSchema(ev SchemaLoaded) {
	if ev.Gen != g.schemaGen {
		return
	}
	g.schemaPending = false
	if ev.Err != nil {
		g.log.WithError(ev.Err).Error("failed to load schema")
		g.fail(fmt.Errorf("load schema: %w", ev.Err))
		return
	}

	g.columns = ev.Columns
	g.rows = query.NewRowsClient(g.table, ev.Columns, g.selection)
	g.layout.Configure(g.columnSpecs())
	g.scroll.SetTotalWidth(float64(g.layout.Layout().TotalWidth))
	g.resetData()
	g.log.WithField("columns", len(ev.Columns)).Debug("schema loaded")

	g.issueCount()
	g.bump()
}

func (g *Grid) handleCount(ev CountLoaded) {
	if ev.Gen != g.countGen {
		return
	}
	g.countPending = false
	if ev.Err != nil {
		g.log.WithError(ev.Err).Error("failed to count rows")
		g.fail(fmt.Errorf("count rows: %w", ev.Err))
		return
	}

	g.count.Apply(ev.Count)
	total, _ := g.count.Count()
	if total != g.store.TotalRows() {
		// a window issued against the old total may stop short of the new one
		g.scroll.ResetWindow()
	}
	g.store.SetTotalRows(total)
	g.scroll.SetTotalRows(total)
	g.log.WithField("rows", total).Debug("row count loaded")
	g.refresh()
	g.bump()
}

func (g *Grid) handleRows(ev RowsLoaded) {
	if ev.Gen == g.rowsGen {
		g.rowsSettled = ev.Gen
	}
	fields := logrus.Fields{"gen": ev.Gen, "offset": ev.Offset, "limit": ev.Limit}

	if ev.Gen <= g.rowsFloor || ev.Gen <= g.lastMerged {
		g.log.WithFields(fields).Debug("dropping stale rows")
		g.metrics.Dropped(g.table)
		g.bump()
		return
	}
	if ev.Err != nil {
		// keep whatever is cached
		g.log.WithFields(fields).WithError(ev.Err).Warn("failed to fetch rows")
		g.bump()
		return
	}

	n := g.store.MergeRows(ev.Offset, ev.Records)
	g.lastMerged = ev.Gen
	g.metrics.Merged(g.table, n)
	g.metrics.Cached(g.table, g.store.Len())
	g.log.WithFields(fields).WithField("merged", n).Debug("rows merged")
	g.bump()
}

func (g *Grid) fail(err error) {
	g.err = err
	g.schemaPending = false
	g.countPending = false
	g.rowsSettled = g.rowsGen
	g.bump()
}

// selectionChanged runs synchronously inside Selection.Update
func (g *Grid) selectionChanged() {
	if g.rows == nil {
		// the count issued once the schema loads reads the new filter
		return
	}
	g.log.WithField("filter", g.selection.Current().String()).Debug("selection changed")
	g.resetData()
	// rows wait for the count so the window is sized against the new total
	g.issueCount()
	g.bump()
}

// resetData forgets cached rows and the issued window, and invalidates
// every rows request still in flight
func (g *Grid) resetData() {
	g.store.Clear()
	g.metrics.Cached(g.table, 0)
	g.scroll.ResetWindow()
	g.rowsFloor = g.rowsGen
}

func (g *Grid) issueCount() {
	g.countGen++
	gen := g.countGen
	req := g.count.Request()
	src := g.src
	g.countPending = true
	g.enqueue(func(ctx context.Context) Event {
		n, err := req.Run(ctx, src)
		return CountLoaded{GridID: g.id, Gen: gen, Count: n, Err: err}
	})
}

func (g *Grid) issueRows() {
	g.rowsGen++
	gen := g.rowsGen
	req := g.rows.Request()
	parse := g.rows.Parse
	src := g.src
	g.log.WithFields(logrus.Fields{"gen": gen, "offset": req.Offset, "limit": req.Limit}).Debug("fetching rows")
	g.enqueue(func(ctx context.Context) Event {
		ev := RowsLoaded{GridID: g.id, Gen: gen, Offset: req.Offset, Limit: req.Limit}
		raw, err := src.QueryRows(ctx, req)
		if err != nil {
			ev.Err = err
			return ev
		}
		ev.Records = parse(raw)
		return ev
	})
}

// refresh recomputes the row ranges, requests a new window when the
// current one no longer serves the render range, and evicts rows outside
// the retention range
func (g *Grid) refresh() {
	g.frame = g.scroll.Update()
	if g.rows != nil && g.frame.Fetch != nil {
		g.rows.SetWindow(g.frame.Fetch.Offset, g.frame.Fetch.Limit)
		g.issueRows()
	}

	ret := g.frame.Retention
	if ret.Empty() || g.store.Len() == 0 {
		return
	}
	if n := g.store.Evict(ret.Start, ret.End-1); n > 0 {
		g.metrics.Evicted(g.table, n)
		g.metrics.Cached(g.table, g.store.Len())
		g.log.WithField("evicted", n).Debug("rows evicted")
	}
}

func (g *Grid) columnSpecs() []layout.ColumnSpec {
	overrides := make(map[string]layout.ColumnSpec, len(g.opts.Specs))
	for _, s := range g.opts.Specs {
		overrides[s.Key] = s
	}
	specs := make([]layout.ColumnSpec, len(g.columns))
	for i, c := range g.columns {
		if s, ok := overrides[c.Name]; ok {
			specs[i] = s
			continue
		}
		specs[i] = layout.ColumnSpec{Key: c.Name}
	}
	return specs
}

// Configure replaces the column sizing overrides. The layout is recomputed
// and cached rows are refetched.
func (g *Grid) Configure(specs []layout.ColumnSpec) {
	g.opts.Specs = append([]layout.ColumnSpec(nil), specs...)
	if g.rows == nil {
		return
	}
	g.layout.Configure(g.columnSpecs())
	g.scroll.SetTotalWidth(float64(g.layout.Layout().TotalWidth))
	g.resetData()
	g.refresh()
	g.bump()
}

// SetSort replaces the sort. The cache is cleared, the view returns to the
// first row and a fresh window is fetched from offset 0.
func (g *Grid) SetSort(s query.Sort) error {
	if g.rows == nil {
		return ErrNotReady
	}
	if err := g.rows.SetSort(s); err != nil {
		return err
	}
	g.log.WithField("sort", g.rows.Sort().String()).Debug("sort changed")
	g.resetData()
	g.scroll.ScrollToTop()
	g.refresh()
	g.bump()
	return nil
}

// ToggleSort advances column through unsorted, ascending and descending.
// Without multi the column replaces any other sort.
func (g *Grid) ToggleSort(column string, multi bool) error {
	if g.rows == nil {
		return ErrNotReady
	}
	return g.SetSort(query.NextSort(g.rows.Sort(), column, multi))
}

// Close detaches the grid from its selection
func (g *Grid) Close() {
	g.count.Close()
	clear(g.listeners)
}

// Subscribe registers fn to run after every version change and returns a
// function that removes it
func (g *Grid) Subscribe(fn func(version uint64)) func() {
	id := g.nextSub
	g.nextSub++
	g.listeners[id] = fn
	return func() { delete(g.listeners, id) }
}

func (g *Grid) bump() {
	g.version++
	for _, fn := range g.listeners {
		fn(g.version)
	}
}
