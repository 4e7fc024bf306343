package grid

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/nhath/ezgrid/internal/layout"
	"github.com/nhath/ezgrid/internal/metrics"
	"github.com/nhath/ezgrid/internal/query"
	"github.com/nhath/ezgrid/internal/scroll"
)

const testRows = 1000

func peopleSource(n int) *query.MemorySource {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{"id": int64(i), "name": fmt.Sprintf("name-%04d", i)}
	}
	src := query.NewMemorySource()
	src.AddTable("people", []query.Field{
		{Column: "id", SQLType: "INTEGER"},
		{Column: "name", SQLType: "TEXT"},
	}, rows)
	return src
}

// flakySource fails row queries on demand
type flakySource struct {
	*query.MemorySource
	failRows bool
}

func (s *flakySource) QueryRows(ctx context.Context, req query.RowsRequest) ([]map[string]any, error) {
	if s.failRows {
		return nil, errors.New("connection reset")
	}
	return s.MemorySource.QueryRows(ctx, req)
}

func testOptions() Options {
	logger, _ := test.NewNullLogger()
	return Options{
		Table:     "people",
		RowHeight: &layout.RowHeightConfig{LineHeight: layout.Px(32), NumLines: 1},
		Logger:    logger,
	}
}

func run(g *Grid, jobs []Job) {
	for _, j := range jobs {
		g.Handle(j(context.Background()))
	}
}

func drain(g *Grid) {
	for g.Pending() {
		run(g, g.Jobs())
	}
}

// loadedGrid returns a grid at the top of a fully loaded first window
func loadedGrid(t *testing.T, src query.Source, sel *query.Selection) *Grid {
	t.Helper()
	g := New(src, sel, testOptions())
	t.Cleanup(g.Close)
	g.Resize(800, 640)
	g.Init()
	drain(g)
	if err := g.Err(); err != nil {
		t.Fatalf("grid failed to load: %v", err)
	}
	return g
}

func names(rows []VisibleRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		if r.Record == nil {
			out[i] = "<missing>"
			continue
		}
		out[i] = fmt.Sprint(r.Record["name"])
	}
	return out
}

func TestGridLoads(t *testing.T) {
	g := loadedGrid(t, peopleSource(testRows), nil)

	if g.TotalRows() != testRows || g.TotalHeight() != testRows*32 {
		t.Errorf("unexpected size: %d rows, %v px", g.TotalRows(), g.TotalHeight())
	}
	if g.Loading() {
		t.Error("grid should not be loading once drained")
	}
	if w, _ := g.Window(); w != (scroll.Window{Offset: 0, Limit: 60}) {
		t.Errorf("unexpected window %+v", w)
	}
	if g.CachedRows() != 60 {
		t.Errorf("expected 60 cached rows, got %d", g.CachedRows())
	}

	rows := g.VisibleRows()
	if len(rows) != 25 {
		t.Fatalf("expected 25 rows in the render range, got %d", len(rows))
	}
	last := rows[24]
	if last.Index != 24 || last.Key != "24" || last.Top != 768 || last.Record["name"] != "name-0024" {
		t.Errorf("unexpected row %+v", last)
	}
	if oid, _ := last.Record.Oid(); oid != 25 {
		t.Errorf("expected positional id 25, got %d", oid)
	}

	l := g.Layout()
	if l.TotalWidth != 800 || l.Width("id") != 400 || l.Offset("name") != 400 || l.RowHeight != 32 {
		t.Errorf("unexpected layout %+v", l)
	}
	if len(g.Schema()) != 2 {
		t.Errorf("expected 2 columns, got %d", len(g.Schema()))
	}
}

func TestGridScrollFetchesAndEvicts(t *testing.T) {
	g := loadedGrid(t, peopleSource(testRows), nil)

	g.ScrollToRow(500)
	if g.ScrollTop() != 500*32 {
		t.Fatalf("expected scrollTop %d, got %v", 500*32, g.ScrollTop())
	}
	if !g.Loading() {
		t.Error("a new window should be loading")
	}
	if g.CachedRows() != 0 || g.Stats().Evictions != 60 {
		t.Errorf("rows outside the retention range should be evicted, cached=%d evictions=%d",
			g.CachedRows(), g.Stats().Evictions)
	}
	drain(g)

	if w, _ := g.Window(); w != (scroll.Window{Offset: 480, Limit: 60}) {
		t.Errorf("unexpected window %+v", w)
	}
	want := []scroll.Range{{Start: 500, End: 520}, {Start: 495, End: 525}, {Start: 410, End: 610}}
	f := g.Ranges()
	if diff := cmp.Diff(want, []scroll.Range{f.Visible, f.Render, f.Retention}); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
	rows := g.VisibleRows()
	if rows[0].Index != 495 || rows[0].Record["name"] != "name-0495" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
}

func TestGridSmallScrollKeepsWindow(t *testing.T) {
	g := loadedGrid(t, peopleSource(testRows), nil)
	g.ScrollToRow(3)
	if g.Pending() {
		t.Error("a render range well inside the window should not refetch")
	}
}

func TestGridDropsStaleRows(t *testing.T) {
	g := New(peopleSource(testRows), nil, testOptions())
	defer g.Close()
	g.Resize(800, 640)
	g.Init()
	run(g, g.Jobs()) // schema
	run(g, g.Jobs()) // count

	first := g.Jobs()
	g.ScrollToRow(500)
	second := g.Jobs()
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one rows job each, got %d and %d", len(first), len(second))
	}

	run(g, second)
	run(g, first)

	if g.Loading() {
		t.Error("the newest request has settled")
	}
	if g.store.HasRow(0) {
		t.Error("the stale first window should have been dropped")
	}
	if g.CachedRows() != 60 || !g.store.HasRow(480) {
		t.Errorf("expected the second window only, got %v", g.store.Indices())
	}
}

func TestGridSortCycle(t *testing.T) {
	g := loadedGrid(t, peopleSource(testRows), nil)
	g.ScrollToRow(500)
	drain(g)

	steps := []struct {
		sort  query.Sort
		first string
	}{
		{query.Sort{{Column: "name"}}, "name-0000"},
		{query.Sort{{Column: "name", Desc: true}}, "name-0999"},
		{nil, "name-0000"},
	}
	for i, step := range steps {
		if err := g.ToggleSort("name", false); err != nil {
			t.Fatalf("step %d: ToggleSort failed: %v", i, err)
		}
		if diff := cmp.Diff(step.sort, g.Sort()); diff != "" {
			t.Fatalf("step %d: sort mismatch (-want +got):\n%s", i, diff)
		}
		if g.CachedRows() != 0 {
			t.Errorf("step %d: sort should clear the cache", i)
		}
		if off, _ := g.rows.Window(); off != 0 {
			t.Errorf("step %d: sort should reset the offset, got %d", i, off)
		}
		if g.ScrollTop() != 0 {
			t.Errorf("step %d: sort should scroll to the top", i)
		}
		drain(g)
		if got := names(g.VisibleRows())[0]; got != step.first {
			t.Errorf("step %d: expected first row %s, got %s", i, step.first, got)
		}
	}

	if err := g.ToggleSort("nope", false); !errors.Is(err, query.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestGridSortDropsInflightRows(t *testing.T) {
	g := New(peopleSource(testRows), nil, testOptions())
	defer g.Close()
	g.Resize(800, 640)

	if err := g.SetSort(query.Sort{{Column: "name"}}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before the schema loads, got %v", err)
	}

	g.Init()
	run(g, g.Jobs())
	run(g, g.Jobs())
	unsorted := g.Jobs()

	if err := g.SetSort(query.Sort{{Column: "name", Desc: true}}); err != nil {
		t.Fatalf("SetSort failed: %v", err)
	}
	run(g, unsorted)
	if g.CachedRows() != 0 {
		t.Fatal("rows issued before the sort change must not be merged")
	}
	drain(g)
	if got := names(g.VisibleRows())[0]; got != "name-0999" {
		t.Errorf("expected the sorted window, got %s", got)
	}
}

func TestGridSelectionRefetches(t *testing.T) {
	sel := query.NewSelection()
	g := loadedGrid(t, peopleSource(testRows), sel)

	sel.Update(query.Filter{Conditions: []query.Condition{{Column: "id", Op: query.OpLt, Value: 100}}})
	if g.CachedRows() != 0 {
		t.Error("a selection change should clear the cache")
	}
	if !g.Loading() || !g.Pending() {
		t.Fatal("a selection change should reissue count and rows")
	}
	drain(g)

	if g.TotalRows() != 100 || g.TotalHeight() != 3200 {
		t.Errorf("expected 100 filtered rows, got %d", g.TotalRows())
	}
	if g.CachedRows() != 60 {
		t.Errorf("expected 60 cached rows, got %d", g.CachedRows())
	}
}

func TestGridSelectionWaitsForCount(t *testing.T) {
	sel := query.NewSelection()
	sel.Update(query.Filter{Conditions: []query.Condition{{Column: "id", Op: query.OpLt, Value: 10}}})
	g := loadedGrid(t, peopleSource(testRows), sel)
	if g.TotalRows() != 10 {
		t.Fatalf("expected 10 filtered rows, got %d", g.TotalRows())
	}

	sel.Update(query.Filter{})
	if jobs := len(g.jobs); jobs != 1 {
		t.Fatalf("expected only the count job before the total is known, got %d jobs", jobs)
	}
	// a viewport change while the count is in flight still sizes a window
	// against the old total
	g.Resize(800, 600)
	jobs := g.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected count and rows jobs, got %d", len(jobs))
	}

	// rows land before the count
	run(g, []Job{jobs[1], jobs[0]})
	drain(g)

	if g.TotalRows() != testRows {
		t.Fatalf("expected %d rows, got %d", testRows, g.TotalRows())
	}
	render := g.Ranges().Render
	if render.Empty() {
		t.Fatal("expected a render range")
	}
	for i := render.Start; i < render.End; i++ {
		if !g.store.HasRow(i) {
			t.Fatalf("row %d of render range %+v is not cached", i, render)
		}
	}
	if got := names(g.VisibleRows()); got[len(got)-1] == "<missing>" {
		t.Errorf("expected every visible row loaded, got %v", got)
	}
}

func TestGridSchemaFailure(t *testing.T) {
	opts := testOptions()
	opts.Table = "missing"
	g := New(peopleSource(10), nil, opts)
	defer g.Close()
	g.Resize(800, 640)
	g.Init()
	if !g.Loading() {
		t.Error("expected loading while the schema is fetched")
	}
	drain(g)

	if !errors.Is(g.Err(), query.ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", g.Err())
	}
	if g.Loading() || g.Pending() || len(g.VisibleRows()) != 0 {
		t.Error("a failed grid should render empty and issue nothing")
	}
}

func TestGridRowFailureKeepsData(t *testing.T) {
	src := &flakySource{MemorySource: peopleSource(testRows)}
	g := loadedGrid(t, src, nil)

	src.failRows = true
	g.ScrollToRow(100)
	drain(g)

	if g.Err() != nil {
		t.Errorf("row failures are not fatal, got %v", g.Err())
	}
	if g.Loading() {
		t.Error("a failed fetch should stop loading")
	}
	if g.CachedRows() != 50 || !g.store.HasRow(59) {
		t.Errorf("expected rows 10-59 to survive, got %d rows", g.CachedRows())
	}
}

func TestGridCoalescesInput(t *testing.T) {
	g := loadedGrid(t, peopleSource(testRows), nil)
	bumps := 0
	unsub := g.Subscribe(func(uint64) { bumps++ })
	defer unsub()

	feed := &scroll.Feed{}
	detach := g.AttachInput(feed)
	for range 3 {
		feed.Emit(scroll.Delta{DY: 32})
	}
	detach()
	feed.Emit(scroll.Delta{DY: 32})

	if g.ScrollTop() != 0 || bumps != 0 || !g.PendingInput() {
		t.Fatalf("input should wait for the frame, top=%v bumps=%d", g.ScrollTop(), bumps)
	}
	if !g.Frame() {
		t.Fatal("expected the frame to move")
	}
	if g.ScrollTop() != 96 || bumps != 1 {
		t.Errorf("expected one update to 96, got top=%v bumps=%d", g.ScrollTop(), bumps)
	}
	if g.Frame() {
		t.Error("a frame without input should not move")
	}
	if g.Pending() {
		t.Error("a small scroll should not refetch")
	}
}

func TestGridDrag(t *testing.T) {
	g := loadedGrid(t, peopleSource(testRows), nil)

	g.ScrollBy(scroll.Delta{DY: 64})
	if !g.BeginDrag() || g.BeginDrag() {
		t.Fatal("expected exactly one drag to start")
	}
	if g.PendingInput() {
		t.Error("starting a drag should drop pending input")
	}
	g.ScrollBy(scroll.Delta{DY: 1000})
	if g.PendingInput() {
		t.Error("input should be discarded while dragging")
	}

	g.DragTo(0.5)
	if g.ScrollTop() != 500*32 || !g.Dragging() {
		t.Errorf("expected drag to row 500, got top=%v", g.ScrollTop())
	}
	g.CancelDrag()
	if g.Dragging() || g.ScrollTop() != 500*32 {
		t.Error("cancel should end the drag where it stands")
	}
}

func TestGridColumnSpecs(t *testing.T) {
	opts := testOptions()
	px := layout.Px(100)
	opts.Specs = []layout.ColumnSpec{{Key: "id", Width: &px}}
	g := New(peopleSource(testRows), nil, opts)
	defer g.Close()
	g.Resize(800, 640)
	g.Init()
	drain(g)

	l := g.Layout()
	if l.Width("id") != 100 || l.Width("name") != 700 {
		t.Errorf("unexpected widths %d/%d", l.Width("id"), l.Width("name"))
	}

	g.ScrollToX(50)
	if g.ScrollLeft() != 0 {
		t.Error("columns fit the viewport, so there is nothing to scroll")
	}

	g.Configure(nil)
	if g.Layout().Width("id") != 400 || g.CachedRows() != 0 || !g.Pending() {
		t.Error("reconfiguring should relayout and refetch")
	}
}

func TestGridColumnSubset(t *testing.T) {
	opts := testOptions()
	opts.Columns = []string{"name"}
	g := New(peopleSource(testRows), nil, opts)
	defer g.Close()
	g.Resize(800, 640)
	g.Init()
	drain(g)

	rec := g.VisibleRows()[0].Record
	if _, ok := rec["id"]; ok || rec["name"] != "name-0000" {
		t.Errorf("expected only the name column, got %v", rec)
	}
}

func TestGridMetrics(t *testing.T) {
	opts := testOptions()
	opts.Metrics = metrics.New(prometheus.NewRegistry())
	g := New(peopleSource(testRows), nil, opts)
	defer g.Close()
	g.Resize(800, 640)
	g.Init()
	run(g, g.Jobs())
	run(g, g.Jobs())
	stale := g.Jobs()
	g.ScrollToRow(500)
	drain(g)
	run(g, stale)

	if got := testutil.ToFloat64(opts.Metrics.RowsMerged.WithLabelValues("people")); got != 60 {
		t.Errorf("merged = %v", got)
	}
	if got := testutil.ToFloat64(opts.Metrics.RowsDropped.WithLabelValues("people")); got != 1 {
		t.Errorf("dropped = %v", got)
	}
	if got := testutil.ToFloat64(opts.Metrics.CachedRows.WithLabelValues("people")); got != 60 {
		t.Errorf("cached = %v", got)
	}
}

func TestGridIgnoresForeignEvents(t *testing.T) {
	g := loadedGrid(t, peopleSource(testRows), nil)
	v := g.Version()
	g.Handle(RowsLoaded{GridID: "someone-else", Gen: 99})
	g.Handle(nil)
	if g.Version() != v {
		t.Error("foreign events must not touch the grid")
	}
	if Target(RowsLoaded{GridID: g.ID()}) != g.ID() {
		t.Error("Target should return the owning grid")
	}
}
