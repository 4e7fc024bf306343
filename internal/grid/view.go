package grid

import (
	"strconv"

	"github.com/nhath/ezgrid/internal/layout"
	"github.com/nhath/ezgrid/internal/query"
	"github.com/nhath/ezgrid/internal/schema"
	"github.com/nhath/ezgrid/internal/scroll"
	"github.com/nhath/ezgrid/internal/store"
)

// VisibleRow is one row of the render range. Record is nil while the row
// has not been fetched.
type VisibleRow struct {
	Key    string
	Index  int
	Record schema.Record
	Top    float64
}

// Resize sets the viewport size in pixels
func (g *Grid) Resize(width, height float64) {
	changed := g.layout.Resize(width)
	if changed {
		g.scroll.SetTotalWidth(float64(g.layout.Layout().TotalWidth))
	}
	if g.scroll.SetViewport(width, height) {
		changed = true
	}
	if changed {
		g.refresh()
		g.bump()
	}
}

// SetFontSizes updates the references for rem and em lengths. The row
// height follows.
func (g *Grid) SetFontSizes(root, table float64) {
	g.layout.SetFontSizes(root, table)
	g.afterLayoutChange()
}

// SetRowHeight replaces the row height configuration
func (g *Grid) SetRowHeight(cfg layout.RowHeightConfig) {
	g.layout.SetRowHeight(cfg)
	g.afterLayoutChange()
}

func (g *Grid) afterLayoutChange() {
	l := g.layout.Layout()
	g.scroll.SetTotalWidth(float64(l.TotalWidth))
	g.scroll.SetRowHeight(float64(l.RowHeight))
	g.refresh()
	g.bump()
}

// ScrollBy queues an input delta for the next Frame. Input is discarded
// while the scrollbar thumb is dragged.
func (g *Grid) ScrollBy(d scroll.Delta) {
	if g.scroll.Drag() == scroll.Dragging || d.IsZero() {
		return
	}
	g.coalescer.Add(d)
}

// AttachInput feeds every delta src emits into ScrollBy. src must emit on
// the grid's event loop.
func (g *Grid) AttachInput(src scroll.DeltaSource) (detach func()) {
	return src.Subscribe(g.ScrollBy)
}

// Frame applies the input queued since the last frame. It reports whether
// the scroll position moved.
func (g *Grid) Frame() bool {
	d, _, ok := g.coalescer.Take()
	if !ok {
		return false
	}
	return g.moved(g.scroll.ScrollBy(d))
}

// PendingInput reports whether input is waiting for the next Frame
func (g *Grid) PendingInput() bool { return g.coalescer.Pending() > 0 }

// ScrollToRow scrolls row i to the top of the viewport
func (g *Grid) ScrollToRow(i int) { g.moved(g.scroll.ScrollToRow(i)) }

// ScrollToTop scrolls to the first row
func (g *Grid) ScrollToTop() { g.moved(g.scroll.ScrollToTop()) }

// ScrollToX sets the horizontal offset
func (g *Grid) ScrollToX(x float64) { g.moved(g.scroll.ScrollToX(x)) }

// BeginDrag starts a scrollbar thumb drag. Pending wheel input is dropped.
func (g *Grid) BeginDrag() bool {
	if !g.scroll.BeginDrag() {
		return false
	}
	g.coalescer.Reset()
	g.bump()
	return true
}

// DragTo moves the view to fraction of the dataset during a drag
func (g *Grid) DragTo(fraction float64) { g.moved(g.scroll.DragTo(fraction)) }

// EndDrag finishes a drag
func (g *Grid) EndDrag() {
	g.scroll.EndDrag()
	g.bump()
}

// CancelDrag abandons a drag where it stands
func (g *Grid) CancelDrag() {
	g.scroll.CancelDrag()
	g.bump()
}

// Dragging reports whether a thumb drag is active
func (g *Grid) Dragging() bool { return g.scroll.Drag() == scroll.Dragging }

func (g *Grid) moved(changed bool) bool {
	if changed {
		g.refresh()
		g.bump()
	}
	return changed
}

// VisibleRows returns the rows of the render range
func (g *Grid) VisibleRows() []VisibleRow {
	r := g.frame.Render
	if r.Empty() {
		return nil
	}
	h := g.scroll.State().RowHeight
	out := make([]VisibleRow, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		rec, _ := g.store.GetRow(i)
		out = append(out, VisibleRow{
			Key:    strconv.Itoa(i),
			Index:  i,
			Record: rec,
			Top:    float64(i) * h,
		})
	}
	return out
}

// Ranges returns the row ranges of the last update
func (g *Grid) Ranges() scroll.Frame { return g.frame }

// Layout returns the resolved column geometry
func (g *Grid) Layout() layout.Layout { return g.layout.Layout() }

// Schema returns the column schemas, or nil before the schema loads
func (g *Grid) Schema() []schema.ColumnSchema { return g.columns }

// ScrollTop returns the vertical offset in pixels
func (g *Grid) ScrollTop() float64 { return g.scroll.ScrollTop() }

// ScrollLeft returns the horizontal offset in pixels
func (g *Grid) ScrollLeft() float64 { return g.scroll.ScrollLeft() }

// TotalHeight returns the height of every row together
func (g *Grid) TotalHeight() float64 { return g.scroll.TotalHeight() }

// TotalRows returns the known row count
func (g *Grid) TotalRows() int { return g.store.TotalRows() }

// Thumb returns the vertical scrollbar thumb
func (g *Grid) Thumb(minSize float64) scroll.ThumbGeometry { return g.scroll.Thumb(minSize) }

// Window returns the backend window last requested
func (g *Grid) Window() (scroll.Window, bool) { return g.scroll.Window() }

// Sort returns the active sort
func (g *Grid) Sort() query.Sort {
	if g.rows == nil {
		return nil
	}
	return g.rows.Sort()
}

// Loading reports whether the schema, the count or the rows for the current
// window are outstanding
func (g *Grid) Loading() bool {
	return g.schemaPending || g.countPending || g.rowsSettled < g.rowsGen
}

// Err returns the failure that left the grid empty, if any
func (g *Grid) Err() error { return g.err }

// Version increases on every change the renderer should pick up
func (g *Grid) Version() uint64 { return g.version }

// Stats returns the row cache counters
func (g *Grid) Stats() store.Stats { return g.store.Stats() }

// CachedRows returns the number of rows held in the cache
func (g *Grid) CachedRows() int { return g.store.Len() }
