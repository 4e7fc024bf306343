// internal/scroll/ranges.go
package scroll

import "math"

const (
	// DefaultOverscan is the number of rows rendered past each edge of the
	// visible range
	DefaultOverscan = 5

	windowMultiplier    = 3 // fetch window size in viewports
	retentionMultiplier = 5 // retention span on each side, in viewports
)

// State is the scroll position and geometry of one table
type State struct {
	ScrollTop      float64
	ScrollLeft     float64
	ViewportHeight float64
	ViewportWidth  float64
	RowHeight      float64
	TotalRows      int
}

// Range is a half-open interval of row indices
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range
func (r Range) Len() int { return r.End - r.Start }

// Empty reports whether the range holds no rows
func (r Range) Empty() bool { return r.End <= r.Start }

// Contains reports whether i lies in the range
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Covers reports whether o lies entirely within r. An empty o is covered by
// any range.
func (r Range) Covers(o Range) bool {
	if o.Empty() {
		return true
	}
	return o.Start >= r.Start && o.End <= r.End
}

// Window is the offset and limit requested from the backend
type Window struct {
	Offset int
	Limit  int
}

// End returns the row index just past the window
func (w Window) End() int { return w.Offset + w.Limit }

// Range returns the window as a row range
func (w Window) Range() Range { return Range{Start: w.Offset, End: w.End()} }

func degenerate(s State) bool {
	return s.RowHeight <= 0 || s.TotalRows <= 0
}

// ViewportRows returns how many rows fit in the viewport, rounded up and at
// least 1.
func ViewportRows(s State) int {
	if s.RowHeight <= 0 || s.ViewportHeight <= 0 {
		return 1
	}
	n := int(math.Ceil(s.ViewportHeight / s.RowHeight))
	if n < 1 {
		return 1
	}
	return n
}

// TotalHeight returns the scrollable content height for rows rows
func TotalHeight(rows int, rowHeight float64) float64 {
	if rows <= 0 || rowHeight <= 0 {
		return 0
	}
	return float64(rows) * rowHeight
}

// VisibleRange returns the rows intersecting the viewport
func VisibleRange(s State) Range {
	if degenerate(s) {
		return Range{}
	}
	top := math.Max(0, s.ScrollTop)
	start := int(math.Floor(top / s.RowHeight))
	end := int(math.Ceil((top + math.Max(s.ViewportHeight, s.RowHeight)) / s.RowHeight))
	return clampRange(start, end, s.TotalRows)
}

// RenderRange returns the visible range padded by overscan rows on both ends
func RenderRange(s State, overscan int) Range {
	if degenerate(s) {
		return Range{}
	}
	if overscan < 0 {
		overscan = 0
	}
	v := VisibleRange(s)
	return clampRange(v.Start-overscan, v.End+overscan, s.TotalRows)
}

// RetentionRange returns the rows protected from eviction: five viewports on
// each side of the visible midpoint, widened to cover the render range.
func RetentionRange(s State, overscan int) Range {
	if degenerate(s) {
		return Range{}
	}
	v := VisibleRange(s)
	centre := (v.Start + v.End) / 2
	span := ViewportRows(s) * retentionMultiplier
	r := clampRange(centre-span, centre+span, s.TotalRows)

	render := RenderRange(s, overscan)
	if !render.Empty() {
		r.Start = min(r.Start, render.Start)
		r.End = max(r.End, render.End)
	}
	return r
}

// FetchWindowFor decides whether a new backend window is needed. It returns
// nil when prev still serves the render range.
//
// A window spans three viewports (or the render range, if longer) centred on
// the render range. It is replaced once the render range comes within
// threshold rows of an edge that is not also a dataset boundary. The
// threshold is a quarter of the rows the window holds beyond the render
// range, (size - render)/4, which is half the slack a freshly centred window
// leaves on each side, so a new window is never immediately near its own
// edges. With a 20 row viewport and the default overscan that is
// (60 - 30)/4 = 7 rows.
func FetchWindowFor(s State, prev *Window, overscan int) *Window {
	if degenerate(s) {
		return nil
	}
	render := RenderRange(s, overscan)
	size := max(ViewportRows(s)*windowMultiplier, render.Len())

	if prev == nil {
		w := centredWindow(render, size, s.TotalRows)
		return &w
	}

	if prev.Limit >= ViewportRows(s) && !nearEdge(*prev, render, size, s.TotalRows) {
		return nil
	}

	w := centredWindow(render, size, s.TotalRows)
	if w == *prev {
		return nil
	}
	return &w
}

func refetchThreshold(size, renderLen int) int {
	slack := (size - renderLen) / 2
	return max(slack/2, 0)
}

func nearEdge(w Window, render Range, size, totalRows int) bool {
	threshold := refetchThreshold(size, render.Len())
	if w.Offset > 0 && render.Start-w.Offset < threshold {
		return true
	}
	if w.End() < totalRows && w.End()-render.End < threshold {
		return true
	}
	return false
}

func centredWindow(render Range, size, totalRows int) Window {
	mid := (render.Start + render.End) / 2
	offset := mid - size/2
	if offset+size > totalRows {
		offset = totalRows - size
	}
	if offset < 0 {
		offset = 0
	}
	return Window{Offset: offset, Limit: size}
}

// ClampScrollLeft clamps x to [0, totalWidth-viewportWidth]
func ClampScrollLeft(x, totalWidth, viewportWidth float64) float64 {
	return clampOffset(x, totalWidth-viewportWidth)
}

// ClampScrollTop clamps y so the last row ends at the bottom of the viewport
func ClampScrollTop(y float64, totalRows int, rowHeight, viewportHeight float64) float64 {
	return clampOffset(y, TotalHeight(totalRows, rowHeight)-viewportHeight)
}

func clampOffset(v, maxOffset float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if maxOffset < 0 {
		maxOffset = 0
	}
	return math.Min(v, maxOffset)
}

func clampRange(start, end, total int) Range {
	start = max(0, min(start, total))
	end = max(0, min(end, total))
	if start > end {
		start = end
	}
	return Range{Start: start, End: end}
}
