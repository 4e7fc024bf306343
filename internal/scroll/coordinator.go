// internal/scroll/coordinator.go
package scroll

import (
	"math"
)

// DragState is the scrollbar thumb interaction state
type DragState int

const (
	Idle DragState = iota
	Dragging
)

func (d DragState) String() string {
	if d == Dragging {
		return "dragging"
	}
	return "idle"
}

// Frame is the outcome of one Update
type Frame struct {
	Visible   Range
	Render    Range
	Retention Range
	// Fetch is the new backend window, or nil when the current one still
	// serves the render range
	Fetch *Window
}

// Coordinator owns the scroll position of one table and the fetch window
// last handed to the backend. It is not safe for concurrent use.
type Coordinator struct {
	state      State
	overscan   int
	totalWidth float64
	window     *Window
	drag       DragState
}

// NewCoordinator creates a coordinator. A negative overscan uses
// DefaultOverscan.
func NewCoordinator(overscan int) *Coordinator {
	if overscan < 0 {
		overscan = DefaultOverscan
	}
	return &Coordinator{overscan: overscan}
}

// State returns a copy of the current scroll state
func (c *Coordinator) State() State { return c.state }

// Overscan returns the configured overscan row count
func (c *Coordinator) Overscan() int { return c.overscan }

// ScrollTop returns the vertical scroll offset in pixels
func (c *Coordinator) ScrollTop() float64 { return c.state.ScrollTop }

// ScrollLeft returns the horizontal scroll offset in pixels
func (c *Coordinator) ScrollLeft() float64 { return c.state.ScrollLeft }

// TotalHeight returns the height of all rows
func (c *Coordinator) TotalHeight() float64 {
	return TotalHeight(c.state.TotalRows, c.state.RowHeight)
}

// SetViewport updates the viewport size. It reports whether anything
// changed.
func (c *Coordinator) SetViewport(width, height float64) bool {
	width, height = math.Max(0, width), math.Max(0, height)
	if width == c.state.ViewportWidth && height == c.state.ViewportHeight {
		return false
	}
	c.state.ViewportWidth = width
	c.state.ViewportHeight = height
	c.reclamp()
	return true
}

// SetRowHeight updates the fixed row height, keeping the first visible row
// in place.
func (c *Coordinator) SetRowHeight(h float64) bool {
	h = math.Max(0, h)
	if h == c.state.RowHeight {
		return false
	}
	first := 0
	if c.state.RowHeight > 0 {
		first = int(c.state.ScrollTop / c.state.RowHeight)
	}
	c.state.RowHeight = h
	c.state.ScrollTop = float64(first) * h
	c.reclamp()
	return true
}

// SetTotalRows updates the dataset size
func (c *Coordinator) SetTotalRows(n int) bool {
	n = max(0, n)
	if n == c.state.TotalRows {
		return false
	}
	c.state.TotalRows = n
	c.reclamp()
	return true
}

// SetTotalWidth updates the resolved layout width used to clamp scrollLeft
func (c *Coordinator) SetTotalWidth(w float64) bool {
	w = math.Max(0, w)
	if w == c.totalWidth {
		return false
	}
	c.totalWidth = w
	c.reclamp()
	return true
}

// ScrollBy applies an input delta. Input is ignored while the thumb is
// being dragged.
func (c *Coordinator) ScrollBy(d Delta) bool {
	if c.drag == Dragging || d.IsZero() {
		return false
	}
	return c.setPosition(c.state.ScrollTop+d.DY, c.state.ScrollLeft+d.DX)
}

// ScrollToRow scrolls so that row i is at the top of the viewport
func (c *Coordinator) ScrollToRow(i int) bool {
	if c.state.RowHeight <= 0 {
		return false
	}
	return c.setPosition(float64(max(0, i))*c.state.RowHeight, c.state.ScrollLeft)
}

// ScrollToTop scrolls to the first row
func (c *Coordinator) ScrollToTop() bool {
	return c.setPosition(0, c.state.ScrollLeft)
}

// ScrollToX sets the horizontal offset
func (c *Coordinator) ScrollToX(x float64) bool {
	return c.setPosition(c.state.ScrollTop, x)
}

func (c *Coordinator) setPosition(top, left float64) bool {
	top = ClampScrollTop(top, c.state.TotalRows, c.state.RowHeight, c.state.ViewportHeight)
	left = ClampScrollLeft(left, c.totalWidth, c.state.ViewportWidth)
	if top == c.state.ScrollTop && left == c.state.ScrollLeft {
		return false
	}
	c.state.ScrollTop = top
	c.state.ScrollLeft = left
	return true
}

func (c *Coordinator) reclamp() {
	c.state.ScrollTop = ClampScrollTop(c.state.ScrollTop, c.state.TotalRows, c.state.RowHeight, c.state.ViewportHeight)
	c.state.ScrollLeft = ClampScrollLeft(c.state.ScrollLeft, c.totalWidth, c.state.ViewportWidth)
}

// Update recomputes the row ranges for the current position. When a new
// fetch window is needed it is returned in Frame.Fetch and remembered as the
// current window.
func (c *Coordinator) Update() Frame {
	f := Frame{
		Visible:   VisibleRange(c.state),
		Render:    RenderRange(c.state, c.overscan),
		Retention: RetentionRange(c.state, c.overscan),
		Fetch:     FetchWindowFor(c.state, c.window, c.overscan),
	}
	if f.Fetch != nil {
		w := *f.Fetch
		c.window = &w
	}
	return f
}

// Window returns the last issued fetch window
func (c *Coordinator) Window() (Window, bool) {
	if c.window == nil {
		return Window{}, false
	}
	return *c.window, true
}

// ResetWindow forgets the issued window so the next Update starts fresh
func (c *Coordinator) ResetWindow() { c.window = nil }

// Thumb returns the scrollbar thumb for the current position
func (c *Coordinator) Thumb(minSize float64) ThumbGeometry {
	return Thumb(c.state.ViewportHeight, c.TotalHeight(), c.state.ScrollTop, minSize)
}

// Drag returns the current drag state
func (c *Coordinator) Drag() DragState { return c.drag }

// BeginDrag enters Dragging. It reports false if a drag is already active.
func (c *Coordinator) BeginDrag() bool {
	if c.drag == Dragging {
		return false
	}
	c.drag = Dragging
	return true
}

// DragTo moves to the row at fraction of the dataset. It is a no-op unless
// a drag is active.
func (c *Coordinator) DragTo(fraction float64) bool {
	if c.drag != Dragging {
		return false
	}
	fraction = math.Max(0, math.Min(1, fraction))
	return c.ScrollToRow(int(math.Floor(fraction * float64(c.state.TotalRows))))
}

// EndDrag returns to Idle
func (c *Coordinator) EndDrag() { c.drag = Idle }

// CancelDrag returns to Idle leaving the position where the drag left it
func (c *Coordinator) CancelDrag() { c.drag = Idle }
