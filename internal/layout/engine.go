package layout

// Engine holds a table's column configuration and the measurements it is
// laid out against, recomputing the layout only when one of them changes.
// It is not safe for concurrent use.
type Engine struct {
	specs          []ColumnSpec
	containerWidth float64
	rootFontSize   float64
	tableFontSize  float64
	rowHeight      *RowHeightConfig

	cached  *Layout
	version uint64
}

// NewEngine creates an engine with the given font references
func NewEngine(rootFontSize, tableFontSize float64) *Engine {
	return &Engine{rootFontSize: rootFontSize, tableFontSize: tableFontSize}
}

// Configure replaces the column specs. This is a reconfiguration and
// always invalidates the layout.
func (e *Engine) Configure(specs []ColumnSpec) {
	e.specs = append([]ColumnSpec(nil), specs...)
	e.invalidate()
}

// Specs returns a copy of the configured column specs
func (e *Engine) Specs() []ColumnSpec {
	return append([]ColumnSpec(nil), e.specs...)
}

// Resize sets the container width. It reports whether the width changed.
func (e *Engine) Resize(width float64) bool {
	if width < 0 {
		width = 0
	}
	if width == e.containerWidth {
		return false
	}
	e.containerWidth = width
	e.invalidate()
	return true
}

// ContainerWidth returns the current container width
func (e *Engine) ContainerWidth() float64 { return e.containerWidth }

// SetFontSizes updates the references used for rem and em units
func (e *Engine) SetFontSizes(root, table float64) {
	if root == e.rootFontSize && table == e.tableFontSize {
		return
	}
	e.rootFontSize, e.tableFontSize = root, table
	e.invalidate()
}

// SetRowHeight overrides the default row height configuration
func (e *Engine) SetRowHeight(cfg RowHeightConfig) {
	e.rowHeight = &cfg
	e.invalidate()
}

// Layout returns the current layout, computing it if needed
func (e *Engine) Layout() Layout {
	if e.cached == nil {
		l := Compute(Input{
			Columns:        e.specs,
			ContainerWidth: e.containerWidth,
			RootFontSize:   e.rootFontSize,
			TableFontSize:  e.tableFontSize,
			RowHeight:      e.rowHeight,
		})
		e.cached = &l
	}
	return *e.cached
}

// Version increases every time the layout output may have changed
func (e *Engine) Version() uint64 { return e.version }

func (e *Engine) invalidate() {
	e.cached = nil
	e.version++
}
