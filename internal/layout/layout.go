// internal/layout/layout.go
package layout

import (
	"math"
)

const (
	// DefaultRootFontSize is used when the caller does not supply one
	DefaultRootFontSize = 16

	defaultMinWidthRem = 3.75 // 60px at a 16px root
	maxFlexPasses      = 3
)

// Region tags where a column is drawn. Only the center region exists today;
// pinned regions are reserved.
type Region string

const RegionCenter Region = "center"

// ColumnSpec declares how one column is sized
type ColumnSpec struct {
	Key      string
	Width    *Length  // nil or auto means flexible
	Flex     *float64 // nil defaults to 1 without a width, 0 with one
	MinWidth *Length
	MaxWidth *Length
}

// ResolvedColumn is a column placed in pixel space
type ResolvedColumn struct {
	Key    string
	Width  int
	Offset int
	Region Region
}

// End returns the pixel just past the column's right edge
func (c ResolvedColumn) End() int { return c.Offset + c.Width }

// Input is everything Compute needs
type Input struct {
	Columns        []ColumnSpec
	ContainerWidth float64
	RootFontSize   float64
	TableFontSize  float64
	RowHeight      *RowHeightConfig
}

// Layout is the resolved geometry of a table
type Layout struct {
	Columns          []ResolvedColumn
	TotalWidth       int
	PinnedLeftWidth  int
	PinnedRightWidth int
	ScrollableWidth  int
	RowHeight        int

	defaultWidth int
	index        map[string]int
}

// Width returns the resolved width for key, or the default minimum width
// when the key is not part of the layout.
func (l Layout) Width(key string) int {
	if i, ok := l.index[key]; ok {
		return l.Columns[i].Width
	}
	return l.defaultWidth
}

// Offset returns the resolved offset for key, or 0 for unknown keys
func (l Layout) Offset(key string) int {
	if i, ok := l.index[key]; ok {
		return l.Columns[i].Offset
	}
	return 0
}

// Column looks up a resolved column by key
func (l Layout) Column(key string) (ResolvedColumn, bool) {
	i, ok := l.index[key]
	if !ok {
		return ResolvedColumn{}, false
	}
	return l.Columns[i], true
}

// ColumnsInView returns the columns that intersect the horizontal span
// [scrollLeft, scrollLeft+viewportWidth).
func (l Layout) ColumnsInView(scrollLeft, viewportWidth int) []ResolvedColumn {
	if viewportWidth <= 0 {
		return nil
	}
	right := scrollLeft + viewportWidth
	var out []ResolvedColumn
	for _, c := range l.Columns {
		if c.Width <= 0 {
			continue
		}
		if c.End() > scrollLeft && c.Offset < right {
			out = append(out, c)
		}
	}
	return out
}

type sizingItem struct {
	min, max float64
	flex     float64
	fixed    float64
	isFixed  bool
}

// Compute resolves column specs into pixel widths and offsets.
//
// Fixed columns take their clamped width first. The space left over is
// shared among flexible columns by flex weight; a column whose share falls
// outside its bounds is pinned at the bound and the rest is re-shared, for
// at most three passes. Offsets are rounded cumulative sums so widths add
// up to the rounded total exactly.
func Compute(in Input) Layout {
	root := in.RootFontSize
	if root <= 0 {
		root = DefaultRootFontSize
	}
	table := in.TableFontSize
	if table <= 0 {
		table = root
	}
	m := Metrics{
		ContainerWidth: math.Max(0, in.ContainerWidth),
		RootFontSize:   root,
		TableFontSize:  table,
	}
	defaultMin := defaultMinWidthRem * root

	out := Layout{
		Columns:      make([]ResolvedColumn, len(in.Columns)),
		RowHeight:    int(math.Round(ResolveRowHeight(in.RowHeight, root, table))),
		defaultWidth: int(math.Round(defaultMin)),
		index:        make(map[string]int, len(in.Columns)),
	}
	for i, c := range in.Columns {
		out.index[c.Key] = i
		out.Columns[i] = ResolvedColumn{Key: c.Key, Region: RegionCenter}
	}

	// Nothing measured yet: keep a degenerate, all-zero layout.
	if m.ContainerWidth <= 0 || len(in.Columns) == 0 {
		return out
	}

	items := make([]sizingItem, len(in.Columns))
	for i, c := range in.Columns {
		items[i] = newSizingItem(c, m, defaultMin)
	}

	widths := make([]float64, len(items))
	used := 0.0
	var active []int
	for i, it := range items {
		if it.isFixed {
			widths[i] = clamp(it.fixed, it.min, it.max)
			used += widths[i]
			continue
		}
		active = append(active, i)
	}

	distributeFlex(items, widths, active, math.Max(0, m.ContainerWidth-used))

	prev := 0
	cum := 0.0
	for i := range out.Columns {
		cum += widths[i]
		end := int(math.Round(cum))
		out.Columns[i].Offset = prev
		out.Columns[i].Width = end - prev
		prev = end
	}
	out.TotalWidth = prev
	out.ScrollableWidth = prev
	return out
}

func newSizingItem(c ColumnSpec, m Metrics, defaultMin float64) sizingItem {
	it := sizingItem{min: defaultMin, max: math.Inf(1)}
	if c.MinWidth != nil {
		if px, ok := c.MinWidth.Resolve(m); ok {
			it.min = px
		}
	}
	if c.MaxWidth != nil {
		if px, ok := c.MaxWidth.Resolve(m); ok {
			it.max = px
		}
	}
	if it.max < it.min {
		it.max = it.min
	}

	hasWidth := false
	if c.Width != nil {
		if px, ok := c.Width.Resolve(m); ok {
			it.fixed = px
			hasWidth = true
		}
	}

	switch {
	case c.Flex != nil:
		it.flex = math.Max(0, *c.Flex)
	case hasWidth:
		it.flex = 0
	default:
		it.flex = 1
	}
	it.isFixed = hasWidth && it.flex == 0
	return it
}

func distributeFlex(items []sizingItem, widths []float64, active []int, remaining float64) {
	for pass := 0; len(active) > 0; pass++ {
		total := flexTotal(items, active)

		var free []int
		pinned := 0.0
		for _, i := range active {
			ideal := flexShare(items[i].flex, total, len(active), remaining)
			w := clamp(ideal, items[i].min, items[i].max)
			if w != ideal {
				widths[i] = w
				pinned += w
				continue
			}
			free = append(free, i)
		}

		if len(free) == len(active) {
			for _, i := range active {
				widths[i] = flexShare(items[i].flex, total, len(active), remaining)
			}
			return
		}

		remaining = math.Max(0, remaining-pinned)
		active = free

		if pass == maxFlexPasses-1 {
			total = flexTotal(items, active)
			for _, i := range active {
				w := flexShare(items[i].flex, total, len(active), remaining)
				widths[i] = clamp(w, items[i].min, items[i].max)
			}
			return
		}
	}
}

func flexTotal(items []sizingItem, idx []int) float64 {
	total := 0.0
	for _, i := range idx {
		total += items[i].flex
	}
	return total
}

// flexShare splits space equally when no column in the pool has weight
func flexShare(flex, total float64, n int, space float64) float64 {
	if total <= 0 {
		return space / float64(n)
	}
	return flex / total * space
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
