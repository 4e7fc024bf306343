package layout

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func flex(v float64) *float64 { return &v }

func length(l Length) *Length { return &l }

func widthsOf(l Layout) []int {
	out := make([]int, len(l.Columns))
	for i, c := range l.Columns {
		out[i] = c.Width
	}
	return out
}

func offsetsOf(l Layout) []int {
	out := make([]int, len(l.Columns))
	for i, c := range l.Columns {
		out[i] = c.Offset
	}
	return out
}

func TestComputeFixedAndFlex(t *testing.T) {
	l := Compute(Input{
		Columns: []ColumnSpec{
			{Key: "id", Width: length(Px(100))},
			{Key: "name", Flex: flex(1)},
			{Key: "notes", Flex: flex(2)},
		},
		ContainerWidth: 1000,
		RootFontSize:   16,
	})

	if diff := cmp.Diff([]int{100, 300, 600}, widthsOf(l)); diff != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 100, 400}, offsetsOf(l)); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
	if l.TotalWidth != 1000 {
		t.Errorf("expected total width 1000, got %d", l.TotalWidth)
	}
	for _, c := range l.Columns {
		if c.Region != RegionCenter {
			t.Errorf("column %s: expected center region, got %q", c.Key, c.Region)
		}
	}
}

func TestComputeWidthsSumToContainer(t *testing.T) {
	tests := []struct {
		name      string
		columns   []ColumnSpec
		container float64
	}{
		{
			name:      "thirds",
			columns:   []ColumnSpec{{Key: "a"}, {Key: "b"}, {Key: "c"}},
			container: 1000,
		},
		{
			name: "percent and flex",
			columns: []ColumnSpec{
				{Key: "a", Width: length(Percent(25))},
				{Key: "b", Width: length(Percent(25))},
				{Key: "c"},
			},
			container: 800,
		},
		{
			name: "rem and em",
			columns: []ColumnSpec{
				{Key: "a", Width: length(Rem(10))},
				{Key: "b", Width: length(Em(12))},
				{Key: "c", Flex: flex(3)},
				{Key: "d", Flex: flex(1)},
			},
			container: 1237,
		},
		{
			name: "max clamp redistributes",
			columns: []ColumnSpec{
				{Key: "a", MaxWidth: length(Px(100))},
				{Key: "b"},
				{Key: "c", MaxWidth: length(Px(150))},
			},
			container: 999,
		},
		{
			name: "min clamp redistributes",
			columns: []ColumnSpec{
				{Key: "a", Flex: flex(1), MinWidth: length(Px(300))},
				{Key: "b", Flex: flex(9)},
			},
			container: 700,
		},
		{
			name:      "odd width",
			columns:   []ColumnSpec{{Key: "a"}, {Key: "b"}, {Key: "c"}, {Key: "d"}, {Key: "e"}, {Key: "f"}, {Key: "g"}},
			container: 1001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Compute(Input{Columns: tt.columns, ContainerWidth: tt.container, RootFontSize: 16, TableFontSize: 14})

			sum := 0
			for i, c := range l.Columns {
				sum += c.Width
				if i > 0 {
					prev := l.Columns[i-1]
					if c.Offset != prev.Offset+prev.Width {
						t.Errorf("column %s: offset %d does not follow %s (%d+%d)", c.Key, c.Offset, prev.Key, prev.Offset, prev.Width)
					}
				}
			}
			if diff := sum - int(tt.container); diff < -1 || diff > 1 {
				t.Errorf("widths sum to %d, want %v (±1)", sum, tt.container)
			}
			if sum != l.TotalWidth {
				t.Errorf("total width %d does not match sum %d", l.TotalWidth, sum)
			}
		})
	}
}

func TestComputeRespectsBounds(t *testing.T) {
	l := Compute(Input{
		Columns: []ColumnSpec{
			{Key: "narrow", MaxWidth: length(Px(100))},
			{Key: "wide", MinWidth: length(Px(500))},
			{Key: "rest"},
		},
		ContainerWidth: 900,
		RootFontSize:   16,
	})

	if w := l.Width("narrow"); w != 100 {
		t.Errorf("narrow: expected 100, got %d", w)
	}
	if w := l.Width("wide"); w < 500 {
		t.Errorf("wide: expected at least 500, got %d", w)
	}
	if w := l.Width("rest"); w < 60 {
		t.Errorf("rest: expected at least default min 60, got %d", w)
	}
	if l.TotalWidth != 900 {
		t.Errorf("expected total 900, got %d", l.TotalWidth)
	}
}

func TestComputeOverflowKeepsMinimum(t *testing.T) {
	l := Compute(Input{
		Columns: []ColumnSpec{
			{Key: "fixed", Width: length(Px(980))},
			{Key: "flex"},
		},
		ContainerWidth: 1000,
		RootFontSize:   16,
	})

	if w := l.Width("flex"); w != 60 {
		t.Errorf("expected flex column pinned at default min 60, got %d", w)
	}
	if l.TotalWidth != 1040 {
		t.Errorf("expected overflowing total 1040, got %d", l.TotalWidth)
	}
}

func TestComputeZeroWidthIsDegenerate(t *testing.T) {
	l := Compute(Input{
		Columns:        []ColumnSpec{{Key: "a", Width: length(Px(100))}, {Key: "b"}},
		ContainerWidth: 0,
	})

	want := []ResolvedColumn{
		{Key: "a", Region: RegionCenter},
		{Key: "b", Region: RegionCenter},
	}
	if diff := cmp.Diff(want, l.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if l.TotalWidth != 0 {
		t.Errorf("expected zero total width, got %d", l.TotalWidth)
	}
}

func TestComputeAutoWidthIsFlexible(t *testing.T) {
	l := Compute(Input{
		Columns: []ColumnSpec{
			{Key: "a", Width: length(Auto())},
			{Key: "b", Width: length(Px(200))},
		},
		ContainerWidth: 600,
		RootFontSize:   16,
	})
	if diff := cmp.Diff([]int{400, 200}, widthsOf(l)); diff != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeZeroFlexSplitsEqually(t *testing.T) {
	l := Compute(Input{
		Columns: []ColumnSpec{
			{Key: "a", Flex: flex(0)},
			{Key: "b", Flex: flex(0)},
		},
		ContainerWidth: 500,
		RootFontSize:   16,
	})
	if diff := cmp.Diff([]int{250, 250}, widthsOf(l)); diff != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutLookupUnknownKey(t *testing.T) {
	l := Compute(Input{Columns: []ColumnSpec{{Key: "a"}}, ContainerWidth: 300, RootFontSize: 16})

	if w := l.Width("missing"); w != 60 {
		t.Errorf("expected default width 60 for unknown key, got %d", w)
	}
	if off := l.Offset("missing"); off != 0 {
		t.Errorf("expected offset 0 for unknown key, got %d", off)
	}
	if _, ok := l.Column("missing"); ok {
		t.Error("expected unknown column lookup to fail")
	}
}

func TestColumnsInView(t *testing.T) {
	l := Compute(Input{
		Columns: []ColumnSpec{
			{Key: "a", Width: length(Px(100))},
			{Key: "b", Width: length(Px(100))},
			{Key: "c", Width: length(Px(100))},
			{Key: "d", Width: length(Px(100))},
		},
		ContainerWidth: 400,
		RootFontSize:   16,
	})

	var keys []string
	for _, c := range l.ColumnsInView(150, 100) {
		keys = append(keys, c.Key)
	}
	if diff := cmp.Diff([]string{"b", "c"}, keys); diff != "" {
		t.Errorf("visible columns mismatch (-want +got):\n%s", diff)
	}
	if got := l.ColumnsInView(0, 0); got != nil {
		t.Errorf("expected no columns for empty viewport, got %v", got)
	}
}

func TestResolveRowHeight(t *testing.T) {
	tests := []struct {
		name string
		cfg  *RowHeightConfig
		want float64
	}{
		{"default", nil, 68},
		{"terminal cells", &RowHeightConfig{LineHeight: Px(1), NumLines: 1}, 1},
		{"em lines", &RowHeightConfig{LineHeight: Em(1.5), NumLines: 2, Padding: Px(4)}, 46},
		{"percent of root", &RowHeightConfig{LineHeight: Percent(150), NumLines: 1}, 24},
		{"zero lines uses default count", &RowHeightConfig{LineHeight: Px(20)}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRowHeight(tt.cfg, 16, 14); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want Length
	}{
		{"120px", Px(120)},
		{"25%", Percent(25)},
		{"3rem", Rem(3)},
		{"1.5em", Em(1.5)},
		{"auto", Auto()},
		{" 80 ", Px(80)},
	}
	for _, tt := range tests {
		got, err := ParseLength(tt.in)
		if err != nil {
			t.Fatalf("ParseLength(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLength(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "wide", "-5px", "px"} {
		if _, err := ParseLength(bad); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("ParseLength(%q): expected ErrInvalidLength, got %v", bad, err)
		}
	}
}

func TestEngineCachesUntilChanged(t *testing.T) {
	e := NewEngine(16, 14)
	e.Configure([]ColumnSpec{{Key: "a"}, {Key: "b"}})
	v := e.Version()

	if e.Resize(0) {
		t.Error("expected resize to the initial width to be a no-op")
	}
	if !e.Resize(400) {
		t.Fatal("expected resize to report a change")
	}
	if e.Version() == v {
		t.Error("expected version bump after resize")
	}

	l := e.Layout()
	if diff := cmp.Diff([]int{200, 200}, widthsOf(l)); diff != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", diff)
	}

	v = e.Version()
	e.Layout()
	if e.Version() != v {
		t.Error("reading the layout must not bump the version")
	}

	e.SetRowHeight(RowHeightConfig{LineHeight: Px(1), NumLines: 1})
	if got := e.Layout().RowHeight; got != 1 {
		t.Errorf("expected row height 1, got %d", got)
	}
}
