package layout

// RowHeightConfig describes a fixed row height as lines of text plus
// vertical padding. Zero-valued fields fall back to the defaults.
type RowHeightConfig struct {
	LineHeight Length
	NumLines   int
	Padding    Length
}

// DefaultRowHeight is three 1.25rem lines with 0.5rem of padding
func DefaultRowHeight() RowHeightConfig {
	return RowHeightConfig{
		LineHeight: Rem(1.25),
		NumLines:   3,
		Padding:    Rem(0.5),
	}
}

// ResolveRowHeight returns the row height in pixels. rem resolves against
// the root font size, em against the table font size, and a percentage is
// taken of the root font size.
func ResolveRowHeight(cfg *RowHeightConfig, rootFontSize, tableFontSize float64) float64 {
	def := DefaultRowHeight()
	c := def
	if cfg != nil {
		c = *cfg
		if c.LineHeight == (Length{}) {
			c.LineHeight = def.LineHeight
		}
		if c.NumLines <= 0 {
			c.NumLines = def.NumLines
		}
	}

	m := Metrics{
		ContainerWidth: rootFontSize,
		RootFontSize:   rootFontSize,
		TableFontSize:  tableFontSize,
	}
	line, ok := c.LineHeight.Resolve(m)
	if !ok {
		line, _ = def.LineHeight.Resolve(m)
	}
	pad, ok := c.Padding.Resolve(m)
	if !ok {
		pad = 0
	}
	h := float64(c.NumLines)*line + pad
	if h < 0 {
		return 0
	}
	return h
}
