package config

import (
	"fmt"

	"github.com/nhath/ezgrid/internal/layout"
)

// GridConfig holds the sizing references of every grid. In the terminal a
// pixel is one cell, so the defaults make 1rem four cells wide and a row a
// single line tall.
type GridConfig struct {
	Overscan        int     `toml:"overscan"`
	RootFontSize    float64 `toml:"root_font_size"`
	TableFontSize   float64 `toml:"table_font_size"`
	LineHeight      string  `toml:"line_height"`
	NumLines        int     `toml:"num_lines"`
	Padding         string  `toml:"padding"`
	FrameRate       int     `toml:"frame_rate"`
	SchemaCacheSize int     `toml:"schema_cache_size"`
}

// DefaultGridConfig returns the terminal defaults
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Overscan:        5,
		RootFontSize:    4,
		TableFontSize:   4,
		LineHeight:      "1px",
		NumLines:        1,
		Padding:         "0px",
		FrameRate:       60,
		SchemaCacheSize: 64,
	}
}

func (g *GridConfig) fill(d GridConfig) {
	if g.Overscan == 0 {
		g.Overscan = d.Overscan
	}
	if g.RootFontSize <= 0 {
		g.RootFontSize = d.RootFontSize
	}
	if g.TableFontSize <= 0 {
		g.TableFontSize = g.RootFontSize
	}
	if g.LineHeight == "" {
		g.LineHeight = d.LineHeight
	}
	if g.NumLines <= 0 {
		g.NumLines = d.NumLines
	}
	if g.Padding == "" {
		g.Padding = d.Padding
	}
	if g.FrameRate <= 0 {
		g.FrameRate = d.FrameRate
	}
	if g.SchemaCacheSize <= 0 {
		g.SchemaCacheSize = d.SchemaCacheSize
	}
}

// RowHeight parses the row height lengths
func (g GridConfig) RowHeight() (layout.RowHeightConfig, error) {
	line, err := layout.ParseLength(g.LineHeight)
	if err != nil {
		return layout.RowHeightConfig{}, fmt.Errorf("grid.line_height: %w", err)
	}
	pad, err := layout.ParseLength(g.Padding)
	if err != nil {
		return layout.RowHeightConfig{}, fmt.Errorf("grid.padding: %w", err)
	}
	return layout.RowHeightConfig{LineHeight: line, NumLines: g.NumLines, Padding: pad}, nil
}

// TableConfig is the per-table section, keyed by table name
type TableConfig struct {
	// Show restricts and orders the displayed columns
	Show    []string       `toml:"show"`
	Columns []ColumnConfig `toml:"columns"`
}

// ColumnConfig sizes one column. Lengths use the layout syntax: 120px,
// 25%, 3rem, 1.5em, auto, or a bare number of pixels.
type ColumnConfig struct {
	Key      string   `toml:"key"`
	Width    string   `toml:"width,omitempty"`
	Flex     *float64 `toml:"flex,omitempty"`
	MinWidth string   `toml:"min_width,omitempty"`
	MaxWidth string   `toml:"max_width,omitempty"`
}

// TableError reports a bad table section
type TableError struct {
	Table string
	Err   error
}

func (e *TableError) Error() string { return fmt.Sprintf("tables.%s: %v", e.Table, e.Err) }

func (e *TableError) Unwrap() error { return e.Err }

// Specs converts the column sections into layout specs
func (t TableConfig) Specs() ([]layout.ColumnSpec, error) {
	specs := make([]layout.ColumnSpec, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Key == "" {
			return nil, fmt.Errorf("column without a key")
		}
		s := layout.ColumnSpec{Key: c.Key, Flex: c.Flex}
		for _, f := range []struct {
			raw string
			dst **layout.Length
		}{
			{c.Width, &s.Width},
			{c.MinWidth, &s.MinWidth},
			{c.MaxWidth, &s.MaxWidth},
		} {
			if f.raw == "" {
				continue
			}
			l, err := layout.ParseLength(f.raw)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Key, err)
			}
			*f.dst = &l
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// Table returns the section for name, or an empty one
func (c *Config) Table(name string) TableConfig {
	return c.Tables[name]
}
