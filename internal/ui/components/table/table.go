package table

import (
	"github.com/charmbracelet/lipgloss"
	bbtable "github.com/evertras/bubble-table/table"

	"github.com/nhath/ezgrid/internal/config"
	"github.com/nhath/ezgrid/internal/schema"
)

// Nord colors, replaced by Init
var (
	ColorForeground = lipgloss.Color("#D8DEE9")
	ColorComment    = lipgloss.Color("#4C566A")
	ColorCyan       = lipgloss.Color("#88C0D0")
	ColorGreen      = lipgloss.Color("#A3BE8C")
	ColorOrange     = lipgloss.Color("#D08770")
	ColorPurple     = lipgloss.Color("#B48EAD")
	ColorYellow     = lipgloss.Color("#EBCB8B")
	ColorTeal       = lipgloss.Color("#8FBCBB")
)

// Placeholder fills the cells of rows that have not been fetched yet
const Placeholder = "·"

// Init takes the palette from the theme
func Init(theme config.Theme) {
	ColorForeground = lipgloss.Color(theme.TextPrimary)
	ColorComment = lipgloss.Color(theme.TextFaint)
	ColorCyan = lipgloss.Color(theme.Accent)
	ColorGreen = lipgloss.Color(theme.Success)
	ColorOrange = lipgloss.Color(theme.Warning)
	ColorTeal = lipgloss.Color(theme.Highlight)
}

// Column is one displayed column. Width counts the cell's content plus its
// right border.
type Column struct {
	Key      string
	Title    string
	Width    int
	Category schema.TypeCategory
	Focused  bool
}

// New creates a new bubble-table with the Nord theme (no background)
func New(cols []bbtable.Column) bbtable.Model {
	return bbtable.New(cols).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(ColorForeground)).
		HeaderStyle(lipgloss.NewStyle().
			Foreground(ColorTeal).
			Bold(true)).
		Focused(false).
		WithNoPagination().
		BorderRounded()
}

// FromRecords builds the table for a slice of rows. A nil record draws as
// a row of placeholders.
func FromRecords(cols []Column, records []schema.Record) bbtable.Model {
	bbCols := make([]bbtable.Column, 0, len(cols))
	for _, c := range cols {
		w := c.Width - 1
		if w < 1 {
			continue
		}
		col := bbtable.NewColumn(c.Key, c.Title, w)
		if c.Focused {
			col = col.WithStyle(lipgloss.NewStyle().Foreground(ColorCyan))
		}
		bbCols = append(bbCols, col)
	}

	placeholder := lipgloss.NewStyle().Foreground(ColorComment)
	rows := make([]bbtable.Row, 0, len(records))
	for _, rec := range records {
		data := bbtable.RowData{}
		for _, c := range cols {
			if rec == nil {
				data[c.Key] = bbtable.NewStyledCell(Placeholder, placeholder)
				continue
			}
			v := rec[c.Key]
			data[c.Key] = bbtable.NewStyledCell(schema.Format(v), GetValueStyle(v, c.Category))
		}
		rows = append(rows, bbtable.NewRow(data))
	}

	return New(bbCols).WithRows(rows)
}

// GetValueStyle returns a lipgloss style for a parsed value
func GetValueStyle(v any, category schema.TypeCategory) lipgloss.Style {
	if v == nil {
		return lipgloss.NewStyle().Foreground(ColorPurple).Italic(true)
	}
	switch category {
	case schema.Numeric:
		return lipgloss.NewStyle().Foreground(ColorPurple)
	case schema.Boolean:
		return lipgloss.NewStyle().Foreground(ColorOrange)
	case schema.Temporal:
		return lipgloss.NewStyle().Foreground(ColorCyan)
	case schema.Identifier:
		return lipgloss.NewStyle().Foreground(ColorTeal)
	case schema.Binary, schema.Complex, schema.Geo:
		return lipgloss.NewStyle().Foreground(ColorComment)
	}
	return lipgloss.NewStyle().Foreground(ColorYellow)
}
