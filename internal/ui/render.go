package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhath/ezgrid/internal/schema"
	"github.com/nhath/ezgrid/internal/ui/components/table"
)

// View renders the grid, its scrollbar and the status bar
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderTable(), m.renderScrollbar())
	bottom := m.renderStatusBar()
	if m.filtering {
		bottom = m.filter.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, bottom)
}

// visibleColumns clips the layout to the horizontal viewport
func (m Model) visibleColumns() []table.Column {
	vw, _ := m.viewportSize()
	left := int(math.Round(m.grid.ScrollLeft()))
	right := left + int(vw)

	l := m.grid.Layout()
	categories := make(map[string]schema.TypeCategory, len(m.grid.Schema()))
	for _, c := range m.grid.Schema() {
		categories[c.Name] = c.Category
	}
	sort := m.grid.Sort()

	var out []table.Column
	for _, c := range l.ColumnsInView(left, int(vw)) {
		width := min(c.End(), right) - max(c.Offset, left)
		title := c.Key
		if f, pos, ok := sort.Field(c.Key); ok {
			arrow := "▲"
			if f.Desc {
				arrow = "▼"
			}
			title = fmt.Sprintf("%s %s", title, arrow)
			if len(sort) > 1 {
				title += fmt.Sprint(pos + 1)
			}
		}
		focused := m.focus < len(l.Columns) && l.Columns[m.focus].Key == c.Key
		out = append(out, table.Column{
			Key:      c.Key,
			Title:    title,
			Width:    width,
			Category: categories[c.Key],
			Focused:  focused,
		})
	}
	return out
}

func (m Model) renderTable() string {
	cols := m.visibleColumns()
	vis := m.grid.Ranges().Visible

	var records []schema.Record
	for _, r := range m.grid.VisibleRows() {
		if vis.Contains(r.Index) {
			records = append(records, r.Record)
		}
	}
	if len(cols) == 0 {
		msg := "no columns"
		if m.grid.Schema() == nil {
			msg = "loading " + m.grid.Table()
		}
		return MetaStyle.Render(msg)
	}
	return table.FromRecords(cols, records).View()
}

// renderScrollbar draws the vertical track next to the rows
func (m Model) renderScrollbar() string {
	_, vh := m.viewportSize()
	track := int(vh)
	lines := make([]string, 0, tableChromeTop+track+tableChromeBottom)
	for range tableChromeTop {
		lines = append(lines, " ")
	}

	thumb := m.grid.Thumb(1)
	start, end := 0, 0
	if thumb.Visible {
		start = int(math.Round(thumb.Offset))
		end = start + max(1, int(math.Round(thumb.Size)))
	}
	for i := range track {
		if i >= start && i < end {
			lines = append(lines, ThumbStyle.Render("┃"))
			continue
		}
		lines = append(lines, TrackStyle.Render("│"))
	}
	lines = append(lines, " ")
	return strings.Join(lines, "\n")
}

func (m Model) renderStatusBar() string {
	var parts []string

	parts = append(parts, TableNameStyle.Render(m.grid.Table()))
	if m.opts.Connection != "" {
		parts = append(parts, ConnectionStyle.Render(m.opts.Connection))
	}

	if m.grid.Loading() {
		parts = append(parts, SpinnerStyle.Render(" "+m.spinner.View()+" loading "))
	}

	total := m.grid.TotalRows()
	vis := m.grid.Ranges().Visible
	if total > 0 && !vis.Empty() {
		parts = append(parts, MetaStyle.Render(fmt.Sprintf("%d-%d of %d", vis.Start+1, vis.End, total)))
	} else {
		parts = append(parts, MetaStyle.Render(fmt.Sprintf("%d rows", total)))
	}
	parts = append(parts, MetaStyle.Render(fmt.Sprintf("cached %d", m.grid.CachedRows())))

	if s := m.grid.Sort(); len(s) > 0 {
		parts = append(parts, SortStyle.Render("sort "+s.String()))
	}
	if f := m.filterText(); f != "" {
		parts = append(parts, FilterStyle.Render("where "+f))
	}
	if m.statusMsg != "" {
		parts = append(parts, MetaStyle.Render(m.statusMsg))
	}

	if m.errorMsg != "" {
		truncated := m.errorMsg
		if len(truncated) > 60 {
			truncated = truncated[:57] + "..."
		}
		parts = append(parts, ErrorStyle.Render("⚠ "+truncated))
	}

	content := lipgloss.JoinHorizontal(lipgloss.Left, parts...)
	return StatusBarStyle.Width(m.width).Render(content)
}
