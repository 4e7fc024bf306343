// internal/ui/styles.go
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhath/ezgrid/internal/config"
	"github.com/nhath/ezgrid/internal/ui/components/table"
)

var (
	textPrimary   lipgloss.Color
	textSecondary lipgloss.Color
	textFaint     lipgloss.Color

	accentColor    lipgloss.Color
	successColor   lipgloss.Color
	errorColor     lipgloss.Color
	highlightColor lipgloss.Color
	warningColor   lipgloss.Color

	bgPrimary   lipgloss.Color
	bgSecondary lipgloss.Color

	// Styles
	StatusBarStyle  lipgloss.Style
	TableNameStyle  lipgloss.Style
	ConnectionStyle lipgloss.Style
	MetaStyle       lipgloss.Style
	SortStyle       lipgloss.Style
	FilterStyle     lipgloss.Style
	PromptStyle     lipgloss.Style
	ErrorStyle      lipgloss.Style
	SpinnerStyle    lipgloss.Style
	ThumbStyle      lipgloss.Style
	TrackStyle      lipgloss.Style
)

// InitStyles initializes the global styles from the configured theme. The
// table component shares the palette.
func InitStyles(theme config.Theme) {
	textPrimary = lipgloss.Color(theme.TextPrimary)
	textSecondary = lipgloss.Color(theme.TextSecondary)
	textFaint = lipgloss.Color(theme.TextFaint)

	accentColor = lipgloss.Color(theme.Accent)
	successColor = lipgloss.Color(theme.Success)
	errorColor = lipgloss.Color(theme.Error)
	highlightColor = lipgloss.Color(theme.Highlight)
	warningColor = lipgloss.Color(theme.Warning)

	bgPrimary = lipgloss.Color(theme.BgPrimary)
	bgSecondary = lipgloss.Color(theme.BgSecondary)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(textPrimary).
		Background(bgSecondary)

	TableNameStyle = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(successColor).
		Foreground(bgPrimary)

	ConnectionStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(bgSecondary).
		Foreground(textSecondary)

	MetaStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(bgSecondary).
		Foreground(textFaint)

	SortStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(bgSecondary).
		Foreground(highlightColor)

	FilterStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(warningColor).
		Foreground(bgPrimary)

	PromptStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor)

	ErrorStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(errorColor).
		Foreground(textPrimary)

	SpinnerStyle = lipgloss.NewStyle().
		Background(bgSecondary).
		Foreground(accentColor)

	ThumbStyle = lipgloss.NewStyle().Foreground(accentColor)
	TrackStyle = lipgloss.NewStyle().Foreground(textFaint)

	table.Init(theme)
}
