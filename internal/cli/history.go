package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/nhath/ezgrid/internal/config"
	"github.com/nhath/ezgrid/internal/history"
)

type historyParams struct {
	profile string
	search  string
	limit   int
	json    bool
	width   int
}

func init() {
	var params historyParams

	historyCommand := &cobra.Command{
		Use:   "history",
		Short: "Show the statements recent grids ran",
		Long: `Show the schema, count and row statements recent grids sent to the
database, newest first. Statements are logged per profile; demo sessions log
under the "demo" profile.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showHistory(globals, params, os.Stdout)
		},
	}
	historyCommand.Flags().StringVarP(&params.profile, "profile", "p", "", "profile to show (default is the configured default profile)")
	historyCommand.Flags().StringVarP(&params.search, "search", "s", "", "only show statements whose table or SQL contains this text")
	historyCommand.Flags().IntVarP(&params.limit, "limit", "n", 20, "number of entries")
	historyCommand.Flags().BoolVar(&params.json, "json", false, "print entries as JSON lines")
	historyCommand.Flags().IntVar(&params.width, "width", 60, "truncate SQL to this many characters")

	RootCommand.AddCommand(historyCommand)
}

// historyProfile picks the profile whose log is shown
func historyProfile(cfg *config.Config, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if len(cfg.Profiles) == 0 {
		return demoProfile, nil
	}
	p, err := cfg.ResolveProfile("")
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func showHistory(gp globalParams, params historyParams, stdout io.Writer) error {
	cfg, err := loadConfig(gp)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("the query log is disabled; set history.enabled in %s", cfg.Path())
	}
	profile, err := historyProfile(cfg, params.profile)
	if err != nil {
		return err
	}
	store, err := history.NewStore(cfg.History.MaxEntries)
	if err != nil {
		return err
	}
	defer store.Close()

	return writeHistory(stdout, store, profile, params)
}

func writeHistory(w io.Writer, store *history.Store, profile string, params historyParams) error {
	var (
		entries []history.Entry
		err     error
	)
	if params.search != "" {
		entries, err = store.Search(profile, params.search, params.limit)
	} else {
		entries, err = store.List(profile, params.limit, 0)
	}
	if err != nil {
		return err
	}

	if params.json {
		enc := json.NewEncoder(w)
		for i := range entries {
			if err := enc.Encode(&entries[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "no statements logged for %s\n", profile)
		return err
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	failed := cell.Foreground(lipgloss.Color("#BF616A"))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "WHEN", "KIND", "TABLE", "MS", "ROWS", "SQL").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case row >= 0 && row < len(entries) && entries[row].Status == history.StatusError:
				return failed
			}
			return cell
		})
	for i := range entries {
		e := &entries[i]
		query := e.QueryPreview(max(params.width, 4))
		if e.Status == history.StatusError {
			query = e.ErrorMessage
		}
		t.Row(
			strconv.FormatInt(e.ID, 10),
			e.ExecutedAt.Local().Format("01-02 15:04:05"),
			e.Kind,
			e.Table,
			strconv.FormatInt(e.DurationMs, 10),
			strconv.Itoa(e.RowCount),
			query,
		)
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}
