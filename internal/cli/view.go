package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhath/ezgrid/internal/config"
	"github.com/nhath/ezgrid/internal/grid"
	"github.com/nhath/ezgrid/internal/query"
	"github.com/nhath/ezgrid/internal/ui"
)

type viewParams struct {
	source  sourceParams
	table   string
	columns []string
}

func init() {
	var params viewParams

	viewCommand := &cobra.Command{
		Use:   "view",
		Short: "Open a table as a scrollable grid",
		Long: `Open a table as a scrollable grid.

Rows are fetched in windows around the viewport as you scroll. Column
widths come from the [tables.<name>] section of the config file.`,
		Example: `  ezgrid view --demo
  ezgrid view -p prod --table public.orders --columns id,total,created_at`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if params.table == "" && !params.source.demo {
				return errors.New("--table is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return view(cmd.Context(), globals, params)
		},
	}
	params.source.addFlags(viewCommand)
	viewCommand.Flags().StringVarP(&params.table, "table", "t", "", "table to display (default is the demo table with --demo)")
	viewCommand.Flags().StringSliceVarP(&params.columns, "columns", "c", nil, "comma separated columns to display, in order")

	RootCommand.AddCommand(viewCommand)
}

// gridOptions merges the flags with the [grid] and [tables.<name>] sections
func gridOptions(cfg *config.Config, table string, columns []string, log logrus.FieldLogger) (grid.Options, error) {
	rh, err := cfg.Grid.RowHeight()
	if err != nil {
		return grid.Options{}, err
	}
	tc := cfg.Table(table)
	specs, err := tc.Specs()
	if err != nil {
		return grid.Options{}, &config.TableError{Table: table, Err: err}
	}
	if len(columns) == 0 {
		columns = tc.Show
	}
	return grid.Options{
		Table:         table,
		Columns:       columns,
		Specs:         specs,
		Overscan:      cfg.Grid.Overscan,
		RootFontSize:  cfg.Grid.RootFontSize,
		TableFontSize: cfg.Grid.TableFontSize,
		RowHeight:     &rh,
		Logger:        log,
	}, nil
}

// serveMetrics exposes the session registry until ctx is done
func serveMetrics(ctx context.Context, addr string, s *session) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("metrics endpoint stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	s.log.WithField("addr", addr).Info("serving metrics")
}

func view(ctx context.Context, gp globalParams, params viewParams) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(gp)
	if err != nil {
		return err
	}
	logger, closer, err := setupLogging(cfg, gp)
	if err != nil {
		return err
	}
	defer closer.Close()

	if params.table == "" {
		params.table = demoTable
	}

	s, err := openSession(ctx, cfg, params.source, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := gridOptions(cfg, params.table, params.columns, s.log)
	if err != nil {
		return err
	}
	opts.Metrics = s.metrics

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if addr := cfg.Metrics.Listen; addr != "" {
		serveMetrics(ctx, addr, s)
	}

	ui.InitStyles(cfg.Theme)
	sel := query.NewSelection()
	g := grid.New(s.schemas, sel, opts)
	defer g.Close()

	model := ui.NewModel(g, sel, ui.Options{
		Connection: s.display,
		Grid:       cfg.Grid,
		Keys:       cfg.Keys,
	})
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.Model); ok {
		if gerr := m.Grid().Err(); gerr != nil {
			return gerr
		}
		if _, msg := m.Status(); msg != "" {
			fmt.Fprintln(os.Stderr, strings.TrimSpace(msg))
		}
	}
	return nil
}
