package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/nhath/ezgrid/internal/db"
	"github.com/nhath/ezgrid/internal/query"
	"github.com/nhath/ezgrid/internal/ui/highlight"
)

type explainParams struct {
	source  sourceParams
	table   string
	columns []string
	offset  int
	limit   int
	sort    []string
	where   string
	noColor bool
	style   string
}

func init() {
	var params explainParams

	explainCommand := &cobra.Command{
		Use:   "explain",
		Short: "Print the statements the grid runs for a window",
		Long: `Print the count and row statements the grid would run for one window of
a table, with their arguments. Nothing but the table schema is queried.`,
		Example: `  ezgrid explain --demo --offset 1000 --limit 75 --sort score:desc --where "city = 'Osaka'"`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if params.table == "" && !params.source.demo {
				return errors.New("--table is required")
			}
			if params.limit < 0 || params.offset < 0 {
				return errors.New("--offset and --limit must not be negative")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.table == "" {
				params.table = demoTable
			}
			return explain(cmd.Context(), globals, params, os.Stdout)
		},
	}
	params.source.addFlags(explainCommand)
	explainCommand.Flags().StringVarP(&params.table, "table", "t", "", "table to explain")
	explainCommand.Flags().StringSliceVarP(&params.columns, "columns", "c", nil, "comma separated columns to select")
	explainCommand.Flags().IntVar(&params.offset, "offset", 0, "first row of the window")
	explainCommand.Flags().IntVar(&params.limit, "limit", 75, "rows in the window")
	explainCommand.Flags().StringArrayVar(&params.sort, "sort", nil, "sort column, as name or name:desc (repeatable)")
	explainCommand.Flags().StringVar(&params.where, "where", "", "filter expression, e.g. \"score >= 50 and city like 'O%'\"")
	explainCommand.Flags().BoolVar(&params.noColor, "no-color", false, "print plain SQL")
	explainCommand.Flags().StringVar(&params.style, "style", highlight.DefaultStyle, "syntax highlighting style")

	RootCommand.AddCommand(explainCommand)
}

// parseSort reads name or name:asc|desc entries
func parseSort(entries []string) (query.Sort, error) {
	var s query.Sort
	for _, e := range entries {
		name, dir, _ := strings.Cut(e, ":")
		f := query.SortField{Column: strings.TrimSpace(name)}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			f.Desc = true
		default:
			return nil, fmt.Errorf("invalid sort %q: direction must be asc or desc", e)
		}
		if f.Column == "" {
			return nil, fmt.Errorf("invalid sort %q: missing column", e)
		}
		if _, _, dup := s.Field(f.Column); dup {
			return nil, fmt.Errorf("invalid sort %q: column sorted twice", e)
		}
		s = append(s, f)
	}
	return s, nil
}

func explain(ctx context.Context, gp globalParams, params explainParams, stdout io.Writer) error {
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

	params.source.noHistory = true
	s, err := openSession(ctx, cfg, params.source, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return writeExplain(ctx, stdout, s.source, s.driver.Type(), params)
}

// writeExplain builds both statements for params against src
func writeExplain(ctx context.Context, w io.Writer, src *query.SQLSource, typ db.DriverType, params explainParams) error {
	columns, err := query.FetchSchema(ctx, src, params.table, params.columns)
	if err != nil {
		return err
	}
	sort, err := parseSort(params.sort)
	if err != nil {
		return err
	}
	filter, err := query.ParseFilter(params.where, columns)
	if err != nil {
		return err
	}

	sel := query.NewSelection()
	sel.Update(filter)
	rows := query.NewRowsClient(params.table, columns, sel)
	if err := rows.SetSort(sort); err != nil {
		return err
	}
	rows.SetWindow(params.offset, params.limit)

	countSQL, countArgs, err := src.CountSQL(params.table, filter)
	if err != nil {
		return err
	}
	rowsSQL, rowsArgs, err := src.RowsSQL(rows.Request())
	if err != nil {
		return err
	}

	format := func(sql string) string {
		if params.noColor {
			return sql
		}
		return strings.TrimSuffix(highlight.SQL(sql, typ, params.style), "\n")
	}
	section := func(title, sql string, args []any) error {
		if args == nil {
			args = []any{}
		}
		a, err := json.Marshal(args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "-- %s\n%s\n-- args: %s\n", title, format(sql), a)
		return err
	}

	if err := section("count", countSQL, countArgs); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return section(fmt.Sprintf("rows %d-%d", params.offset, params.offset+params.limit), rowsSQL, rowsArgs)
}
