package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/nhath/ezgrid/internal/query"
	"github.com/nhath/ezgrid/internal/schema"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
)

type exportParams struct {
	source    sourceParams
	table     string
	columns   []string
	sort      []string
	where     string
	format    string
	output    string
	separator string
	pageSize  int
}

func init() {
	var params exportParams

	exportCommand := &cobra.Command{
		Use:   "export",
		Short: "Write a table to CSV or JSON lines",
		Long: `Write a table to CSV or JSON lines, sorted and filtered the same way the
grid is. Rows are read one window at a time, so tables of any size export
in constant memory.`,
		Example: `  ezgrid export --demo --sort score:desc --where "city = 'Lisbon'" -o lisbon.csv
  ezgrid export -p prod -t orders --format json | jq .total`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if params.table == "" && !params.source.demo {
				return errors.New("--table is required")
			}
			switch params.format {
			case formatCSV, formatJSON:
			default:
				return fmt.Errorf("unknown format %q: use csv or json", params.format)
			}
			if utf8.RuneCountInString(params.separator) != 1 {
				return errors.New("--separator must be a single character")
			}
			if params.pageSize <= 0 {
				return errors.New("--page-size must be positive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.table == "" {
				params.table = demoTable
			}
			return export(cmd.Context(), globals, params)
		},
	}
	params.source.addFlags(exportCommand)
	exportCommand.Flags().StringVarP(&params.table, "table", "t", "", "table to export")
	exportCommand.Flags().StringSliceVarP(&params.columns, "columns", "c", nil, "comma separated columns to export, in order")
	exportCommand.Flags().StringArrayVar(&params.sort, "sort", nil, "sort column, as name or name:desc (repeatable)")
	exportCommand.Flags().StringVar(&params.where, "where", "", "filter expression")
	exportCommand.Flags().StringVarP(&params.format, "format", "f", formatCSV, "output format: csv or json")
	exportCommand.Flags().StringVarP(&params.output, "output", "o", "", "output file (default is stdout)")
	exportCommand.Flags().StringVar(&params.separator, "separator", ",", "CSV field separator")
	exportCommand.Flags().IntVar(&params.pageSize, "page-size", 1000, "rows fetched per query")

	RootCommand.AddCommand(exportCommand)
}

func export(ctx context.Context, gp globalParams, params exportParams) error {
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

	var w io.Writer = os.Stdout
	if params.output != "" {
		f, err := os.Create(params.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := writeExport(ctx, w, s.source, params)
	if err != nil {
		return err
	}
	s.log.WithField("rows", n).Info("export finished")
	if params.output != "" {
		fmt.Fprintf(os.Stderr, "exported %d rows to %s\n", n, params.output)
	}
	return nil
}

// rowWriter writes one parsed record in column order
type rowWriter interface {
	header(columns []schema.ColumnSchema) error
	row(columns []schema.ColumnSchema, r schema.Record) error
	flush() error
}

type csvWriter struct {
	w *csv.Writer
}

func (c csvWriter) header(columns []schema.ColumnSchema) error {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return c.w.Write(names)
}

func (c csvWriter) row(columns []schema.ColumnSchema, r schema.Record) error {
	fields := make([]string, len(columns))
	for i, col := range columns {
		if v := r[col.Name]; v != nil {
			fields[i] = schema.Format(v)
		}
	}
	return c.w.Write(fields)
}

func (c csvWriter) flush() error {
	c.w.Flush()
	return c.w.Error()
}

type jsonWriter struct {
	enc *json.Encoder
}

func (jsonWriter) header([]schema.ColumnSchema) error { return nil }

func (j jsonWriter) row(columns []schema.ColumnSchema, r schema.Record) error {
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		out[col.Name] = r[col.Name]
	}
	return j.enc.Encode(out)
}

func (jsonWriter) flush() error { return nil }

// writeExport pages through the table one window at a time and returns the
// number of rows written
func writeExport(ctx context.Context, w io.Writer, src query.Source, params exportParams) (int, error) {
	columns, err := query.FetchSchema(ctx, src, params.table, params.columns)
	if err != nil {
		return 0, err
	}
	sort, err := parseSort(params.sort)
	if err != nil {
		return 0, err
	}
	filter, err := query.ParseFilter(params.where, columns)
	if err != nil {
		return 0, err
	}
	sel := query.NewSelection()
	sel.Update(filter)
	rows := query.NewRowsClient(params.table, columns, sel)
	if err := rows.SetSort(sort); err != nil {
		return 0, err
	}

	var out rowWriter
	switch params.format {
	case formatJSON:
		out = jsonWriter{enc: json.NewEncoder(w)}
	default:
		cw := csv.NewWriter(w)
		if params.separator != "" {
			cw.Comma, _ = utf8.DecodeRuneInString(params.separator)
		}
		out = csvWriter{w: cw}
	}
	if err := out.header(columns); err != nil {
		return 0, err
	}

	pageSize := params.pageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	written := 0
	for {
		rows.SetWindow(written, pageSize)
		raw, err := src.QueryRows(ctx, rows.Request())
		if err != nil {
			return written, err
		}
		for _, r := range rows.Parse(raw) {
			if err := out.row(columns, r); err != nil {
				return written, err
			}
			written++
		}
		if len(raw) < pageSize {
			break
		}
	}
	return written, out.flush()
}
