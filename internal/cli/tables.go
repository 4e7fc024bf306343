package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhath/ezgrid/internal/db"
)

type tablesParams struct {
	source  sourceParams
	columns bool
}

func init() {
	var params tablesParams

	tablesCommand := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tables(cmd.Context(), globals, params, os.Stdout)
		},
	}
	params.source.addFlags(tablesCommand)
	tablesCommand.Flags().BoolVar(&params.columns, "columns", false, "also list each table's columns and types")

	RootCommand.AddCommand(tablesCommand)
}

func tables(ctx context.Context, gp globalParams, params tablesParams, stdout io.Writer) error {
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

	return writeTables(ctx, stdout, s.driver, params.columns)
}

func writeTables(ctx context.Context, w io.Writer, d db.Driver, columns bool) error {
	names, err := d.GetTables(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
		if !columns {
			continue
		}
		cols, err := d.GetColumns(ctx, name)
		if err != nil {
			return fmt.Errorf("columns of %s: %w", name, err)
		}
		for _, c := range cols {
			null := ""
			if !c.Nullable {
				null = " not null"
			}
			key := ""
			if c.Key != "" {
				key = " " + c.Key
			}
			fmt.Fprintf(w, "  %s %s%s%s\n", c.Name, c.Type, null, key)
		}
	}
	return nil
}
