package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/clessn/scrapessn/lib/closeness"
	"github.com/clessn/scrapessn/lib/sqliteutil"
	"github.com/clessn/scrapessn/lib/telemetry"
	"github.com/clessn/scrapessn/services/dataset"
	"github.com/clessn/scrapessn/services/dataset/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "scrapessn",
	Short: "scrapessn scrapes gnod closeness maps and queries the merged dataset.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openService(path string) (dataset.Service, *sql.DB, error) {
	database, err := sqliteutil.OpenDB(db.Schema, path)
	if err != nil {
		return dataset.Service{}, nil, err
	}
	return dataset.NewService(database), database, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func formatScore(s closeness.Score) string {
	if !s.Known {
		return "NA"
	}
	return fmt.Sprintf("%g", s.Value)
}
