package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/clessn/scrapessn/lib/closeness"
	"github.com/clessn/scrapessn/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	exportDb  *string
	exportOut *string
)

func init() {
	exportDb = exportCmd.Flags().String("db", "closeness.db", "The database to export.")
	exportOut = exportCmd.Flags().String("out", "", "Output file, stdout when empty.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--out <path/to/table.csv>]",
	Short: "Writes the merged closeness table as csv.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, database, err := openService(*exportDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		tbl, err := svc.Table(cmd.Context())
		if err != nil {
			serviceutil.Fatal("read table", err)
		}

		out := os.Stdout
		if *exportOut != "" {
			f, err := os.Create(*exportOut)
			if err != nil {
				serviceutil.Fatal("create output file", err)
			}
			defer f.Close()
			out = f
		}
		err = closeness.WriteCsv(out, tbl)
		if err != nil {
			serviceutil.Fatal("write csv", err)
		}
	},
}

var importDb *string

func init() {
	importDb = importCmd.Flags().String("db", "closeness.db", "The database to import into.")
	rootCmd.AddCommand(importCmd)
}

// a csv carries only item ids, so imported items show their id as a
// name until something richer claims it first
func itemsFromTable(t closeness.Table) []closeness.Item {
	seen := map[string]bool{}
	var items []closeness.Item
	for _, e := range t.Edges() {
		for _, id := range []string{e.ItemA, e.ItemB} {
			if seen[id] {
				continue
			}
			seen[id] = true
			items = append(items, closeness.Item{Id: id, Name: id, SourceRef: id})
		}
	}
	return items
}

var importCmd = &cobra.Command{
	Use:   "import <table.csv> [more.csv...]",
	Short: "Loads csv exports into the database, pairs already present keep their score.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, database, err := openService(*importDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		for _, path := range args {
			tbl := readCsvFile(path)

			runId, err := svc.BeginRun(cmd.Context(), fmt.Sprintf("import:%s", filepath.Base(path)))
			if err != nil {
				serviceutil.Fatal("begin run", err)
			}
			recorded, err := svc.RecordTable(cmd.Context(), runId, itemsFromTable(tbl), tbl)
			if err != nil {
				serviceutil.Fatal("record table", err)
			}
			err = svc.FinishRun(cmd.Context(), runId, 0, 0)
			if err != nil {
				serviceutil.Fatal("finish run", err)
			}

			slog.Info("imported csv",
				"file", path,
				"new_edges", recorded.NewEdges,
				"ignored_edges", recorded.Ignored,
			)
		}
	},
}

var mergeOut *string

func init() {
	mergeOut = mergeCmd.Flags().String("out", "", "Output file, stdout when empty.")
	rootCmd.AddCommand(mergeCmd)
}

func readCsvFile(path string) closeness.Table {
	f, err := os.Open(path)
	if err != nil {
		serviceutil.Fatal("open csv", err)
	}
	defer f.Close()

	tbl, err := closeness.ReadCsv(f)
	if err != nil {
		serviceutil.Fatal(fmt.Sprintf("read %s", path), err)
	}
	return tbl
}

var mergeCmd = &cobra.Command{
	Use:   "merge <base.csv> <incoming.csv> [more.csv...]",
	Short: "Merges csv exports into one table, earlier files win on conflicting pairs.",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		merged := readCsvFile(args[0])
		for _, path := range args[1:] {
			merged = closeness.Merge(merged, readCsvFile(path))
		}

		out := os.Stdout
		if *mergeOut != "" {
			f, err := os.Create(*mergeOut)
			if err != nil {
				serviceutil.Fatal("create output file", err)
			}
			defer f.Close()
			out = f
		}
		err := closeness.WriteCsv(out, merged)
		if err != nil {
			serviceutil.Fatal("write csv", err)
		}
	},
}
