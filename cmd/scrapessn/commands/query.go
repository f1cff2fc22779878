package commands

import (
	"time"

	"github.com/clessn/scrapessn/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	relatedDb    *string
	relatedLimit *int
)

func init() {
	relatedDb = relatedCmd.Flags().String("db", "closeness.db", "The database to query.")
	relatedLimit = relatedCmd.Flags().Int("limit", 20, "At most this many related items, 0 prints all of them.")
	rootCmd.AddCommand(relatedCmd)
}

var relatedCmd = &cobra.Command{
	Use:   "related <name or id>",
	Short: "Prints the items closest to the given one.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, database, err := openService(*relatedDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		item, err := svc.FindItem(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("find item", err)
		}

		related, err := svc.Related(cmd.Context(), item.Id)
		if err != nil {
			serviceutil.Fatal("list related items", err)
		}
		if *relatedLimit > 0 && len(related) > *relatedLimit {
			related = related[:*relatedLimit]
		}

		t := newTable()
		t.AppendHeader(table.Row{"Item", "Closeness"})
		for _, r := range related {
			t.AppendRow(table.Row{r.Name, formatScore(r.Closeness)})
		}
		t.Render()
	},
}

var itemsDb *string

func init() {
	itemsDb = itemsCmd.Flags().String("db", "closeness.db", "The database to query.")
	rootCmd.AddCommand(itemsCmd)
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Prints every item in the database.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, database, err := openService(*itemsDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		items, err := svc.Items(cmd.Context())
		if err != nil {
			serviceutil.Fatal("list items", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Name", "Source Ref"})
		for _, item := range items {
			t.AppendRow(table.Row{item.Id, item.Name, item.SourceRef})
		}
		t.Render()
	},
}

var runsDb *string

func init() {
	runsDb = runsCmd.Flags().String("db", "closeness.db", "The database to query.")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Prints past scrape runs, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, database, err := openService(*runsDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		runs, err := svc.Runs(cmd.Context())
		if err != nil {
			serviceutil.Fatal("list runs", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Origin", "Started", "Finished", "Subjects", "Failures"})
		for _, r := range runs {
			finished := "never"
			if !r.FinishedAt.IsZero() {
				finished = r.FinishedAt.Format(time.DateTime)
			}
			t.AppendRow(table.Row{
				r.Id, r.Origin,
				r.StartedAt.Format(time.DateTime), finished,
				r.Subjects, r.Failures,
			})
		}
		t.Render()
	},
}

var statsDb *string

func init() {
	statsDb = statsCmd.Flags().String("db", "closeness.db", "The database to query.")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints dataset counts.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, database, err := openService(*statsDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		stats, err := svc.Stats(cmd.Context())
		if err != nil {
			serviceutil.Fatal("read stats", err)
		}

		t := newTable()
		t.AppendRow(table.Row{"Items", stats.Items})
		t.AppendRow(table.Row{"Edges", stats.Edges})
		t.Render()
	},
}
