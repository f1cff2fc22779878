package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/clessn/scrapessn/lib/restyutil"
	"github.com/clessn/scrapessn/lib/scrapers/gnod"
	"github.com/clessn/scrapessn/lib/serviceutil"
	"github.com/clessn/scrapessn/services/crawler"

	"github.com/dgraph-io/badger/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const defaultBaseUrl = "https://www.music-map.com"

var (
	scrapeDb      *string
	scrapeBaseUrl *string
	scrapeCache   *string
)

func init() {
	scrapeDb = scrapeCmd.Flags().String("db", "closeness.db", "The database to write scrape results to.")
	scrapeBaseUrl = scrapeCmd.Flags().String("base-url", defaultBaseUrl, "The gnod map site to scrape.")
	scrapeCache = scrapeCmd.Flags().String("cache", "", "Directory for the page cache, caching is disabled when empty.")
	rootCmd.AddCommand(scrapeCmd)
}

func createClient(ctx context.Context, baseUrl, cacheDir string) (*gnod.Client, func(), error) {
	cleanup := func() {}

	var cache *badger.DB
	if cacheDir != "" {
		var err error
		cache, err = badger.Open(badger.DefaultOptions(cacheDir).WithLogger(nil))
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { cache.Close() }
	}

	if *verbose {
		gnod.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/gnod"))
	}
	client, err := gnod.NewClient(ctx, gnod.ClientOptions{
		BaseUrl: baseUrl,
		Cache:   cache,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <subject ref>",
	Short: "Scrapes a single subject's map page and records it in the database.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		subject := args[0]

		client, cleanup, err := createClient(cmd.Context(), *scrapeBaseUrl, *scrapeCache)
		if err != nil {
			serviceutil.Fatal("create client", err)
		}
		defer cleanup()

		page, err := client.ScrapeSubject(cmd.Context(), subject)
		if err != nil {
			serviceutil.Fatal("scrape subject", err)
		}

		svc, database, err := openService(*scrapeDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		runId, err := svc.BeginRun(cmd.Context(), *scrapeBaseUrl)
		if err != nil {
			serviceutil.Fatal("begin run", err)
		}
		recorded, err := svc.RecordTable(cmd.Context(), runId, page.Items, page.Table)
		if err != nil {
			serviceutil.Fatal("record table", err)
		}
		err = svc.FinishRun(cmd.Context(), runId, 1, 0)
		if err != nil {
			serviceutil.Fatal("finish run", err)
		}

		slog.Info("recorded scrape",
			"run_id", runId,
			"new_edges", recorded.NewEdges,
			"ignored_edges", recorded.Ignored,
		)

		t := newTable()
		t.AppendHeader(table.Row{"Item", "Closeness"})
		for _, item := range page.Items {
			score, ok := page.Table.Lookup(page.Subject, item.Id)
			if !ok || item.Id == page.Subject {
				continue
			}
			t.AppendRow(table.Row{item.Name, formatScore(score)})
		}
		t.Render()
	},
}

var (
	crawlDb       *string
	crawlBaseUrl  *string
	crawlCache    *string
	crawlDepth    *int
	crawlMaxPages *int
	crawlWorkers  *int
)

func init() {
	crawlDb = crawlCmd.Flags().String("db", "closeness.db", "The database to write crawl results to.")
	crawlBaseUrl = crawlCmd.Flags().String("base-url", defaultBaseUrl, "The gnod map site to crawl.")
	crawlCache = crawlCmd.Flags().String("cache", "", "Directory for the page cache, caching is disabled when empty.")
	crawlDepth = crawlCmd.Flags().Int("depth", 1, "How many hops away from the seeds to follow.")
	crawlMaxPages = crawlCmd.Flags().Int("max-pages", 100, "Hard cap on pages attempted, 0 removes the cap.")
	crawlWorkers = crawlCmd.Flags().Int("workers", 4, "Parallel page fetches.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <seed ref> [more seeds...]",
	Short: "Crawls outward from seed subjects, merging every page into the database.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, cleanup, err := createClient(cmd.Context(), *crawlBaseUrl, *crawlCache)
		if err != nil {
			serviceutil.Fatal("create client", err)
		}
		defer cleanup()

		svc, database, err := openService(*crawlDb)
		if err != nil {
			serviceutil.Fatal("open db", err)
		}
		defer database.Close()

		t1 := time.Now()
		report, err := crawler.New(client, svc).Run(cmd.Context(), crawler.Options{
			Origin:   *crawlBaseUrl,
			Seeds:    args,
			MaxDepth: *crawlDepth,
			MaxPages: *crawlMaxPages,
			Workers:  *crawlWorkers,
		})
		if err != nil {
			serviceutil.Fatal("crawl", err)
		}
		t2 := time.Now()

		slog.Info("crawl time", "seconds", t2.Sub(t1).Seconds())
		for _, failure := range report.Failed {
			slog.Warn("failed page", "ref", failure.Ref, "err", failure.Err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Run", report.RunId})
		t.AppendRow(table.Row{"Pages scraped", report.PagesScraped})
		t.AppendRow(table.Row{"New edges", report.NewEdges})
		t.AppendRow(table.Row{"Ignored edges", report.IgnoredEdges})
		t.AppendRow(table.Row{"Fetch errors", report.FetchErrors})
		t.AppendRow(table.Row{"Structure errors", report.StructureErrors})
		t.AppendRow(table.Row{"Parse errors", report.ParseErrors})
		t.AppendRow(table.Row{"Other errors", report.OtherErrors})
		t.Render()
	},
}
