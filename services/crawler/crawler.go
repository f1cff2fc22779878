// Package crawler walks the map site graph breadth-first: scrape a
// subject, discover the items on its page, scrape those, and so on up
// to a depth limit. Fetches run in parallel but results are merged
// into the dataset by a single collector, so edge precedence stays
// well defined.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/clessn/scrapessn/lib/scrapers/gnod"
	"github.com/clessn/scrapessn/lib/slug"
	"github.com/clessn/scrapessn/services/dataset"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/crawler")

// Fetcher is the one thing the crawler needs from a scraping client.
type Fetcher interface {
	ScrapeSubject(ctx context.Context, subjectRef string) (gnod.Page, error)
}

type Options struct {
	// where the crawl's data comes from, recorded on the scrape run
	Origin string
	// raw refs to start from, e.g. "the+beatles"
	Seeds []string
	// how many hops away from the seeds to follow, 0 scrapes only the
	// seeds themselves
	MaxDepth int
	// hard cap on pages attempted, 0 means no cap
	MaxPages int
	// parallel fetches, defaults to 4
	Workers int
}

type Failure struct {
	Ref string
	Err error
}

type Report struct {
	RunId        string
	PagesScraped int
	NewEdges     int64
	IgnoredEdges int64

	FetchErrors     int
	StructureErrors int
	ParseErrors     int
	OtherErrors     int
	Failed          []Failure
}

func (r Report) Failures() int {
	return r.FetchErrors + r.StructureErrors + r.ParseErrors + r.OtherErrors
}

type Crawler struct {
	fetcher Fetcher
	dataset dataset.Service
}

func New(fetcher Fetcher, ds dataset.Service) Crawler {
	return Crawler{
		fetcher: fetcher,
		dataset: ds,
	}
}

type outcome struct {
	ref  string
	page gnod.Page
	err  error
}

// Run crawls until the frontier is exhausted or a limit is hit. Page
// failures are counted and reported, they never stop the crawl; an
// error return means the crawl itself couldn't proceed, like the
// dataset refusing writes.
func (c Crawler) Run(ctx context.Context, opts Options) (Report, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("seeds", len(opts.Seeds)),
		attribute.Int("max_depth", opts.MaxDepth),
	)

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	runId, err := c.dataset.BeginRun(ctx, opts.Origin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin run")
		return Report{}, err
	}
	report := Report{RunId: runId}

	visited := map[string]struct{}{}
	var frontier []string
	for _, seed := range opts.Seeds {
		id := slug.Normalize(seed)
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		frontier = append(frontier, seed)
	}

	attempted := 0
	for depth := 0; depth <= opts.MaxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			break
		}

		batch := frontier
		if opts.MaxPages > 0 && attempted+len(batch) > opts.MaxPages {
			batch = batch[:opts.MaxPages-attempted]
		}
		if len(batch) == 0 {
			break
		}
		attempted += len(batch)
		frontier = nil

		slog.InfoContext(ctx, "crawling",
			"depth", depth,
			"pages", len(batch),
			"run_id", runId,
		)

		// fetches fan out, but this loop is the only writer
		for _, result := range c.scrapeBatch(ctx, batch, workers) {
			if result.err != nil {
				c.classify(ctx, &report, result)
				continue
			}

			recorded, err := c.dataset.RecordTable(
				ctx, runId, result.page.Items, result.page.Table,
			)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to record table")
				c.finish(ctx, &report)
				return report, err
			}
			report.PagesScraped++
			report.NewEdges += recorded.NewEdges
			report.IgnoredEdges += recorded.Ignored

			for _, item := range result.page.Items {
				if _, ok := visited[item.Id]; ok {
					continue
				}
				visited[item.Id] = struct{}{}
				frontier = append(frontier, item.SourceRef)
			}
		}
	}

	c.finish(ctx, &report)
	span.SetAttributes(
		attribute.Int("pages_scraped", report.PagesScraped),
		attribute.Int("failures", report.Failures()),
		attribute.Int64("new_edges", report.NewEdges),
	)
	return report, ctx.Err()
}

func (c Crawler) scrapeBatch(ctx context.Context, refs []string, workers int) []outcome {
	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				page, err := c.fetcher.ScrapeSubject(ctx, ref)
				results <- outcome{ref: ref, page: page, err: err}
			}
		}()
	}
	go func() {
		for _, ref := range refs {
			jobs <- ref
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var out []outcome
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (c Crawler) classify(ctx context.Context, report *Report, result outcome) {
	switch {
	case errors.Is(result.err, gnod.ErrFetch):
		report.FetchErrors++
	case errors.Is(result.err, gnod.ErrStructuralMismatch):
		report.StructureErrors++
	case errors.Is(result.err, gnod.ErrParse):
		report.ParseErrors++
	default:
		report.OtherErrors++
	}
	report.Failed = append(report.Failed, Failure{Ref: result.ref, Err: result.err})
	slog.WarnContext(ctx, "failed to scrape subject",
		"ref", result.ref,
		"err", result.err,
	)
}

func (c Crawler) finish(ctx context.Context, report *Report) {
	err := c.dataset.FinishRun(ctx, report.RunId, report.PagesScraped, report.Failures())
	if err != nil {
		slog.ErrorContext(ctx, "failed to finish scrape run",
			"run_id", report.RunId,
			"err", err,
		)
	}
}
