package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/clessn/scrapessn/services/crawler"
	"github.com/clessn/scrapessn/services/watchdog"

	"github.com/robfig/cron/v3"
)

type crawlDeps struct {
	config  ScrapeConfig
	crawler crawler.Crawler
	guard   *watchdog.Service
}

var crawlRunning atomic.Bool

// tryCrawl kicks off a crawl in the background unless one is already
// underway. Scheduled, manual and startup crawls all go through here,
// there is never more than one crawl at a time.
func tryCrawl(ctx context.Context, deps crawlDeps) bool {
	if !crawlRunning.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer crawlRunning.Store(false)
		runCrawl(ctx, deps)
	}()
	return true
}

func runCrawl(ctx context.Context, deps crawlDeps) {
	report, err := deps.crawler.Run(ctx, crawler.Options{
		Origin:   deps.config.BaseUrl,
		Seeds:    deps.config.Seeds,
		MaxDepth: deps.config.MaxDepth,
		MaxPages: deps.config.MaxPages,
		Workers:  deps.config.Workers,
	})
	if err != nil {
		slog.ErrorContext(ctx, "crawl failed", "err", err)
		return
	}

	slog.InfoContext(ctx, "crawl finished",
		"run_id", report.RunId,
		"pages", report.PagesScraped,
		"new_edges", report.NewEdges,
		"failures", report.Failures(),
	)

	err = deps.guard.Inspect(ctx, report)
	if err != nil {
		slog.ErrorContext(ctx, "send watchdog alert", "err", err)
	}
}

func InitScheduler(ctx context.Context, deps crawlDeps, initialCrawl *bool) error {
	if *initialCrawl {
		slog.Info("crawling on start")
		tryCrawl(ctx, deps)
	}
	if deps.config.Schedule == "" {
		return nil
	}

	cronner := cron.New(cron.WithLogger(cronLogger{}))
	_, err := cronner.AddFunc(deps.config.Schedule, func() {
		if !tryCrawl(ctx, deps) {
			slog.WarnContext(ctx, "crawl still running, skipping scheduled crawl")
		}
	})
	if err != nil {
		return fmt.Errorf("bad crawl schedule %q: %w", deps.config.Schedule, err)
	}
	cronner.Start()

	go func() {
		<-ctx.Done()
		cronner.Stop()
	}()
	return nil
}

type cronLogger struct{}

func (l cronLogger) kv(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1])
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), l.kv(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append(l.kv(keysAndValues), "err", err)...)
}
