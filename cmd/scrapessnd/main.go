package main

import (
	"flag"

	"github.com/clessn/scrapessn/lib/configutil"
	"github.com/clessn/scrapessn/lib/scrapers/gnod"
	"github.com/clessn/scrapessn/lib/serviceutil"
	"github.com/clessn/scrapessn/lib/sqliteutil"
	"github.com/clessn/scrapessn/services/crawler"
	"github.com/clessn/scrapessn/services/dataset"
	"github.com/clessn/scrapessn/services/dataset/db"
	"github.com/clessn/scrapessn/services/watchdog"

	"github.com/dgraph-io/badger/v4"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialCrawl := flag.Bool("crawl", false, "Trigger a crawl immediately on start.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	database, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open db", err)
	}
	defer database.Close()
	svc := dataset.NewService(database)

	var cache *badger.DB
	if cfg.Scrape.Cache != "" {
		cache, err = badger.Open(badger.DefaultOptions(cfg.Scrape.Cache).WithLogger(nil))
		if err != nil {
			serviceutil.Fatal("open page cache", err)
		}
		defer cache.Close()
	}
	client, err := gnod.NewClient(ctx, gnod.ClientOptions{
		BaseUrl: cfg.Scrape.BaseUrl,
		Cache:   cache,
	})
	if err != nil {
		serviceutil.Fatal("create gnod client", err)
	}

	deps := crawlDeps{
		config:  cfg.Scrape,
		crawler: crawler.New(client, svc),
		guard: watchdog.NewService(watchdog.Options{
			Smtp:          cfg.Watchdog.Smtp,
			OperatorEmail: cfg.Watchdog.OperatorEmail,
			Origin:        cfg.Scrape.BaseUrl,
			Threshold:     cfg.Watchdog.Threshold,
		}),
	}
	err = InitScheduler(ctx, deps, initialCrawl)
	if err != nil {
		serviceutil.Fatal("init scheduler", err)
	}

	StartApi(ctx, cfg.Api, svc, func() bool {
		return tryCrawl(ctx, deps)
	})
}
