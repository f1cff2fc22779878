package main

import "github.com/clessn/scrapessn/services/watchdog"

type ScrapeConfig struct {
	BaseUrl string `json:"base_url"`
	// raw refs the crawl starts from, e.g. "the+beatles"
	Seeds    []string `json:"seeds"`
	MaxDepth int      `json:"max_depth"`
	MaxPages int      `json:"max_pages"`
	Workers  int      `json:"workers"`
	// directory for the badger page cache, caching is disabled when
	// empty
	Cache string `json:"cache"`
	// cron spec for scheduled recrawls, e.g. "0 3 * * *". no schedule
	// means crawls only happen on demand.
	Schedule string `json:"schedule"`
}

type ApiConfig struct {
	Port int `json:"port"`
}

type WatchdogConfig struct {
	Smtp          watchdog.SmtpConfig `json:"smtp"`
	OperatorEmail string              `json:"operator_email"`
	Threshold     int                 `json:"threshold"`
}

type Config struct {
	Database string         `json:"database"`
	Scrape   ScrapeConfig   `json:"scrape"`
	Api      ApiConfig      `json:"api"`
	Watchdog WatchdogConfig `json:"watchdog"`
}
