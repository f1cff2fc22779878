package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/clessn/scrapessn/lib/restyutil"
	"github.com/clessn/scrapessn/lib/scrapers/gnod"
	"github.com/clessn/scrapessn/lib/serviceutil"
	"github.com/clessn/scrapessn/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "scrapessnd")
	if errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "no telemetry.json5 found, telemetry is disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	} else {
		go func() {
			<-ctx.Done()
			telemetry.Shutdown(context.Background())
		}()
		telemetry.InstrumentPerfStats(ctx)
	}

	if !verbose {
		return
	}

	gnod.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/gnod"),
	)
}
