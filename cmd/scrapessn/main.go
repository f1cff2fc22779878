package main

import (
	"context"
	"errors"
	"os"

	"github.com/clessn/scrapessn/cmd/scrapessn/commands"
	"github.com/clessn/scrapessn/lib/serviceutil"
	"github.com/clessn/scrapessn/lib/telemetry"
)

func main() {
	// running without a telemetry.json5 is fine, spans just go nowhere
	err := telemetry.SetupFromEnv(context.Background(), "scrapessn")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())

	commands.ExecuteContext(serviceutil.SignalContext())
}
