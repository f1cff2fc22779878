package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide logger. verbose drops the level
// down to debug, which is what you want everywhere except production.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
