package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/crawl"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("aniscrape starting",
		"variant", cfg.Crawl.Variant,
		"origin", cfg.Site.Origin,
		"engine", cfg.Fetch.Engine,
		"output_dir", cfg.Output.Dir,
	)

	// ── 3. SIGINT/SIGTERM cancel the run ────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 4. Build the pipeline (browser launches on first use) ──────
	p := crawl.NewPipeline(cfg)
	defer p.Close()
	p.Runner.SetRelease(p.Close)

	// ── 5. Run ──────────────────────────────────────────────────────
	res, err := p.Runner.Run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, crawl.ErrHomepageUnavailable):
			slog.Error("homepage could not be fetched, nothing written", "url", cfg.Site.HomeURL())
		case errors.Is(err, context.Canceled):
			slog.Warn("run interrupted, nothing written")
		default:
			slog.Error("run failed", "error", err)
		}
		p.Close()
		os.Exit(1)
	}

	slog.Info("aniscrape finished", "run_id", res.RunID, "files", res.Files)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
