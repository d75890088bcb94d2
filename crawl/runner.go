// Package crawl runs one scrape end to end: homepage, optional catalog walk,
// stream resolution for homepage items, then JSON files.
package crawl

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/aniscrape/catalog"
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/extract"
	"github.com/use-agent/aniscrape/models"
	"github.com/use-agent/aniscrape/output"
	"github.com/use-agent/aniscrape/stream"
	"github.com/use-agent/aniscrape/webhook"
)

// ErrHomepageUnavailable means the homepage fetch failed. Nothing is
// written when a run ends with it.
var ErrHomepageUnavailable = errors.New("crawl: homepage unavailable")

// Result is what a completed run produced.
type Result struct {
	RunID    string
	Variant  string
	Homepage models.HomepageData
	Catalog  models.Catalog
	Files    []string
	Duration time.Duration
}

// Runner is the orchestrator. It is strictly sequential: one page fetch or
// one stream resolution is in flight at any time.
type Runner struct {
	cfg      *config.Config
	fetcher  catalog.PageFetcher
	walker   *catalog.Walker
	resolver stream.Resolver
	notifier *webhook.Notifier
	release  func()
}

// NewRunner creates a Runner. resolver may be nil, which leaves every
// stream URL unresolved.
func NewRunner(cfg *config.Config, fetcher catalog.PageFetcher, resolver stream.Resolver) *Runner {
	return &Runner{
		cfg:      cfg,
		fetcher:  fetcher,
		walker:   catalog.NewWalker(fetcher, cfg.Site, cfg.Crawl.PageDelay),
		resolver: resolver,
		notifier: webhook.New(cfg.Webhook),
	}
}

// SetRelease registers fn to run once the stream phase of Run is over,
// before any file is written. The batch process uses it to shut the
// browser session down.
func (r *Runner) SetRelease(fn func()) { r.release = fn }

// Walker returns the runner's catalog walker.
func (r *Runner) Walker() *catalog.Walker { return r.walker }

// Resolver returns the runner's stream resolver, possibly nil.
func (r *Runner) Resolver() stream.Resolver { return r.resolver }

// Run executes the full pipeline and writes the variant's files to the
// output directory. Cancellation stops the run before any file is written.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:   uuid.NewString(),
		Variant: r.cfg.Crawl.Variant,
		Catalog: models.Catalog{},
	}
	log := slog.With("run_id", res.RunID)
	log.Info("run starting",
		"variant", res.Variant,
		"origin", r.cfg.Site.Origin,
		"catalog", r.cfg.Crawl.WalkCatalog,
		"streams", r.cfg.Crawl.ResolveStreams && r.resolver != nil,
	)

	home, err := r.Homepage(ctx)
	if err != nil {
		return nil, err
	}
	res.Homepage = *home
	log.Info("homepage extracted",
		"spotlight", len(home.Spotlight),
		"latest_episodes", len(home.LatestEpisodes),
	)

	if r.cfg.Crawl.WalkCatalog {
		cat, err := r.walker.Walk(ctx)
		switch {
		case errors.Is(err, catalog.ErrIndexUnavailable):
			log.Error("catalog phase skipped", "error", err)
		case err != nil:
			return nil, err
		default:
			res.Catalog = cat
		}
	}

	if r.cfg.Crawl.ResolveStreams {
		err = r.ResolveStreams(ctx, &res.Homepage)
	}
	if r.release != nil {
		r.release()
	}
	if err != nil {
		return nil, err
	}

	files, err := r.write(res)
	if err != nil {
		return nil, err
	}
	res.Files = files
	res.Duration = time.Since(start)

	log.Info("run complete",
		"homepage_entries", res.Homepage.Len(),
		"spotlight", len(res.Homepage.Spotlight),
		"latest_episodes", len(res.Homepage.LatestEpisodes),
		"streams_found", res.Homepage.Resolved(),
		"catalog_entries", len(res.Catalog),
		"files", res.Files,
		"duration_ms", res.Duration.Milliseconds(),
	)
	r.notify(ctx, res)
	return res, nil
}

// Homepage fetches the homepage and extracts both sections. Stream URLs are
// left unresolved.
func (r *Runner) Homepage(ctx context.Context) (*models.HomepageData, error) {
	doc := r.fetcher.Fetch(ctx, r.cfg.Site.HomeURL())
	if doc == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrHomepageUnavailable
	}
	origin := r.cfg.Site.Origin
	return &models.HomepageData{
		Spotlight:      extract.Spotlight(doc, origin),
		LatestEpisodes: extract.LatestEpisodes(doc, origin, r.cfg.Crawl.EffectiveLatestURLStyle()),
	}, nil
}

// ResolveStreams attaches a stream URL to every homepage entry, spotlight
// first, in page order. Failed resolutions stay nil. Only cancellation is
// returned as an error.
func (r *Runner) ResolveStreams(ctx context.Context, home *models.HomepageData) error {
	if r.resolver == nil {
		return nil
	}
	for _, section := range [][]models.AnimeSummary{home.Spotlight, home.LatestEpisodes} {
		for i := range section {
			if err := ctx.Err(); err != nil {
				return err
			}
			if section[i].WatchURL == "" {
				continue
			}
			section[i].StreamURL = r.resolver.Resolve(ctx, section[i].WatchURL)
		}
	}
	return ctx.Err()
}

func (r *Runner) write(res *Result) ([]string, error) {
	dir := r.cfg.Output.Dir
	var files []string
	put := func(name string, v any) error {
		path := filepath.Join(dir, name)
		if err := output.WriteJSON(path, v); err != nil {
			return err
		}
		files = append(files, path)
		return nil
	}

	if res.Variant == config.VariantStatic {
		if err := put(output.StaticFile, res.Homepage); err != nil {
			return nil, err
		}
		if r.cfg.Crawl.WalkCatalog {
			if err := put(output.CatalogFile, res.Catalog); err != nil {
				return nil, err
			}
		}
		return files, nil
	}

	if err := put(output.CatalogFile, res.Catalog); err != nil {
		return nil, err
	}
	if err := put(output.HomepageFile, res.Homepage); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *Runner) notify(ctx context.Context, res *Result) {
	if r.notifier == nil {
		return
	}
	event := &webhook.Event{
		Type:      webhook.EventRunCompleted,
		RunID:     res.RunID,
		Timestamp: time.Now().Unix(),
		Data: webhook.RunSummary{
			Variant:        res.Variant,
			Spotlight:      len(res.Homepage.Spotlight),
			LatestEpisodes: len(res.Homepage.LatestEpisodes),
			StreamsFound:   res.Homepage.Resolved(),
			CatalogEntries: len(res.Catalog),
			Files:          res.Files,
			DurationMs:     res.Duration.Milliseconds(),
		},
	}
	if err := r.notifier.Notify(ctx, event); err != nil {
		slog.Warn("run notification not delivered", "run_id", res.RunID, "error", err)
	}
}
