package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/extract"
	"github.com/use-agent/aniscrape/models"
	"golang.org/x/time/rate"
)

// ErrIndexUnavailable means the alphabetical index could not be fetched, so
// there is nothing to walk.
var ErrIndexUnavailable = errors.New("catalog: alphabetical index unavailable")

// PageFetcher returns a parsed page, or nil when the fetch failed.
// *scraper.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) *goquery.Document
}

// Walker enumerates the A-Z catalog one page at a time. Every page fetch,
// the index included, waits on a shared limiter so consecutive fetches are
// at least the configured delay apart.
type Walker struct {
	fetcher  PageFetcher
	origin   string
	indexURL string
	limiter  *rate.Limiter
}

// NewWalker creates a Walker for site. delay <= 0 disables pacing.
func NewWalker(fetcher PageFetcher, site config.SiteConfig, delay time.Duration) *Walker {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Walker{
		fetcher:  fetcher,
		origin:   site.Origin,
		indexURL: site.AZListURL(),
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Walk fetches the index and walks every letter in index order. It returns
// ErrIndexUnavailable when the index fetch fails, and the entries collected
// so far plus ctx's error when canceled.
func (w *Walker) Walk(ctx context.Context) (models.Catalog, error) {
	letters, err := w.Letters(ctx)
	if err != nil {
		return models.Catalog{}, err
	}
	slog.Info("catalog walk starting", "letters", len(letters))

	catalog := make(models.Catalog, 0)
	for _, letter := range letters {
		entries, err := w.WalkLetter(ctx, letter)
		catalog = append(catalog, entries...)
		if err != nil {
			return catalog, err
		}
	}

	slog.Info("catalog walk complete", "letters", len(letters), "entries", len(catalog))
	return catalog, nil
}

// Letters fetches the index page and lists its single-character buckets.
func (w *Walker) Letters(ctx context.Context) ([]extract.Letter, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	doc := w.fetcher.Fetch(ctx, w.indexURL)
	if doc == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrIndexUnavailable
	}
	return extract.AZLetters(doc, w.origin), nil
}

// WalkLetter paginates one letter from page 1 until a page has no grid
// items or fails to fetch. There is no page cap. The returned error is only
// ever ctx's.
func (w *Walker) WalkLetter(ctx context.Context, letter extract.Letter) ([]models.CatalogEntry, error) {
	entries := make([]models.CatalogEntry, 0)
	for page := 1; ; page++ {
		pageEntries, ok, err := w.Page(ctx, letter.URL, page)
		if err != nil {
			return entries, err
		}
		if !ok {
			slog.Warn("letter pagination aborted", "letter", letter.Name, "page", page)
			break
		}
		if pageEntries == nil {
			slog.Debug("letter exhausted", "letter", letter.Name, "pages", page-1)
			break
		}
		entries = append(entries, pageEntries...)
		slog.Debug("catalog page collected", "letter", letter.Name, "page", page, "entries", len(pageEntries))
	}

	slog.Info("letter complete", "letter", letter.Name, "entries", len(entries))
	return entries, nil
}

// Page fetches one listing page. ok is false when the fetch failed. A page
// with zero grid items yields nil entries; a page whose items were all
// skipped yields an empty non-nil slice so pagination continues.
func (w *Walker) Page(ctx context.Context, letterURL string, page int) (entries []models.CatalogEntry, ok bool, err error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	doc := w.fetcher.Fetch(ctx, extract.PageURL(letterURL, page))
	if doc == nil {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	if extract.CountCatalogItems(doc) == 0 {
		return nil, true, nil
	}
	return extract.CatalogItems(doc, w.origin), true, nil
}
