package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/aniscrape/engine"
	"github.com/use-agent/aniscrape/models"
	"golang.org/x/net/html"
)

// Fetcher issues single-attempt page fetches and parses the body into a
// goquery document. It holds no state between calls.
type Fetcher struct {
	engine engine.Engine
}

// NewFetcher creates a Fetcher over the given engine.
func NewFetcher(eng engine.Engine) *Fetcher {
	return &Fetcher{engine: eng}
}

// EngineName reports which engine backs the fetcher.
func (f *Fetcher) EngineName() string { return f.engine.Name() }

// Document fetches rawURL and parses it. Errors are *models.ScrapeError for
// transport, timeout and status failures.
func (f *Fetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	res, err := f.engine.Fetch(ctx, &engine.FetchRequest{URL: rawURL})
	if err != nil {
		return nil, err
	}
	return ParseDocument(res.HTML, res.FinalURL)
}

// Fetch is the skip-on-failure form of Document: any failure is logged and
// reported as a nil document so the caller can drop that unit of work.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *goquery.Document {
	doc, err := f.Document(ctx, rawURL)
	if err != nil {
		slog.Warn("page fetch failed",
			"url", rawURL,
			"engine", f.engine.Name(),
			"code", models.CodeOf(err),
			"error", err,
		)
		return nil
	}
	return doc
}

// ParseDocument parses raw HTML into a goquery document. pageURL, when
// parseable, is recorded as the document URL.
func ParseDocument(rawHTML, pageURL string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "parse html", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	if u, err := url.Parse(pageURL); err == nil && pageURL != "" {
		doc.Url = u
	}
	return doc, nil
}
