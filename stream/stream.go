// Package stream resolves a watch page to the URL of its video embed.
//
// Resolution never fails loudly: every error is logged and reported as a nil
// stream URL so a batch of resolutions always runs to the end.
package stream

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/aniscrape/extract"
)

// Resolver turns a watch page URL into an embed URL, or nil.
type Resolver interface {
	Resolve(ctx context.Context, watchURL string) *string
}

// DocumentFetcher returns a parsed page, or nil when the fetch failed.
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) *goquery.Document
}

// StaticResolver re-fetches the watch page over plain HTTP and reads the
// iframe from the static DOM.
type StaticResolver struct {
	fetcher  DocumentFetcher
	selector string
}

// NewStaticResolver creates a StaticResolver. An empty selector means
// extract.DefaultIframeSelector.
func NewStaticResolver(fetcher DocumentFetcher, selector string) *StaticResolver {
	if selector == "" {
		selector = extract.DefaultIframeSelector
	}
	return &StaticResolver{fetcher: fetcher, selector: selector}
}

func (r *StaticResolver) Resolve(ctx context.Context, watchURL string) *string {
	if watchURL == "" {
		return nil
	}
	slog.Info("resolving stream", "url", watchURL, "resolver", "static")

	doc := r.fetcher.Fetch(ctx, watchURL)
	if doc == nil {
		return nil
	}

	src, ok := extract.IframeSrc(doc, r.selector)
	if !ok {
		slog.Warn("iframe not found", "url", watchURL, "selector", r.selector)
		return nil
	}
	slog.Info("stream resolved", "url", watchURL, "stream", src)
	return &src
}
