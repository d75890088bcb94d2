package crawl

import (
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/engine"
	"github.com/use-agent/aniscrape/scraper"
	"github.com/use-agent/aniscrape/stream"
)

// Pipeline is a Runner wired from configuration, together with the browser
// session it owns.
type Pipeline struct {
	Runner  *Runner
	Fetcher *scraper.Fetcher

	// Browser is nil unless the browser variant or the rod page engine is
	// configured. Chrome itself starts on first use.
	Browser *scraper.Browser
}

// NewPipeline builds the fetcher, resolver and runner for cfg.
func NewPipeline(cfg *config.Config) *Pipeline {
	p := &Pipeline{}
	if cfg.Crawl.Variant == config.VariantBrowser || cfg.Fetch.Engine == "rod" {
		p.Browser = scraper.NewBrowser(cfg.Browser, cfg.Fetch)
	}

	var eng engine.Engine
	if cfg.Fetch.Engine == "rod" {
		// The callback keeps engine/ free of any scraper/ import.
		eng = engine.NewRodEngine(p.Browser.RenderHTML)
	} else {
		eng = engine.NewHTTPEngine(cfg.Fetch)
	}
	p.Fetcher = scraper.NewFetcher(eng)

	var resolver stream.Resolver
	if cfg.Crawl.Variant == config.VariantBrowser {
		resolver = stream.NewBrowserResolver(stream.BrowserSession(p.Browser), cfg.Stream)
	} else {
		resolver = stream.NewStaticResolver(p.Fetcher, cfg.Stream.IframeSelector)
	}

	p.Runner = NewRunner(cfg, p.Fetcher, resolver)
	return p
}

// Close shuts the browser down if one was created.
func (p *Pipeline) Close() {
	if p.Browser != nil {
		p.Browser.Close()
	}
}
