package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/engine"
	"github.com/use-agent/aniscrape/models"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(engine.NewHTTPEngine(config.FetchConfig{
		Timeout:        2 * time.Second,
		UserAgent:      "test-agent/1.0",
		AcceptLanguage: "en-US,en;q=0.9",
		Referer:        "https://www.google.com/",
	}))
}

func TestFetcher_ParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><iframe id="iframe-embed" src="https://provider.example/embed/1"></iframe></body></html>`))
	}))
	defer srv.Close()

	doc := newTestFetcher().Fetch(context.Background(), srv.URL+"/watch/demo-1")
	if doc == nil {
		t.Fatal("expected a document")
	}
	src, ok := doc.Find("iframe#iframe-embed").Attr("src")
	if !ok || src != "https://provider.example/embed/1" {
		t.Errorf("unexpected iframe src %q (present=%v)", src, ok)
	}
	if doc.Url == nil || doc.Url.Path != "/watch/demo-1" {
		t.Errorf("document URL not recorded: %v", doc.Url)
	}
}

func TestFetcher_FailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher()
	if doc := f.Fetch(context.Background(), srv.URL); doc != nil {
		t.Error("expected nil document for 503")
	}
	if _, err := f.Document(context.Background(), srv.URL); models.CodeOf(err) != models.ErrCodeHTTPStatus {
		t.Errorf("expected %s, got %v", models.ErrCodeHTTPStatus, err)
	}
}

func TestParseDocument_ToleratesBrokenMarkup(t *testing.T) {
	doc, err := ParseDocument(`<div id="slider"><div class="deslide-item"><p>unclosed`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Find(".deslide-item").Length() != 1 {
		t.Error("expected the slide item to survive parsing")
	}
	if doc.Url != nil {
		t.Errorf("expected nil URL for empty pageURL, got %v", doc.Url)
	}
}

func TestIsBlockedHost(t *testing.T) {
	cases := map[string]bool{
		"doubleclick.net":               true,
		"stats.g.doubleclick.net":       true,
		"PAGEAD2.GoogleSyndication.com": true,
		"aniwatchtv.to":                 false,
		"megacloud.tv":                  false,
		"notdoubleclick.net":            false,
		"":                              false,
	}
	for host, want := range cases {
		if got := isBlockedHost(host); got != want {
			t.Errorf("isBlockedHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestBrowser_CloseWithoutLaunch(t *testing.T) {
	b := NewBrowser(config.BrowserConfig{}, config.FetchConfig{})
	if b.Running() {
		t.Fatal("browser should not be running before first use")
	}
	b.Close()
	b.Close()

	if _, err := b.Acquire(context.Background()); models.CodeOf(err) != models.ErrCodeBrowserCrash {
		t.Errorf("expected %s after close, got %v", models.ErrCodeBrowserCrash, err)
	}
}

func TestBrowser_RemembersLaunchFailure(t *testing.T) {
	b := NewBrowser(config.BrowserConfig{
		Headless:   true,
		BrowserBin: "/nonexistent/chrome-binary",
	}, config.FetchConfig{})
	defer b.Close()

	_, err1 := b.Acquire(context.Background())
	if err1 == nil {
		t.Fatal("expected launch to fail with a bogus binary")
	}
	_, err2 := b.Acquire(context.Background())
	if err2 != err1 {
		t.Errorf("expected the remembered launch error, got %v then %v", err1, err2)
	}
	if b.Running() {
		t.Error("a failed launch must not report running")
	}
}
