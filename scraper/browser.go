package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/engine"
	"github.com/use-agent/aniscrape/models"
	"github.com/ysmood/gson"
)

// Browser is the shared headless browser session. Chrome is launched on the
// first Acquire and reused for every later call; a single tab is reused
// serially. Close tears everything down once.
//
// Only one Tab can be held at a time. Acquire blocks until the previous
// holder releases.
type Browser struct {
	browserCfg config.BrowserConfig
	fetchCfg   config.FetchConfig

	mu        sync.Mutex // held by the current Tab
	stateMu   sync.Mutex // guards the fields below
	launched  bool
	launchErr error
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	router    *rod.HijackRouter
	closed    bool
}

// NewBrowser returns a session that launches Chrome lazily.
func NewBrowser(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig) *Browser {
	return &Browser{browserCfg: browserCfg, fetchCfg: fetchCfg}
}

// Running reports whether Chrome has been launched and not yet closed.
func (b *Browser) Running() bool {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.launched && b.launchErr == nil && !b.closed
}

// Acquire returns the session's tab, launching Chrome on first use. The
// caller must call Tab.Release. A failed launch is remembered and returned
// to every later caller without relaunching.
func (b *Browser) Acquire(ctx context.Context) (*Tab, error) {
	b.mu.Lock()
	page, err := b.ensure()
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		b.mu.Unlock()
		return nil, models.NewScrapeError(models.ErrCodeTimeout, "acquire canceled", err)
	}
	return &Tab{page: page, release: b.mu.Unlock}, nil
}

func (b *Browser) ensure() (*rod.Page, error) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	if b.closed {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "browser session closed", nil)
	}
	if b.launched {
		if b.launchErr != nil {
			return nil, b.launchErr
		}
		return b.page, nil
	}

	b.launched = true
	if err := b.launch(); err != nil {
		b.launchErr = err
		slog.Error("browser launch failed", "error", err)
		return nil, err
	}
	return b.page, nil
}

// launch starts Chrome and prepares the reusable tab. Caller holds stateMu.
func (b *Browser) launch() error {
	l := launcher.New().
		Headless(b.browserCfg.Headless).
		NoSandbox(b.browserCfg.NoSandbox)

	if b.browserCfg.BrowserBin != "" {
		l = l.Bin(b.browserCfg.BrowserBin)
	}
	if b.fetchCfg.Proxy != "" {
		l = l.Proxy(b.fetchCfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("mute-audio"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	var page *rod.Page
	if b.browserCfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}

	if ua := b.fetchCfg.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: b.fetchCfg.AcceptLanguage,
		}); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}

	headers := map[string]string{}
	if b.fetchCfg.Referer != "" {
		headers["Referer"] = b.fetchCfg.Referer
	}
	if b.fetchCfg.AcceptLanguage != "" {
		headers["Accept-Language"] = b.fetchCfg.AcceptLanguage
	}
	if len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	b.launcher = l
	b.browser = browser
	b.page = page
	b.router = setupHijack(page, b.browserCfg.BlockedResourceTypes, b.browserCfg.BlockAds)
	return nil
}

// RenderHTML navigates the session tab to req.URL, waits for the DOM to
// settle and returns the rendered HTML. It backs engine.RodEngine.
func (b *Browser) RenderHTML(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	tab, err := b.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer tab.Release()

	if err := tab.Navigate(ctx, req.URL); err != nil {
		return nil, err
	}

	p := tab.page.Context(ctx)
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	finalURL := req.URL
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		StatusCode: 200,
		FinalURL:   finalURL,
	}, nil
}

// Close stops the hijack router, closes the tab and kills Chrome. Safe to
// call when the browser was never launched, and safe to call twice.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	if b.browser == nil {
		return
	}

	slog.Info("browser session shutting down")
	if b.router != nil {
		_ = b.router.Stop()
	}
	if b.page != nil {
		_ = b.page.Close()
	}
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
	slog.Info("browser session shutdown complete")
}

// Tab is exclusive access to the session's reusable tab.
type Tab struct {
	page    *rod.Page
	release func()
	once    sync.Once
}

// Navigate loads rawURL in the tab.
func (t *Tab) Navigate(ctx context.Context, rawURL string) error {
	if err := t.page.Context(ctx).Navigate(rawURL); err != nil {
		return categorizeError(err, "navigation to "+rawURL+" failed")
	}
	return nil
}

// WaitElement blocks until selector matches an element in the rendered DOM
// or ctx ends.
func (t *Tab) WaitElement(ctx context.Context, selector string) error {
	if _, err := t.page.Context(ctx).Element(selector); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.NewScrapeError(models.ErrCodeElementNotFound, selector+" never appeared", err)
		}
		return categorizeError(err, "waiting for "+selector)
	}
	return nil
}

// Attribute reads name from the first element matching selector. A nil
// value means the attribute is absent.
func (t *Tab) Attribute(ctx context.Context, selector, name string) (*string, error) {
	el, err := t.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, categorizeError(err, "locating "+selector)
	}
	v, err := el.Attribute(name)
	if err != nil {
		return nil, categorizeError(err, "reading "+name+" of "+selector)
	}
	return v, nil
}

// Release resets the tab to about:blank and hands it back to the session.
// The reset uses its own deadline so it still runs after the caller's
// context has expired.
func (t *Tab) Release() {
	t.once.Do(func() {
		if err := t.page.Timeout(5 * time.Second).Navigate("about:blank"); err != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
		}
		t.release()
	})
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw browser errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
