package stream

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/extract"
	"github.com/use-agent/aniscrape/models"
	"github.com/use-agent/aniscrape/scraper"
)

// State is a step of one browser resolution.
type State int

const (
	StateIdle State = iota
	StateNavigating
	StateWaitingForElement
	StateFound
	StateValidating
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateWaitingForElement:
		return "waiting_for_element"
	case StateFound:
		return "found"
	case StateValidating:
		return "validating"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tab is exclusive use of the browser session's tab.
type Tab interface {
	Navigate(ctx context.Context, rawURL string) error
	WaitElement(ctx context.Context, selector string) error
	Attribute(ctx context.Context, selector, name string) (*string, error)
	Release()
}

// Session hands out the shared tab, one holder at a time.
type Session interface {
	Acquire(ctx context.Context) (Tab, error)
}

// BrowserSession adapts the scraper's browser to Session.
func BrowserSession(b *scraper.Browser) Session {
	return browserSession{b: b}
}

type browserSession struct{ b *scraper.Browser }

func (s browserSession) Acquire(ctx context.Context) (Tab, error) {
	tab, err := s.b.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return tab, nil
}

// Outcome records how a browser resolution went.
type Outcome struct {
	StreamURL *string
	Path      []State
	Err       error
}

// Final returns the last state reached.
func (o Outcome) Final() State {
	if len(o.Path) == 0 {
		return StateIdle
	}
	return o.Path[len(o.Path)-1]
}

// BrowserResolver renders the watch page in the shared headless session and
// reads the iframe src once the page's scripts have inserted it.
type BrowserResolver struct {
	session Session
	cfg     config.StreamConfig
}

// attributeTimeout bounds reading the iframe src once the element was found.
const attributeTimeout = 5 * time.Second

// NewBrowserResolver creates a BrowserResolver.
func NewBrowserResolver(session Session, cfg config.StreamConfig) *BrowserResolver {
	if cfg.IframeSelector == "" {
		cfg.IframeSelector = extract.DefaultIframeSelector
	}
	return &BrowserResolver{session: session, cfg: cfg}
}

func (r *BrowserResolver) Resolve(ctx context.Context, watchURL string) *string {
	return r.ResolveTrace(ctx, watchURL).StreamURL
}

// ResolveTrace runs one resolution pass:
//
//	Idle -> Navigating -> WaitingForElement -> Found -> Validating -> Resolved
//
// Any failure moves to Failed. There are no retries.
func (r *BrowserResolver) ResolveTrace(ctx context.Context, watchURL string) Outcome {
	out := Outcome{Path: []State{StateIdle}}
	step := func(s State) {
		out.Path = append(out.Path, s)
		slog.Debug("stream resolution", "url", watchURL, "state", s.String())
	}
	fail := func(err error) Outcome {
		out.Err = err
		step(StateFailed)
		slog.Warn("stream resolution failed",
			"url", watchURL,
			"code", models.CodeOf(err),
			"error", err,
		)
		return out
	}

	if watchURL == "" {
		return fail(models.NewScrapeError(models.ErrCodeInvalidInput, "empty watch URL", nil))
	}
	slog.Info("resolving stream", "url", watchURL, "resolver", "browser")

	tab, err := r.session.Acquire(ctx)
	if err != nil {
		return fail(err)
	}
	defer tab.Release()

	step(StateNavigating)
	navCtx, cancelNav := context.WithTimeout(ctx, r.cfg.WaitTimeout)
	err = tab.Navigate(navCtx, watchURL)
	cancelNav()
	if err != nil {
		return fail(err)
	}

	step(StateWaitingForElement)
	waitCtx, cancelWait := context.WithTimeout(ctx, r.cfg.WaitTimeout)
	err = tab.WaitElement(waitCtx, r.cfg.IframeSelector)
	cancelWait()
	if err != nil {
		return fail(err)
	}

	step(StateFound)
	if err := sleepCtx(ctx, r.cfg.SettleDelay); err != nil {
		return fail(models.NewScrapeError(models.ErrCodeTimeout, "settle delay interrupted", err))
	}

	// The element wait is over; the read gets its own deadline.
	readCtx, cancelRead := context.WithTimeout(ctx, attributeTimeout)
	src, err := tab.Attribute(readCtx, r.cfg.IframeSelector, "src")
	cancelRead()
	if err != nil {
		return fail(err)
	}

	step(StateValidating)
	if src == nil || strings.TrimSpace(*src) == "" {
		return fail(models.NewScrapeError(models.ErrCodeElementNotFound, "iframe has no src", nil))
	}
	value := strings.TrimSpace(*src)
	if r.cfg.ProviderHost != "" && !strings.Contains(value, r.cfg.ProviderHost) {
		return fail(models.NewScrapeError(models.ErrCodeProviderMismatch,
			"iframe src "+value+" is not from "+r.cfg.ProviderHost, nil))
	}

	out.StreamURL = &value
	step(StateResolved)
	slog.Info("stream resolved", "url", watchURL, "stream", value)
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
