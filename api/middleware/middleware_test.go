package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aniscrape/config"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.String(http.StatusOK, c.GetString(APIKeyContextKey)) })
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1", "k2"}))

	if w := do(r, "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: got %d", w.Code)
	}
	if w := do(r, "X-API-Key", "nope"); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid key: got %d", w.Code)
	}
	if w := do(r, "X-API-Key", "k1"); w.Code != http.StatusOK || w.Body.String() != "k1" {
		t.Errorf("valid header key: got %d %q", w.Code, w.Body.String())
	}
	if w := do(r, "Authorization", "Bearer k2"); w.Code != http.StatusOK || w.Body.String() != "k2" {
		t.Errorf("valid bearer key: got %d %q", w.Code, w.Body.String())
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	if w := do(newEngine(Auth([]string{""})), "", ""); w.Code != http.StatusOK {
		t.Errorf("expected open access, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newEngine(Auth([]string{"a", "b"}), RateLimit(ctx, config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))

	for i := range 2 {
		if w := do(r, "X-API-Key", "a"); w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: got %d", i+1, w.Code)
		}
	}
	w := do(r, "X-API-Key", "a")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Buckets are per key.
	if w := do(r, "X-API-Key", "b"); w.Code != http.StatusOK {
		t.Errorf("other key should have its own bucket, got %d", w.Code)
	}
}

func TestLimiterSet_Evict(t *testing.T) {
	set := &limiterSet{entries: map[string]*limiterEntry{}, limit: 1, burst: 1}
	now := time.Now()
	set.get("old", now.Add(-2*idleTTL))
	set.get("new", now)
	set.evict(now.Add(-idleTTL))

	if _, ok := set.entries["old"]; ok {
		t.Error("idle limiter not evicted")
	}
	if _, ok := set.entries["new"]; !ok {
		t.Error("active limiter evicted")
	}
}
