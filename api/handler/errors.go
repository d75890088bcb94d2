package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/use-agent/aniscrape/catalog"
	"github.com/use-agent/aniscrape/crawl"
	"github.com/use-agent/aniscrape/models"
)

const (
	cacheHeader = "X-Cache"
	homepageKey = "homepage"
)

// toScrapeError gives every pipeline error a code.
func toScrapeError(err error) *models.ScrapeError {
	var scrapeErr *models.ScrapeError
	switch {
	case errors.As(err, &scrapeErr):
		return scrapeErr
	case errors.Is(err, crawl.ErrHomepageUnavailable), errors.Is(err, catalog.ErrIndexUnavailable):
		return models.NewScrapeError(models.ErrCodeTransport, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled or timed out", err)
	default:
		return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
}

// statusFor translates error codes to HTTP status codes.
func statusFor(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeTransport, models.ErrCodeHTTPStatus, models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
