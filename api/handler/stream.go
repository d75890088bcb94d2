package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aniscrape/models"
	"github.com/use-agent/aniscrape/stream"
)

// Stream returns a handler for GET /api/v1/stream.
//
// Query: url, a watch page on the configured origin. An unresolved stream is
// a successful response with stream_url null.
func Stream(resolver stream.Resolver, origin string) gin.HandlerFunc {
	originURL, _ := url.Parse(origin)

	return func(c *gin.Context) {
		watchURL := c.Query("url")
		resp := models.StreamResponse{WatchURL: watchURL}

		u, err := url.Parse(watchURL)
		if watchURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			resp.Error = &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "url must be an absolute http(s) URL"}
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		if originURL != nil && u.Host != originURL.Host {
			resp.Error = &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "url must be on " + origin}
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		if resolver == nil {
			resp.Error = &models.ErrorDetail{Code: models.ErrCodeInternal, Message: "stream resolution is disabled"}
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}

		resp.StreamURL = resolver.Resolve(c.Request.Context(), watchURL)
		resp.Success = true
		c.JSON(http.StatusOK, resp)
	}
}
