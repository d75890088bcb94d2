package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aniscrape/cache"
	"github.com/use-agent/aniscrape/crawl"
	"github.com/use-agent/aniscrape/models"
)

// Homepage returns a handler for GET /api/v1/homepage.
//
// Query: streams=true also resolves a stream URL for every entry, which is
// sequential and slow in the browser variant. Responses without streams are
// served from hc while fresh.
func Homepage(runner *crawl.Runner, hc *cache.Cache[*models.HomepageData]) gin.HandlerFunc {
	return func(c *gin.Context) {
		withStreams := false
		if raw := c.Query("streams"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.HomepageResponse{
					Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "streams must be a boolean"},
				})
				return
			}
			withStreams = v
		}

		if !withStreams {
			if home, ok := hc.Get(homepageKey); ok {
				c.Header(cacheHeader, "HIT")
				c.JSON(http.StatusOK, models.HomepageResponse{Success: true, Data: home})
				return
			}
		}

		ctx := c.Request.Context()
		home, err := runner.Homepage(ctx)
		if err == nil && withStreams {
			err = runner.ResolveStreams(ctx, home)
		}
		if err != nil {
			scrapeErr := toScrapeError(err)
			c.JSON(statusFor(scrapeErr), models.HomepageResponse{Error: scrapeErr.ToDetail()})
			return
		}

		if !withStreams {
			hc.Set(homepageKey, home)
			c.Header(cacheHeader, "MISS")
		}
		c.JSON(http.StatusOK, models.HomepageResponse{Success: true, Data: home})
	}
}
