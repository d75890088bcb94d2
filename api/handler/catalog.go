package handler

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aniscrape/cache"
	"github.com/use-agent/aniscrape/catalog"
	"github.com/use-agent/aniscrape/models"
)

// CatalogPage returns a handler for GET /api/v1/catalog/:letter.
//
// Query: page (default 1). Serves one listing page of one index letter; an
// exhausted letter yields an empty entry list, an unknown letter a 404.
// Fetched pages are served from pc while fresh.
func CatalogPage(walker *catalog.Walker, pc *cache.Cache[models.CatalogPageResponse]) gin.HandlerFunc {
	return func(c *gin.Context) {
		letter := c.Param("letter")
		resp := models.CatalogPageResponse{Letter: letter, Entries: []models.CatalogEntry{}}

		if utf8.RuneCountInString(letter) != 1 {
			resp.Error = &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "letter must be a single character"}
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			resp.Error = &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "page must be a positive integer"}
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		resp.Page = page

		key := cache.Key("catalog", strings.ToUpper(letter), strconv.Itoa(page))
		if cached, ok := pc.Get(key); ok {
			c.Header(cacheHeader, "HIT")
			c.JSON(http.StatusOK, cached)
			return
		}

		ctx := c.Request.Context()
		letters, err := walker.Letters(ctx)
		if err != nil {
			scrapeErr := toScrapeError(err)
			resp.Error = scrapeErr.ToDetail()
			c.JSON(statusFor(scrapeErr), resp)
			return
		}

		letterURL := ""
		for _, l := range letters {
			if strings.EqualFold(l.Name, letter) {
				letterURL = l.URL
				resp.Letter = l.Name
				break
			}
		}
		if letterURL == "" {
			resp.Error = &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "letter " + letter + " is not in the index"}
			c.JSON(http.StatusNotFound, resp)
			return
		}

		entries, ok, err := walker.Page(ctx, letterURL, page)
		if err == nil && !ok {
			err = models.NewScrapeError(models.ErrCodeTransport, "catalog page fetch failed", nil)
		}
		if err != nil {
			scrapeErr := toScrapeError(err)
			resp.Error = scrapeErr.ToDetail()
			c.JSON(statusFor(scrapeErr), resp)
			return
		}

		if entries != nil {
			resp.Entries = entries
		}
		resp.Success = true
		pc.Set(key, resp)
		c.Header(cacheHeader, "MISS")
		c.JSON(http.StatusOK, resp)
	}
}
