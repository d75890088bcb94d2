// Package extract maps the site's fixed page layout onto catalog records.
//
// Every extractor is tolerant: an item missing a required element is skipped
// and the rest of the section is still extracted. Skips are not errors and
// are not logged.
package extract

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/models"
)

// Letter is one bucket of the A-Z index.
type Letter struct {
	Name string
	URL  string
}

// Spotlight extracts the homepage's featured slider. Items need a title and
// a primary call-to-action link.
func Spotlight(doc *goquery.Document, origin string) []models.AnimeSummary {
	items := make([]models.AnimeSummary, 0)
	slider := doc.FindMatcher(sliderSel).First()
	if slider.Length() == 0 {
		return items
	}

	slider.FindMatcher(slideItemSel).Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.FindMatcher(slideTitleSel).First().Text())
		href, ok := s.FindMatcher(slideWatchSel).First().Attr("href")
		watchURL := Absolute(origin, href)
		if title == "" || !ok || watchURL == "" {
			return
		}

		desc := strings.TrimSpace(s.FindMatcher(slideDescSel).First().Text())
		if desc == "" {
			desc = models.NoDescription
		}

		items = append(items, models.AnimeSummary{
			Title:       title,
			Description: desc,
			WatchURL:    watchURL,
			ImageURL:    imageURL(s, origin),
		})
	})
	return items
}

// LatestEpisodes extracts the homepage's latest-episode grid. style is
// config.LatestURLDirect or config.LatestURLWatch and decides the shape of
// the watch URL.
func LatestEpisodes(doc *goquery.Document, origin, style string) []models.AnimeSummary {
	items := make([]models.AnimeSummary, 0)
	section := doc.FindMatcher(homeBlockSel).First()
	if section.Length() == 0 {
		return items
	}

	section.FindMatcher(gridItemSel).Each(func(_ int, s *goquery.Selection) {
		a := s.FindMatcher(gridTitleSel).First()
		title := anchorTitle(a)
		href, _ := a.Attr("href")

		var watchURL string
		if style == config.LatestURLWatch {
			watchURL = WatchURL(origin, href)
		} else {
			watchURL = Absolute(origin, href)
		}
		if title == "" || watchURL == "" {
			return
		}

		items = append(items, models.AnimeSummary{
			Title:    title,
			WatchURL: watchURL,
			ImageURL: imageURL(s, origin),
		})
	})
	return items
}

// AZLetters lists the single-character buckets of the alphabetical index.
// Multi-character labels such as "All" or "0-9" are skipped.
func AZLetters(doc *goquery.Document, origin string) []Letter {
	scope := doc.FindMatcher(azContainerSel)
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	letters := make([]Letter, 0)
	scope.FindMatcher(azAnchorSel).Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if utf8.RuneCountInString(name) != 1 {
			return
		}
		href, _ := a.Attr("href")
		if u := Absolute(origin, href); u != "" {
			letters = append(letters, Letter{Name: name, URL: u})
		}
	})
	return letters
}

// CatalogItems extracts the grid of one A-Z listing page.
func CatalogItems(doc *goquery.Document, origin string) []models.CatalogEntry {
	entries := make([]models.CatalogEntry, 0)
	doc.FindMatcher(catalogItemSel).Each(func(_ int, s *goquery.Selection) {
		a := s.FindMatcher(filmNameSel).First()
		title := anchorTitle(a)
		href, _ := a.Attr("href")
		detailURL := Absolute(origin, href)
		if title == "" || detailURL == "" {
			return
		}
		entries = append(entries, models.CatalogEntry{
			Title:     title,
			DetailURL: detailURL,
			ImageURL:  imageURL(s, origin),
		})
	})
	return entries
}

// CountCatalogItems reports how many grid items a listing page holds,
// including ones the extractor would skip. Zero ends a letter's pagination.
func CountCatalogItems(doc *goquery.Document) int {
	return doc.FindMatcher(catalogItemSel).Length()
}

// IframeSrc returns the src of the first element matching selector.
func IframeSrc(doc *goquery.Document, selector string) (string, bool) {
	if selector == "" {
		selector = DefaultIframeSelector
	}
	src, ok := doc.Find(selector).First().Attr("src")
	src = strings.TrimSpace(src)
	return src, ok && src != ""
}

// Absolute qualifies href against origin. Absolute hrefs are returned
// unchanged; empty or fragment-only hrefs yield "".
func Absolute(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	if u, err := url.Parse(href); err == nil && u.Scheme != "" && u.Host != "" {
		return href
	}
	if strings.HasPrefix(href, "//") {
		if o, err := url.Parse(origin); err == nil && o.Scheme != "" {
			return o.Scheme + ":" + href
		}
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(origin, "/") + href
}

// WatchURL builds origin + "/watch/" + slug from a latest-episode href.
// Hrefs already under /watch/ are only qualified.
func WatchURL(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	path := href
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		path = u.RequestURI()
	}
	slug := strings.TrimPrefix(path, "/")
	if slug == "" || strings.HasPrefix(path, "#") {
		return ""
	}
	if strings.HasPrefix(slug, "watch/") {
		return Absolute(origin, "/"+slug)
	}
	return strings.TrimRight(origin, "/") + "/watch/" + slug
}

// PageURL sets the page query parameter on a letter URL, keeping any
// existing query.
func PageURL(letterURL string, page int) string {
	u, err := url.Parse(letterURL)
	if err != nil {
		return letterURL + "?page=" + strconv.Itoa(page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// anchorTitle prefers the anchor's title attribute, then its text.
func anchorTitle(a *goquery.Selection) string {
	if a.Length() == 0 {
		return ""
	}
	if t, ok := a.Attr("title"); ok {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return strings.TrimSpace(a.Text())
}

// imageURL reads the poster, preferring the lazy-load attribute.
func imageURL(s *goquery.Selection, origin string) string {
	img := s.FindMatcher(posterImageSel).First()
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"data-src", "src"} {
		if v, ok := img.Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" && !strings.HasPrefix(v, "data:") {
				if strings.HasPrefix(v, "/") {
					return Absolute(origin, v)
				}
				return v
			}
		}
	}
	return ""
}
