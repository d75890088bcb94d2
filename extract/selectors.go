package extract

import "github.com/andybalholm/cascadia"

// Page layout selectors, compiled once. A layout change on the site should
// only ever touch this file.
var (
	sliderSel      = cascadia.MustCompile("div#slider")
	slideItemSel   = cascadia.MustCompile("div.deslide-item")
	slideTitleSel  = cascadia.MustCompile("div.desi-head-title")
	slideDescSel   = cascadia.MustCompile("div.desi-description")
	slideWatchSel  = cascadia.MustCompile("a.btn-primary")
	posterImageSel = cascadia.MustCompile("img.film-poster-img")

	homeBlockSel   = cascadia.MustCompile("section.block_area_home")
	gridItemSel    = cascadia.MustCompile("div.flw-item")
	gridTitleSel   = cascadia.MustCompile("h3.film-name a")
	filmNameSel    = cascadia.MustCompile(".film-name a")
	catalogItemSel = cascadia.MustCompile(".film_list-wrap .flw-item")

	azContainerSel = cascadia.MustCompile(".az-list")
	azAnchorSel    = cascadia.MustCompile(`a[href*="/az-list"]`)
)

// DefaultIframeSelector locates the video embed on watch pages.
const DefaultIframeSelector = "iframe#iframe-embed"
