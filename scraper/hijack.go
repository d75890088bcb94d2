package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to Rod protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// blockedHosts are ad, analytics and pop-under hosts that streaming pages
// pull in. Blocking them keeps watch pages from stalling the iframe wait.
var blockedHosts = map[string]struct{}{
	"doubleclick.net":           {},
	"googlesyndication.com":     {},
	"googleadservices.com":      {},
	"google-analytics.com":      {},
	"googletagmanager.com":      {},
	"adnxs.com":                 {},
	"adsterra.com":              {},
	"amazon-adsystem.com":       {},
	"criteo.com":                {},
	"disqus.com":                {},
	"exoclick.com":              {},
	"histats.com":               {},
	"hotjar.com":                {},
	"juicyads.com":              {},
	"popads.net":                {},
	"popcash.net":               {},
	"propellerads.com":          {},
	"scorecardresearch.com":     {},
	"sharethis.com":             {},
	"taboola.com":               {},
	"outbrain.com":              {},
	"cloudflareinsights.com":    {},
	"highperformanceformat.com": {},
}

// isBlockedHost checks host and each of its parent domains against blockedHosts.
func isBlockedHost(host string) bool {
	host = strings.ToLower(host)
	for {
		if _, ok := blockedHosts[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
}

// setupHijack installs a request interceptor on the session tab that fails
// requests for the given resource types and, optionally, for blocked hosts.
// Documents, scripts and XHR always pass: the embed iframe is injected by
// script.
//
// Returns nil if there is nothing to block.
func setupHijack(page *rod.Page, blockedTypes []string, blockAds bool) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 && !blockAds {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, ok := blocked[ctx.Request.Type()]; ok {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if blockAds {
			if u, err := url.Parse(ctx.Request.URL().String()); err == nil && isBlockedHost(u.Hostname()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()

	return router
}
