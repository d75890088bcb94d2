package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/models"
)

const origin = "https://aniwatch.example"

const homeHTML = `<html><body>
<div id="slider">
  <div class="deslide-item">
    <div class="desi-head-title">  Demo  </div>
    <div class="desi-description">A demo show.</div>
    <a class="btn btn-primary" href="/watch/demo-1">Watch now</a>
    <img class="film-poster-img" data-src="img.jpg" src="placeholder.gif">
  </div>
  <div class="deslide-item">
    <div class="desi-head-title">No Description</div>
    <a class="btn-primary" href="/watch/nodesc-2">Watch now</a>
    <img class="film-poster-img" src="https://cdn.example/nodesc.jpg">
  </div>
  <div class="deslide-item">
    <div class="desi-head-title">Missing Link</div>
    <a class="btn-secondary" href="/detail/missing">Detail</a>
  </div>
  <div class="deslide-item">
    <a class="btn-primary" href="/watch/untitled">Watch now</a>
  </div>
</div>
<section class="block_area block_area_home">
  <div class="film_list-wrap">
    <div class="flw-item">
      <img class="film-poster-img" data-src="https://cdn.example/ep.jpg">
      <h3 class="film-name"><a href="/demo-ep-1" title="Demo Ep">Demo Ep</a></h3>
    </div>
    <div class="flw-item">
      <h3 class="film-name"><a href="/text-only-2">Text Only</a></h3>
    </div>
    <div class="flw-item">
      <img class="film-poster-img" data-src="https://cdn.example/orphan.jpg">
      <div class="film-detail">no heading</div>
    </div>
  </div>
</section>
<section class="block_area block_area_home">
  <div class="flw-item"><h3 class="film-name"><a href="/second-section" title="Ignored">Ignored</a></h3></div>
</section>
</body></html>`

func mustDoc(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestSpotlight_ExtractsAndSkips(t *testing.T) {
	items := Spotlight(mustDoc(t, homeHTML), origin)
	if len(items) != 2 {
		t.Fatalf("expected 2 spotlight items, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Title != "Demo" {
		t.Errorf("title not trimmed: %q", first.Title)
	}
	if first.WatchURL != origin+"/watch/demo-1" {
		t.Errorf("unexpected watch URL: %s", first.WatchURL)
	}
	if first.ImageURL != "img.jpg" {
		t.Errorf("data-src should win over src, got %q", first.ImageURL)
	}
	if first.Description != "A demo show." {
		t.Errorf("unexpected description: %q", first.Description)
	}
	if first.StreamURL != nil {
		t.Error("stream URL must start unresolved")
	}

	second := items[1]
	if second.Description != models.NoDescription {
		t.Errorf("missing description should use placeholder, got %q", second.Description)
	}
	if second.ImageURL != "https://cdn.example/nodesc.jpg" {
		t.Errorf("src fallback failed, got %q", second.ImageURL)
	}
}

func TestSpotlight_EveryEntryIsTitledAndAbsolute(t *testing.T) {
	for _, item := range Spotlight(mustDoc(t, homeHTML), origin) {
		if item.Title == "" {
			t.Error("spotlight entry with empty title")
		}
		if !strings.HasPrefix(item.WatchURL, origin+"/") {
			t.Errorf("watch URL not under origin: %s", item.WatchURL)
		}
	}
}

func TestSpotlight_NoSlider(t *testing.T) {
	items := Spotlight(mustDoc(t, `<html><body><p>empty</p></body></html>`), origin)
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", items)
	}
}

func TestLatestEpisodes_DirectStyle(t *testing.T) {
	items := LatestEpisodes(mustDoc(t, homeHTML), origin, config.LatestURLDirect)
	if len(items) != 2 {
		t.Fatalf("expected 2 items (item without title anchor skipped), got %d", len(items))
	}
	if items[0].Title != "Demo Ep" || items[0].WatchURL != origin+"/demo-ep-1" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[0].ImageURL != "https://cdn.example/ep.jpg" {
		t.Errorf("unexpected image: %q", items[0].ImageURL)
	}
	if items[0].Description != "" {
		t.Errorf("latest episodes carry no description, got %q", items[0].Description)
	}
	if items[1].Title != "Text Only" {
		t.Errorf("title should fall back to anchor text, got %q", items[1].Title)
	}
}

func TestLatestEpisodes_WatchStyle(t *testing.T) {
	items := LatestEpisodes(mustDoc(t, homeHTML), origin, config.LatestURLWatch)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].WatchURL != origin+"/watch/demo-ep-1" {
		t.Errorf("expected /watch prefix, got %s", items[0].WatchURL)
	}
}

func TestLatestEpisodes_OutputNeverExceedsInput(t *testing.T) {
	doc := mustDoc(t, homeHTML)
	in := doc.FindMatcher(homeBlockSel).First().FindMatcher(gridItemSel).Length()
	out := len(LatestEpisodes(doc, origin, config.LatestURLDirect))
	if out > in {
		t.Errorf("output %d exceeds input %d", out, in)
	}
}

const azIndexHTML = `<html><body>
<div class="az-list">
  <a href="/az-list">All</a>
  <a href="/az-list/other">#</a>
  <a href="/az-list/0-9">0-9</a>
  <a href="/az-list/A"> A </a>
  <a href="/az-list/B">B</a>
  <a href="/genre/action">C</a>
</div>
</body></html>`

func TestAZLetters_SingleCharacterOnly(t *testing.T) {
	letters := AZLetters(mustDoc(t, azIndexHTML), origin)
	want := []Letter{
		{Name: "#", URL: origin + "/az-list/other"},
		{Name: "A", URL: origin + "/az-list/A"},
		{Name: "B", URL: origin + "/az-list/B"},
	}
	if len(letters) != len(want) {
		t.Fatalf("expected %d letters, got %d: %+v", len(want), len(letters), letters)
	}
	for i := range want {
		if letters[i] != want[i] {
			t.Errorf("letter %d: got %+v, want %+v", i, letters[i], want[i])
		}
	}
}

const listingHTML = `<html><body>
<div class="film_list-wrap">
  <div class="flw-item">
    <img class="film-poster-img" data-src="https://cdn.example/a.jpg">
    <div class="film-detail"><h3 class="film-name"><a href="/a-show-1" title="A Show">A Show</a></h3></div>
  </div>
  <div class="flw-item">
    <div class="film-detail"><h3 class="film-name"><a title="No Href">No Href</a></h3></div>
  </div>
</div>
</body></html>`

func TestCatalogItems(t *testing.T) {
	doc := mustDoc(t, listingHTML)
	entries := CatalogItems(doc, origin)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0] != (models.CatalogEntry{Title: "A Show", DetailURL: origin + "/a-show-1", ImageURL: "https://cdn.example/a.jpg"}) {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if n := CountCatalogItems(doc); n != 2 {
		t.Errorf("expected 2 raw grid items, got %d", n)
	}
}

func TestIframeSrc(t *testing.T) {
	doc := mustDoc(t, `<iframe id="iframe-embed" src=" https://provider.example/embed/1 "></iframe>`)
	src, ok := IframeSrc(doc, "")
	if !ok || src != "https://provider.example/embed/1" {
		t.Errorf("got %q, %v", src, ok)
	}

	if _, ok := IframeSrc(mustDoc(t, `<iframe id="iframe-embed"></iframe>`), ""); ok {
		t.Error("iframe without src must report absent")
	}
	if _, ok := IframeSrc(mustDoc(t, `<div></div>`), DefaultIframeSelector); ok {
		t.Error("missing iframe must report absent")
	}
}

func TestAbsolute(t *testing.T) {
	cases := []struct{ href, want string }{
		{"/watch/demo-1", origin + "/watch/demo-1"},
		{"demo-1", origin + "/demo-1"},
		{"https://other.example/x", "https://other.example/x"},
		{"//cdn.example/x.jpg", "https://cdn.example/x.jpg"},
		{"", ""},
		{"#top", ""},
		{"javascript:void(0)", ""},
	}
	for _, tc := range cases {
		if got := Absolute(origin, tc.href); got != tc.want {
			t.Errorf("Absolute(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	cases := []struct{ href, want string }{
		{"/demo-ep-1", origin + "/watch/demo-ep-1"},
		{"demo-ep-1", origin + "/watch/demo-ep-1"},
		{"/watch/demo-ep-1", origin + "/watch/demo-ep-1"},
		{"https://aniwatch.example/demo-ep-1?ep=5", origin + "/watch/demo-ep-1?ep=5"},
		{"", ""},
		{"/", ""},
	}
	for _, tc := range cases {
		if got := WatchURL(origin, tc.href); got != tc.want {
			t.Errorf("WatchURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestPageURL(t *testing.T) {
	if got := PageURL(origin+"/az-list/A", 2); got != origin+"/az-list/A?page=2" {
		t.Errorf("unexpected page URL: %s", got)
	}
	if got := PageURL(origin+"/az-list/A?sort=name&page=1", 3); got != origin+"/az-list/A?page=3&sort=name" {
		t.Errorf("existing query not preserved: %s", got)
	}
}
