package models

// NoDescription is the placeholder used when a spotlight item has no description.
const NoDescription = "No description available."

// AnimeSummary is a title extracted from the homepage.
//
// StreamURL is nil until stream resolution attaches a value; it serialises
// as null rather than being omitted so consumers can tell "unresolved" from
// "not attempted".
type AnimeSummary struct {
	Title string `json:"title"`

	// Description is only populated for spotlight items.
	Description string `json:"description,omitempty"`

	WatchURL  string  `json:"watch_url"`
	ImageURL  string  `json:"image_url"`
	StreamURL *string `json:"stream_url"`
}

// CatalogEntry is a title listed on an A-Z catalog page.
type CatalogEntry struct {
	Title     string `json:"title"`
	DetailURL string `json:"detail_url"`
	ImageURL  string `json:"image_url"`
}

// HomepageData holds the two homepage sections in page order.
type HomepageData struct {
	Spotlight      []AnimeSummary `json:"spotlight"`
	LatestEpisodes []AnimeSummary `json:"latest_episodes"`
}

// Catalog is every title collected by an A-Z walk, in walk order.
type Catalog []CatalogEntry

// Len returns the number of homepage entries across both sections.
func (h *HomepageData) Len() int {
	return len(h.Spotlight) + len(h.LatestEpisodes)
}

// Resolved counts homepage entries that have a stream URL attached.
func (h *HomepageData) Resolved() int {
	n := 0
	for _, section := range [][]AnimeSummary{h.Spotlight, h.LatestEpisodes} {
		for _, a := range section {
			if a.StreamURL != nil {
				n++
			}
		}
	}
	return n
}
