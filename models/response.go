package models

// HomepageResponse is the response for GET /api/v1/homepage.
type HomepageResponse struct {
	Success bool          `json:"success"`
	Data    *HomepageData `json:"data,omitempty"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}

// CatalogPageResponse is the response for GET /api/v1/catalog/:letter.
type CatalogPageResponse struct {
	Success bool           `json:"success"`
	Letter  string         `json:"letter"`
	Page    int            `json:"page"`
	Entries []CatalogEntry `json:"entries"`
	Error   *ErrorDetail   `json:"error,omitempty"`
}

// StreamResponse is the response for GET /api/v1/stream.
type StreamResponse struct {
	Success   bool         `json:"success"`
	WatchURL  string       `json:"watch_url"`
	StreamURL *string      `json:"stream_url"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	Variant        string `json:"variant"`
	BrowserRunning bool   `json:"browser_running"`
	Version        string `json:"version"`
}

// ErrorResponse is returned by middleware that rejects a request before it
// reaches a handler.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
