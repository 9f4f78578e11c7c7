package models

// ScrapeResponse is the response for POST /api/scrape-courses.
type ScrapeResponse struct {
	// URL echoes the requested page.
	URL string `json:"url"`

	// Selector echoes the requested card selector.
	Selector string `json:"selector"`

	// Records holds one entry per matched element, in document order.
	Records []ExtractedRecord `json:"courses"`

	// TotalFound always equals len(Records).
	TotalFound int `json:"total_found"`
}

// ExtractedRecord is the structured view of one matched card.
type ExtractedRecord struct {
	// ID is the element's position among matches, or its data-testid.
	ID string `json:"id"`

	Name  *string `json:"name"`
	URL   *string `json:"url"`
	State *string `json:"state"`

	// RawMarkup is the outer HTML of the matched element.
	RawMarkup string `json:"raw_html"`

	// ExtractedFields contains every requested field (nil when the
	// sub-selector matched nothing) plus identifier attributes.
	ExtractedFields map[string]*string `json:"extracted_fields"`
}

// TeeTimeResponse is the response for POST /api/tee-times/:course.
// TeeTimes is always nil; the endpoint only reports page diagnostics.
type TeeTimeResponse struct {
	Course   string   `json:"course"`
	URL      string   `json:"url"`
	TeeTimes []string `json:"tee_times"`
	RawData  *string  `json:"raw_data"`
}

// RootResponse is the liveness greeting served at GET /.
type RootResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser pool.
type PoolStats struct {
	RenderEnabled bool `json:"render_enabled"`
	MaxBrowsers   int  `json:"max_browsers"`
	LiveBrowsers  int  `json:"live_browsers"`
	ActiveRenders int  `json:"active_renders"`
}
