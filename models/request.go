package models

// ScrapeRequest is the payload for POST /api/scrape-courses.
type ScrapeRequest struct {
	// URL is the listing page to scrape. Required.
	URL string `json:"url" binding:"required,url"`

	// Selector matches the repeating card elements. Required.
	Selector string `json:"selector" binding:"required"`

	// FieldSelectors maps output field names to sub-selectors evaluated
	// inside each matched card. When empty, heuristic extraction is used.
	FieldSelectors map[string]string `json:"fieldSelectors,omitempty"`

	// FieldSelectorsSnake is the snake_case spelling of FieldSelectors.
	// Defaults folds it into FieldSelectors.
	FieldSelectorsSnake map[string]string `json:"field_selectors,omitempty"`
}

// Defaults merges the two field-selector spellings. Entries sent as
// fieldSelectors win on key collision.
func (r *ScrapeRequest) Defaults() {
	if len(r.FieldSelectorsSnake) == 0 {
		return
	}
	merged := make(map[string]string, len(r.FieldSelectors)+len(r.FieldSelectorsSnake))
	for k, v := range r.FieldSelectorsSnake {
		merged[k] = v
	}
	for k, v := range r.FieldSelectors {
		merged[k] = v
	}
	r.FieldSelectors = merged
	r.FieldSelectorsSnake = nil
}

// TeeTimeRequest is the payload for POST /api/tee-times/:course.
type TeeTimeRequest struct {
	URL string `json:"url" binding:"required,url"`
}
