package scraper

import "github.com/use-agent/cardscrape/models"

// Assemble builds the response for a request. TotalFound is always derived
// from the records, and Records is never nil so it encodes as [].
func Assemble(pageURL, selector string, records []models.ExtractedRecord) *models.ScrapeResponse {
	if records == nil {
		records = []models.ExtractedRecord{}
	}
	return &models.ScrapeResponse{
		URL:        pageURL,
		Selector:   selector,
		Records:    records,
		TotalFound: len(records),
	}
}
