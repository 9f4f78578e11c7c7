package scraper

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/use-agent/cardscrape/models"
)

// pageDiagnostics is the payload encoded into TeeTimeResponse.RawData.
type pageDiagnostics struct {
	URL           string  `json:"url"`
	Title         *string `json:"title"`
	ContentLength int     `json:"content_length"`
}

// ProbeTeeTimes fetches the course page statically and reports its title
// and size. Tee times themselves are not parsed yet, so TeeTimes is nil.
func (s *Scraper) ProbeTeeTimes(ctx context.Context, course, rawURL string) (*models.TeeTimeResponse, error) {
	if _, err := parsePageURL(rawURL); err != nil {
		return nil, err
	}

	page, err := s.orchestrator.FetchStatic(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	diag := pageDiagnostics{URL: rawURL, ContentLength: len(page.HTML)}
	if page.Title != "" {
		title := page.Title
		diag.Title = &title
	}
	encoded, err := json.Marshal(diag)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to encode page diagnostics", err)
	}
	rawData := string(encoded)

	slog.Info("tee time probe complete",
		"course", course,
		"url", rawURL,
		"content_length", diag.ContentLength,
	)

	return &models.TeeTimeResponse{
		Course:  course,
		URL:     rawURL,
		RawData: &rawData,
	}, nil
}
