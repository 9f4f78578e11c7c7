package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/cardscrape/extractor"
	"github.com/use-agent/cardscrape/models"
)

// ScrapeCards runs the full pipeline for one request.
//
// Pipeline (numbered steps match the inline comments):
//
//  1. Validate      – URL scheme/host and card selector, before any I/O
//  2. Fetch         – static first, then render with fallback to static
//  3. Select        – match cards in document order
//  4. Extract       – one record per card, in parallel
//  5. Assemble      – echo url/selector, compute total_found
func (s *Scraper) ScrapeCards(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, error) {
	start := time.Now()
	req.Defaults()

	// ── 1. Validate ─────────────────────────────────────────────────
	base, err := parsePageURL(req.URL)
	if err != nil {
		return nil, err
	}
	matcher, err := extractor.CompileSelector(req.Selector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid selector", err)
	}
	strategy := extractor.NewStrategy(req.FieldSelectors)

	// ── 2. Fetch ────────────────────────────────────────────────────
	page, err := s.orchestrator.Fetch(ctx, req.URL, req.Selector)
	if err != nil {
		return nil, err
	}

	// ── 3. Select ───────────────────────────────────────────────────
	cards, err := extractor.SelectAll(page.HTML, matcher)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to parse page markup", err)
	}

	// ── 4. Extract ──────────────────────────────────────────────────
	records, err := s.extractor.ExtractAll(ctx, cards, base, strategy)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, models.NewScrapeError(models.ErrCodeTimeout, "request canceled during extraction", err)
		}
		return nil, models.NewScrapeError(models.ErrCodeInternal, "extraction failed", err)
	}

	// ── 5. Assemble ─────────────────────────────────────────────────
	resp := Assemble(req.URL, req.Selector, records)

	slog.Info("scrape complete",
		"url", req.URL,
		"selector", req.Selector,
		"source", page.Source,
		"strategy", strategy.Kind(),
		"total_found", resp.TotalFound,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// parsePageURL accepts only absolute http(s) URLs.
func parsePageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "url must be an absolute http(s) URL", nil)
	}
	return u, nil
}
