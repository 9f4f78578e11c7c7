package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/cardscrape/models"
)

// Orchestrator decides which markup the selector engine sees.
//
// The static fetch is mandatory and its failure fails the request. The
// render path is then attempted unconditionally; any render error degrades
// to the static markup instead of failing the request.
type Orchestrator struct {
	static        StaticFetcher
	renderer      Renderer // nil when rendering is disabled
	staticTimeout time.Duration
}

// NewOrchestrator creates an Orchestrator. renderer may be nil.
func NewOrchestrator(static StaticFetcher, renderer Renderer, staticTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		static:        static,
		renderer:      renderer,
		staticTimeout: staticTimeout,
	}
}

// Fetch returns rendered markup when possible and static markup otherwise.
// The only errors it returns come from the static fetch.
func (o *Orchestrator) Fetch(ctx context.Context, rawURL, selector string) (*FetchResult, error) {
	// ── 1. Static fetch ─────────────────────────────────────────────
	static, err := o.FetchStatic(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	// ── 2. Render, degrading to static ──────────────────────────────
	if o.renderer == nil {
		slog.Warn("render engine unavailable, using static markup",
			"url", rawURL, "reason", "rendering disabled")
		return static, nil
	}

	renderStart := time.Now()
	rendered, err := o.renderer.Render(ctx, &RenderRequest{URL: rawURL, Selector: selector})
	if err != nil {
		logRenderFallback(rawURL, o.renderer.Name(), err)
		return static, nil
	}
	slog.Debug("render complete",
		"url", rawURL,
		"engine", o.renderer.Name(),
		"bytes", len(rendered.HTML),
		"duration_ms", time.Since(renderStart).Milliseconds(),
	)

	// ── 3. Hand the rendered markup on ──────────────────────────────
	if rendered.StatusCode == 0 {
		rendered.StatusCode = static.StatusCode
	}
	return rendered, nil
}

// FetchStatic performs only the bounded static fetch. Errors are
// *models.ScrapeError with FETCH_FAILED or SCRAPE_TIMEOUT.
func (o *Orchestrator) FetchStatic(ctx context.Context, rawURL string) (*FetchResult, error) {
	start := time.Now()
	res, err := o.static.Fetch(ctx, &FetchRequest{URL: rawURL, Timeout: o.staticTimeout})
	if err != nil {
		return nil, categorizeFetchError(err)
	}
	slog.Debug("static fetch complete",
		"url", rawURL,
		"engine", o.static.Name(),
		"status", res.StatusCode,
		"bytes", len(res.HTML),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// RenderEnabled reports whether a render engine is configured.
func (o *Orchestrator) RenderEnabled() bool {
	return o.renderer != nil
}

// logRenderFallback logs unavailability as a warning and runtime
// failures as errors.
func logRenderFallback(rawURL, engineName string, err error) {
	var scrapeErr *models.ScrapeError
	if errors.As(err, &scrapeErr) && scrapeErr.Code == models.ErrCodeRenderUnavailable {
		slog.Warn("render engine unavailable, using static markup",
			"url", rawURL, "engine", engineName, "error", err)
		return
	}
	slog.Error("render failed, using static markup",
		"url", rawURL, "engine", engineName, "error", err)
}

// categorizeFetchError wraps static fetch errors into typed ScrapeErrors so
// the API layer can map them to HTTP status codes.
func categorizeFetchError(err error) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, "static fetch timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeFetch, "failed to fetch page", err)
	}
}
