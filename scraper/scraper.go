// Package scraper wires the fetch engines and the extractor into the
// card-scraping pipeline.
package scraper

import (
	"log/slog"
	"time"

	"github.com/use-agent/cardscrape/config"
	"github.com/use-agent/cardscrape/engine"
	"github.com/use-agent/cardscrape/extractor"
	"github.com/use-agent/cardscrape/models"
)

// Scraper owns the engines and the browser pool. It is safe for concurrent
// use; no request data outlives a call.
type Scraper struct {
	orchestrator *engine.Orchestrator
	extractor    *extractor.Extractor

	// pool is nil when rendering is disabled or engines were injected.
	pool *engine.Pool[*engine.Browser]
}

// NewScraper builds the production pipeline from configuration. Browsers
// are launched lazily, so this never fails on a host without Chrome.
func NewScraper(cfg *config.Config) *Scraper {
	static := engine.NewHTTPEngine(cfg.Browser.Proxy)

	var (
		pool     *engine.Pool[*engine.Browser]
		renderer engine.Renderer
	)
	if cfg.Browser.RenderEnabled {
		pool = engine.NewBrowserPool(cfg.Browser, cfg.Pool)
		renderer = engine.NewRodEngine(pool, cfg.Render, cfg.Browser, cfg.Pool)
		slog.Info("browser pool created",
			"maxBrowsers", pool.MaxSize(),
			"acquireTimeout", cfg.Pool.AcquireTimeout,
			"idleTimeout", cfg.Pool.IdleTimeout,
		)
	} else {
		slog.Warn("rendering disabled, all pages will be served from static markup")
	}

	return &Scraper{
		orchestrator: engine.NewOrchestrator(static, renderer, cfg.Fetch.Timeout),
		extractor:    extractor.New(extractor.DefaultConcurrency),
		pool:         pool,
	}
}

// NewWithEngines builds a Scraper around caller-supplied engines. renderer
// may be nil.
func NewWithEngines(static engine.StaticFetcher, renderer engine.Renderer, staticTimeout time.Duration) *Scraper {
	return &Scraper{
		orchestrator: engine.NewOrchestrator(static, renderer, staticTimeout),
		extractor:    extractor.New(extractor.DefaultConcurrency),
	}
}

// Stats returns a snapshot of the browser pool.
func (s *Scraper) Stats() models.PoolStats {
	stats := models.PoolStats{RenderEnabled: s.orchestrator.RenderEnabled()}
	if s.pool != nil {
		stats.MaxBrowsers = s.pool.MaxSize()
		stats.LiveBrowsers = s.pool.Size()
		stats.ActiveRenders = s.pool.ActiveCount()
	}
	return stats
}

// Close shuts the browser pool down. Call this on graceful shutdown to
// prevent zombie Chrome processes.
func (s *Scraper) Close() {
	if s.pool == nil {
		return
	}
	slog.Info("scraper shutting down: closing browser pool")
	s.pool.Close()
	slog.Info("scraper shutdown complete")
}
