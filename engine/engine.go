package engine

import (
	"context"
	"time"
)

// Markup sources reported in FetchResult.Source.
const (
	SourceStatic = "static"
	SourceRender = "render"
)

// Engine is implemented by every fetch path.
type Engine interface {
	// Name returns the engine identifier ("http", "rod").
	Name() string
}

// StaticFetcher retrieves markup with a single HTTP round trip, without
// executing scripts.
type StaticFetcher interface {
	Engine
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// Renderer executes the page's scripts in a headless browser and returns
// the post-execution markup. It must release its browser on every path.
type Renderer interface {
	Engine
	Render(ctx context.Context, req *RenderRequest) (*FetchResult, error)
}

// FetchRequest contains everything the static engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// RenderRequest names the page to render and the card selector to wait for.
type RenderRequest struct {
	URL      string
	Selector string
}

// FetchResult is the output of a successful fetch or render.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	Source     string
}
