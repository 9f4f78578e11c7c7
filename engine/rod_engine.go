package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/cardscrape/config"
	"github.com/use-agent/cardscrape/models"
	"github.com/ysmood/gson"
)

const (
	// maxDiagnosticText caps the visible page text logged on a selector miss.
	maxDiagnosticText = 500

	// serializeTimeout bounds DOM serialization and the metadata evals.
	serializeTimeout = 15 * time.Second
)

// RodEngine renders pages in a pooled headless Chrome.
type RodEngine struct {
	pool           *Pool[*Browser]
	cfg            config.RenderConfig
	stealth        bool
	acquireTimeout time.Duration
	blocked        map[proto.NetworkResourceType]struct{}

	// openContext opens the per-render browser context. Replaced in tests.
	openContext func(*Browser) (*rod.Browser, error)
}

func incognitoContext(b *Browser) (*rod.Browser, error) {
	return b.rod.Incognito()
}

// NewRodEngine creates a RodEngine on top of a browser pool.
func NewRodEngine(pool *Pool[*Browser], renderCfg config.RenderConfig, browserCfg config.BrowserConfig, poolCfg config.PoolConfig) *RodEngine {
	return &RodEngine{
		pool:           pool,
		cfg:            renderCfg,
		stealth:        browserCfg.Stealth,
		acquireTimeout: poolCfg.AcquireTimeout,
		blocked:        blockedResourceSet(renderCfg.BlockedResourceTypes),
		openContext:    incognitoContext,
	}
}

func (e *RodEngine) Name() string { return "rod" }

// Render drives one isolated browser context through the page.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Checkout        – borrow a browser from the pool (bounded wait)
//  2. Isolation       – fresh incognito context + page for this call only
//  3. Stealth/headers – optional, before navigation
//  4. Hijack mount    – abort image/stylesheet/font requests
//  5. Navigate        – DOMContentLoaded wait, 60s; a timeout is tolerated
//  6. Settle          – fixed delay for deferred scripts
//  7. Selector wait   – 10s; a miss is logged, not returned
//  8. Serialize       – page.HTML() plus url/title, 15s
//
// Every defer runs on every exit path, so the page, the context and the
// browser checkout are released before any error reaches the caller.
func (e *RodEngine) Render(ctx context.Context, req *RenderRequest) (result *FetchResult, err error) {
	// ── 1. Checkout ──────────────────────────────────────────────────
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, e.acquireTimeout)
	handle, acquireErr := e.pool.Acquire(acquireCtx)
	cancelAcquire()
	if acquireErr != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeRenderUnavailable,
			"no headless browser available",
			acquireErr,
		)
	}
	defer func() {
		e.pool.Release(handle, err == nil)
	}()

	// ── 2. Isolated context ──────────────────────────────────────────
	incognito, err := e.openContext(handle.Value)
	if err != nil {
		return nil, renderFailed("failed to open incognito context", err)
	}
	defer func() {
		if closeErr := incognito.Close(); closeErr != nil {
			slog.Warn("render cleanup: failed to dispose browser context", "url", req.URL, "error", closeErr)
		}
	}()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, renderFailed("failed to open page", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("render cleanup: failed to close page", "url", req.URL, "error", closeErr)
		}
	}()

	// ── 3. Stealth + headers ─────────────────────────────────────────
	if e.stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	if hdrErr := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": "en-US,en;q=0.9"}),
	}).Call(page); hdrErr != nil {
		slog.Debug("failed to set extra headers", "url", req.URL, "error", hdrErr)
	}

	// ── 4. Hijack ────────────────────────────────────────────────────
	if router := setupHijack(page, e.blocked); router != nil {
		defer func() {
			if stopErr := router.Stop(); stopErr != nil {
				slog.Warn("render cleanup: failed to stop hijack router", "error", stopErr)
			}
		}()
	}

	p := page.Context(ctx)

	// ── 5. Navigate ──────────────────────────────────────────────────
	if err = e.navigate(ctx, p, req.URL); err != nil {
		return nil, err
	}

	// ── 6. Settle ────────────────────────────────────────────────────
	select {
	case <-time.After(e.cfg.SettleDelay):
	case <-ctx.Done():
		err = renderFailed("render canceled during settle delay", ctx.Err())
		return nil, err
	}

	// ── 7. Selector wait ─────────────────────────────────────────────
	sp := p.Timeout(e.cfg.SelectorWaitTimeout)
	_, selErr := sp.Element(req.Selector)
	sp.CancelTimeout()
	if selErr != nil {
		e.logSelectorMiss(p, req, selErr)
	}

	// ── 8. Serialize ─────────────────────────────────────────────────
	out := p.Timeout(serializeTimeout)
	defer out.CancelTimeout()

	rawHTML, err := out.HTML()
	if err != nil {
		return nil, renderFailed("failed to serialize rendered DOM", err)
	}

	finalURL := evalStringOrEmpty(out, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &FetchResult{
		HTML:     rawHTML,
		Title:    evalStringOrEmpty(out, `() => document.title`),
		FinalURL: finalURL,
		Source:   SourceRender,
	}, nil
}

// navigate loads the URL and waits for DOMContentLoaded. Hitting the
// navigation timeout is not an error: rendering continues on whatever has
// loaded so far, and the page is not re-navigated.
func (e *RodEngine) navigate(ctx context.Context, p *rod.Page, targetURL string) error {
	nav := p.Timeout(e.cfg.NavigationTimeout)
	defer nav.CancelTimeout()

	wait := nav.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := nav.Navigate(targetURL); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			slog.Warn("navigation timed out, continuing with partially loaded page",
				"url", targetURL, "timeout", e.cfg.NavigationTimeout)
			return nil
		}
		return renderFailed("navigation to target URL failed", err)
	}
	wait()

	if errors.Is(nav.GetContext().Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		slog.Warn("DOMContentLoaded wait timed out, continuing with partially loaded page",
			"url", targetURL, "timeout", e.cfg.NavigationTimeout)
	}
	return nil
}

// logSelectorMiss records what the page looked like when the card
// selector never appeared. The evals share one selector-wait budget.
func (e *RodEngine) logSelectorMiss(page *rod.Page, req *RenderRequest, cause error) {
	p := page.Timeout(e.cfg.SelectorWaitTimeout)
	defer p.CancelTimeout()

	text := evalStringOrEmpty(p, `() => document.body ? document.body.innerText : ""`)
	if len(text) > maxDiagnosticText {
		text = text[:maxDiagnosticText]
	}
	testIDs := evalStrings(p, `() => Array.from(document.querySelectorAll("[data-testid]"))
		.slice(0, 100)
		.map(el => el.getAttribute("data-testid"))`)

	slog.Warn("selector did not appear before timeout, serializing current DOM",
		"url", req.URL,
		"selector", req.Selector,
		"timeout", e.cfg.SelectorWaitTimeout,
		"error", cause,
		"visible_text", text,
		"testids", testIDs,
	)
}

func renderFailed(msg string, err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeRenderFailed, msg, err)
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// evalStrings evaluates a JS expression returning an array of strings.
func evalStrings(page *rod.Page, js string) []string {
	res, err := page.Eval(js)
	if err != nil {
		return nil
	}
	arr := res.Value.Arr()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, v.Str())
	}
	return out
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
