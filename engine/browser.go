package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/cardscrape/config"
)

// ErrBrowserNotFound is returned by the browser factory when no binary is
// configured and none is installed. Rod is never allowed to download one.
var ErrBrowserNotFound = errors.New("engine: no Chrome/Chromium binary found")

// lookPath is replaced in tests.
var lookPath = launcher.LookPath

// Browser is one launched headless Chrome process. Renders never use it
// directly; each render opens its own incognito context on it.
type Browser struct {
	rod      *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserPool creates the checkout pool of headless browsers. Browsers
// are launched on first use, so a host without Chrome still boots and
// every render reports RENDER_UNAVAILABLE.
func NewBrowserPool(browserCfg config.BrowserConfig, poolCfg config.PoolConfig) *Pool[*Browser] {
	return NewPool(PoolOptions{
		MaxSize:     poolCfg.Size,
		IdleTimeout: poolCfg.IdleTimeout,
	}, browserFactory(browserCfg), destroyBrowser)
}

func browserFactory(cfg config.BrowserConfig) Factory[*Browser] {
	return func(ctx context.Context) (*Browser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		bin := cfg.BrowserBin
		if bin == "" {
			path, found := lookPath()
			if !found {
				return nil, ErrBrowserNotFound
			}
			bin = path
		}
		l = l.Bin(bin)
		if cfg.Proxy != "" {
			l = l.Proxy(cfg.Proxy)
		}

		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-renderer-backgrounding"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("no-first-run"))

		controlURL, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}

		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			l.Kill()
			l.Cleanup()
			return nil, fmt.Errorf("connect to browser: %w", err)
		}
		slog.Info("browser launched", "controlURL", controlURL)

		return &Browser{rod: b, launcher: l}, nil
	}
}

// destroyBrowser closes the CDP connection and kills the process.
func destroyBrowser(b *Browser) error {
	err := b.rod.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	slog.Info("browser closed")
	return err
}
