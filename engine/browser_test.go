package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/cardscrape/config"
	"github.com/use-agent/cardscrape/models"
)

func stubLookPath(t *testing.T, path string, found bool) {
	t.Helper()
	orig := lookPath
	lookPath = func() (string, bool) { return path, found }
	t.Cleanup(func() { lookPath = orig })
}

func TestBrowserFactory_NoBinaryNeverDownloads(t *testing.T) {
	stubLookPath(t, "", false)

	start := time.Now()
	_, err := browserFactory(config.BrowserConfig{Headless: true})(context.Background())
	assert.ErrorIs(t, err, ErrBrowserNotFound)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBrowserPool_NoBinaryReportsRenderUnavailable(t *testing.T) {
	stubLookPath(t, "", false)

	browserCfg := config.BrowserConfig{Headless: true}
	poolCfg := config.PoolConfig{Size: 1, AcquireTimeout: time.Second}
	pool := NewBrowserPool(browserCfg, poolCfg)
	defer pool.Close()

	e := NewRodEngine(pool, testRenderConfig(), browserCfg, poolCfg)
	_, err := e.Render(context.Background(), &RenderRequest{URL: "https://example.com", Selector: ".card"})

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeRenderUnavailable, se.Code)
	assert.ErrorIs(t, err, ErrBrowserNotFound)
	assert.Equal(t, 0, pool.Size())
}
