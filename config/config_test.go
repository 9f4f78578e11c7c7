package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Browser.RenderEnabled)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Render.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Render.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Render.SelectorWaitTimeout)
	assert.Equal(t, []string{"Image", "Stylesheet", "Font"}, cfg.Render.BlockedResourceTypes)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CARDSCRAPE_PORT", "9090")
	t.Setenv("CARDSCRAPE_RENDER", "false")
	t.Setenv("CARDSCRAPE_SETTLE_DELAY", "250ms")
	t.Setenv("CARDSCRAPE_CORS_ORIGINS", " https://a.test , ,https://b.test")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.RenderEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Render.SettleDelay)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowOrigins)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("CARDSCRAPE_POOL_SIZE", "lots")
	t.Setenv("CARDSCRAPE_NAV_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 2, cfg.Pool.Size)
	assert.Equal(t, 60*time.Second, cfg.Render.NavigationTimeout)
}
