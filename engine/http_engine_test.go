package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngine_FetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chromeUA, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title> Courses </title></head><body><div class="card">A</div></body></html>`))
	}))
	defer srv.Close()

	res, err := NewHTTPEngine("").Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Courses", res.Title)
	assert.Equal(t, SourceStatic, res.Source)
	assert.Contains(t, res.HTML, `<div class="card">A</div>`)
}

func TestHTTPEngine_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine("").Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestHTTPEngine_TimeoutIsDeadlineExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := NewHTTPEngine("").Fetch(context.Background(), &FetchRequest{
		URL:     srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Hello", ExtractTitle(`<html><head><title>Hello</title></head></html>`))
	assert.Equal(t, "", ExtractTitle(`<html><head></head><body>no title</body></html>`))
	assert.Equal(t, "", ExtractTitle(`<title></title>`))
}
