package webtest

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

func get(t *testing.T, w *Web, ctx context.Context, raw string) (*types.Response, error) {
	t.Helper()
	req, err := types.NewRequest(raw)
	require.NoError(t, err)
	return w.Fetch(ctx, req)
}

func TestWebServesPages(t *testing.T) {
	w := New().HTML("https://Example.com/news/", "<p>news</p>")

	resp, err := get(t, w, context.Background(), "https://example.com/news#top")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "<p>news</p>", string(resp.Body))

	resp, err = get(t, w, context.Background(), "https://example.com/missing")
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	assert.Equal(t, 1, w.Hits("https://example.com/news"))
	assert.Equal(t, []string{"https://example.com/missing", "https://example.com/news"}, w.Requested())
}

func TestWebRoutesAndFailures(t *testing.T) {
	w := New().
		Route("https://search.test/", func(u *url.URL) Page {
			return Page{Status: 200, Body: u.Query().Get("q")}
		}).
		Fail("https://down.test/", errors.New("connection refused"))

	resp, err := get(t, w, context.Background(), "https://search.test/html?q=hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Body))

	_, err = get(t, w, context.Background(), "https://down.test/")
	var fe *types.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestWebHonoursContext(t *testing.T) {
	w := New().HTML("https://slow.test/", "ok").Delay(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := get(t, w, ctx, "https://slow.test/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWebFollowsRedirects(t *testing.T) {
	w := New().
		Redirect("https://www.example.com/author/ghost", "/").
		Route("https://old.example.com/", func(u *url.URL) Page {
			return Page{Status: 301, Location: "https://example.in" + u.Path}
		}).
		HTML("https://www.example.com/", "<p>home</p>").
		HTML("https://example.in/news", "<p>moved</p>")

	resp, err := get(t, w, context.Background(), "https://www.example.com/author/ghost")
	require.NoError(t, err)
	assert.Equal(t, "<p>home</p>", string(resp.Body))
	assert.Equal(t, "https://www.example.com/", resp.FinalURL)

	resp, err = get(t, w, context.Background(), "https://old.example.com/news")
	require.NoError(t, err)
	assert.Equal(t, "https://example.in/news", resp.PageURL())
	assert.True(t, resp.Redirected())
	assert.Equal(t, 1, w.Hits("https://example.in/news"))
}
