package search

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/webtest"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const ddgPage = `<html><body>
<div class="result"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.exampletimes.in%2F&rut=abc">Example Times - Latest News</a></div>
<div class="result"><a class="result__a" href="https://en.wikipedia.org/wiki/Example_Times">Example Times - Wikipedia</a></div>
<div class="result"><a class="result__a" href="https://en.wikipedia.org/wiki/Example_Times">Duplicate</a></div>
</body></html>`

const bingPage = `<html><body><ol id="b_results">
<li class="b_algo"><h2><a href="https://www.exampletimes.com/">Example Times | Home</a></h2></li>
<li class="b_algo"><h2><a href="https://twitter.com/exampletimes">Example Times (@exampletimes)</a></h2></li>
</ol></body></html>`

const googlePage = `<html><body>
<div class="g"><a href="/url?q=https://exampletimes.co.uk/&amp;sa=U"><h3>Example Times UK</h3></a></div>
<div class="g"><a href="/search?q=related">Related searches</a></div>
</body></html>`

func testWeb() *webtest.Web {
	return webtest.New().
		Route("https://ddg.test/", func(u *url.URL) webtest.Page {
			return webtest.Page{Status: 200, Body: ddgPage, ContentType: "text/html"}
		}).
		Route("https://bing.test/", func(u *url.URL) webtest.Page {
			return webtest.Page{Status: 200, Body: bingPage, ContentType: "text/html"}
		}).
		Route("https://google.test/", func(u *url.URL) webtest.Page {
			return webtest.Page{Status: 200, Body: googlePage, ContentType: "text/html"}
		})
}

func testClient(t *testing.T, web *webtest.Web, maxCalls int, providers ...string) *Client {
	t.Helper()
	cfg := config.DefaultConfig().Search
	cfg.Providers = providers
	cfg.MaxCalls = maxCalls
	cfg.Endpoints = map[string]string{
		"duckduckgo": "https://ddg.test/html/",
		"bing":       "https://bing.test/search",
		"google":     "https://google.test/search",
	}
	c, err := NewClient(cfg, web, time.Second, testLogger)
	require.NoError(t, err)
	return c
}

func TestProvidersParseResults(t *testing.T) {
	web := testWeb()
	c := testClient(t, web, 10, "duckduckgo", "bing", "google")
	s := c.NewSession()
	ctx := context.Background()

	byName := map[string]Provider{}
	for _, p := range c.Providers() {
		byName[p.Name()] = p
	}

	ddg, err := s.Search(ctx, byName["duckduckgo"], "example times official website")
	require.NoError(t, err)
	require.Len(t, ddg, 2)
	assert.Equal(t, "https://www.exampletimes.in/", ddg[0].URL)
	assert.Equal(t, "Example Times - Latest News", ddg[0].Title)
	assert.Equal(t, 1, ddg[0].Rank)

	bing, err := s.Search(ctx, byName["bing"], "example times")
	require.NoError(t, err)
	require.Len(t, bing, 2)
	assert.Equal(t, "https://www.exampletimes.com/", bing[0].URL)

	google, err := s.Search(ctx, byName["google"], "example times")
	require.NoError(t, err)
	require.Len(t, google, 1)
	assert.Equal(t, "https://exampletimes.co.uk/", google[0].URL)
	assert.Equal(t, "Example Times UK", google[0].Title)

	assert.Equal(t, 3, s.Calls())
}

func TestSessionBudget(t *testing.T) {
	web := testWeb()
	c := testClient(t, web, 2, "bing")
	s := c.NewSession()
	p := c.Providers()[0]

	for i := 0; i < 2; i++ {
		_, err := s.Search(context.Background(), p, "q")
		require.NoError(t, err)
	}
	_, err := s.Search(context.Background(), p, "q")
	assert.ErrorIs(t, err, types.ErrSearchBudget)
	assert.Equal(t, 2, s.Calls())

	// A new session has a fresh budget.
	_, err = c.NewSession().Search(context.Background(), p, "q")
	assert.NoError(t, err)
}

func TestSessionFirstFallsThroughProviders(t *testing.T) {
	web := testWeb().Fail("https://ddg.test/html/?q=x", errors.New("blocked"))
	c := testClient(t, web, 5, "duckduckgo", "bing")

	results, provider, err := c.NewSession().First(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "bing", provider)
	assert.Len(t, results, 2)
}

func TestSessionFirstNoResults(t *testing.T) {
	web := webtest.New() // every endpoint 404s
	c := testClient(t, web, 5, "duckduckgo", "bing")

	_, _, err := c.NewSession().First(context.Background(), "nothing")
	var fe *types.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestUnwrapHelpers(t *testing.T) {
	assert.Equal(t, "https://a.com/x", unwrapDuckDuckGo("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.com%2Fx"))
	assert.Equal(t, "https://plain.com", unwrapDuckDuckGo("https://plain.com"))
	assert.Equal(t, "https://b.com/", unwrapGoogle("/url?q=https://b.com/&sa=U"))
}

func TestUnknownProvider(t *testing.T) {
	_, err := NewProvider("altavista", webtest.New(), "", time.Second)
	assert.Error(t, err)
}
