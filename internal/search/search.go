// Package search scrapes web-search result pages behind a common Provider
// interface and meters how many calls a single resolution may spend.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// Result is one organic search hit.
type Result struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}

// Provider is a search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// factory builds a provider over a fetcher. An empty endpoint selects the
// provider's public endpoint.
type factory func(f fetcher.Fetcher, endpoint string, timeout time.Duration) Provider

var registry = map[string]factory{
	"duckduckgo": func(f fetcher.Fetcher, endpoint string, timeout time.Duration) Provider {
		return &DuckDuckGo{base: base{fetcher: f, endpoint: or(endpoint, duckDuckGoEndpoint), timeout: timeout}}
	},
	"bing": func(f fetcher.Fetcher, endpoint string, timeout time.Duration) Provider {
		return &Bing{base: base{fetcher: f, endpoint: or(endpoint, bingEndpoint), timeout: timeout}}
	},
	"google": func(f fetcher.Fetcher, endpoint string, timeout time.Duration) Provider {
		return &Google{base: base{fetcher: f, endpoint: or(endpoint, googleEndpoint), timeout: timeout}}
	},
}

// NewProvider builds the named provider.
func NewProvider(name string, f fetcher.Fetcher, endpoint string, timeout time.Duration) (Provider, error) {
	build, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown search provider %q", name)
	}
	return build(f, endpoint, timeout), nil
}

// Client holds the ordered provider list and the per-session call budget.
type Client struct {
	providers []Provider
	maxCalls  int
	limit     int
	logger    *slog.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg config.SearchConfig, f fetcher.Fetcher, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	providers := make([]Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		p, err := NewProvider(name, f, cfg.Endpoints[name], timeout)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewClientWith(providers, cfg.MaxCalls, cfg.ResultsPerCall, logger), nil
}

// NewClientWith builds a client over explicit providers.
func NewClientWith(providers []Provider, maxCalls, limit int, logger *slog.Logger) *Client {
	if limit <= 0 {
		limit = 10
	}
	return &Client{
		providers: providers,
		maxCalls:  maxCalls,
		limit:     limit,
		logger:    logger.With("component", "search"),
	}
}

// Providers returns the providers in priority order.
func (c *Client) Providers() []Provider { return c.providers }

// NewSession starts a fresh call budget.
func (c *Client) NewSession() *Session {
	return &Session{client: c}
}

// Session meters search calls. It is safe for concurrent use.
type Session struct {
	client *Client

	mu    sync.Mutex
	calls int
}

// Calls returns how many provider calls were made.
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Session) take() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client.maxCalls > 0 && s.calls >= s.client.maxCalls {
		return false
	}
	s.calls++
	return true
}

// Search queries one provider, spending one call from the budget.
func (s *Session) Search(ctx context.Context, p Provider, query string) ([]Result, error) {
	if !s.take() {
		return nil, types.ErrSearchBudget
	}
	results, err := p.Search(ctx, query, s.client.limit)
	if err != nil {
		s.client.logger.Debug("search failed", "provider", p.Name(), "query", query, "error", err)
		return nil, fmt.Errorf("%s search: %w", p.Name(), err)
	}
	if len(results) == 0 {
		return nil, types.ErrNoResults
	}
	s.client.logger.Debug("search ok", "provider", p.Name(), "query", query, "results", len(results))
	return results, nil
}

// First tries providers in order and returns the first non-empty result list
// along with the provider name.
func (s *Session) First(ctx context.Context, query string) ([]Result, string, error) {
	var lastErr error = types.ErrNoResults
	for _, p := range s.client.providers {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		results, err := s.Search(ctx, p, query)
		if err == nil {
			return results, p.Name(), nil
		}
		if errors.Is(err, types.ErrSearchBudget) {
			return nil, "", err
		}
		lastErr = err
	}
	return nil, "", lastErr
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
