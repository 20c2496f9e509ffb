package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// AutoFetcher tries plain HTTP first and retries through a headless browser
// when HTTP fails or is blocked. The browser is started on first use.
type AutoFetcher struct {
	primary    Fetcher
	newBrowser func() (Fetcher, error)
	logger     *slog.Logger

	once       sync.Once
	browser    Fetcher
	browserErr error
}

// NewAutoFetcher creates an AutoFetcher over primary with a lazily built fallback.
func NewAutoFetcher(primary Fetcher, newBrowser func() (Fetcher, error), logger *slog.Logger) *AutoFetcher {
	return &AutoFetcher{
		primary:    primary,
		newBrowser: newBrowser,
		logger:     logger.With("component", "auto_fetcher"),
	}
}

// Fetch implements Fetcher.
func (a *AutoFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.Backend == "browser" {
		return a.viaBrowser(ctx, req)
	}

	resp, err := a.primary.Fetch(ctx, req)
	if err == nil && !needsBrowser(resp) {
		return resp, nil
	}
	if ctx.Err() != nil || req.Backend == "http" {
		return resp, err
	}

	a.logger.Debug("falling back to browser", "url", req.URLString(), "error", err)
	bresp, berr := a.viaBrowser(ctx, req)
	if berr != nil {
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
	return bresp, nil
}

func (a *AutoFetcher) viaBrowser(ctx context.Context, req *types.Request) (*types.Response, error) {
	a.once.Do(func() {
		a.browser, a.browserErr = a.newBrowser()
		if a.browserErr != nil {
			a.logger.Warn("browser unavailable", "error", a.browserErr)
		}
	})
	if a.browserErr != nil {
		return nil, errors.Join(types.ErrNoFetcher, a.browserErr)
	}
	return a.browser.Fetch(ctx, req)
}

// needsBrowser flags responses that typically mean bot protection.
func needsBrowser(resp *types.Response) bool {
	return resp.StatusCode == 403 || resp.StatusCode == 503
}

// Close implements Fetcher.
func (a *AutoFetcher) Close() error {
	err := a.primary.Close()
	if a.browser != nil {
		err = errors.Join(err, a.browser.Close())
	}
	return err
}

// Type implements Fetcher.
func (a *AutoFetcher) Type() string { return "auto" }
