package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// BrowserFetcher renders pages in headless Chromium. Outlets that build
// author listings client-side only expose bylines this way.
type BrowserFetcher struct {
	browser *rod.Browser
	opts    config.BrowserConfig
	timeout time.Duration
	logger  *slog.Logger

	// idle holds reusable tabs; slots bounds how many are open at once.
	idle  chan *rod.Page
	slots chan struct{}
}

// rendered is what one navigation produced.
type rendered struct {
	status   int
	html     string
	finalURL string
}

// NewBrowserFetcher launches Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	controlURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	pages := max(cfg.Browser.MaxPages, 1)
	bf := &BrowserFetcher{
		browser: browser,
		opts:    cfg.Browser,
		timeout: cfg.Fetcher.RequestTimeout,
		logger:  logger.With("component", "browser_fetcher"),
		idle:    make(chan *rod.Page, pages),
		slots:   make(chan struct{}, pages),
	}
	bf.logger.Info("browser ready", "max_pages", pages, "stealth", cfg.Browser.Stealth)
	return bf, nil
}

// Fetch renders req.URL and returns the DOM after it settles.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	target := req.URLString()
	select {
	case bf.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, &types.FetchError{URL: target, Err: ctx.Err()}
	}
	defer func() { <-bf.slots }()

	page, err := bf.acquire()
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: true}
	}
	defer bf.release(page)

	timeout := bf.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	start := time.Now()
	out, err := bf.render(page.Context(ctx).Timeout(timeout), req)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: ctx.Err() == nil}
	}
	elapsed := time.Since(start)
	bf.logger.Debug("rendered", "url", target, "final_url", out.finalURL, "status", out.status, "bytes", len(out.html), "elapsed", elapsed)

	if out.status == 429 || out.status >= 500 {
		return nil, &types.FetchError{URL: target, StatusCode: out.status, Err: fmt.Errorf("HTTP %d", out.status), Retryable: true}
	}
	return &types.Response{
		StatusCode:  out.status,
		Body:        []byte(out.html),
		ContentType: "text/html; charset=utf-8",
		Request:     req,
		FinalURL:    out.finalURL,
		Elapsed:     elapsed,
		FetchedAt:   time.Now(),
	}, nil
}

func (bf *BrowserFetcher) render(p *rod.Page, req *types.Request) (rendered, error) {
	out := rendered{status: 200, finalURL: req.URLString()}

	if ua := req.Headers.Get("User-Agent"); ua != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("set user agent", "error", err)
		}
	}

	// Navigate does not expose the document status, so read it off the
	// first document response.
	waitDoc := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		out.status = e.Response.Status
		return true
	})
	if err := p.Navigate(out.finalURL); err != nil {
		return out, err
	}
	waitDoc()

	if err := p.WaitStable(bf.opts.WaitStable); err != nil {
		bf.logger.Warn("page did not settle", "url", out.finalURL, "error", err)
	}

	html, err := p.HTML()
	if err != nil {
		return out, err
	}
	out.html = html
	if info, err := p.Info(); err == nil && info != nil && info.URL != "" {
		out.finalURL = info.URL
	}
	return out, nil
}

func (bf *BrowserFetcher) acquire() (*rod.Page, error) {
	select {
	case page := <-bf.idle:
		return page, nil
	default:
	}
	if bf.opts.Stealth {
		return stealth.Page(bf.browser)
	}
	return bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

func (bf *BrowserFetcher) release(page *rod.Page) {
	if err := page.Navigate("about:blank"); err != nil {
		_ = page.Close()
		return
	}
	select {
	case bf.idle <- page:
	default:
		_ = page.Close()
	}
}

// Close closes idle tabs and the browser.
func (bf *BrowserFetcher) Close() error {
	close(bf.idle)
	for page := range bf.idle {
		_ = page.Close()
	}
	return bf.browser.Close()
}

// Type reports "browser".
func (bf *BrowserFetcher) Type() string { return "browser" }
