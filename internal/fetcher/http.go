package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

const (
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	maxRetryAfter  = 2 * time.Minute
	defaultBackoff = 5 * time.Second
)

// HTTPFetcher fetches pages with net/http. Bodies are decompressed and
// transcoded to UTF-8 before they are returned.
type HTTPFetcher struct {
	client  *http.Client
	maxBody int64
	agents  agentRotation
	logger  *slog.Logger
}

// NewHTTPFetcher builds a fetcher with a cookie jar and a pooled transport.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	fc := cfg.Fetcher
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	dialer := &net.Dialer{Timeout: 15 * time.Second, KeepAlive: 30 * time.Second}
	client := &http.Client{
		Jar:     jar,
		Timeout: fc.RequestTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			MaxIdleConns:        fc.MaxIdleConns,
			MaxIdleConnsPerHost: max(fc.MaxIdleConns/2, 1),
			IdleConnTimeout:     fc.IdleConnTimeout,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: fc.TLSInsecure},
			DisableCompression:  true,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			switch {
			case !fc.FollowRedirects:
				return http.ErrUseLastResponse
			case len(via) >= fc.MaxRedirects:
				return fmt.Errorf("stopped after %d redirects", fc.MaxRedirects)
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:  client,
		maxBody: fc.MaxBodySize,
		agents:  agentRotation{list: fc.UserAgents},
		logger:  logger.With("component", "http_fetcher"),
	}, nil
}

// Fetch performs req. Client errors come back as responses; 429 and 5xx are
// retryable FetchErrors.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	target := req.URLString()

	httpReq, err := f.build(ctx, req)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: transient(err)}
	}
	defer httpResp.Body.Close()

	if err := statusError(target, httpResp); err != nil {
		return nil, err
	}

	body, err := f.readBody(httpResp)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: !errors.Is(err, errBadEncoding)}
	}

	resp := &types.Response{
		StatusCode:  httpResp.StatusCode,
		Headers:     httpResp.Header,
		Body:        body,
		ContentType: httpResp.Header.Get("Content-Type"),
		Request:     req,
		FinalURL:    httpResp.Request.URL.String(),
		Elapsed:     time.Since(start),
		FetchedAt:   time.Now(),
	}
	f.logger.Debug("fetched", "url", target, "status", resp.StatusCode, "bytes", len(body), "elapsed", resp.Elapsed)
	return resp, nil
}

func (f *HTTPFetcher) build(ctx context.Context, req *types.Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URLString(), nil)
	if err != nil {
		return nil, err
	}
	h := httpReq.Header
	h.Set("User-Agent", f.agents.next())
	h.Set("Accept", acceptHeader)
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	for key, values := range req.Headers {
		if len(values) > 0 {
			h.Set(key, values[len(values)-1])
		}
	}
	return httpReq, nil
}

func statusError(target string, resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &types.FetchError{
			URL:        target,
			StatusCode: code,
			Err:        fmt.Errorf("rate limited, retry after %s", wait),
			Retryable:  true,
			RetryAfter: wait,
		}
	case code >= 500:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &types.FetchError{
			URL:        target,
			StatusCode: code,
			Err:        fmt.Errorf("server error: %s", strings.TrimSpace(string(snippet))),
			Retryable:  true,
		}
	}
	return nil
}

var errBadEncoding = errors.New("unsupported content encoding")

// readBody applies the size cap, then decompression, then charset decoding.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if f.maxBody > 0 {
		r = io.LimitReader(r, f.maxBody)
	}

	switch enc := strings.ToLower(resp.Header.Get("Content-Encoding")); enc {
	case "", "identity":
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadEncoding, err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		r = flate.NewReader(r)
	case "br":
		r = brotli.NewReader(r)
	default:
		return nil, fmt.Errorf("%w %q", errBadEncoding, enc)
	}

	if contentType := resp.Header.Get("Content-Type"); isMarkup(contentType) {
		decoded, err := charset.NewReader(r, contentType)
		if err == nil {
			r = decoded
		}
	}
	return io.ReadAll(r)
}

func isMarkup(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || strings.HasSuffix(mediaType, "xml")
}

// Close drops idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type reports "http".
func (f *HTTPFetcher) Type() string { return "http" }

type agentRotation struct {
	list []string
	n    atomic.Uint64
}

func (a *agentRotation) next() string {
	if len(a.list) == 0 {
		return "AtenFlux/" + config.Version
	}
	return a.list[a.n.Add(1)%uint64(len(a.list))]
}

// transient reports network failures worth retrying. A cancelled or expired
// context never is.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter reads delay-seconds or an HTTP date, capped at two minutes.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultBackoff
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return min(time.Duration(secs)*time.Second, maxRetryAfter)
	}
	if at, err := http.ParseTime(v); err == nil {
		return min(max(time.Until(at), time.Second), maxRetryAfter)
	}
	return defaultBackoff
}
