package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// Throttled spaces requests to the same host by at least a fixed delay.
// Requests to different hosts are not delayed by each other.
type Throttled struct {
	next   Fetcher
	delay  time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	hosts map[string]*hostThrottle
}

// hostThrottle is the next free slot for one host.
type hostThrottle struct {
	mu   sync.Mutex
	next time.Time
}

// NewThrottled wraps next with a per-host politeness delay.
func NewThrottled(next Fetcher, delay time.Duration, logger *slog.Logger) *Throttled {
	return &Throttled{
		next:   next,
		delay:  delay,
		logger: logger.With("component", "throttle"),
		hosts:  make(map[string]*hostThrottle),
	}
}

// Fetch waits for the host's slot, or for ctx, then delegates.
func (t *Throttled) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if err := t.wait(ctx, req.Domain()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}
	return t.next.Fetch(ctx, req)
}

func (t *Throttled) wait(ctx context.Context, host string) error {
	if t.delay <= 0 || host == "" {
		return nil
	}

	t.mu.Lock()
	h, ok := t.hosts[host]
	if !ok {
		h = &hostThrottle{}
		t.hosts[host] = h
	}
	t.mu.Unlock()

	// Callers are served in reservation order.
	h.mu.Lock()
	now := time.Now()
	slot := h.next
	if slot.Before(now) {
		slot = now
	}
	h.next = slot.Add(t.delay)
	h.mu.Unlock()

	d := time.Until(slot)
	if d <= 0 {
		return nil
	}
	t.logger.Debug("throttled", "host", host, "wait", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the wrapped fetcher.
func (t *Throttled) Close() error { return t.next.Close() }

// Type reports the wrapped fetcher's type.
func (t *Throttled) Type() string { return t.next.Type() }
