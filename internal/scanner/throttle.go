package scanner

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Throttler backs off per host when a target answers 429/503 or keeps
// failing, and recovers gradually once responses are healthy again. It
// only delays probes; it never repeats one.
type Throttler struct {
	mu     sync.Mutex
	hosts  map[string]*hostDelay
	logger *slog.Logger
}

type hostDelay struct {
	delay       time.Duration
	consecutive int // consecutive throttle signals
}

// NewThrottler creates an adaptive throttler. A nil logger discards the
// back-off notices.
func NewThrottler(logger *slog.Logger) *Throttler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Throttler{hosts: make(map[string]*hostDelay), logger: logger}
}

// Delay returns the current delay before the next request to host.
func (t *Throttler) Delay(host string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.hosts[host]; ok {
		return h.delay
	}
	return 0
}

// Wait sleeps for the host's current delay or until ctx is done.
func (t *Throttler) Wait(ctx context.Context, host string) error {
	d := t.Delay(host)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordStatus updates host's delay from a response status code.
func (t *Throttler) RecordStatus(host string, statusCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.host(host)

	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable {
		h.consecutive++
		if t.backoff(h) {
			t.logger.Warn("rate limited, backing off", "host", host, "status", statusCode, "delay", h.delay)
		}
		return
	}
	if h.consecutive == 0 {
		return
	}
	h.consecutive = 0
	if h.delay == 0 {
		return
	}
	// Gradually recover: halve the delay toward zero.
	h.delay /= 2
	if h.delay < minBackoff {
		h.delay = 0
	}
	t.logger.Info("recovering from rate limit", "host", host, "delay", h.delay)
}

// RecordError flags a connection error (timeout, reset) as a possible
// rate limit signal. Three in a row trigger a back-off.
func (t *Throttler) RecordError(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.host(host)
	h.consecutive++
	if h.consecutive >= 3 && t.backoff(h) {
		t.logger.Warn("repeated errors, backing off", "host", host, "delay", h.delay)
	}
}

func (t *Throttler) host(host string) *hostDelay {
	h, ok := t.hosts[host]
	if !ok {
		h = &hostDelay{}
		t.hosts[host] = h
	}
	return h
}

// backoff doubles h's delay within [minBackoff, maxBackoff] and reports
// whether it changed.
func (t *Throttler) backoff(h *hostDelay) bool {
	next := min(max(h.delay*2, minBackoff), maxBackoff)
	if next == h.delay {
		return false
	}
	h.delay = next
	return true
}
