package scanner

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Sentinel errors wrapped by HTTPTransport. Callers use errors.Is.
var (
	// ErrTimeout indicates the target did not answer within the deadline.
	ErrTimeout = errors.New("scanner: timeout")

	// ErrTargetUnreachable covers DNS failures, refused and reset connections.
	ErrTargetUnreachable = errors.New("scanner: target unreachable")

	// ErrBodyDecode indicates a compressed body could not be decoded.
	ErrBodyDecode = errors.New("scanner: body decode failed")
)

// Outcome is the transport's answer to a single probe.
type Outcome struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	BodyHash   uint32 // murmur3
	URL        string
	Duration   time.Duration
}

// BodyString returns the body as a string.
func (o *Outcome) BodyString() string {
	return string(o.Body)
}

// Transport sends probe requests. Implementations must be safe for
// concurrent use; the prober never retries and applies no timeout of its own.
type Transport interface {
	Send(ctx context.Context, req *ProbeRequest) (*Outcome, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *ProbeRequest) (*Outcome, error)

// Send calls f(ctx, req).
func (f TransportFunc) Send(ctx context.Context, req *ProbeRequest) (*Outcome, error) {
	return f(ctx, req)
}
