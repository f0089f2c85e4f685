package scanner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/maxvaer/actuatorhunt/internal/config"
	"github.com/spaolacci/murmur3"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a response body is kept for matching.
const maxBodySize = 10 << 20

// HTTPTransport sends probes over a shared *http.Client. It is safe for
// concurrent use by multiple target scans.
type HTTPTransport struct {
	client   *http.Client
	limiter  *rate.Limiter
	throttle *Throttler
}

// NewHTTPTransport creates a transport from the provided options.
func NewHTTPTransport(opts *config.Options) (*HTTPTransport, error) {
	conns := opts.Threads
	if conns < 1 {
		conns = 1
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.Insecure},
		DialContext: (&net.Dialer{
			Timeout: opts.Timeout,
		}).DialContext,
		MaxIdleConnsPerHost: conns,
		MaxIdleConns:        conns * 2,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		// Actuator endpoints answer directly; a redirect is a login page.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t := &HTTPTransport{client: client}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return t, nil
}

// NewHTTPTransportWithClient wraps an existing client, e.g. one returned by
// httptest.Server.Client().
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// SetThrottler enables adaptive per-host back-off. Call it before the
// first Send.
func (t *HTTPTransport) SetThrottler(th *Throttler) {
	t.throttle = th
}

// CloseIdleConnections releases pooled keep-alive connections.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// Send issues the probe and returns the decoded response.
func (t *HTTPTransport) Send(ctx context.Context, p *ProbeRequest) (*Outcome, error) {
	hostKey := origin(p.Scheme, p.Host, p.Port)
	if t.throttle != nil {
		if err := t.throttle.Wait(ctx, hostKey); err != nil {
			return nil, classify(err)
		}
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, classify(err)
		}
	}

	targetURL := p.URL()
	req, err := http.NewRequestWithContext(ctx, p.Method, targetURL, nil)
	if err != nil {
		return nil, err
	}
	for k, vals := range p.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	// net/http ignores a Host entry in the header map.
	if h := req.Header.Get("Host"); h != "" {
		req.Host = h
		req.Header.Del("Host")
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if t.throttle != nil && ctx.Err() == nil {
			t.throttle.RecordError(hostKey)
		}
		return nil, classify(err)
	}
	defer resp.Body.Close()
	if t.throttle != nil {
		t.throttle.RecordStatus(hostKey, resp.StatusCode)
	}

	decoded, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	defer decoded.close()

	body, err := io.ReadAll(io.LimitReader(decoded, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body for %s: %w", p.Path, decoded.readError(err))
	}

	return &Outcome{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
		BodyHash:   bodyHash(body),
		URL:        targetURL,
		Duration:   time.Since(start),
	}, nil
}

// bodyHash fingerprints a body with the streaming murmur3 digest.
// murmur3.Sum32 walks the slice with uintptr arithmetic that checkptr
// rejects under -race.
func bodyHash(body []byte) uint32 {
	h := murmur3.New32()
	_, _ = h.Write(body)
	return h.Sum32()
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTargetUnreachable, err)
}
