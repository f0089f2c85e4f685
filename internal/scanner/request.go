package scanner

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultUserAgent is sent with every probe unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (BugBountyScanner/1.0)"

// BaseRequest is the request a scan starts from. Only its network target
// and headers carry over to probes.
type BaseRequest struct {
	Method string
	Scheme string
	Host   string // hostname without port
	Port   int
	Path   string
	Header http.Header
	Body   []byte
}

// ParseBaseURL builds a GET base request from a URL. A missing scheme
// defaults to http.
func ParseBaseURL(raw string) (*BaseRequest, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}

	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid URL %q: bad port %q", raw, p)
		}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return &BaseRequest{
		Method: http.MethodGet,
		Scheme: scheme,
		Host:   host,
		Port:   port,
		Path:   path,
		Header: make(http.Header),
	}, nil
}

// Origin returns scheme://host[:port], omitting the scheme's default port.
func (b *BaseRequest) Origin() string {
	return origin(b.Scheme, b.Host, b.Port)
}

// URL returns the full URL of the base request.
func (b *BaseRequest) URL() string {
	return b.Origin() + b.Path
}

// ProbeRequest is a GET derived from a BaseRequest for one endpoint path.
// It owns its header map and never aliases the base request's state.
type ProbeRequest struct {
	Method string
	Scheme string
	Host   string
	Port   int
	Path   string
	Header http.Header
	Body   []byte
}

// NewProbeRequest derives a probe from base: method forced to GET, path
// replaced, body cleared, Content-Type and Content-Length dropped and the
// User-Agent overwritten.
func NewProbeRequest(base *BaseRequest, path, userAgent string) *ProbeRequest {
	h := base.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Del("Content-Type")
	h.Del("Content-Length")
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	h.Set("User-Agent", userAgent)

	return &ProbeRequest{
		Method: http.MethodGet,
		Scheme: base.Scheme,
		Host:   base.Host,
		Port:   base.Port,
		Path:   path,
		Header: h,
	}
}

// URL returns the absolute URL the probe is sent to.
func (p *ProbeRequest) URL() string {
	return origin(p.Scheme, p.Host, p.Port) + p.Path
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

func origin(scheme, host string, port int) string {
	if strings.Contains(host, ":") {
		host = "[" + host + "]" // IPv6 literal
	}
	if port == 0 || port == defaultPort(scheme) {
		return scheme + "://" + host
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}
