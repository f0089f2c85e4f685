package scanner

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantScheme string
		wantHost   string
		wantPort   int
		wantOrigin string
	}{
		{"https default port", "https://victim.example", "https", "victim.example", 443, "https://victim.example"},
		{"http explicit port", "http://10.0.0.5:8080/app", "http", "10.0.0.5", 8080, "http://10.0.0.5:8080"},
		{"missing scheme", "victim.example", "http", "victim.example", 80, "http://victim.example"},
		{"ipv6", "http://[::1]:9000", "http", "::1", 9000, "http://[::1]:9000"},
		{"uppercase scheme", "HTTPS://victim.example:443", "https", "victim.example", 443, "https://victim.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBaseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, b.Scheme)
			assert.Equal(t, tt.wantHost, b.Host)
			assert.Equal(t, tt.wantPort, b.Port)
			assert.Equal(t, tt.wantOrigin, b.Origin())
			assert.Equal(t, http.MethodGet, b.Method)
		})
	}
}

func TestParseBaseURLErrors(t *testing.T) {
	for _, raw := range []string{"ftp://victim.example", "http://", "http://victim.example:99999"} {
		_, err := ParseBaseURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestNewProbeRequest(t *testing.T) {
	base := &BaseRequest{
		Method: http.MethodPost,
		Scheme: "https",
		Host:   "victim.example",
		Port:   8443,
		Path:   "/api/login",
		Header: http.Header{
			"Content-Type":   {"application/json"},
			"Content-Length": {"27"},
			"Cookie":         {"JSESSIONID=abc"},
			"User-Agent":     {"curl/8.0"},
		},
		Body: []byte(`{"user":"a","pass":"b"}`),
	}

	p := NewProbeRequest(base, "/actuator/env", "")

	assert.Equal(t, http.MethodGet, p.Method)
	assert.Equal(t, "/actuator/env", p.Path)
	assert.Empty(t, p.Body)
	assert.Empty(t, p.Header.Get("Content-Type"))
	assert.Empty(t, p.Header.Get("Content-Length"))
	assert.Equal(t, DefaultUserAgent, p.Header.Get("User-Agent"))
	assert.Equal(t, "JSESSIONID=abc", p.Header.Get("Cookie"))
	assert.Equal(t, "https://victim.example:8443/actuator/env", p.URL())

	// The base request is left untouched.
	assert.Equal(t, http.MethodPost, base.Method)
	assert.Equal(t, "application/json", base.Header.Get("Content-Type"))
	assert.Equal(t, "curl/8.0", base.Header.Get("User-Agent"))
	assert.NotEmpty(t, base.Body)

	p.Header.Set("X-Probe", "1")
	assert.Empty(t, base.Header.Get("X-Probe"))
}

func TestNewProbeRequestCustomUserAgentAndNilHeader(t *testing.T) {
	base := &BaseRequest{Scheme: "http", Host: "h", Port: 80}
	p := NewProbeRequest(base, "/env", "scanner/2.0")
	assert.Equal(t, "scanner/2.0", p.Header.Get("User-Agent"))
	assert.Equal(t, "http://h/env", p.URL())
}
