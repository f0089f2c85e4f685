package reqparse

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/maxvaer/actuatorhunt/internal/scanner"
)

// ParseFile reads a raw HTTP request (e.g. Burp Suite export) and turns it
// into the base request for a scan: target, method, headers and body.
func ParseFile(path string) (*scanner.BaseRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a raw HTTP request from r.
func Parse(r io.Reader) (*scanner.BaseRequest, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	// Request line: GET /path HTTP/1.1
	requestLine, err := readLine(br)
	if err != nil && requestLine == "" {
		return nil, fmt.Errorf("request file is empty")
	}
	parts := strings.Fields(requestLine)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid request line: %q", requestLine)
	}
	method := strings.ToUpper(parts[0])
	requestPath := parts[1]
	proto := ""
	if len(parts) >= 3 {
		proto = strings.ToUpper(parts[2])
	}

	header := make(http.Header)
	for {
		line, err := readLine(br)
		if strings.TrimSpace(line) == "" {
			break // end of headers
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			header.Add(strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]))
		}
		if err != nil {
			break
		}
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	// Some proxies put an absolute URL in the request line.
	var target string
	if strings.HasPrefix(requestPath, "http://") || strings.HasPrefix(requestPath, "https://") {
		target = requestPath
	} else {
		host := header.Get("Host")
		if host == "" {
			return nil, fmt.Errorf("request file missing Host header")
		}
		target = schemeFor(host, proto) + "://" + host + requestPath
	}

	base, err := scanner.ParseBaseURL(target)
	if err != nil {
		return nil, err
	}
	header.Del("Host")
	base.Method = method
	base.Header = header
	if len(body) > 0 {
		base.Body = body
	}
	return base, nil
}

// schemeFor guesses the scheme. Burp exports don't record TLS, so https is
// assumed unless the Host names port 80.
func schemeFor(host, proto string) string {
	if strings.HasPrefix(proto, "HTTP/1") && strings.HasSuffix(host, ":80") {
		return "http"
	}
	return "https"
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}
