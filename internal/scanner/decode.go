package scanner

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// decodedBody reads a response body through its content decoder.
type decodedBody struct {
	io.Reader
	encoding string
	raw      *rawBody
	close    func() error
}

// rawBody remembers the last network read error so decoder failures can
// be told apart from the connection dropping.
type rawBody struct {
	r   io.Reader
	err error
}

func (b *rawBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		b.err = err
	}
	return n, err
}

// readError classifies an error from reading the decoded body. A failure
// inside a decoder over an intact stream is ErrBodyDecode.
func (d *decodedBody) readError(err error) error {
	if d.encoding == "" || d.raw.err != nil {
		return classify(err)
	}
	return fmt.Errorf("%w: %s: %w", ErrBodyDecode, d.encoding, err)
}

// decodeBody wraps the response body according to Content-Encoding. When the
// probe carried no explicit Accept-Encoding, net/http has already removed
// gzip and the header, so the body passes through untouched.
func decodeBody(resp *http.Response) (*decodedBody, error) {
	raw := &rawBody{r: resp.Body}
	d := &decodedBody{Reader: raw, raw: raw, close: func() error { return nil }}

	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch enc {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(raw)
		if err != nil {
			return nil, d.headerError("gzip", err)
		}
		d.Reader, d.encoding, d.close = gz, "gzip", gz.Close
	case "deflate":
		zr, err := zlib.NewReader(raw)
		if err != nil {
			return nil, d.headerError("deflate", err)
		}
		d.Reader, d.encoding, d.close = zr, "deflate", zr.Close
	case "br":
		d.Reader, d.encoding = brotli.NewReader(raw), "br"
	}
	return d, nil
}

func (d *decodedBody) headerError(encoding string, err error) error {
	d.encoding = encoding
	return d.readError(err)
}
