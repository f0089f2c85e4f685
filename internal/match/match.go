package match

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/maxvaer/actuatorhunt/internal/signature"
)

// Matcher decides whether a probe outcome proves a signature's endpoint
// is exposed.
type Matcher interface {
	Match(sig signature.Signature, out *scanner.Outcome) bool
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(sig signature.Signature, out *scanner.Outcome) bool

// Match calls f(sig, out).
func (f MatcherFunc) Match(sig signature.Signature, out *scanner.Outcome) bool {
	return f(sig, out)
}

// Keyword matches HTTP 200 responses whose body contains the signature
// keyword as a literal, case-sensitive substring.
type Keyword struct{}

func (Keyword) Match(sig signature.Signature, out *scanner.Outcome) bool {
	return out != nil && out.StatusCode == http.StatusOK &&
		strings.Contains(out.BodyString(), sig.Keyword)
}

// Header matches HTTP 200 responses where the named header contains the
// signature keyword.
type Header struct{}

func (Header) Match(sig signature.Signature, out *scanner.Outcome) bool {
	if out == nil || out.StatusCode != http.StatusOK || out.Header == nil {
		return false
	}
	for _, v := range out.Header.Values(sig.Header) {
		if strings.Contains(v, sig.Keyword) {
			return true
		}
	}
	return false
}

// Regex matches HTTP 200 responses whose body matches the signature
// keyword as a regular expression. Compiled patterns are cached.
type Regex struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// NewRegex returns a Regex matcher with an empty pattern cache.
func NewRegex() *Regex {
	return &Regex{cache: make(map[string]*regexp.Regexp)}
}

func (r *Regex) Match(sig signature.Signature, out *scanner.Outcome) bool {
	if out == nil || out.StatusCode != http.StatusOK {
		return false
	}
	re := r.compile(sig.Keyword)
	return re != nil && re.Match(out.Body)
}

func (r *Regex) compile(pattern string) *regexp.Regexp {
	r.mu.Lock()
	defer r.mu.Unlock()
	if re, ok := r.cache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	r.cache[pattern] = re
	return re
}

// Resolve returns the matcher for a signature kind.
func Resolve(kind signature.Kind) (Matcher, error) {
	switch kind {
	case "", signature.KindKeyword:
		return Keyword{}, nil
	case signature.KindRegex:
		return NewRegex(), nil
	case signature.KindHeader:
		return Header{}, nil
	default:
		return nil, fmt.Errorf("unknown matcher kind %q", kind)
	}
}
