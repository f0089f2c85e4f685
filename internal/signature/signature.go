package signature

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind selects how a signature's keyword is matched against a response.
type Kind string

const (
	// KindKeyword requires HTTP 200 and a literal, case-sensitive substring
	// of the body.
	KindKeyword Kind = "keyword"
	// KindRegex requires HTTP 200 and a regular expression match on the body.
	KindRegex Kind = "regex"
	// KindHeader requires HTTP 200 and a literal substring of one response header.
	KindHeader Kind = "header"
)

// Signature describes one endpoint to probe and the evidence that proves
// it is exposed.
type Signature struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Keyword string `yaml:"keyword"`
	Kind    Kind   `yaml:"kind,omitempty"`
	Header  string `yaml:"header,omitempty"` // only for KindHeader
}

// MatchKind returns the signature's kind, defaulting to KindKeyword.
func (s Signature) MatchKind() Kind {
	if s.Kind == "" {
		return KindKeyword
	}
	return s.Kind
}

// Validate reports the first problem that would make the signature unusable.
func (s Signature) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("signature has no name")
	}
	if !strings.HasPrefix(s.Path, "/") {
		return fmt.Errorf("signature %q: path %q must start with /", s.Name, s.Path)
	}
	if s.Keyword == "" {
		return fmt.Errorf("signature %q: empty keyword", s.Name)
	}
	switch s.MatchKind() {
	case KindKeyword:
	case KindRegex:
		if _, err := regexp.Compile(s.Keyword); err != nil {
			return fmt.Errorf("signature %q: invalid regex: %w", s.Name, err)
		}
	case KindHeader:
		if s.Header == "" {
			return fmt.Errorf("signature %q: header kind requires a header name", s.Name)
		}
	default:
		return fmt.Errorf("signature %q: unknown kind %q", s.Name, s.Kind)
	}
	return nil
}

// Table is an ordered list of signatures. Probes run in table order and
// findings are reported in the same order.
type Table []Signature

var defaultTable = Table{
	{Name: "Spring Boot Environment Leak", Path: "/actuator/env", Keyword: "activeProfiles"},
	{Name: "Spring Boot Actuator Discovery", Path: "/actuator", Keyword: "_links"},
	{Name: "Spring Boot API Mappings", Path: "/actuator/mappings", Keyword: "dispatcherServlet"},
	{Name: "Legacy Spring Boot Env Leak", Path: "/env", Keyword: "profiles"},
	{Name: "Spring Cloud Gateway Routes Leak", Path: "/actuator/gateway/routes", Keyword: "predicate"},
}

// Default returns a copy of the built-in actuator table.
func Default() Table {
	return append(Table(nil), defaultTable...)
}

// Validate checks every signature and rejects duplicate names, since
// findings are consolidated by name.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("signature table is empty")
	}
	seen := make(map[string]struct{}, len(t))
	for i, s := range t {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("entry %d: duplicate signature name %q", i+1, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
