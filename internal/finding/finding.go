// Package finding holds the issue model reported for exposed endpoints,
// the text synthesized for it, and the consolidation policy applied when
// the same issue is discovered twice.
package finding

import "github.com/maxvaer/actuatorhunt/internal/scanner"

// Severity is the impact rating of a finding.
type Severity string

const (
	Info   Severity = "info"
	Low    Severity = "low"
	Medium Severity = "medium"
	High   Severity = "high"
)

// Score returns a numeric rank for sorting. Unknown values rank 0.
func (s Severity) Score() int {
	switch s {
	case High:
		return 4
	case Medium:
		return 3
	case Low:
		return 2
	case Info:
		return 1
	default:
		return 0
	}
}

func (s Severity) String() string { return string(s) }

// Confidence is how sure the detection is.
type Confidence string

const (
	Tentative Confidence = "tentative"
	Firm      Confidence = "firm"
	Certain   Confidence = "certain"
)

func (c Confidence) String() string { return string(c) }

// Evidence is the request/response pair that triggered a finding.
type Evidence struct {
	Request *scanner.ProbeRequest
	Outcome *scanner.Outcome
}

// Finding is a detected endpoint exposure. It is not modified after
// Synthesize returns, apart from the ID a Store assigns on insertion.
type Finding struct {
	ID      string
	Name    string
	Path    string
	Keyword string
	BaseURL string

	Detail                string // HTML
	Remediation           string
	Background            string // HTML
	RemediationBackground string

	Severity        Severity
	TypicalSeverity Severity
	Confidence      Confidence

	Evidence Evidence
}

// URL returns the probed URL, falling back to the base URL.
func (f *Finding) URL() string {
	if f.Evidence.Outcome != nil && f.Evidence.Outcome.URL != "" {
		return f.Evidence.Outcome.URL
	}
	if f.Evidence.Request != nil {
		return f.Evidence.Request.URL()
	}
	return f.BaseURL
}
