package output

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/maxvaer/actuatorhunt/internal/finding"
)

type jsonEntry struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Severity              string `json:"severity"`
	TypicalSeverity       string `json:"typical_severity"`
	Confidence            string `json:"confidence"`
	URL                   string `json:"url"`
	BaseURL               string `json:"base_url"`
	Path                  string `json:"path"`
	Keyword               string `json:"keyword"`
	StatusCode            int    `json:"status,omitempty"`
	BodyHash              uint32 `json:"body_hash,omitempty"`
	Detail                string `json:"detail"`
	Remediation           string `json:"remediation"`
	Background            string `json:"background"`
	RemediationBackground string `json:"remediation_background"`
}

// JSONWriter writes findings as a JSON array once the run ends.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []jsonEntry
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{w: w, closer: closer, entries: []jsonEntry{}}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteFinding(f *finding.Finding) error {
	e := jsonEntry{
		ID:                    f.ID,
		Name:                  f.Name,
		Severity:              f.Severity.String(),
		TypicalSeverity:       f.TypicalSeverity.String(),
		Confidence:            f.Confidence.String(),
		URL:                   f.URL(),
		BaseURL:               f.BaseURL,
		Path:                  f.Path,
		Keyword:               f.Keyword,
		StatusCode:            statusOf(f),
		Detail:                f.Detail,
		Remediation:           f.Remediation,
		Background:            f.Background,
		RemediationBackground: f.RemediationBackground,
	}
	if f.Evidence.Outcome != nil {
		e.BodyHash = f.Evidence.Outcome.BodyHash
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *JSONWriter) WriteFooter(_ Stats) error {
	data, err := json.Marshal(j.entries, jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	_, err = j.w.Write(append(data, '\n'))
	return err
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
