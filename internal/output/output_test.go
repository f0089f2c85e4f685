package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/maxvaer/actuatorhunt/internal/finding"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/maxvaer/actuatorhunt/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFinding(t *testing.T, rawBase string, sigIdx int) *finding.Finding {
	t.Helper()
	base, err := scanner.ParseBaseURL(rawBase)
	require.NoError(t, err)
	sig := signature.Default()[sigIdx]
	req := scanner.NewProbeRequest(base, sig.Path, "")
	out := &scanner.Outcome{StatusCode: 200, URL: req.URL(), BodyHash: 7}
	f := finding.Synthesize(sig, base.URL(), finding.Evidence{Request: req, Outcome: out})
	f.ID = sig.Path
	return &f
}

func TestTextWriter(t *testing.T) {
	var buf, stderr bytes.Buffer
	w := newTextWriter(&buf, true, false)
	w.stderr = &stderr

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteFinding(makeFinding(t, "http://a.example", 1)))
	require.NoError(t, w.WriteFooter(Stats{Targets: 1, Probes: 5, Findings: 1, Duration: time.Second}))

	out := buf.String()
	assert.Contains(t, out, "[high] [certain] Spring Boot Actuator Discovery http://a.example/actuator\n")
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "Exposed endpoints:")
	assert.Contains(t, out, "└── /actuator")
	assert.Contains(t, stderr.String(), "Completed: 1 targets | Probes: 5 | Findings: 1 | Errors: 0 | Duration: 1s")
}

func TestTextWriterQuiet(t *testing.T) {
	var buf, stderr bytes.Buffer
	w := newTextWriter(&buf, true, true)
	w.stderr = &stderr

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteFinding(makeFinding(t, "http://a.example", 0)))
	require.NoError(t, w.WriteFooter(Stats{}))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Empty(t, stderr.String())
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewJSONWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteFinding(makeFinding(t, "https://b.example:8443", 0)))
	require.NoError(t, w.WriteFooter(Stats{}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Spring Boot Environment Leak", got[0]["name"])
	assert.Equal(t, "https://b.example:8443/actuator/env", got[0]["url"])
	assert.Equal(t, "high", got[0]["severity"])
	assert.Equal(t, "certain", got[0]["confidence"])
	assert.EqualValues(t, 200, got[0]["status"])
	assert.EqualValues(t, 7, got[0]["body_hash"])
}

func TestJSONWriterEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewJSONWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteFooter(Stats{}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteFinding(makeFinding(t, "http://c.example", 3)))
	require.NoError(t, w.WriteFooter(Stats{}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "severity", records[0][1])
	assert.Equal(t, []string{"/env", "high", "certain", "Legacy Spring Boot Env Leak", "http://c.example/env", "/env", "profiles", "200"}, records[1])
}

type recordingWriter struct {
	names  []string
	footer bool
	closed bool
}

func (r *recordingWriter) WriteHeader() error { return nil }
func (r *recordingWriter) WriteFinding(f *finding.Finding) error {
	r.names = append(r.names, f.Name)
	return nil
}
func (r *recordingWriter) WriteFooter(Stats) error {
	r.footer = true
	return nil
}
func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func TestSortedWriter(t *testing.T) {
	low := makeFinding(t, "http://z.example", 2)
	low.Severity = finding.Low
	high := makeFinding(t, "http://a.example", 4)

	tests := []struct {
		sortBy string
		want   []string
	}{
		{"severity", []string{high.Name, low.Name}},
		{"name", []string{low.Name, high.Name}},
		{"url", []string{high.Name, low.Name}},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			inner := &recordingWriter{}
			w, err := NewSortedWriter(inner, tt.sortBy)
			require.NoError(t, err)
			require.NoError(t, w.WriteFinding(low))
			require.NoError(t, w.WriteFinding(high))
			assert.Empty(t, inner.names, "findings must be buffered until the footer")

			require.NoError(t, w.WriteFooter(Stats{}))
			assert.Equal(t, tt.want, inner.names)
			assert.True(t, inner.footer)
			require.NoError(t, w.Close())
			assert.True(t, inner.closed)
		})
	}

	_, err := NewSortedWriter(&recordingWriter{}, "status")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Options{Format: "json", File: filepath.Join(dir, "a.json"), SortBy: "severity"})
	require.NoError(t, err)
	assert.IsType(t, &SortedWriter{}, w)
	require.NoError(t, w.Close())

	_, err = New(Options{Format: "xml"})
	assert.ErrorContains(t, err, "unknown output format")

	_, err = New(Options{Format: "csv", File: filepath.Join(dir, "b.csv"), SortBy: "bogus"})
	assert.Error(t, err)
}

func TestPrintTreeGroupsByBase(t *testing.T) {
	var buf bytes.Buffer
	PrintTree(&buf, []*finding.Finding{
		makeFinding(t, "http://b.example", 1),
		makeFinding(t, "http://a.example", 0),
		makeFinding(t, "http://b.example", 3),
	})
	out := buf.String()
	assert.Less(t, strings.Index(out, "http://a.example"), strings.Index(out, "http://b.example"))
	assert.Contains(t, out, "├── /actuator")
	assert.Contains(t, out, "└── /env")
}

func TestProgressLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 4, false)
	p.Increment()
	p.AddFindings(2)
	p.IncrementErrors()
	p.Redraw()
	assert.Contains(t, buf.String(), "[ 25%] 1/4 targets | Findings: 2 | Errors: 1")

	buf.Reset()
	quiet := NewProgress(&buf, 1, true)
	quiet.Start()
	quiet.Redraw()
	quiet.Stop()
	assert.Empty(t, buf.String())
}

func TestProgressWriterRedraws(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2, false)
	_, err := p.Writer().Write([]byte("[+] FOUND: /env on a.example\n"))
	require.NoError(t, err)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\r\033[K[+] FOUND: /env on a.example\n"))
	assert.Contains(t, out, "0/2 targets")

	buf.Reset()
	quiet := NewProgress(&buf, 2, true)
	_, err = quiet.Writer().Write([]byte("line\n"))
	require.NoError(t, err)
	assert.Equal(t, "line\n", buf.String())
}
