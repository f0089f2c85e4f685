package output

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/maxvaer/actuatorhunt/internal/finding"
)

// SortedWriter buffers findings and replays them sorted by a field when
// WriteFooter is called. It wraps any other Writer.
type SortedWriter struct {
	inner    Writer
	compare  func(a, b *finding.Finding) int
	findings []*finding.Finding
}

// NewSortedWriter wraps inner. sortBy is severity (highest first), name or
// url; ties keep discovery order.
func NewSortedWriter(inner Writer, sortBy string) (*SortedWriter, error) {
	var compare func(a, b *finding.Finding) int
	switch sortBy {
	case "severity":
		compare = func(a, b *finding.Finding) int {
			return cmp.Compare(b.Severity.Score(), a.Severity.Score())
		}
	case "name":
		compare = func(a, b *finding.Finding) int { return cmp.Compare(a.Name, b.Name) }
	case "url":
		compare = func(a, b *finding.Finding) int { return cmp.Compare(a.URL(), b.URL()) }
	default:
		return nil, fmt.Errorf("unknown sort field %q (want severity, name or url)", sortBy)
	}
	return &SortedWriter{inner: inner, compare: compare}, nil
}

func (w *SortedWriter) WriteHeader() error {
	return w.inner.WriteHeader()
}

func (w *SortedWriter) WriteFinding(f *finding.Finding) error {
	w.findings = append(w.findings, f)
	return nil
}

func (w *SortedWriter) WriteFooter(stats Stats) error {
	slices.SortStableFunc(w.findings, w.compare)
	for _, f := range w.findings {
		if err := w.inner.WriteFinding(f); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(stats)
}

func (w *SortedWriter) Close() error {
	return w.inner.Close()
}
