package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/maxvaer/actuatorhunt/internal/finding"
)

// CSVWriter writes findings in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"id", "severity", "confidence", "name", "url", "path", "keyword", "status"})
}

func (c *CSVWriter) WriteFinding(f *finding.Finding) error {
	return c.w.Write([]string{
		f.ID,
		f.Severity.String(),
		f.Confidence.String(),
		f.Name,
		f.URL(),
		f.Path,
		f.Keyword,
		strconv.Itoa(statusOf(f)),
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
