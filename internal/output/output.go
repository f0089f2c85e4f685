// Package output renders findings in the formats selected with --format.
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maxvaer/actuatorhunt/internal/finding"
)

// Stats holds aggregate run statistics.
type Stats struct {
	Targets  int
	Probes   int
	Findings int
	Errors   int
	Duration time.Duration
}

// Writer is implemented by each output format. WriteFinding is called once
// per stored (non-duplicate) finding, from a single goroutine.
type Writer interface {
	WriteHeader() error
	WriteFinding(f *finding.Finding) error
	WriteFooter(stats Stats) error
	Close() error
}

// Options selects and configures a writer.
type Options struct {
	Format  string // text, json or csv
	File    string // empty means stdout
	SortBy  string // severity, name or url; empty streams unsorted
	NoColor bool
	Quiet   bool
}

// New builds the writer for opts, wrapped in a SortedWriter when SortBy is
// set.
func New(opts Options) (Writer, error) {
	var (
		w   Writer
		err error
	)
	switch opts.Format {
	case "json":
		w, err = NewJSONWriter(opts.File)
	case "csv":
		w, err = NewCSVWriter(opts.File)
	case "", "text":
		w, err = NewTextWriter(opts.File, opts.NoColor, opts.Quiet)
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or csv)", opts.Format)
	}
	if err != nil {
		return nil, err
	}
	if opts.SortBy == "" {
		return w, nil
	}
	sw, err := NewSortedWriter(w, opts.SortBy)
	if err != nil {
		w.Close()
		return nil, err
	}
	return sw, nil
}

// openOutput returns stdout, or the created file and its closer.
func openOutput(outputFile string) (io.Writer, io.Closer, error) {
	if outputFile == "" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f, nil
}

func statusOf(f *finding.Finding) int {
	if f.Evidence.Outcome == nil {
		return 0
	}
	return f.Evidence.Outcome.StatusCode
}
