package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/maxvaer/actuatorhunt/internal/finding"
	"github.com/muesli/termenv"
)

// Severity colors.
var (
	colorHigh   = lipgloss.Color("#FF6B6B")
	colorMedium = lipgloss.Color("#FFD93D")
	colorLow    = lipgloss.Color("#6BCB77")
	colorInfo   = lipgloss.Color("#4D96FF")
	colorMuted  = lipgloss.Color("#6B7280")
)

// TextWriter writes one styled line per finding.
type TextWriter struct {
	w      io.Writer
	closer io.Closer
	stderr io.Writer
	quiet  bool

	severity map[finding.Severity]lipgloss.Style
	muted    lipgloss.Style
	name     lipgloss.Style

	findings []*finding.Finding
}

// NewTextWriter creates a text output writer. If outputFile is empty, stdout
// is used. noColor (and any non-terminal destination) disables styling.
func NewTextWriter(outputFile string, noColor, quiet bool) (*TextWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	t := newTextWriter(w, noColor, quiet)
	t.closer = closer
	return t, nil
}

func newTextWriter(w io.Writer, noColor, quiet bool) *TextWriter {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	sev := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Foreground(c).Bold(true)
	}
	return &TextWriter{
		w:      w,
		stderr: os.Stderr,
		quiet:  quiet,
		severity: map[finding.Severity]lipgloss.Style{
			finding.High:   sev(colorHigh),
			finding.Medium: sev(colorMedium),
			finding.Low:    sev(colorLow),
			finding.Info:   sev(colorInfo),
		},
		muted: r.NewStyle().Foreground(colorMuted),
		name:  r.NewStyle().Bold(true),
	}
}

func (t *TextWriter) WriteHeader() error {
	if t.quiet {
		return nil
	}
	_, err := fmt.Fprintln(t.w, t.muted.Render("Severity  Confidence  Finding  URL"))
	return err
}

func (t *TextWriter) WriteFinding(f *finding.Finding) error {
	t.findings = append(t.findings, f)
	sev := t.severity[f.Severity].Render(fmt.Sprintf("[%s]", f.Severity))
	conf := t.muted.Render(fmt.Sprintf("[%s]", f.Confidence))
	_, err := fmt.Fprintf(t.w, "%s %s %s %s\n", sev, conf, t.name.Render(f.Name), f.URL())
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	if t.quiet {
		return nil
	}
	PrintTree(t.w, t.findings)
	_, err := fmt.Fprintf(t.stderr,
		"\nCompleted: %d targets | Probes: %d | Findings: %d | Errors: %d | Duration: %s\n",
		stats.Targets,
		stats.Probes,
		stats.Findings,
		stats.Errors,
		stats.Duration.Round(time.Millisecond),
	)
	return err
}

func (t *TextWriter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
