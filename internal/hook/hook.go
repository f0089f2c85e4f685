package hook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/maxvaer/actuatorhunt/internal/finding"
)

// Timeout bounds a single hook invocation.
const Timeout = 30 * time.Second

// Payload is the JSON document sent to the hook command via stdin.
type Payload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Severity   string `json:"severity"`
	Confidence string `json:"confidence"`
	URL        string `json:"url"`
	BaseURL    string `json:"base_url"`
	Host       string `json:"host,omitempty"`
	Path       string `json:"path"`
	Keyword    string `json:"keyword"`
	StatusCode int    `json:"status,omitempty"`
	BodyHash   uint32 `json:"body_hash,omitempty"`
}

// NewPayload flattens a finding for external consumers.
func NewPayload(f *finding.Finding) Payload {
	p := Payload{
		ID:         f.ID,
		Name:       f.Name,
		Severity:   f.Severity.String(),
		Confidence: f.Confidence.String(),
		URL:        f.URL(),
		BaseURL:    f.BaseURL,
		Path:       f.Path,
		Keyword:    f.Keyword,
	}
	if req := f.Evidence.Request; req != nil {
		p.Host = req.Host
	}
	if out := f.Evidence.Outcome; out != nil {
		p.StatusCode = out.StatusCode
		p.BodyHash = out.BodyHash
	}
	return p
}

// Runner executes a shell command for each new finding.
type Runner struct {
	cmd    string
	quiet  bool
	stderr io.Writer
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet, stderr: os.Stderr}
}

// Run executes the hook command with the finding as JSON on stdin.
// Placeholders {url}, {path}, {host}, {name}, {severity} and {status} in
// the command are expanded first. Errors are logged but do not halt the
// scan.
func (r *Runner) Run(ctx context.Context, f *finding.Finding) error {
	payload := NewPayload(f)
	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(r.stderr, "[hook] marshal error: %v\n", err)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	expanded := strings.NewReplacer(
		"{url}", payload.URL,
		"{path}", payload.Path,
		"{host}", payload.Host,
		"{name}", payload.Name,
		"{severity}", payload.Severity,
		"{status}", strconv.Itoa(payload.StatusCode),
	).Replace(r.cmd)

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, expanded)...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = r.stderr

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(r.stderr, "[hook] error: %v\n", err)
		}
		return err
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(r.stderr, "[hook] %s", output)
	}
	return nil
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
