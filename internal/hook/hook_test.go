package hook

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/maxvaer/actuatorhunt/internal/finding"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/maxvaer/actuatorhunt/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFinding(t *testing.T) *finding.Finding {
	t.Helper()
	base, err := scanner.ParseBaseURL("http://victim.example:8080/")
	require.NoError(t, err)
	sig := signature.Default()[0]
	req := scanner.NewProbeRequest(base, sig.Path, "")
	out := &scanner.Outcome{StatusCode: 200, URL: req.URL(), BodyHash: 42}
	f := finding.Synthesize(sig, base.URL(), finding.Evidence{Request: req, Outcome: out})
	f.ID = "abc"
	return &f
}

func TestNewPayload(t *testing.T) {
	p := NewPayload(sampleFinding(t))
	assert.Equal(t, "abc", p.ID)
	assert.Equal(t, "Spring Boot Environment Leak", p.Name)
	assert.Equal(t, "high", p.Severity)
	assert.Equal(t, "certain", p.Confidence)
	assert.Equal(t, "http://victim.example:8080/actuator/env", p.URL)
	assert.Equal(t, "victim.example", p.Host)
	assert.Equal(t, 200, p.StatusCode)
	assert.Equal(t, uint32(42), p.BodyHash)
}

func TestRunPipesJSONAndExpandsPlaceholders(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	stdinFile := filepath.Join(dir, "stdin.json")
	argFile := filepath.Join(dir, "args.txt")

	r := NewRunner("cat > "+stdinFile+"; echo '{path} {host} {status}' > "+argFile, true)
	require.NoError(t, r.Run(context.Background(), sampleFinding(t)))

	data, err := os.ReadFile(stdinFile)
	require.NoError(t, err)
	var got Payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "/actuator/env", got.Path)

	args, err := os.ReadFile(argFile)
	require.NoError(t, err)
	assert.Equal(t, "/actuator/env victim.example 200\n", string(args))
}

func TestRunReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	var stderr bytes.Buffer
	r := NewRunner("exit 3", false)
	r.stderr = &stderr

	err := r.Run(context.Background(), sampleFinding(t))
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "[hook] error:")
}

func TestRunEchoesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	var stderr bytes.Buffer
	r := NewRunner("echo notified {name}", false)
	r.stderr = &stderr

	require.NoError(t, r.Run(context.Background(), sampleFinding(t)))
	assert.Equal(t, "[hook] notified Spring Boot Environment Leak\n", stderr.String())
}
