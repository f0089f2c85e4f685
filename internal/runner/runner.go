package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/maxvaer/actuatorhunt/internal/config"
	"github.com/maxvaer/actuatorhunt/internal/finding"
	"github.com/maxvaer/actuatorhunt/internal/hook"
	"github.com/maxvaer/actuatorhunt/internal/log"
	"github.com/maxvaer/actuatorhunt/internal/netutil"
	"github.com/maxvaer/actuatorhunt/internal/output"
	"github.com/maxvaer/actuatorhunt/internal/prober"
	"github.com/maxvaer/actuatorhunt/internal/reqparse"
	"github.com/maxvaer/actuatorhunt/internal/resume"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/maxvaer/actuatorhunt/internal/signature"
	"github.com/maxvaer/actuatorhunt/internal/telemetry"
)

// stderr receives status lines, log records and the progress line.
var stderr io.Writer = os.Stderr

// Run executes the full scan pipeline over every target named by -u, -l,
// -r and --cidr.
func Run(ctx context.Context, opts *config.Options) error {
	targets, err := ResolveTargets(opts)
	if err != nil {
		return err
	}

	table, err := LoadTable(opts)
	if err != nil {
		return err
	}

	// Resume support.
	var resumeState *resume.State
	if opts.ResumeFile != "" {
		existing, err := resume.Load(opts.ResumeFile)
		if err != nil {
			return fmt.Errorf("loading resume file: %w", err)
		}
		if existing != nil {
			resumeState = existing
			targets = resumeState.FilterRemaining(targets)
			if !opts.Quiet {
				fmt.Fprintf(stderr, "[+] Resuming: %d targets completed previously, %d remaining\n", resumeState.Completed(), len(targets))
			}
		} else {
			resumeState = resume.New(opts.ResumeFile, len(targets))
		}
	}

	if len(targets) == 0 {
		if !opts.Quiet {
			fmt.Fprintf(stderr, "[+] All targets already completed\n")
		}
		if resumeState != nil {
			_ = resumeState.Remove()
		}
		return nil
	}

	progress := output.NewProgress(stderr, len(targets), opts.Quiet || len(targets) < 2)
	logger := log.New(progress.Writer(), opts.Verbose, opts.LogJSON)

	transport, err := scanner.NewHTTPTransport(opts)
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}
	defer transport.CloseIdleConnections()
	if opts.AdaptiveThrottle {
		transport.SetThrottler(scanner.NewThrottler(logger))
	}

	var stats runStats
	proberOpts := []prober.Option{
		prober.WithTable(table),
		prober.WithObserver(prober.ObserverFunc(func(ctx context.Context, r prober.Result) {
			stats.probes.Add(1)
			if r.Err != nil {
				stats.errors.Add(1)
				progress.IncrementErrors()
				logger.DebugContext(ctx, "probe failed", "path", r.Signature.Path, "error", r.Err)
			}
		})),
	}
	if opts.UserAgent != "" {
		proberOpts = append(proberOpts, prober.WithUserAgent(opts.UserAgent))
	}

	var metrics *telemetry.Metrics
	if opts.MetricsFile != "" {
		if metrics, err = telemetry.NewMetrics(); err != nil {
			return fmt.Errorf("creating metrics: %w", err)
		}
		proberOpts = append(proberOpts, prober.WithObserver(metrics))
	}

	if opts.OTLPEndpoint != "" {
		shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingOptions{
			Endpoint: opts.OTLPEndpoint,
			Insecure: opts.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("flushing traces failed", "error", err)
			}
		}()
	}

	check, err := prober.Initialize(prober.Dependencies{
		Transport: transport,
		Logger:    logger,
		Options:   proberOpts,
	})
	if err != nil {
		return err
	}

	out, err := output.New(output.Options{
		Format:  opts.OutputFormat,
		File:    opts.OutputFile,
		SortBy:  opts.SortBy,
		NoColor: opts.NoColor,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()

	if !opts.Quiet {
		printBanner(stderr, opts, len(targets), len(table))
	}
	if err := out.WriteHeader(); err != nil {
		return err
	}

	var hookRunner *hook.Runner
	if opts.OnResultCmd != "" {
		hookRunner = hook.NewRunner(opts.OnResultCmd, opts.Quiet)
	}

	var pauser *Pauser
	if len(targets) > 1 {
		p, restore := startStdinToggle(stderr, opts.Quiet)
		defer restore()
		pauser = p
	}

	store := finding.NewStore(check.ConsolidateIssues)
	progress.Start()
	startTime := time.Now()

	results := RunPool(ctx, targets, PoolConfig{Threads: opts.Threads, Pauser: pauser},
		func(ctx context.Context, target *scanner.BaseRequest) []finding.Finding {
			ctx = log.ContextAttrs(ctx, slog.String("target", target.Origin()))
			return check.ActiveAudit(ctx, target)
		})

	var writeErr error
	for res := range results {
		stats.targets++
		added := 0
		for _, f := range res.Findings {
			stored, ok := store.Add(f)
			if !ok {
				logger.Debug("duplicate finding dropped", "name", f.Name, "base", f.BaseURL)
				continue
			}
			added++
			if writeErr != nil {
				continue
			}
			progress.ClearLine()
			writeErr = out.WriteFinding(stored)
			progress.Redraw()
			if hookRunner != nil {
				_ = hookRunner.Run(ctx, stored)
			}
		}
		progress.AddFindings(added)
		progress.Increment()
		if resumeState != nil && res.Complete {
			resumeState.MarkCompleted(res.Target.URL())
			if err := resumeState.Save(); err != nil {
				logger.Warn("saving resume state failed", "error", err)
			}
		}
	}
	progress.Stop()

	if metrics != nil {
		if err := metrics.WriteFile(opts.MetricsFile); err != nil {
			logger.Warn("writing metrics file failed", "path", opts.MetricsFile, "error", err)
		}
	}

	if resumeState != nil {
		if ctx.Err() != nil {
			if err := resumeState.Save(); err != nil {
				return fmt.Errorf("saving resume state: %w", err)
			}
			fmt.Fprintf(stderr, "\n[*] Progress saved to %s, resume with --resume-file\n", opts.ResumeFile)
		} else {
			_ = resumeState.Remove()
		}
	}

	if writeErr != nil {
		return writeErr
	}
	return out.WriteFooter(output.Stats{
		Targets:  stats.targets,
		Probes:   int(stats.probes.Load()),
		Findings: store.Len(),
		Errors:   int(stats.errors.Load()),
		Duration: time.Since(startTime),
	})
}

type runStats struct {
	targets int
	probes  atomic.Int64
	errors  atomic.Int64
}

// ResolveTargets builds the base requests to scan from -u, -l, -r and
// --cidr, in that order, dropping duplicates. Extra -H headers are applied
// to every base request.
func ResolveTargets(opts *config.Options) ([]*scanner.BaseRequest, error) {
	var targets []*scanner.BaseRequest
	seen := make(map[string]struct{})
	add := func(b *scanner.BaseRequest) {
		if _, ok := seen[b.URL()]; ok {
			return
		}
		seen[b.URL()] = struct{}{}
		targets = append(targets, b)
	}
	addURL := func(raw string) error {
		b, err := scanner.ParseBaseURL(raw)
		if err != nil {
			return err
		}
		add(b)
		return nil
	}

	if opts.URL != "" {
		if err := addURL(opts.URL); err != nil {
			return nil, err
		}
	}

	if opts.URLsFile != "" {
		urls, err := readLines(opts.URLsFile)
		if err != nil {
			return nil, fmt.Errorf("reading URLs file: %w", err)
		}
		for _, u := range urls {
			if err := addURL(u); err != nil {
				return nil, err
			}
		}
	}

	if opts.RequestFile != "" {
		b, err := reqparse.ParseFile(opts.RequestFile)
		if err != nil {
			return nil, fmt.Errorf("parsing request file: %w", err)
		}
		add(b)
	}

	if opts.CIDRTargets != "" {
		urls, err := netutil.ExpandTargets(opts.CIDRTargets, opts.Ports)
		if err != nil {
			return nil, fmt.Errorf("expanding CIDR: %w", err)
		}
		for _, u := range urls {
			if err := addURL(u); err != nil {
				return nil, err
			}
		}
	}

	if len(targets) == 0 {
		return nil, errors.New("no targets specified (-u, -l, -r or --cidr)")
	}
	for _, t := range targets {
		for k, v := range opts.Headers {
			t.Header.Set(k, v)
		}
	}
	return targets, nil
}

// LoadTable returns the signature table from --signatures, or the
// built-in actuator table.
func LoadTable(opts *config.Options) (signature.Table, error) {
	if opts.SignaturesFile == "" {
		return signature.Default(), nil
	}
	table, err := signature.LoadFile(opts.SignaturesFile)
	if err != nil {
		return nil, fmt.Errorf("loading signatures: %w", err)
	}
	return table, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
