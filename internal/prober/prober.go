// Package prober sends one GET per endpoint signature to a target and turns
// matching responses into findings.
package prober

import (
	"context"
	"fmt"
	"time"

	"github.com/maxvaer/actuatorhunt/internal/finding"
	"github.com/maxvaer/actuatorhunt/internal/match"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/maxvaer/actuatorhunt/internal/signature"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/maxvaer/actuatorhunt/internal/prober"

// Logger receives discovery lines. *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}

// Result describes one probe for observers. Err is set when the transport
// failed; such probes never produce a finding.
type Result struct {
	Target     string
	Signature  signature.Signature
	StatusCode int
	Matched    bool
	Err        error
	Duration   time.Duration
}

// Observer is an optional diagnostic channel. It sees every probe,
// including transport failures the finding list cannot express.
type Observer interface {
	ObserveProbe(ctx context.Context, r Result)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, r Result)

// ObserveProbe calls f(ctx, r).
func (f ObserverFunc) ObserveProbe(ctx context.Context, r Result) { f(ctx, r) }

// Prober holds no per-scan state; one instance may scan many targets
// concurrently as long as its transport allows it.
type Prober struct {
	transport scanner.Transport
	table     signature.Table
	override  match.Matcher
	matchers  map[signature.Kind]match.Matcher
	logger    Logger
	observers []Observer
	userAgent string
	tracer    trace.Tracer
}

// Option configures a Prober.
type Option func(*Prober)

// WithTable replaces the built-in actuator table.
func WithTable(t signature.Table) Option {
	return func(p *Prober) { p.table = append(signature.Table(nil), t...) }
}

// WithMatcher applies m to every signature instead of resolving by kind.
func WithMatcher(m match.Matcher) Option {
	return func(p *Prober) { p.override = m }
}

// WithLogger sets the logger for discovery lines.
func WithLogger(l Logger) Option {
	return func(p *Prober) { p.logger = l }
}

// WithObserver adds a diagnostic observer.
func WithObserver(o Observer) Option {
	return func(p *Prober) { p.observers = append(p.observers, o) }
}

// WithUserAgent overrides scanner.DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(p *Prober) { p.userAgent = ua }
}

// WithTracerProvider sets where probe spans go. The global provider is
// used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Prober) { p.tracer = tp.Tracer(tracerName) }
}

// New creates a prober that sends probes through t.
func New(t scanner.Transport, opts ...Option) (*Prober, error) {
	if t == nil {
		return nil, fmt.Errorf("prober: nil transport")
	}
	p := &Prober{
		transport: t,
		table:     signature.Default(),
		logger:    nopLogger{},
		userAgent: scanner.DefaultUserAgent,
		tracer:    otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(p)
	}
	if err := p.table.Validate(); err != nil {
		return nil, fmt.Errorf("prober: %w", err)
	}

	p.matchers = make(map[signature.Kind]match.Matcher)
	if p.override == nil {
		for _, sig := range p.table {
			kind := sig.MatchKind()
			if _, ok := p.matchers[kind]; ok {
				continue
			}
			m, err := match.Resolve(kind)
			if err != nil {
				return nil, fmt.Errorf("prober: signature %q: %w", sig.Name, err)
			}
			p.matchers[kind] = m
		}
	}
	return p, nil
}

// Table returns a copy of the signatures probed by Scan, in order.
func (p *Prober) Table() signature.Table {
	return append(signature.Table(nil), p.table...)
}

// Scan probes every signature against base, one after another in table
// order. Findings come back in the same order. A failed probe only
// suppresses its own finding.
func (p *Prober) Scan(ctx context.Context, base *scanner.BaseRequest) []finding.Finding {
	var findings []finding.Finding
	for _, sig := range p.table {
		if ctx.Err() != nil {
			break
		}
		if f, ok := p.Probe(ctx, base, sig); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// Probe sends exactly one request for sig and reports whether it matched.
// Transport errors are treated as a non-match.
func (p *Prober) Probe(ctx context.Context, base *scanner.BaseRequest, sig signature.Signature) (finding.Finding, bool) {
	req := scanner.NewProbeRequest(base, sig.Path, p.userAgent)

	ctx, span := p.tracer.Start(ctx, "probe "+sig.Path, trace.WithAttributes(
		attribute.String("actuator.signature", sig.Name),
		attribute.String("url.full", req.URL()),
	))
	defer span.End()

	start := time.Now()
	out, err := p.transport.Send(ctx, req)
	res := Result{
		Target:    base.Origin(),
		Signature: sig,
		Err:       err,
		Duration:  time.Since(start),
	}
	if err != nil || out == nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transport failure")
		}
		p.observe(ctx, res)
		return finding.Finding{}, false
	}

	res.StatusCode = out.StatusCode
	res.Matched = p.matcherFor(sig).Match(sig, out)
	span.SetAttributes(
		attribute.Int("http.response.status_code", out.StatusCode),
		attribute.Bool("actuator.matched", res.Matched),
	)
	p.observe(ctx, res)

	if !res.Matched {
		return finding.Finding{}, false
	}

	p.logger.Info(fmt.Sprintf("[+] FOUND: %s on %s", sig.Path, base.Host),
		"path", sig.Path, "host", base.Host)

	return finding.Synthesize(sig, base.URL(), finding.Evidence{Request: req, Outcome: out}), true
}

func (p *Prober) matcherFor(sig signature.Signature) match.Matcher {
	if p.override != nil {
		return p.override
	}
	if m, ok := p.matchers[sig.MatchKind()]; ok {
		return m
	}
	// Signature outside the configured table.
	m, err := match.Resolve(sig.MatchKind())
	if err != nil {
		return match.MatcherFunc(func(signature.Signature, *scanner.Outcome) bool { return false })
	}
	return m
}

func (p *Prober) observe(ctx context.Context, r Result) {
	for _, o := range p.observers {
		o.ObserveProbe(ctx, r)
	}
}
