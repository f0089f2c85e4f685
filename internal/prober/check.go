package prober

import (
	"context"
	"fmt"

	"github.com/maxvaer/actuatorhunt/internal/finding"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
)

// CheckName is the display name of the actuator check.
const CheckName = "Spring Boot Actuator Hunter"

// Dependencies are the handles a host passes when loading the check.
type Dependencies struct {
	Transport scanner.Transport
	Logger    Logger
	Options   []Option
}

// Check is the host-facing surface: active and passive audit hooks plus
// the consolidation policy.
type Check struct {
	prober *Prober
}

// Initialize builds the check from the host's dependencies and logs that
// it is active.
func Initialize(deps Dependencies) (*Check, error) {
	opts := deps.Options
	if deps.Logger != nil {
		opts = append([]Option{WithLogger(deps.Logger)}, opts...)
	}
	p, err := New(deps.Transport, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", CheckName, err)
	}
	p.logger.Info("Spring Boot Scanner loaded. Hunting for /actuator endpoints...")
	return &Check{prober: p}, nil
}

// Name returns CheckName.
func (c *Check) Name() string { return CheckName }

// Prober returns the underlying prober.
func (c *Check) Prober() *Prober { return c.prober }

// ActiveAudit probes the base request's target. Only its scheme, host,
// port and headers are used.
func (c *Check) ActiveAudit(ctx context.Context, base *scanner.BaseRequest) []finding.Finding {
	return c.prober.Scan(ctx, base)
}

// PassiveAudit never reports anything.
func (c *Check) PassiveAudit(context.Context, *scanner.BaseRequest, *scanner.Outcome) []finding.Finding {
	return []finding.Finding{}
}

// ConsolidateIssues applies finding.Consolidate.
func (c *Check) ConsolidateIssues(newFinding, existing *finding.Finding) finding.Action {
	return finding.Consolidate(newFinding, existing)
}
