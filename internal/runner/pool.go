package runner

import (
	"context"

	"github.com/maxvaer/actuatorhunt/internal/finding"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"golang.org/x/sync/errgroup"
)

// PoolConfig holds options for the target pool.
type PoolConfig struct {
	Threads int     // targets scanned at once
	Pauser  *Pauser // nil = no pause support
}

// TargetResult is what one target scan produced. Complete is false when
// the scan was cut short by cancellation.
type TargetResult struct {
	Target   *scanner.BaseRequest
	Findings []finding.Finding
	Complete bool
}

// ScanFunc scans one target. It must return once ctx is done.
type ScanFunc func(ctx context.Context, target *scanner.BaseRequest) []finding.Finding

// RunPool scans up to cfg.Threads targets at a time and returns a channel
// of per-target results. The channel is closed once every started scan has
// reported; the caller must drain it. No new target starts after ctx is
// done.
func RunPool(ctx context.Context, targets []*scanner.BaseRequest, cfg PoolConfig, scan ScanFunc) <-chan TargetResult {
	threads := max(cfg.Threads, 1)
	results := make(chan TargetResult, threads)

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(threads)
		for _, target := range targets {
			if cfg.Pauser != nil {
				if err := cfg.Pauser.Wait(ctx); err != nil {
					break
				}
			}
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				// Cancelled while waiting for a free slot.
				if ctx.Err() != nil {
					return nil
				}
				findings := scan(ctx, target)
				results <- TargetResult{
					Target:   target,
					Findings: findings,
					Complete: ctx.Err() == nil,
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return results
}
