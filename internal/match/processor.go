package match

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"sigmatch/internal/crm"
)

// Lister enumerates signals that still need matching.
type Lister interface {
	ListUnassociatedSignals(ctx context.Context, limit int) ([]*crm.Signal, error)
}

// Summary aggregates a bulk run.
type Summary struct {
	Processed    int `json:"processed"`
	Matched      int `json:"matched"`
	Associations int `json:"associations"`
	Errors       int `json:"errors"`
}

// Processor runs the engine over a batch of signals with a bounded
// worker pool. No two workers ever process the same signal id; each
// signal's own pipeline stays strictly sequential inside its worker.
type Processor struct {
	matcher *Matcher
	lister  Lister
	logger  *slog.Logger
	workers int64
}

// NewProcessor wires a bulk processor. workers <= 0 means sequential.
func NewProcessor(matcher *Matcher, lister Lister, logger *slog.Logger, workers int) *Processor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		matcher: matcher,
		lister:  lister,
		logger:  logger,
		workers: int64(workers),
	}
}

// Run lists up to limit unassociated signals and matches each one,
// returning per-run counters. Individual signal failures are counted,
// never raised; only listing failure aborts the run.
func (p *Processor) Run(ctx context.Context, limit int) (Summary, error) {
	var summary Summary
	signals, err := p.lister.ListUnassociatedSignals(ctx, limit)
	if err != nil {
		return summary, err
	}
	if len(signals) == 0 {
		p.logger.Info("no unassociated signals to process")
		return summary, nil
	}
	p.logger.Info("processing signals", "count", len(signals), "workers", p.workers)

	sem := semaphore.NewWeighted(p.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	// Claimed ids stay claimed for the whole run: a duplicate id in the
	// batch is processed exactly once, and no two workers ever hold the
	// same signal.
	claimed := make(map[string]struct{})

	for _, signal := range signals {
		mu.Lock()
		if _, dup := claimed[signal.ID]; dup {
			mu.Unlock()
			continue
		}
		claimed[signal.ID] = struct{}{}
		mu.Unlock()

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)
			outcome := p.matcher.MatchSignal(ctx, id)

			mu.Lock()
			summary.Processed++
			if outcome.Error != "" {
				summary.Errors++
			} else if outcome.Matched() {
				summary.Matched++
				summary.Associations += outcome.AssociationsCreated
			}
			mu.Unlock()
		}(signal.ID)
	}
	wg.Wait()
	return summary, ctx.Err()
}
