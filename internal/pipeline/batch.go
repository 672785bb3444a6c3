package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalyzeMany fans the documents out through Analyze concurrently and joins
// per document: the mapping covers every input id exactly once, and one
// document's stage failure never cancels or delays its siblings. Only
// store-level failures (surfaced by Analyze as Go errors) abort the batch.
func (r *Runner) AnalyzeMany(ctx context.Context, ids []string) (map[string]Outcome, error) {
	outcomes := make(map[string]Outcome, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		id := id
		g.Go(func() error {
			outcome, err := r.Analyze(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			outcomes[id] = outcome
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("batch analysis finished",
		zap.Int("documents", len(outcomes)),
		zap.Int("failed", countFailed(outcomes)))
	return outcomes, nil
}

func countFailed(outcomes map[string]Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != "" {
			n++
		}
	}
	return n
}
