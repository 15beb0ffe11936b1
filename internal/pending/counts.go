package pending

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultCountConcurrency bounds the badge-count fan-out when the caller
// does not say otherwise.
const DefaultCountConcurrency = 4

// Counts fetches the pending-approval count for several principals in
// parallel, bounded to maxConcurrent fetches in flight. The first failure
// cancels the remaining fetches.
func Counts(ctx context.Context, fetcher Fetcher, principals []string, maxConcurrent int64) (map[string]int, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("counts: fetcher is required")
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultCountConcurrency
	}

	type result struct {
		principal string
		count     int
	}

	// Buffered to prevent goroutine leaks on cancellation.
	results := make(chan result, len(principals))
	sem := semaphore.NewWeighted(maxConcurrent)
	g, gCtx := errgroup.WithContext(ctx)

	for _, principal := range principals {
		principal := principal
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			items, err := fetcher.FetchPending(gCtx, principal)
			if err != nil {
				return fmt.Errorf("fetch pending for %s: %w", principal, err)
			}
			results <- result{principal: principal, count: len(items)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	counts := make(map[string]int, len(principals))
	for r := range results {
		counts[r.principal] = r.count
	}
	return counts, nil
}
