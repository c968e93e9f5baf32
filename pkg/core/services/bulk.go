package services

import (
	"context"
	"sync"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"golang.org/x/sync/errgroup"
)

// bulkConcurrency bounds the per-id calls of one bulk action
const bulkConcurrency = 8

// fanOut runs call for every id concurrently and waits for all of them. A
// failure does not cancel the others. When any call failed the result is a
// *domain.BulkError whose First is the earliest failure to settle.
func fanOut(ctx context.Context, op string, ids []int64, call func(ctx context.Context, id int64) error) error {
	var (
		g  errgroup.Group
		mu sync.Mutex
		be = &domain.BulkError{Op: op, Failed: make(map[int64]error)}
	)
	g.SetLimit(bulkConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			err := call(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				be.Failed[id] = err
				if be.First == nil {
					be.First = err
				}
				return nil
			}
			be.Succeeded = append(be.Succeeded, id)
			return nil
		})
	}
	_ = g.Wait()

	if len(be.Failed) == 0 {
		return nil
	}
	return be
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// dedupeIDs drops repeated ids keeping first-seen order
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
