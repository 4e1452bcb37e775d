package sim

import (
	"context"
	"sync"
)

// Ensemble runs independent world instances in parallel. Each run gets
// its own freshly built world so no tree state is shared across
// goroutines; cross-tree interaction is out of scope here.
type Ensemble struct {
	build   func(run int) (*World, error)
	numRuns int
}

func NewEnsemble(build func(run int) (*World, error), numRuns int) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w, err := e.build(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = w.Run(ctx, cfg)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
