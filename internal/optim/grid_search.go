package optim

import (
	"context"
	"math"

	"github.com/vortexntnu/stonefish/internal/sim"
)

// Objective builds a ready-to-run world for one parameter assignment
// and reports which metric to minimize. The metric must be registered
// on the returned world.
type Objective struct {
	Build  func(params map[string]float64) (*sim.World, sim.Config, error)
	Metric string
}

// GridSearch exhausts the cartesian product of the parameter ranges
// and keeps the assignment with the smallest objective metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

func (g *GridSearch) Search(ctx context.Context, obj Objective) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	var firstErr error

	g.searchRecursive(ctx, 0, make(map[string]float64), obj, &best, &bestParams, &firstErr)

	if bestParams == nil && firstErr != nil {
		return nil, 0, firstErr
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	obj Objective,
	best *float64,
	bestParams *map[string]float64,
	firstErr *error,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		world, cfg, err := obj.Build(current)
		if err != nil {
			if *firstErr == nil {
				*firstErr = err
			}
			return
		}

		result, err := world.Run(ctx, cfg)
		if err != nil {
			if *firstErr == nil {
				*firstErr = err
			}
			return
		}

		val, ok := result.Metrics[obj.Metric]
		if !ok {
			return
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[g.paramNames[depth]] = val

		g.searchRecursive(ctx, depth+1, next, obj, best, bestParams, firstErr)
	}
}
