package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/metrics"
	"github.com/vortexntnu/stonefish/internal/multibody"
	"github.com/vortexntnu/stonefish/internal/sim"
)

// instability flips the stability score into something to minimize.
type instability struct {
	inner *metrics.Stability
}

func (m *instability) Name() string                    { return "instability" }
func (m *instability) Observe(t float64, w *sim.World) { m.inner.Observe(t, w) }
func (m *instability) Value() float64                  { return 1 - m.inner.Value() }
func (m *instability) Reset()                          { m.inner.Reset() }

func buildDamped(params map[string]float64) (*sim.World, sim.Config, error) {
	body := multibody.Body{Mass: 1, Inertia: algebra.Vec3{X: 0.01, Y: 0.01, Z: 0.01}}
	tree, err := multibody.New("pendulum", 2, body, algebra.IdentityTransform(), true)
	if err != nil {
		return nil, sim.Config{}, err
	}
	pose := algebra.Transform{R: algebra.Identity(), P: algebra.Vec3{X: 1}}
	if err := tree.AddLink(body, pose); err != nil {
		return nil, sim.Config{}, err
	}
	if _, err := tree.AddRevoluteJoint("j", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false); err != nil {
		return nil, sim.Config{}, err
	}
	if err := tree.SetJointDamping(0, 0, params["viscous"]); err != nil {
		return nil, sim.Config{}, err
	}
	if err := tree.SetJointIC(0, 1.0, 0); err != nil {
		return nil, sim.Config{}, err
	}

	w := sim.New()
	if err := w.AddTree(tree); err != nil {
		return nil, sim.Config{}, err
	}
	w.AddMetric(&instability{inner: metrics.NewStability(3.0)})

	cfg := sim.Config{Dt: 0.005, Duration: 2, Gravity: algebra.Vec3{Y: -9.81}}
	return w, cfg, nil
}

func TestGridSearchFindsBest(t *testing.T) {
	// heavy viscous damping keeps the swing below the stability
	// threshold, so the largest coefficient minimizes instability
	gs := NewGridSearch([]string{"viscous"}, [][]float64{{0, 0.5, 5.0}})

	best, val, err := gs.Search(context.Background(), Objective{
		Build:  buildDamped,
		Metric: "instability",
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if best == nil {
		t.Fatal("expected a best assignment")
	}
	if best["viscous"] != 5.0 {
		t.Errorf("expected heaviest damping to win, got %v (val %f)", best, val)
	}
}

func TestGridSearchPropagatesBuildError(t *testing.T) {
	gs := NewGridSearch([]string{"x"}, [][]float64{{1}})

	wantErr := errors.New("bad build")
	obj := Objective{
		Build: func(map[string]float64) (*sim.World, sim.Config, error) {
			return nil, sim.Config{}, wantErr
		},
		Metric: "energy",
	}

	_, _, err := gs.Search(context.Background(), obj)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected build error, got %v", err)
	}
}
