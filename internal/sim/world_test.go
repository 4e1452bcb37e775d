package sim

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/backend"
	"github.com/vortexntnu/stonefish/internal/multibody"
)

func pendulumWorld(t *testing.T) *World {
	t.Helper()
	body := multibody.Body{
		Mass:    1,
		Inertia: algebra.Vec3{X: 0.01, Y: 0.01, Z: 0.01},
		Shape:   multibody.Cylinder,
		Dims:    algebra.Vec3{X: 0.05, Y: 1, Z: 0.05},
	}
	tree, err := multibody.New("pendulum", 2, body, algebra.IdentityTransform(), true)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	pose := algebra.Transform{R: algebra.Identity(), P: algebra.Vec3{X: 1}}
	if err := tree.AddLink(body, pose); err != nil {
		t.Fatalf("add link: %v", err)
	}
	if _, err := tree.AddRevoluteJoint("j", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false); err != nil {
		t.Fatalf("add joint: %v", err)
	}

	w := New()
	if err := w.AddTree(tree); err != nil {
		t.Fatalf("add tree: %v", err)
	}
	return w
}

func TestWorldRun(t *testing.T) {
	w := pendulumWorld(t)

	cfg := Config{Dt: 0.01, Duration: 1.0, Gravity: algebra.Vec3{Y: -9.81}, ValidateState: true}
	result, err := w.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 100 {
		t.Errorf("expected 100 steps, got %d", result.StepsTaken)
	}
	if len(result.Times) != 101 {
		t.Errorf("expected 101 samples, got %d", len(result.Times))
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected step errors: %v", result.Errors)
	}

	// pendulum released horizontally must have moved under gravity
	final := result.Positions[len(result.Positions)-1][0]
	if final >= 0 {
		t.Errorf("expected the pendulum to swing down, final q=%f", final)
	}
}

func TestWorldInvalidConfig(t *testing.T) {
	w := pendulumWorld(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1}},
		{"negative dt", Config{Dt: -0.1, Duration: 1}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.Run(context.Background(), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWorldCancellation(t *testing.T) {
	w := pendulumWorld(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Dt: 0.01, Duration: 10, Gravity: algebra.Vec3{Y: -9.81}}
	result, err := w.Run(ctx, cfg)
	if err == nil {
		t.Fatal("expected context error")
	}
	if result == nil || result.StepsTaken != 0 {
		t.Error("cancelled run should stop before the first step")
	}
}

func TestWorldRunRecordsSolverFailure(t *testing.T) {
	// a massless, inertialess link leaves its row of the mass matrix
	// zero, so the solve fails on the first step
	tree, err := multibody.New("ghost", 2, multibody.Body{Mass: 1, Inertia: algebra.Vec3{X: 1, Y: 1, Z: 1}},
		algebra.IdentityTransform(), true)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	pose := algebra.Transform{R: algebra.Identity(), P: algebra.Vec3{X: 1}}
	if err := tree.AddLink(multibody.Body{}, pose); err != nil {
		t.Fatalf("add link: %v", err)
	}
	if _, err := tree.AddRevoluteJoint("j", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false); err != nil {
		t.Fatalf("add joint: %v", err)
	}
	w := New()
	if err := w.AddTree(tree); err != nil {
		t.Fatalf("add tree: %v", err)
	}

	cfg := Config{Dt: 0.01, Duration: 1, Gravity: algebra.Vec3{Y: -9.81}}
	result, err := w.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run should record the failure, not return it: %v", err)
	}
	if result.StepsTaken != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected one recorded error after zero steps, got %d/%d",
			result.StepsTaken, len(result.Errors))
	}

	var se StepError
	if !errors.As(result.Errors[0], &se) {
		t.Fatalf("expected a StepError, got %T", result.Errors[0])
	}
	if !errors.Is(se, backend.ErrSingular) {
		t.Errorf("expected a singular-solve cause, got %v", se)
	}
	if !strings.Contains(se.Error(), "ghost") {
		t.Errorf("error should name the failing tree: %v", se)
	}
}

type countMetric struct {
	count int
}

func (c *countMetric) Name() string                { return "count" }
func (c *countMetric) Observe(t float64, w *World) { c.count++ }
func (c *countMetric) Value() float64              { return float64(c.count) }
func (c *countMetric) Reset()                      { c.count = 0 }

func TestWorldMetrics(t *testing.T) {
	w := pendulumWorld(t)

	m := &countMetric{}
	w.AddMetric(m)

	cfg := Config{Dt: 0.01, Duration: 0.5, Gravity: algebra.Vec3{Y: -9.81}}
	result, err := w.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got, ok := result.Metrics["count"]; !ok || got != 50 {
		t.Errorf("expected metric count 50, got %f (present %v)", got, ok)
	}
}

func TestEnsembleIndependentRuns(t *testing.T) {
	build := func(run int) (*World, error) {
		body := multibody.Body{Mass: 1, Inertia: algebra.Vec3{X: 0.01, Y: 0.01, Z: 0.01}}
		tree, err := multibody.New("p", 2, body, algebra.IdentityTransform(), true)
		if err != nil {
			return nil, err
		}
		pose := algebra.Transform{R: algebra.Identity(), P: algebra.Vec3{X: 1}}
		if err := tree.AddLink(body, pose); err != nil {
			return nil, err
		}
		if _, err := tree.AddRevoluteJoint("j", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false); err != nil {
			return nil, err
		}
		// vary the initial angle per run
		if err := tree.SetJointIC(0, 0.1*float64(run), 0); err != nil {
			return nil, err
		}
		w := New()
		if err := w.AddTree(tree); err != nil {
			return nil, err
		}
		return w, nil
	}

	e := NewEnsemble(build, 4)
	cfg := Config{Dt: 0.01, Duration: 0.2, Gravity: algebra.Vec3{Y: -9.81}}
	results, err := e.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ensemble run: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	// different initial conditions must yield different trajectories
	a := results[1].Positions[0][0]
	b := results[2].Positions[0][0]
	if math.Abs(a-b) < 1e-9 {
		t.Error("runs should start from distinct initial angles")
	}
}
