package analysis

import (
	"math"
	"testing"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/multibody"
	"github.com/vortexntnu/stonefish/internal/sim"
)

func TestDominantFrequency(t *testing.T) {
	// 2 Hz sine sampled at 100 Hz
	dt := 0.01
	n := 512
	series := make([]float64, n)
	for i := range series {
		series[i] = math.Sin(2 * math.Pi * 2.0 * float64(i) * dt)
	}

	f := DominantFrequency(series, dt)
	binWidth := 1.0 / (float64(n) * dt)
	if math.Abs(f-2.0) > binWidth {
		t.Errorf("expected ~2 Hz, got %f", f)
	}
}

func TestPowerSpectrumDegenerate(t *testing.T) {
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil for empty input")
	}
	if PowerSpectrum([]float64{1}) != nil {
		t.Error("expected nil for a single sample")
	}
	if DominantFrequency([]float64{1, 2, 3, 4}, 0) != 0 {
		t.Error("expected 0 for zero dt")
	}
}

func buildPendulum(delta float64) (*sim.World, error) {
	body := multibody.Body{Mass: 1, Inertia: algebra.Vec3{X: 0.01, Y: 0.01, Z: 0.01}}
	tree, err := multibody.New("pendulum", 2, body, algebra.IdentityTransform(), true)
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
	if err := tree.SetJointIC(0, 0.2+delta, 0); err != nil {
		return nil, err
	}
	w := sim.New()
	if err := w.AddTree(tree); err != nil {
		return nil, err
	}
	return w, nil
}

func TestLyapunovRegularSystem(t *testing.T) {
	cfg := sim.Config{Dt: 0.001, Duration: 2, Gravity: algebra.Vec3{Y: -9.81}}

	lambda, err := LyapunovExponent(buildPendulum, cfg, 1e-6)
	if err != nil {
		t.Fatalf("lyapunov failed: %v", err)
	}

	// a single pendulum is not chaotic; nearby trajectories must not
	// diverge exponentially
	if lambda > 0.5 {
		t.Errorf("expected near-zero exponent, got %f", lambda)
	}
}

func TestExtractPhasePortrait(t *testing.T) {
	result := &sim.Result{
		Positions:  [][]float64{{0, 1}, {0.1, 1.1}, {0.2, 1.2}},
		Velocities: [][]float64{{1, 0}, {0.9, 0}, {0.8, 0}},
	}

	p := ExtractPhasePortrait(result, 0)
	if p == nil {
		t.Fatal("expected a portrait")
	}
	if len(p.Q) != 3 || p.Q[2] != 0.2 || p.Qd[0] != 1 {
		t.Errorf("wrong columns: %+v", p)
	}

	if ExtractPhasePortrait(result, 2) != nil {
		t.Error("expected nil for out-of-range joint")
	}

	rendered := p.Render(20, 10)
	if rendered == "" {
		t.Error("expected non-empty render")
	}
}
