package sim

import (
	"fmt"

	"github.com/vortexntnu/stonefish/internal/algebra"
)

// Actuator injects forces before the solve phase of each step: servo
// motors, PID controllers, disturbance sources.
type Actuator interface {
	Update(dt float64) error
}

// Observer is notified after each completed step.
type Observer interface {
	OnStep(t float64, world *World)
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(t float64, world *World)
	Value() float64
	Reset()
}

type Config struct {
	Dt            float64
	Duration      float64
	Gravity       algebra.Vec3
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Gravity:       algebra.Vec3{Y: -9.81},
		ValidateState: true,
	}
}

// Result holds the recorded joint-space trajectory of a run. Positions
// and Velocities hold one row per step with the joint coordinates of
// every tree in world order.
type Result struct {
	Times      []float64
	Positions  [][]float64
	Velocities [][]float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// StepError records where a run broke off. The failing tree is named
// by the wrapped error.
type StepError struct {
	Time    float64
	Step    int
	Wrapped error
}

func (e StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e StepError) Unwrap() error { return e.Wrapped }

var _ error = StepError{}

// sample is one recorded trajectory row.
func sample(world *World) (q, qd []float64) {
	n := world.JointCount()
	q = make([]float64, 0, n)
	qd = make([]float64, 0, n)
	for _, tree := range world.Trees() {
		for j := 0; j < tree.JointCount(); j++ {
			p, _, _ := tree.JointPosition(j)
			v, _, _ := tree.JointVelocity(j)
			q = append(q, p)
			qd = append(qd, v)
		}
	}
	return q, qd
}
