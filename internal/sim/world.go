package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/vortexntnu/stonefish/internal/multibody"
)

// World owns a set of independent multibody trees and advances them in
// lockstep. Each step runs strictly in phases: gravity and damping
// injection, actuator updates, one dynamics solve per tree, then
// observers and metrics. Nothing mutates tree state concurrently with
// a step; a World is single-threaded by design.
type World struct {
	trees     []*multibody.Tree
	actuators []Actuator
	metrics   []Metric
	observers []Observer
	time      float64
}

func New() *World {
	return &World{}
}

// AddTree attaches the tree to this world, freezing its topology.
func (w *World) AddTree(t *multibody.Tree) error {
	if err := t.Attach(); err != nil {
		return err
	}
	w.trees = append(w.trees, t)
	return nil
}

func (w *World) AddActuator(a Actuator) { w.actuators = append(w.actuators, a) }
func (w *World) AddMetric(m Metric)     { w.metrics = append(w.metrics, m) }
func (w *World) AddObserver(o Observer) { w.observers = append(w.observers, o) }

func (w *World) Trees() []*multibody.Tree { return w.trees }
func (w *World) Time() float64            { return w.time }

func (w *World) JointCount() int {
	n := 0
	for _, t := range w.trees {
		n += t.JointCount()
	}
	return n
}

// Step advances every tree by dt under the given gravity.
func (w *World) Step(cfg Config) error {
	for _, t := range w.trees {
		t.ApplyGravity(cfg.Gravity)
		t.ApplyDamping()
	}
	for _, a := range w.actuators {
		if err := a.Update(cfg.Dt); err != nil {
			return err
		}
	}
	for _, t := range w.trees {
		if err := t.Step(cfg.Dt); err != nil {
			return fmt.Errorf("tree %s: %w", t.Name(), err)
		}
	}
	w.time += cfg.Dt
	return nil
}

// Run steps the world for cfg.Duration, recording the joint trajectory.
// The context cancels between steps, never inside one: a step either
// completes fully or is not taken.
func (w *World) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Times:      make([]float64, 0, steps+1),
		Positions:  make([][]float64, 0, steps+1),
		Velocities: make([][]float64, 0, steps+1),
		Metrics:    make(map[string]float64),
	}

	for _, m := range w.metrics {
		m.Reset()
	}

	record := func() {
		q, qd := sample(w)
		result.Times = append(result.Times, w.time)
		result.Positions = append(result.Positions, q)
		result.Velocities = append(result.Velocities, qd)
	}
	record()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := w.Step(cfg); err != nil {
			result.Errors = append(result.Errors, StepError{
				Time: w.time, Step: i, Wrapped: err,
			})
			break
		}
		result.StepsTaken++

		if cfg.ValidateState && !w.stateValid() {
			result.Errors = append(result.Errors, StepError{
				Time: w.time, Step: i,
				Wrapped: fmt.Errorf("non-finite joint state"),
			})
			break
		}

		record()

		for _, m := range w.metrics {
			m.Observe(w.time, w)
		}
		for _, o := range w.observers {
			o.OnStep(w.time, w)
		}
	}

	for _, m := range w.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (w *World) stateValid() bool {
	for _, t := range w.trees {
		for j := 0; j < t.JointCount(); j++ {
			q, _, _ := t.JointPosition(j)
			qd, _, _ := t.JointVelocity(j)
			if math.IsNaN(q) || math.IsInf(q, 0) || math.IsNaN(qd) || math.IsInf(qd, 0) {
				return false
			}
		}
	}
	return true
}

func validate(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
