package analysis

import (
	"math"

	"github.com/vortexntnu/stonefish/internal/sim"
)

// LyapunovExponent estimates the largest Lyapunov exponent by the
// trajectory separation method: a reference world and one perturbed in
// its first joint coordinate are stepped in lockstep, and the mean log
// divergence rate is accumulated. A positive value indicates chaos.
//
// The build function must produce identical worlds up to the delta
// added to the first joint's initial position.
func LyapunovExponent(build func(delta float64) (*sim.World, error), cfg sim.Config, perturbation float64) (float64, error) {
	ref, err := build(0)
	if err != nil {
		return 0, err
	}
	pert, err := build(perturbation)
	if err != nil {
		return 0, err
	}

	d0 := perturbation
	steps := int(cfg.Duration / cfg.Dt)
	sumLog := 0.0
	count := 0

	for i := 0; i < steps; i++ {
		if err := ref.Step(cfg); err != nil {
			return 0, err
		}
		if err := pert.Step(cfg); err != nil {
			return 0, err
		}

		sep := separation(ref, pert)
		if sep > 0 && d0 > 0 {
			sumLog += math.Log(sep / d0)
			count++
		}

		// renormalize before the separation saturates
		if sep > 1.0 {
			if err := renormalize(ref, pert, d0/sep); err != nil {
				return 0, err
			}
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / (float64(count) * cfg.Dt), nil
}

func separation(ref, pert *sim.World) float64 {
	sum := 0.0
	for ti, tree := range ref.Trees() {
		other := pert.Trees()[ti]
		for j := 0; j < tree.JointCount(); j++ {
			q, _, _ := tree.JointPosition(j)
			qd, _, _ := tree.JointVelocity(j)
			qp, _, _ := other.JointPosition(j)
			qdp, _, _ := other.JointVelocity(j)
			sum += (qp-q)*(qp-q) + (qdp-qd)*(qdp-qd)
		}
	}
	return math.Sqrt(sum)
}

// renormalize pulls the perturbed trajectory back toward the reference
// along the current separation direction.
func renormalize(ref, pert *sim.World, scale float64) error {
	for ti, tree := range ref.Trees() {
		other := pert.Trees()[ti]
		for j := 0; j < tree.JointCount(); j++ {
			q, _, _ := tree.JointPosition(j)
			qd, _, _ := tree.JointVelocity(j)
			qp, _, _ := other.JointPosition(j)
			qdp, _, _ := other.JointVelocity(j)

			if err := other.SetJointIC(j,
				q+(qp-q)*scale, qd+(qdp-qd)*scale); err != nil {
				return err
			}
		}
	}
	return nil
}
