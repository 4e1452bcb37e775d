package metrics

import (
	"math"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/sim"
)

// Energy reports the mean total mechanical energy over a run, summed
// across every tree in the world.
type Energy struct {
	name    string
	gravity algebra.Vec3
	sum     float64
	samples int
}

func NewEnergy(gravity algebra.Vec3) *Energy {
	return &Energy{
		name:    "energy",
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(t float64, world *sim.World) {
	total := 0.0
	for _, tree := range world.Trees() {
		mb := tree.Backend()
		total += mb.KineticEnergy() + mb.PotentialEnergy(e.gravity)
	}
	e.sum += total
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Energy) Reset() {
	e.sum = 0
	e.samples = 0
}

// EnergyDrift tracks the worst relative deviation of total energy from
// its value at the first observation. Useful for judging integrator
// quality on conservative systems.
type EnergyDrift struct {
	name     string
	gravity  algebra.Vec3
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(gravity algebra.Vec3) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(t float64, world *sim.World) {
	energy := 0.0
	for _, tree := range world.Trees() {
		mb := tree.Backend()
		energy += mb.KineticEnergy() + mb.PotentialEnergy(e.gravity)
	}

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
