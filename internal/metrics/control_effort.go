package metrics

import (
	"math"

	"github.com/vortexntnu/stonefish/internal/sim"
)

// ControlEffort averages the absolute manually injected joint torque
// across all joints and samples. Motor and damping contributions are
// internal to the solver and not counted.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(t float64, world *sim.World) {
	for _, tree := range world.Trees() {
		for j := 0; j < tree.JointCount(); j++ {
			tau, err := tree.JointDrive(j)
			if err != nil {
				continue
			}
			c.sum += math.Abs(tau)
		}
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
