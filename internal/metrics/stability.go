package metrics

import (
	"math"

	"github.com/vortexntnu/stonefish/internal/sim"
)

// Stability reports the fraction of observed samples where every joint
// velocity stayed below the threshold. 1.0 means the system never
// exceeded it.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(t float64, world *sim.World) {
	s.samples++
	for _, tree := range world.Trees() {
		for j := 0; j < tree.JointCount(); j++ {
			qd, _, err := tree.JointVelocity(j)
			if err != nil {
				continue
			}
			if math.Abs(qd) > s.threshold {
				s.violations++
				return
			}
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
