package analysis

import (
	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/sim"
	"github.com/vortexntnu/stonefish/internal/viz"
)

// PhasePortrait is one joint's trajectory in (position, velocity)
// space.
type PhasePortrait struct {
	Joint int
	Q, Qd []float64
}

// ExtractPhasePortrait pulls one joint column out of a recorded run.
func ExtractPhasePortrait(result *sim.Result, joint int) *PhasePortrait {
	if len(result.Positions) == 0 || joint < 0 || joint >= len(result.Positions[0]) {
		return nil
	}

	p := &PhasePortrait{
		Joint: joint,
		Q:     make([]float64, len(result.Positions)),
		Qd:    make([]float64, len(result.Positions)),
	}
	for i := range result.Positions {
		p.Q[i] = result.Positions[i][joint]
		p.Qd[i] = result.Velocities[i][joint]
	}
	return p
}

// Render draws the portrait on a Braille canvas.
func (p *PhasePortrait) Render(width, height int) string {
	if p == nil || len(p.Q) < 2 {
		return ""
	}

	minQ, maxQ := p.Q[0], p.Q[0]
	minQd, maxQd := p.Qd[0], p.Qd[0]
	for i := range p.Q {
		if p.Q[i] < minQ {
			minQ = p.Q[i]
		}
		if p.Q[i] > maxQ {
			maxQ = p.Q[i]
		}
		if p.Qd[i] < minQd {
			minQd = p.Qd[i]
		}
		if p.Qd[i] > maxQd {
			maxQd = p.Qd[i]
		}
	}

	canvas := viz.NewCanvas(width, height)
	view := viz.NewViewport(canvas, minQ, maxQ, minQd, maxQd)
	for i := 0; i < len(p.Q)-1; i++ {
		view.DrawSegment(
			algebra.Vec3{X: p.Q[i], Y: p.Qd[i]},
			algebra.Vec3{X: p.Q[i+1], Y: p.Qd[i+1]},
		)
	}
	return canvas.String()
}
