package actuators

import "github.com/vortexntnu/stonefish/internal/multibody"

// PID is a joint-space PID position controller that drives its joint
// through the tree's one-step force injection.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	tree  *multibody.Tree
	joint int

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(tree *multibody.Tree, joint int, kp, ki, kd, target float64) *PID {
	return &PID{
		Kp: kp, Ki: ki, Kd: kd, Target: target,
		tree: tree, joint: joint, first: true,
	}
}

// Update computes the control output for this step and injects it.
func (p *PID) Update(dt float64) error {
	q, _, err := p.tree.JointPosition(p.joint)
	if err != nil {
		return err
	}

	e := p.Target - q
	if p.first {
		p.prevErr = e
		p.first = false
	}

	var u float64
	if dt > 0 {
		p.integral += e * dt
		derivative := (e - p.prevErr) / dt
		u = p.Kp*e + p.Ki*p.integral + p.Kd*derivative
	} else {
		u = p.Kp * e
	}
	p.prevErr = e

	return p.tree.DriveJoint(p.joint, u)
}

// Reset clears the integral and derivative history.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}
