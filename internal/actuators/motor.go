package actuators

import (
	"fmt"

	"github.com/vortexntnu/stonefish/internal/backend"
	"github.com/vortexntnu/stonefish/internal/multibody"
)

// Motor drives one joint of a tree with a commanded torque, clamped to
// optional limits. A watchdog zeroes the torque when no fresh command
// arrives within the timeout, so a dead controller cannot keep pushing.
type Motor struct {
	Name  string
	tree  *multibody.Tree
	joint int

	torque       float64
	lower, upper float64 // torque limits; inactive while lower >= upper

	watchdog     float64 // seconds of simulated time, 0 disables
	sinceCommand float64
}

func NewMotor(name string, tree *multibody.Tree, joint int) (*Motor, error) {
	_, jt, err := tree.JointPosition(joint)
	if err != nil {
		return nil, err
	}
	if jt == backend.Fixed {
		return nil, fmt.Errorf("actuators: motor %q on fixed joint %d", name, joint)
	}
	return &Motor{Name: name, tree: tree, joint: joint, lower: 1, upper: -1}, nil
}

// SetIntensity commands the motor torque and feeds the watchdog.
func (m *Motor) SetIntensity(tau float64) {
	m.torque = tau
	m.sinceCommand = 0
}

func (m *Motor) SetTorqueLimits(lower, upper float64) {
	m.lower = lower
	m.upper = upper
}

// SetWatchdog arms the timeout, in seconds of simulated time.
func (m *Motor) SetWatchdog(timeout float64) {
	m.watchdog = timeout
}

func (m *Motor) Torque() float64 { return m.torque }

func (m *Motor) Angle() float64 {
	q, _, _ := m.tree.JointPosition(m.joint)
	return q
}

func (m *Motor) AngularVelocity() float64 {
	qd, _, _ := m.tree.JointVelocity(m.joint)
	return qd
}

// Update applies the current torque to the joint for this step. Call
// once per step before the solve.
func (m *Motor) Update(dt float64) error {
	m.sinceCommand += dt
	if m.watchdog > 0 && m.sinceCommand > m.watchdog {
		m.torque = 0
	}

	tau := m.torque
	if m.lower < m.upper {
		if tau < m.lower {
			tau = m.lower
		}
		if tau > m.upper {
			tau = m.upper
		}
	}
	if tau == 0 {
		return nil
	}
	return m.tree.DriveJoint(m.joint, tau)
}
