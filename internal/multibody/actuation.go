package multibody

import (
	"fmt"
	"math"

	"github.com/vortexntnu/stonefish/internal/algebra"
)

// MotorPositionSetpoint sets a proportional position servo on the
// joint's motor: each step the commanded force is kp*(target - q).
func (t *Tree) MotorPositionSetpoint(index int, target, kp float64) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if !j.hasMotor {
		return fmt.Errorf("%w: joint %d has no motor", ErrTopology, index)
	}
	if kp < 0 {
		return fmt.Errorf("%w: negative gain %g", ErrParameter, kp)
	}
	j.motor.mode = motorPosition
	j.motor.target = target
	j.motor.gain = kp
	return nil
}

// MotorVelocitySetpoint sets a velocity servo: commanded force is
// kd*(target - qd) each step.
func (t *Tree) MotorVelocitySetpoint(index int, target, kd float64) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if !j.hasMotor {
		return fmt.Errorf("%w: joint %d has no motor", ErrTopology, index)
	}
	if kd < 0 {
		return fmt.Errorf("%w: negative gain %g", ErrParameter, kd)
	}
	j.motor.mode = motorVelocity
	j.motor.target = target
	j.motor.gain = kd
	return nil
}

// SetMotorMaxForce caps the servo output magnitude; zero removes the cap.
func (t *Tree) SetMotorMaxForce(index int, max float64) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if !j.hasMotor {
		return fmt.Errorf("%w: joint %d has no motor", ErrTopology, index)
	}
	if max < 0 {
		return fmt.Errorf("%w: negative force cap %g", ErrParameter, max)
	}
	j.motor.MaxForce = max
	return nil
}

// DriveJoint injects a generalized force for the current step only; it
// is consumed by the solve and must be re-applied every step.
func (t *Tree) DriveJoint(index int, forceTorque float64) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if math.IsNaN(forceTorque) || math.IsInf(forceTorque, 0) {
		return fmt.Errorf("%w: non-finite joint force", ErrParameter)
	}
	j.driveSum += forceTorque
	t.mb.AddJointForce(j.backendID, forceTorque)
	return nil
}

// ApplyGravity converts the world gravity vector into per-link forces
// through each link's mass. Call once per step before the solve.
func (t *Tree) ApplyGravity(g algebra.Vec3) {
	for i, l := range t.links {
		if l.Body.Mass == 0 {
			continue
		}
		t.mb.AddLinkForce(i, g.Scale(l.Body.Mass))
	}
}

// ApplyDamping adds, for every joint, a force opposing joint velocity:
// -sign(qd)*sigDamping - qd*velDamping.
func (t *Tree) ApplyDamping() {
	for i := range t.joints {
		j := &t.joints[i]
		if j.sigDamping == 0 && j.velDamping == 0 {
			continue
		}
		_, qd := t.mb.JointState(j.backendID)
		var tau float64
		if qd > 0 {
			tau -= j.sigDamping
		} else if qd < 0 {
			tau += j.sigDamping
		}
		tau -= qd * j.velDamping
		if tau != 0 {
			t.mb.AddJointForce(j.backendID, tau)
		}
	}
}

// AddLinkForce applies a world-frame force at the link's center of mass
// for the current step only.
func (t *Tree) AddLinkForce(index int, f algebra.Vec3) error {
	if index < 0 || index >= len(t.links) {
		return fmt.Errorf("%w: link %d of %d", ErrIndexRange, index, len(t.links))
	}
	if !f.IsFinite() {
		return fmt.Errorf("%w: non-finite link force", ErrParameter)
	}
	t.mb.AddLinkForce(index, f)
	return nil
}

// AddLinkTorque applies a world-frame torque to the link for the
// current step only.
func (t *Tree) AddLinkTorque(index int, tau algebra.Vec3) error {
	if index < 0 || index >= len(t.links) {
		return fmt.Errorf("%w: link %d of %d", ErrIndexRange, index, len(t.links))
	}
	if !tau.IsFinite() {
		return fmt.Errorf("%w: non-finite link torque", ErrParameter)
	}
	t.mb.AddLinkTorque(index, tau)
	return nil
}

func (t *Tree) applyMotors() {
	for i := range t.joints {
		j := &t.joints[i]
		if !j.hasMotor || j.motor.mode == motorIdle {
			continue
		}
		q, qd := t.mb.JointState(j.backendID)
		var tau float64
		switch j.motor.mode {
		case motorPosition:
			tau = j.motor.gain * (j.motor.target - q)
		case motorVelocity:
			tau = j.motor.gain * (j.motor.target - qd)
		}
		if j.motor.MaxForce > 0 {
			tau = math.Max(-j.motor.MaxForce, math.Min(j.motor.MaxForce, tau))
		}
		t.mb.AddJointForce(j.backendID, tau)
	}
}
