package multibody

import (
	"fmt"
	"math"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/backend"
)

// SetJointIC sets the joint's initial position and velocity. Valid
// before or between solves; the round trip through the back end is
// exact before any step.
func (t *Tree) SetJointIC(index int, position, velocity float64) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if math.IsNaN(position) || math.IsInf(position, 0) ||
		math.IsNaN(velocity) || math.IsInf(velocity, 0) {
		return fmt.Errorf("%w: non-finite initial conditions", ErrParameter)
	}
	return t.mb.SetJointState(j.backendID, position, velocity)
}

// SetJointDamping replaces the damping coefficients used by ApplyDamping.
func (t *Tree) SetJointDamping(index int, constant, viscous float64) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if constant < 0 || viscous < 0 {
		return fmt.Errorf("%w: negative damping (%g, %g)", ErrParameter, constant, viscous)
	}
	j.sigDamping = constant
	j.velDamping = viscous
	return nil
}

// JointPosition returns the generalized coordinate and the joint type
// tag, so callers can interpret the units (radians or meters).
func (t *Tree) JointPosition(index int) (float64, backend.JointType, error) {
	j, err := t.Joint(index)
	if err != nil {
		return 0, backend.Fixed, err
	}
	q, _ := t.mb.JointState(j.backendID)
	return q, j.Type, nil
}

// JointVelocity returns the generalized velocity and the joint type tag.
func (t *Tree) JointVelocity(index int) (float64, backend.JointType, error) {
	j, err := t.Joint(index)
	if err != nil {
		return 0, backend.Fixed, err
	}
	_, qd := t.mb.JointState(j.backendID)
	return qd, j.Type, nil
}

// JointTorque returns only the sum of this step's manually injected
// generalized forces (DriveJoint). Motor-law output, damping and the
// back end's constraint reactions are deliberately excluded; callers
// depend on this narrow contract.
func (t *Tree) JointTorque(index int) (float64, error) {
	j, err := t.Joint(index)
	if err != nil {
		return 0, err
	}
	return j.driveSum, nil
}

// JointDrive returns the injected generalized force consumed by the
// most recent step. Unlike JointTorque it survives the end-of-step
// reset, so post-step observers can account for actuation effort.
func (t *Tree) JointDrive(index int) (float64, error) {
	j, err := t.Joint(index)
	if err != nil {
		return 0, err
	}
	return j.lastDrive, nil
}

// JointFeedback returns the reaction force and torque transmitted
// through the joint, both in the child link's COM frame. The torque is
// derived geometrically as (COM -> pivot) x force, with any component
// along the joint's own motion axis removed: that component is absorbed
// by the joint's degree of freedom and does not propagate as a rigid
// transmitted moment.
func (t *Tree) JointFeedback(index int) (force, torque algebra.Vec3, err error) {
	j, jerr := t.Joint(index)
	if jerr != nil {
		return algebra.Vec3{}, algebra.Vec3{}, jerr
	}
	return j.feedback.Force, j.feedback.Torque, nil
}

func (t *Tree) refreshFeedback() {
	for i := range t.joints {
		j := &t.joints[i]
		// the back end returns the child pose captured when the load
		// was solved, so force and lever arm use matching frames
		fw, pivot, child := t.mb.Reaction(j.backendID)

		f := child.R.TransposeMulVec(fw)
		r := child.R.TransposeMulVec(pivot.Sub(child.P))
		tau := r.Cross(f)

		if j.Type != backend.Fixed {
			axis := t.jointAxisChildFrame(j)
			tau = tau.Sub(axis.Scale(axis.Dot(tau)))
		}

		j.feedback = Feedback{Force: f, Torque: tau}
		j.hasFeedback = true
	}
}

// jointAxisChildFrame recovers the joint's motion axis in the child
// link's frame from the current world transforms.
func (t *Tree) jointAxisChildFrame(j *Joint) algebra.Vec3 {
	axisWorld := t.jointAxisWorld(j)
	child := t.mb.LinkTransform(j.Child)
	return child.R.TransposeMulVec(axisWorld).Normalize()
}

func (t *Tree) jointAxisWorld(j *Joint) algebra.Vec3 {
	// the back end stores the axis in the parent frame; reconstruct the
	// world direction from the parent transform and the assembly data
	return t.mb.JointAxis(j.backendID)
}

// LinkTransform returns the current world pose of the link's body frame.
func (t *Tree) LinkTransform(index int) (algebra.Transform, error) {
	if index < 0 || index >= len(t.links) {
		return algebra.IdentityTransform(), fmt.Errorf("%w: link %d of %d", ErrIndexRange, index, len(t.links))
	}
	return t.mb.LinkTransform(index), nil
}

// LinkLinearVelocity returns the world-frame velocity of the link COM.
func (t *Tree) LinkLinearVelocity(index int) (algebra.Vec3, error) {
	if index < 0 || index >= len(t.links) {
		return algebra.Vec3{}, fmt.Errorf("%w: link %d of %d", ErrIndexRange, index, len(t.links))
	}
	v, _ := t.mb.LinkVelocity(index)
	return v, nil
}

// LinkAngularVelocity returns the world-frame angular velocity.
func (t *Tree) LinkAngularVelocity(index int) (algebra.Vec3, error) {
	if index < 0 || index >= len(t.links) {
		return algebra.Vec3{}, fmt.Errorf("%w: link %d of %d", ErrIndexRange, index, len(t.links))
	}
	_, w := t.mb.LinkVelocity(index)
	return w, nil
}
