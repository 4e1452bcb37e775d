package multibody

import (
	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/backend"
)

type motorMode int

const (
	motorIdle motorMode = iota
	motorPosition
	motorVelocity
)

// Motor is the optional actuation sub-object of a joint: either a
// proportional position servo or a derivative velocity servo. MaxForce
// of zero means unlimited.
type Motor struct {
	mode     motorMode
	target   float64
	gain     float64
	MaxForce float64
}

// Limit bounds the joint position. Lower == Upper locks the joint.
type Limit struct {
	Lower, Upper float64
}

// Feedback accumulates the reaction force and torque transmitted
// through a joint, both in the child link's COM frame, refreshed by the
// back end after each solve.
type Feedback struct {
	Force  algebra.Vec3
	Torque algebra.Vec3
}

// Joint connects a parent link to a child link. The optional sub-objects
// are tagged so "no motor attached" is a checkable state rather than a
// nil dereference waiting to happen.
type Joint struct {
	Name   string
	Type   backend.JointType
	Parent int
	Child  int

	motor    Motor
	hasMotor bool

	limit    Limit
	hasLimit bool

	feedback    Feedback
	hasFeedback bool

	sigDamping float64 // static (Coulomb-like), opposes any motion
	velDamping float64 // viscous, proportional to joint velocity

	driveSum  float64 // manually injected force this step
	lastDrive float64 // driveSum consumed by the most recent step

	collide   bool // collision response between the two connected links
	backendID int
}

func (j *Joint) HasMotor() bool { return j.hasMotor }
func (j *Joint) HasLimit() bool { return j.hasLimit }

// HasFeedback reports whether the back end has populated the feedback
// accumulator, true after the first solve.
func (j *Joint) HasFeedback() bool { return j.hasFeedback }

// LimitRange returns the attached limit; the bool follows the map idiom.
func (j *Joint) LimitRange() (Limit, bool) { return j.limit, j.hasLimit }

// Damping returns the static and viscous coefficients.
func (j *Joint) Damping() (sig, vel float64) { return j.sigDamping, j.velDamping }

// CollisionEnabled reports whether the enclosing collision world should
// keep collision response between the two linked bodies.
func (j *Joint) CollisionEnabled() bool { return j.collide }
