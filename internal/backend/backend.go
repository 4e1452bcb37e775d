package backend

import (
	"errors"

	"github.com/vortexntnu/stonefish/internal/algebra"
)

type JointType int

const (
	Revolute JointType = iota
	Prismatic
	Fixed
)

func (t JointType) String() string {
	switch t {
	case Revolute:
		return "revolute"
	case Prismatic:
		return "prismatic"
	case Fixed:
		return "fixed"
	}
	return "unknown"
}

var (
	// ErrBadIndex indicates a link or joint index outside the current range.
	ErrBadIndex = errors.New("backend: index out of range")

	// ErrBadTopology indicates a joint that would not keep the system a tree.
	ErrBadTopology = errors.New("backend: invalid tree topology")

	// ErrSingular indicates the mass matrix could not be factorized,
	// usually a degree of freedom that moves no mass.
	ErrSingular = errors.New("backend: singular mass matrix")
)

// LinkSpec describes the mass properties of one rigid link. The link
// frame has its origin at the center of mass; Inertia holds principal
// moments about the COM in that frame.
type LinkSpec struct {
	Mass    float64
	Inertia algebra.Vec3
}

// JointSpec attaches Child to Parent. Pivot and Axis are given in world
// coordinates at assembly time and converted to the local frames of the
// two links, so callers position bodies first and connect them after.
type JointSpec struct {
	Type   JointType
	Parent int
	Child  int
	Pivot  algebra.Vec3
	Axis   algebra.Vec3
}

// MultiBody is the articulated-body capability consumed by the tree
// layer: add links and joints, inject generalized and Cartesian forces,
// integrate one step, and read back state. Implementations own the
// numerical method; the tree layer owns the model.
type MultiBody interface {
	AddLink(spec LinkSpec, assembly algebra.Transform) int
	AddJoint(spec JointSpec) (int, error)

	SetJointState(joint int, q, qd float64) error
	JointState(joint int) (q, qd float64)
	SetJointLimit(joint int, lower, upper float64) error
	AddJointForce(joint int, tau float64)

	AddLinkForce(link int, f algebra.Vec3)
	AddLinkTorque(link int, n algebra.Vec3)

	Step(dt float64) error

	LinkTransform(link int) algebra.Transform
	LinkVelocity(link int) (linear, angular algebra.Vec3)
	LinkMass(link int) float64

	// Reaction reports the force the parent exerts on the child through
	// the joint, in world frame, together with the world pivot point
	// and the child link pose at the instant the load was solved. The
	// load is captured at the pre-step state, so the pose is returned
	// alongside it rather than read back after integration. Valid after
	// the first Step.
	Reaction(joint int) (force, pivot algebra.Vec3, child algebra.Transform)

	// JointAxis returns the joint's current motion axis in world frame,
	// zero for fixed joints.
	JointAxis(joint int) algebra.Vec3

	SetBaseTransform(t algebra.Transform)

	KineticEnergy() float64
	PotentialEnergy(g algebra.Vec3) float64
}
