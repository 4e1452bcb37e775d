package multibody

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/backend"
)

const g = 9.81

func box(mass float64) Body {
	return Body{
		Mass:    mass,
		Inertia: algebra.Vec3{X: 0.01, Y: 0.01, Z: 0.01},
		Shape:   Box,
		Dims:    algebra.Vec3{X: 0.2, Y: 0.2, Z: 0.2},
	}
}

func at(p algebra.Vec3) algebra.Transform {
	return algebra.Transform{R: algebra.Identity(), P: p}
}

// pendulumTree builds a fixed base with one revolute link: axis Z,
// pivot at the origin, link COM at (1, 0, 0).
func pendulumTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := New("pendulum", 2, box(10), algebra.IdentityTransform(), true)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	if err := tree.AddLink(box(1), at(algebra.Vec3{X: 1})); err != nil {
		t.Fatalf("add link: %v", err)
	}
	if _, err := tree.AddRevoluteJoint("hinge", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false); err != nil {
		t.Fatalf("add joint: %v", err)
	}
	return tree
}

func TestLinkJointCountInvariant(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)

	w.Expect(tree.LinkCount()).To(Equal(tree.JointCount() + 1))

	tree3, err := New("chain", 3, box(10), algebra.IdentityTransform(), true)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(tree3.AddLink(box(1), at(algebra.Vec3{X: 1}))).To(Succeed())
	w.Expect(tree3.AddLink(box(1), at(algebra.Vec3{X: 2}))).To(Succeed())
	_, err = tree3.AddRevoluteJoint("j0", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false)
	w.Expect(err).NotTo(HaveOccurred())
	_, err = tree3.AddRevoluteJoint("j1", 1, 2, algebra.Vec3{X: 1}, algebra.Vec3{Z: 1}, false)
	w.Expect(err).NotTo(HaveOccurred())

	w.Expect(tree3.Attach()).To(Succeed())
	w.Expect(tree3.LinkCount()).To(Equal(tree3.JointCount() + 1))
}

func TestAddLinkBeyondDeclaredCount(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)

	err := tree.AddLink(box(1), at(algebra.Vec3{X: 2}))
	w.Expect(err).To(MatchError(ErrTopology))
}

func TestChildLinkUsedOnce(t *testing.T) {
	w := NewWithT(t)
	tree, _ := New("t", 3, box(10), algebra.IdentityTransform(), true)
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 1}))).To(Succeed())
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 2}))).To(Succeed())

	_, err := tree.AddRevoluteJoint("a", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false)
	w.Expect(err).NotTo(HaveOccurred())
	_, err = tree.AddRevoluteJoint("b", 2, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false)
	w.Expect(err).To(MatchError(ErrTopology))
}

func TestInitialConditionRoundTrip(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)

	w.Expect(tree.SetJointIC(0, 0.37, -1.2)).To(Succeed())

	q, jt, err := tree.JointPosition(0)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(jt).To(Equal(backend.Revolute))
	w.Expect(q).To(Equal(0.37))

	qd, _, err := tree.JointVelocity(0)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(qd).To(Equal(-1.2))

	// reads without an intervening step are identical
	q2, _, _ := tree.JointPosition(0)
	w.Expect(q2).To(Equal(q))
}

func TestJointTorqueReportsOnlyManualDrive(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)

	w.Expect(tree.AddJointMotor(0)).To(Succeed())
	w.Expect(tree.MotorVelocitySetpoint(0, 2.0, 5.0)).To(Succeed())
	w.Expect(tree.SetJointDamping(0, 0.1, 0.5)).To(Succeed())

	w.Expect(tree.DriveJoint(0, 5)).To(Succeed())
	w.Expect(tree.DriveJoint(0, 2.5)).To(Succeed())
	tree.ApplyDamping()

	tau, err := tree.JointTorque(0)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(tau).To(Equal(7.5), "motor and damping must not appear in JointTorque")

	w.Expect(tree.Step(0.01)).To(Succeed())

	tau, _ = tree.JointTorque(0)
	w.Expect(tau).To(BeZero(), "drive forces are consumed by the step")
}

func TestJointTorqueOutOfRange(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)

	_, err := tree.JointTorque(tree.JointCount())
	w.Expect(err).To(MatchError(ErrIndexRange))
}

func TestMotorAndLimitRejections(t *testing.T) {
	w := NewWithT(t)
	tree, _ := New("t", 3, box(10), algebra.IdentityTransform(), true)
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 1}))).To(Succeed())
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 2}))).To(Succeed())

	rev, err := tree.AddRevoluteJoint("rev", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false)
	w.Expect(err).NotTo(HaveOccurred())
	fix, err := tree.AddFixedJoint("fix", 1, 2)
	w.Expect(err).NotTo(HaveOccurred())

	w.Expect(tree.AddJointMotor(fix)).To(MatchError(ErrTopology))
	w.Expect(tree.AddJointLimit(fix, -1, 1)).To(MatchError(ErrTopology))

	w.Expect(tree.AddJointMotor(rev)).To(Succeed())
	w.Expect(tree.AddJointMotor(rev)).To(MatchError(ErrTopology), "second motor")

	w.Expect(tree.AddJointLimit(rev, 2, 1)).To(MatchError(ErrParameter), "lower > upper")
	w.Expect(tree.AddJointLimit(rev, 0.5, 0.5)).To(Succeed(), "lower == upper locks")
}

func TestGravityAcceleratesUntilLimit(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)
	w.Expect(tree.AddJointLimit(0, -math.Pi/2, math.Pi/2)).To(Succeed())

	gvec := algebra.Vec3{Y: -g}
	prev := 0.0
	limited := false
	for i := 0; i < 3000; i++ {
		tree.ApplyGravity(gvec)
		w.Expect(tree.Step(0.002)).To(Succeed())

		qd, _, _ := tree.JointVelocity(0)
		q, _, _ := tree.JointPosition(0)
		speed := math.Abs(qd)

		if q <= -math.Pi/2+1e-9 {
			limited = true
			break
		}
		w.Expect(speed).To(BeNumerically(">=", prev-1e-12),
			"joint speed must grow monotonically while falling")
		prev = speed
	}
	w.Expect(limited).To(BeTrue(), "limit should halt the swing")

	q, _, _ := tree.JointPosition(0)
	w.Expect(q).To(BeNumerically(">=", -math.Pi/2-1e-9))
}

func TestMotorPositionServoConverges(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)
	w.Expect(tree.AddJointMotor(0)).To(Succeed())
	w.Expect(tree.MotorPositionSetpoint(0, math.Pi/2, 10)).To(Succeed())
	// near-critical viscous damping for I ~ 1.01, kp = 10
	w.Expect(tree.SetJointDamping(0, 0, 6.0)).To(Succeed())

	maxQ := 0.0
	for i := 0; i < 2000; i++ {
		tree.ApplyDamping()
		w.Expect(tree.Step(0.005)).To(Succeed())
		q, _, _ := tree.JointPosition(0)
		if q > maxQ {
			maxQ = q
		}
	}

	q, _, _ := tree.JointPosition(0)
	w.Expect(math.Abs(q - math.Pi/2)).To(BeNumerically("<", 0.02))
	w.Expect(maxQ).To(BeNumerically("<", math.Pi/2+0.2), "overshoot stays bounded")
}

func TestRevoluteFeedbackOrthogonalToAxis(t *testing.T) {
	w := NewWithT(t)
	tree, err := New("fb", 2, box(10), algebra.IdentityTransform(), true)
	w.Expect(err).NotTo(HaveOccurred())
	// COM deliberately off both the pivot vertical and the joint plane
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 0.3, Y: -1, Z: 0.2}))).To(Succeed())
	_, err = tree.AddRevoluteJoint("j", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false)
	w.Expect(err).NotTo(HaveOccurred())

	tree.ApplyGravity(algebra.Vec3{Y: -g})
	w.Expect(tree.Step(0.001)).To(Succeed())

	_, torque, err := tree.JointFeedback(0)
	w.Expect(err).NotTo(HaveOccurred())

	axis := algebra.Vec3{Z: 1} // child frame ~ world frame after one tiny step
	w.Expect(math.Abs(torque.Dot(axis))).To(BeNumerically("<", 1e-9))
}

func TestPrismaticFeedbackCarriesWeight(t *testing.T) {
	w := NewWithT(t)
	tree, err := New("slider", 2, box(10), algebra.IdentityTransform(), true)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(tree.AddLink(box(2), at(algebra.Vec3{X: 1}))).To(Succeed())
	_, err = tree.AddPrismaticJoint("slide", 0, 1, algebra.Vec3{X: 1}, false)
	w.Expect(err).NotTo(HaveOccurred())

	tree.ApplyGravity(algebra.Vec3{Y: -g})
	w.Expect(tree.Step(0.001)).To(Succeed())

	force, torque, err := tree.JointFeedback(0)
	w.Expect(err).NotTo(HaveOccurred())

	// horizontal slider: the joint carries the full weight
	w.Expect(force.Y).To(BeNumerically("~", 2*g, 1e-6))
	w.Expect(math.Abs(torque.Dot(algebra.Vec3{X: 1}))).To(BeNumerically("<", 1e-9))
}

func TestFixedJointFeedbackCarriesWeight(t *testing.T) {
	w := NewWithT(t)
	tree, err := New("weld", 2, box(10), algebra.IdentityTransform(), true)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 1}))).To(Succeed())
	_, err = tree.AddFixedJoint("w", 0, 1)
	w.Expect(err).NotTo(HaveOccurred())

	tree.ApplyGravity(algebra.Vec3{Y: -g})
	w.Expect(tree.Step(0.001)).To(Succeed())

	j, err := tree.Joint(0)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(j.HasFeedback()).To(BeTrue())

	// a tree with no degrees of freedom still measures the weld load
	force, _, err := tree.JointFeedback(0)
	w.Expect(err).NotTo(HaveOccurred())
	w.Expect(force.Y).To(BeNumerically("~", g, 1e-9))
}

func TestTopologyFrozenAfterStepping(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)
	w.Expect(tree.Step(0.01)).To(Succeed())

	w.Expect(tree.Phase()).To(Equal(Stepping))
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 2}))).To(MatchError(ErrFrozen))
	_, err := tree.AddRevoluteJoint("late", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false)
	w.Expect(err).To(MatchError(ErrFrozen))
	w.Expect(tree.SetBaseTransform(algebra.IdentityTransform())).To(MatchError(ErrFrozen))
}

func TestAttachRequiresCompleteTree(t *testing.T) {
	w := NewWithT(t)
	tree, _ := New("incomplete", 3, box(10), algebra.IdentityTransform(), true)
	w.Expect(tree.AddLink(box(1), at(algebra.Vec3{X: 1}))).To(Succeed())

	w.Expect(tree.Attach()).To(MatchError(ErrIncomplete))
}

func TestRenderablesAndAABB(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)

	r := tree.Renderables()
	w.Expect(r).To(HaveLen(2))

	tree.SetBaseRenderable(false)
	w.Expect(tree.Renderables()).To(HaveLen(1))

	min, max := tree.AABB()
	w.Expect(min.X).To(BeNumerically("<", max.X))
	w.Expect(max.X).To(BeNumerically(">=", 1), "link COM at x=1 must be inside")
}

func TestDampingOpposesMotion(t *testing.T) {
	w := NewWithT(t)
	tree := pendulumTree(t)
	w.Expect(tree.SetJointDamping(0, 0.5, 2.0)).To(Succeed())
	w.Expect(tree.SetJointIC(0, 0, 3.0)).To(Succeed())

	// no gravity: damping alone must slow the joint down
	for i := 0; i < 200; i++ {
		tree.ApplyDamping()
		w.Expect(tree.Step(0.01)).To(Succeed())
	}

	qd, _, _ := tree.JointVelocity(0)
	w.Expect(math.Abs(qd)).To(BeNumerically("<", 3.0))
}
