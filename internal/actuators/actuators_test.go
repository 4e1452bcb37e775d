package actuators

import (
	"math"
	"testing"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/multibody"
)

func hinge(t *testing.T) *multibody.Tree {
	t.Helper()
	body := multibody.Body{
		Mass:    1,
		Inertia: algebra.Vec3{X: 0.01, Y: 0.01, Z: 0.01},
		Shape:   multibody.Box,
		Dims:    algebra.Vec3{X: 0.2, Y: 0.2, Z: 0.2},
	}
	tree, err := multibody.New("hinge", 2, body, algebra.IdentityTransform(), true)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	pose := algebra.Transform{R: algebra.Identity(), P: algebra.Vec3{X: 1}}
	if err := tree.AddLink(body, pose); err != nil {
		t.Fatalf("add link: %v", err)
	}
	if _, err := tree.AddRevoluteJoint("j", 0, 1, algebra.Vec3{}, algebra.Vec3{Z: 1}, false); err != nil {
		t.Fatalf("add joint: %v", err)
	}
	return tree
}

func TestMotorOnFixedJointFails(t *testing.T) {
	body := multibody.Body{Mass: 1, Inertia: algebra.Vec3{X: 0.01, Y: 0.01, Z: 0.01}}
	tree, _ := multibody.New("fix", 2, body, algebra.IdentityTransform(), true)
	pose := algebra.Transform{R: algebra.Identity(), P: algebra.Vec3{X: 1}}
	tree.AddLink(body, pose)
	tree.AddFixedJoint("weld", 0, 1)

	if _, err := NewMotor("m", tree, 0); err == nil {
		t.Error("motor on a fixed joint should fail")
	}
}

func TestMotorTorqueLimits(t *testing.T) {
	tree := hinge(t)
	m, err := NewMotor("m", tree, 0)
	if err != nil {
		t.Fatalf("new motor: %v", err)
	}
	m.SetTorqueLimits(-1, 1)
	m.SetIntensity(50)

	if err := m.Update(0.01); err != nil {
		t.Fatalf("update: %v", err)
	}

	tau, err := tree.JointTorque(0)
	if err != nil {
		t.Fatalf("joint torque: %v", err)
	}
	if tau != 1 {
		t.Errorf("expected clamped torque 1, got %f", tau)
	}
}

func TestMotorWatchdogZeroesTorque(t *testing.T) {
	tree := hinge(t)
	m, _ := NewMotor("m", tree, 0)
	m.SetWatchdog(0.05)
	m.SetIntensity(2)

	for i := 0; i < 10; i++ {
		if err := m.Update(0.01); err != nil {
			t.Fatalf("update: %v", err)
		}
		if err := tree.Step(0.01); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if m.Torque() != 0 {
		t.Errorf("watchdog should have zeroed torque, got %f", m.Torque())
	}
}

func TestMotorSpinsJoint(t *testing.T) {
	tree := hinge(t)
	m, _ := NewMotor("m", tree, 0)
	m.SetIntensity(0.5)

	for i := 0; i < 100; i++ {
		m.SetIntensity(0.5) // refresh every step, watchdog-friendly
		if err := m.Update(0.01); err != nil {
			t.Fatalf("update: %v", err)
		}
		if err := tree.Step(0.01); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if m.AngularVelocity() <= 0 {
		t.Errorf("positive torque should spin the joint forward, got %f", m.AngularVelocity())
	}
	if m.Angle() <= 0 {
		t.Errorf("expected positive angle, got %f", m.Angle())
	}
}

func TestPIDConvergesToTarget(t *testing.T) {
	tree := hinge(t)
	target := math.Pi / 4
	pid := NewPID(tree, 0, 20, 0, 12, target)

	dt := 0.005
	for i := 0; i < 4000; i++ {
		if err := pid.Update(dt); err != nil {
			t.Fatalf("pid update: %v", err)
		}
		if err := tree.Step(dt); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	q, _, _ := tree.JointPosition(0)
	if math.Abs(q-target) > 0.02 {
		t.Errorf("expected joint near %f, got %f", target, q)
	}
}
