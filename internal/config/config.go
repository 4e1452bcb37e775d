package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/backend"
	"github.com/vortexntnu/stonefish/internal/integrators"
	"github.com/vortexntnu/stonefish/internal/multibody"
	"github.com/vortexntnu/stonefish/internal/sim"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultGravityY = -9.81
)

// Scenario describes one articulated assembly plus run settings. The
// zero base link is always implied; Links lists the remaining ones in
// index order, Joints one per non-base link.
type Scenario struct {
	Name       string        `yaml:"name"`
	Integrator string        `yaml:"integrator"`
	Dt         float64       `yaml:"dt"`
	Duration   float64       `yaml:"duration"`
	Gravity    [3]float64    `yaml:"gravity"`
	FixedBase  bool          `yaml:"fixed_base"`
	Base       LinkConfig    `yaml:"base"`
	Links      []LinkConfig  `yaml:"links"`
	Joints     []JointConfig `yaml:"joints"`
}

type LinkConfig struct {
	Mass     float64    `yaml:"mass"`
	Inertia  [3]float64 `yaml:"inertia"`
	Shape    string     `yaml:"shape"`
	Dims     [3]float64 `yaml:"dims"`
	Position [3]float64 `yaml:"position"`
	RPY      [3]float64 `yaml:"rpy"`
}

type JointConfig struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"`
	Parent  int            `yaml:"parent"`
	Child   int            `yaml:"child"`
	Pivot   [3]float64     `yaml:"pivot"`
	Axis    [3]float64     `yaml:"axis"`
	Collide bool           `yaml:"collide"`
	Limit   *LimitConfig   `yaml:"limit"`
	Motor   *MotorConfig   `yaml:"motor"`
	Damping *DampingConfig `yaml:"damping"`
	IC      ICConfig       `yaml:"ic"`
}

type LimitConfig struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

type MotorConfig struct {
	Mode     string  `yaml:"mode"` // position or velocity
	Target   float64 `yaml:"target"`
	Gain     float64 `yaml:"gain"`
	MaxForce float64 `yaml:"max_force"`
}

type DampingConfig struct {
	Constant float64 `yaml:"constant"`
	Viscous  float64 `yaml:"viscous"`
}

type ICConfig struct {
	Position float64 `yaml:"position"`
	Velocity float64 `yaml:"velocity"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:       "scenario",
		Integrator: "semi_implicit",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Gravity:    [3]float64{0, DefaultGravityY, 0},
		FixedBase:  true,
		Base:       LinkConfig{Mass: 1, Inertia: [3]float64{1, 1, 1}},
	}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func vec(a [3]float64) algebra.Vec3 {
	return algebra.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func (l LinkConfig) body() (multibody.Body, error) {
	shape, err := parseShape(l.Shape)
	if err != nil {
		return multibody.Body{}, err
	}
	return multibody.Body{
		Mass:    l.Mass,
		Inertia: vec(l.Inertia),
		Shape:   shape,
		Dims:    vec(l.Dims),
	}, nil
}

func (l LinkConfig) transform() algebra.Transform {
	r := algebra.RotZ(l.RPY[2]).Mul(algebra.RotY(l.RPY[1])).Mul(algebra.RotX(l.RPY[0]))
	return algebra.Transform{R: r, P: vec(l.Position)}
}

func parseShape(s string) (multibody.Shape, error) {
	switch s {
	case "", "box":
		return multibody.Box, nil
	case "cylinder":
		return multibody.Cylinder, nil
	case "sphere":
		return multibody.Sphere, nil
	case "capsule":
		return multibody.Capsule, nil
	default:
		return multibody.Box, fmt.Errorf("config: unknown shape %q", s)
	}
}

func stepper(name string) (integrators.Stepper, error) {
	switch name {
	case "", "semi_implicit":
		return integrators.NewSemiImplicitEuler(), nil
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	default:
		return nil, fmt.Errorf("config: unknown integrator %q", name)
	}
}

// SimConfig translates the run settings into the simulation config.
func (sc *Scenario) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	if sc.Dt > 0 {
		cfg.Dt = sc.Dt
	}
	if sc.Duration > 0 {
		cfg.Duration = sc.Duration
	}
	cfg.Gravity = vec(sc.Gravity)
	return cfg
}

// Build assembles the tree this scenario describes: base and links,
// joints with their limits, motors, damping and initial conditions.
// The returned tree is complete but not yet attached to a world.
func (sc *Scenario) Build() (*multibody.Tree, error) {
	base, err := sc.Base.body()
	if err != nil {
		return nil, err
	}
	step, err := stepper(sc.Integrator)
	if err != nil {
		return nil, err
	}
	assembly := sc.Base.transform()

	mb := backend.NewReduced(backend.LinkSpec{Mass: base.Mass, Inertia: base.Inertia},
		assembly, sc.FixedBase, step)
	tree, err := multibody.NewWithBackend(sc.Name, len(sc.Links)+1, base, mb)
	if err != nil {
		return nil, err
	}

	for i, lc := range sc.Links {
		body, err := lc.body()
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i+1, err)
		}
		if err := tree.AddLink(body, lc.transform()); err != nil {
			return nil, fmt.Errorf("link %d: %w", i+1, err)
		}
	}

	for i, jc := range sc.Joints {
		idx, err := sc.addJoint(tree, jc)
		if err != nil {
			return nil, fmt.Errorf("joint %d (%s): %w", i, jc.Name, err)
		}
		if err := sc.configureJoint(tree, idx, jc); err != nil {
			return nil, fmt.Errorf("joint %d (%s): %w", i, jc.Name, err)
		}
	}
	return tree, nil
}

func (sc *Scenario) addJoint(tree *multibody.Tree, jc JointConfig) (int, error) {
	switch jc.Type {
	case "", "revolute":
		return tree.AddRevoluteJoint(jc.Name, jc.Parent, jc.Child, vec(jc.Pivot), vec(jc.Axis), jc.Collide)
	case "prismatic":
		return tree.AddPrismaticJoint(jc.Name, jc.Parent, jc.Child, vec(jc.Axis), jc.Collide)
	case "fixed":
		return tree.AddFixedJoint(jc.Name, jc.Parent, jc.Child)
	default:
		return 0, fmt.Errorf("config: unknown joint type %q", jc.Type)
	}
}

func (sc *Scenario) configureJoint(tree *multibody.Tree, idx int, jc JointConfig) error {
	if jc.Limit != nil {
		if err := tree.AddJointLimit(idx, jc.Limit.Lower, jc.Limit.Upper); err != nil {
			return err
		}
	}
	if jc.Motor != nil {
		if err := tree.AddJointMotor(idx); err != nil {
			return err
		}
		switch jc.Motor.Mode {
		case "position":
			if err := tree.MotorPositionSetpoint(idx, jc.Motor.Target, jc.Motor.Gain); err != nil {
				return err
			}
		case "velocity":
			if err := tree.MotorVelocitySetpoint(idx, jc.Motor.Target, jc.Motor.Gain); err != nil {
				return err
			}
		case "":
		default:
			return fmt.Errorf("config: unknown motor mode %q", jc.Motor.Mode)
		}
		if jc.Motor.MaxForce > 0 {
			if err := tree.SetMotorMaxForce(idx, jc.Motor.MaxForce); err != nil {
				return err
			}
		}
	}
	if jc.Damping != nil {
		if err := tree.SetJointDamping(idx, jc.Damping.Constant, jc.Damping.Viscous); err != nil {
			return err
		}
	}
	if jc.IC.Position != 0 || jc.IC.Velocity != 0 {
		if err := tree.SetJointIC(idx, jc.IC.Position, jc.IC.Velocity); err != nil {
			return err
		}
	}
	return nil
}
