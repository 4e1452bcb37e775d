package config

import "math"

// Presets are ready-made scenarios for the CLI, keyed by name.
var Presets = map[string]*Scenario{
	"pendulum": {
		Name: "pendulum", Integrator: "semi_implicit",
		Dt: 0.001, Duration: 10,
		Gravity: [3]float64{0, DefaultGravityY, 0}, FixedBase: true,
		Base: LinkConfig{Mass: 10, Inertia: [3]float64{1, 1, 1}, Shape: "box", Dims: [3]float64{0.5, 0.5, 0.5}},
		Links: []LinkConfig{
			{Mass: 1, Inertia: [3]float64{0.01, 0.01, 0.01}, Shape: "cylinder",
				Dims: [3]float64{0.05, 1, 0.05}, Position: [3]float64{1, 0, 0}},
		},
		Joints: []JointConfig{
			{Name: "hinge", Type: "revolute", Parent: 0, Child: 1,
				Axis: [3]float64{0, 0, 1}},
		},
	},
	"double_pendulum": {
		Name: "double_pendulum", Integrator: "rk4",
		Dt: 0.001, Duration: 20,
		Gravity: [3]float64{0, DefaultGravityY, 0}, FixedBase: true,
		Base: LinkConfig{Mass: 10, Inertia: [3]float64{1, 1, 1}, Shape: "box", Dims: [3]float64{0.5, 0.5, 0.5}},
		Links: []LinkConfig{
			{Mass: 1, Inertia: [3]float64{0.01, 0.01, 0.01}, Shape: "cylinder",
				Dims: [3]float64{0.05, 1, 0.05}, Position: [3]float64{1, 0, 0}},
			{Mass: 1, Inertia: [3]float64{0.01, 0.01, 0.01}, Shape: "cylinder",
				Dims: [3]float64{0.05, 1, 0.05}, Position: [3]float64{2, 0, 0}},
		},
		Joints: []JointConfig{
			{Name: "shoulder", Type: "revolute", Parent: 0, Child: 1,
				Axis: [3]float64{0, 0, 1}, IC: ICConfig{Position: 0.5}},
			{Name: "elbow", Type: "revolute", Parent: 1, Child: 2,
				Pivot: [3]float64{1.5, 0, 0}, Axis: [3]float64{0, 0, 1}, IC: ICConfig{Position: 0.5}},
		},
	},
	"servo_arm": {
		Name: "servo_arm", Integrator: "semi_implicit",
		Dt: 0.001, Duration: 5,
		Gravity: [3]float64{0, DefaultGravityY, 0}, FixedBase: true,
		Base: LinkConfig{Mass: 20, Inertia: [3]float64{1, 1, 1}, Shape: "box", Dims: [3]float64{0.4, 0.4, 0.4}},
		Links: []LinkConfig{
			{Mass: 2, Inertia: [3]float64{0.02, 0.02, 0.02}, Shape: "capsule",
				Dims: [3]float64{0.06, 0.8, 0.06}, Position: [3]float64{0.4, 0, 0}},
		},
		Joints: []JointConfig{
			{Name: "servo", Type: "revolute", Parent: 0, Child: 1,
				Axis:  [3]float64{0, 0, 1},
				Motor: &MotorConfig{Mode: "position", Target: math.Pi / 2, Gain: 40, MaxForce: 30},
				Limit: &LimitConfig{Lower: -math.Pi, Upper: math.Pi},
				Damping: &DampingConfig{Viscous: 4},
			},
		},
	},
	"slider": {
		Name: "slider", Integrator: "semi_implicit",
		Dt: 0.001, Duration: 5,
		Gravity: [3]float64{0, DefaultGravityY, 0}, FixedBase: true,
		Base: LinkConfig{Mass: 10, Inertia: [3]float64{1, 1, 1}, Shape: "box", Dims: [3]float64{1, 0.2, 0.2}},
		Links: []LinkConfig{
			{Mass: 0.5, Inertia: [3]float64{0.005, 0.005, 0.005}, Shape: "box",
				Dims: [3]float64{0.1, 0.1, 0.1}, Position: [3]float64{0, 0.2, 0}},
		},
		Joints: []JointConfig{
			{Name: "slide", Type: "prismatic", Parent: 0, Child: 1,
				Axis:  [3]float64{1, 0, 0},
				Limit: &LimitConfig{Lower: -0.5, Upper: 0.5},
				IC:    ICConfig{Velocity: 1}},
		},
	},
	"falling_chain": {
		Name: "falling_chain", Integrator: "semi_implicit",
		Dt: 0.0005, Duration: 3,
		Gravity: [3]float64{0, DefaultGravityY, 0}, FixedBase: false,
		Base: LinkConfig{Mass: 1, Inertia: [3]float64{0.01, 0.01, 0.01}, Shape: "sphere",
			Dims: [3]float64{0.1, 0, 0}, Position: [3]float64{0, 5, 0}},
		Links: []LinkConfig{
			{Mass: 1, Inertia: [3]float64{0.01, 0.01, 0.01}, Shape: "capsule",
				Dims: [3]float64{0.04, 0.5, 0.04}, Position: [3]float64{0.5, 5, 0}},
			{Mass: 1, Inertia: [3]float64{0.01, 0.01, 0.01}, Shape: "capsule",
				Dims: [3]float64{0.04, 0.5, 0.04}, Position: [3]float64{1, 5, 0}},
		},
		Joints: []JointConfig{
			{Name: "l1", Type: "revolute", Parent: 0, Child: 1,
				Pivot: [3]float64{0.25, 5, 0}, Axis: [3]float64{0, 0, 1}},
			{Name: "l2", Type: "revolute", Parent: 1, Child: 2,
				Pivot: [3]float64{0.75, 5, 0}, Axis: [3]float64{0, 0, 1}},
		},
	},
}

func GetPreset(name string) *Scenario {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
