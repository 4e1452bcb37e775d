package integrators

// System produces generalized accelerations from generalized positions
// and velocities, typically by a forward-dynamics solve.
type System interface {
	Accel(q, qd []float64) []float64
}

// Stepper advances generalized state in place by one timestep.
type Stepper interface {
	Step(sys System, q, qd []float64, dt float64)
}
