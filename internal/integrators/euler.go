package integrators

// SemiImplicitEuler updates velocities first, then positions with the
// new velocities. It is the default stepper for articulated trees: cheap
// and considerably more stable than explicit Euler for stiff joints.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (s *SemiImplicitEuler) Step(sys System, q, qd []float64, dt float64) {
	qdd := sys.Accel(q, qd)
	for i := range q {
		qd[i] += dt * qdd[i]
		q[i] += dt * qd[i]
	}
}

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys System, q, qd []float64, dt float64) {
	qdd := sys.Accel(q, qd)
	for i := range q {
		q[i] += dt * qd[i]
		qd[i] += dt * qdd[i]
	}
}
