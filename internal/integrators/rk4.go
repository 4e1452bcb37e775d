package integrators

// RK4 is classic fourth-order Runge-Kutta over the combined (q, qd)
// state. Each stage re-solves the forward dynamics, so one step costs
// four solves; use it when accuracy matters more than throughput.
type RK4 struct {
	qs, qds scratch
}

type scratch struct {
	buf []float64
}

func (s *scratch) get(n int) []float64 {
	if len(s.buf) != n {
		s.buf = make([]float64, n)
	}
	return s.buf
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys System, q, qd []float64, dt float64) {
	n := len(q)
	qT := r.qs.get(n)
	qdT := r.qds.get(n)

	// stage 1
	k1v := append([]float64(nil), qd...)
	k1a := append([]float64(nil), sys.Accel(q, qd)...)

	// stage 2
	for i := 0; i < n; i++ {
		qT[i] = q[i] + 0.5*dt*k1v[i]
		qdT[i] = qd[i] + 0.5*dt*k1a[i]
	}
	k2v := append([]float64(nil), qdT...)
	k2a := append([]float64(nil), sys.Accel(qT, qdT)...)

	// stage 3
	for i := 0; i < n; i++ {
		qT[i] = q[i] + 0.5*dt*k2v[i]
		qdT[i] = qd[i] + 0.5*dt*k2a[i]
	}
	k3v := append([]float64(nil), qdT...)
	k3a := append([]float64(nil), sys.Accel(qT, qdT)...)

	// stage 4
	for i := 0; i < n; i++ {
		qT[i] = q[i] + dt*k3v[i]
		qdT[i] = qd[i] + dt*k3a[i]
	}
	k4v := qdT
	k4a := sys.Accel(qT, k4v)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		q[i] += dt6 * (k1v[i] + 2*k2v[i] + 2*k3v[i] + k4v[i])
		qd[i] += dt6 * (k1a[i] + 2*k2a[i] + 2*k3a[i] + k4a[i])
	}
}
