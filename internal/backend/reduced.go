package backend

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/integrators"
)

// node is one internal rigid body together with the joint that connects
// it to its parent. Roots (parent < 0) are pinned at their assembly
// pose. The floating-base case inserts six virtual single-DOF nodes
// between the world anchor and the base so the whole system stays a
// chain of one-DOF joints.
type node struct {
	mass    float64
	inertia algebra.Vec3

	parent int
	jtype  JointType
	axis   algebra.Vec3 // in parent frame, unit length
	pivotP algebra.Vec3 // parent COM -> pivot, parent frame
	pivotC algebra.Vec3 // child COM -> pivot, child frame
	rest   algebra.Mat3 // child orientation relative to parent at q = 0
	dof    int          // index into q/qd, -1 for fixed

	assembly algebra.Transform
}

type limit struct {
	active       bool
	lower, upper float64
}

// Reduced is a reduced-coordinate articulated-body back end. Forward
// dynamics follows the approach of assembling the joint-space mass
// matrix column by column from recursive Newton-Euler sweeps with unit
// generalized accelerations, then solving M qdd = tau - h densely.
type Reduced struct {
	nodes  []node
	extID  []int // external link index -> node index
	joints []int // external joint index -> child node index

	nDOF   int
	q, qd  []float64
	tau    []float64 // applied generalized force, consumed each Step
	limits []limit

	extF, extN []algebra.Vec3 // per-node world-frame force/torque, consumed each Step

	stepper integrators.Stepper

	// kinematic state, refreshed lazily
	dirty bool
	rot   []algebra.Mat3
	pos   []algebra.Vec3
	omg   []algebra.Vec3
	vel   []algebra.Vec3
	alp   []algebra.Vec3
	acc   []algebra.Vec3
	pivW  []algebra.Vec3

	// Newton-Euler sweep scratch
	sumF, sumN []algebra.Vec3
	fJ, nJ     []algebra.Vec3

	// last solved reactions, per node, with the child pose at capture
	reacF, reacPivot []algebra.Vec3
	reacChild        []algebra.Transform

	order    []int // topological order, parents first
	solveErr error
}

// NewReduced creates a back end holding only the base link. A fixed
// base is a root pinned at its assembly pose; a floating base hangs off
// six virtual joints (three prismatic, three revolute) so it carries a
// full six degrees of freedom.
func NewReduced(base LinkSpec, assembly algebra.Transform, fixedBase bool, stepper integrators.Stepper) *Reduced {
	if stepper == nil {
		stepper = integrators.NewSemiImplicitEuler()
	}
	r := &Reduced{stepper: stepper, dirty: true}

	if fixedBase {
		r.addNode(node{
			mass: base.Mass, inertia: base.Inertia,
			parent: -1, jtype: Fixed, dof: -1,
			rest: algebra.Identity(), assembly: assembly,
		})
		r.extID = append(r.extID, 0)
		return r
	}

	// world anchor, then x/y/z prismatic and x/y/z revolute virtual DOFs
	r.addNode(node{parent: -1, jtype: Fixed, dof: -1, rest: algebra.Identity(), assembly: assembly})
	axes := []algebra.Vec3{{X: 1}, {Y: 1}, {Z: 1}, {X: 1}, {Y: 1}, {Z: 1}}
	for i, ax := range axes {
		jt := Prismatic
		if i >= 3 {
			jt = Revolute
		}
		n := node{
			parent: len(r.nodes) - 1, jtype: jt, axis: ax,
			rest: algebra.Identity(), dof: r.nDOF,
		}
		if i == len(axes)-1 {
			n.mass = base.Mass
			n.inertia = base.Inertia
		}
		r.addNode(n)
		r.nDOF++
	}
	r.q = make([]float64, r.nDOF)
	r.qd = make([]float64, r.nDOF)
	r.tau = make([]float64, r.nDOF)
	r.limits = make([]limit, r.nDOF)
	r.extID = append(r.extID, len(r.nodes)-1)
	return r
}

func (r *Reduced) addNode(n node) {
	r.nodes = append(r.nodes, n)
	r.extF = append(r.extF, algebra.Vec3{})
	r.extN = append(r.extN, algebra.Vec3{})
	r.dirty = true
	r.order = nil
}

func (r *Reduced) AddLink(spec LinkSpec, assembly algebra.Transform) int {
	r.addNode(node{
		mass: spec.Mass, inertia: spec.Inertia,
		parent: -1, jtype: Fixed, dof: -1,
		rest: algebra.Identity(), assembly: assembly,
	})
	r.extID = append(r.extID, len(r.nodes)-1)
	return len(r.extID) - 1
}

func (r *Reduced) AddJoint(spec JointSpec) (int, error) {
	if spec.Parent < 0 || spec.Parent >= len(r.extID) ||
		spec.Child < 0 || spec.Child >= len(r.extID) {
		return -1, fmt.Errorf("%w: joint links %d->%d", ErrBadIndex, spec.Parent, spec.Child)
	}
	if spec.Parent == spec.Child {
		return -1, fmt.Errorf("%w: joint connects link %d to itself", ErrBadTopology, spec.Child)
	}
	pn := r.extID[spec.Parent]
	cn := r.extID[spec.Child]
	if r.nodes[cn].parent >= 0 {
		return -1, fmt.Errorf("%w: link %d already has a parent joint", ErrBadTopology, spec.Child)
	}
	// walking up from the parent must not reach the child
	for a := pn; a >= 0; a = r.nodes[a].parent {
		if a == cn {
			return -1, fmt.Errorf("%w: joint %d->%d closes a cycle", ErrBadTopology, spec.Parent, spec.Child)
		}
	}
	if spec.Type != Fixed && spec.Axis.Norm() == 0 {
		return -1, fmt.Errorf("%w: zero joint axis", ErrBadTopology)
	}

	r.refresh()
	rp := r.rot[pn]
	rc := r.rot[cn]

	nd := &r.nodes[cn]
	nd.parent = pn
	nd.jtype = spec.Type
	nd.rest = rp.Transpose().Mul(rc)
	nd.pivotP = rp.TransposeMulVec(spec.Pivot.Sub(r.pos[pn]))
	nd.pivotC = rc.TransposeMulVec(spec.Pivot.Sub(r.pos[cn]))
	if spec.Type == Fixed {
		nd.dof = -1
	} else {
		nd.axis = rp.TransposeMulVec(spec.Axis.Normalize())
		nd.dof = r.nDOF
		r.nDOF++
		r.q = append(r.q, 0)
		r.qd = append(r.qd, 0)
		r.tau = append(r.tau, 0)
		r.limits = append(r.limits, limit{})
	}
	r.joints = append(r.joints, cn)
	r.dirty = true
	r.order = nil
	return len(r.joints) - 1, nil
}

func (r *Reduced) jointDOF(joint int) (int, bool) {
	if joint < 0 || joint >= len(r.joints) {
		return -1, false
	}
	d := r.nodes[r.joints[joint]].dof
	return d, d >= 0
}

func (r *Reduced) SetJointState(joint int, q, qd float64) error {
	d, ok := r.jointDOF(joint)
	if !ok {
		if joint >= 0 && joint < len(r.joints) {
			return nil // fixed joint: nothing to set
		}
		return fmt.Errorf("%w: joint %d", ErrBadIndex, joint)
	}
	r.q[d] = q
	r.qd[d] = qd
	r.dirty = true
	return nil
}

func (r *Reduced) JointState(joint int) (float64, float64) {
	d, ok := r.jointDOF(joint)
	if !ok {
		return 0, 0
	}
	return r.q[d], r.qd[d]
}

func (r *Reduced) SetJointLimit(joint int, lower, upper float64) error {
	d, ok := r.jointDOF(joint)
	if !ok {
		return fmt.Errorf("%w: joint %d has no limit axis", ErrBadIndex, joint)
	}
	r.limits[d] = limit{active: true, lower: lower, upper: upper}
	return nil
}

func (r *Reduced) AddJointForce(joint int, tau float64) {
	if d, ok := r.jointDOF(joint); ok {
		r.tau[d] += tau
	}
}

func (r *Reduced) AddLinkForce(link int, f algebra.Vec3) {
	if link >= 0 && link < len(r.extID) {
		n := r.extID[link]
		r.extF[n] = r.extF[n].Add(f)
	}
}

func (r *Reduced) AddLinkTorque(link int, n algebra.Vec3) {
	if link >= 0 && link < len(r.extID) {
		i := r.extID[link]
		r.extN[i] = r.extN[i].Add(n)
	}
}

func (r *Reduced) LinkMass(link int) float64 {
	if link < 0 || link >= len(r.extID) {
		return 0
	}
	return r.nodes[r.extID[link]].mass
}

func (r *Reduced) SetBaseTransform(t algebra.Transform) {
	r.nodes[0].assembly = t
	r.dirty = true
}

func (r *Reduced) LinkTransform(link int) algebra.Transform {
	r.refresh()
	if link < 0 || link >= len(r.extID) {
		return algebra.IdentityTransform()
	}
	n := r.extID[link]
	return algebra.Transform{R: r.rot[n], P: r.pos[n]}
}

func (r *Reduced) LinkVelocity(link int) (algebra.Vec3, algebra.Vec3) {
	r.refresh()
	if link < 0 || link >= len(r.extID) {
		return algebra.Vec3{}, algebra.Vec3{}
	}
	n := r.extID[link]
	return r.vel[n], r.omg[n]
}

func (r *Reduced) Reaction(joint int) (algebra.Vec3, algebra.Vec3, algebra.Transform) {
	if joint < 0 || joint >= len(r.joints) || r.reacF == nil {
		return algebra.Vec3{}, algebra.Vec3{}, algebra.IdentityTransform()
	}
	n := r.joints[joint]
	return r.reacF[n], r.reacPivot[n], r.reacChild[n]
}

func (r *Reduced) JointAxis(joint int) algebra.Vec3 {
	if joint < 0 || joint >= len(r.joints) {
		return algebra.Vec3{}
	}
	n := r.joints[joint]
	nd := r.nodes[n]
	if nd.jtype == Fixed {
		return algebra.Vec3{}
	}
	r.refresh()
	return r.rot[nd.parent].MulVec(nd.axis)
}

func (r *Reduced) KineticEnergy() float64 {
	r.refresh()
	e := 0.0
	for i, nd := range r.nodes {
		if nd.mass == 0 {
			continue
		}
		v := r.vel[i]
		w := r.omg[i]
		iw := r.rot[i].Mul(algebra.Diag(nd.inertia)).Mul(r.rot[i].Transpose())
		e += 0.5*nd.mass*v.Dot(v) + 0.5*w.Dot(iw.MulVec(w))
	}
	return e
}

func (r *Reduced) PotentialEnergy(g algebra.Vec3) float64 {
	r.refresh()
	e := 0.0
	for i, nd := range r.nodes {
		e -= nd.mass * g.Dot(r.pos[i])
	}
	return e
}

// topoOrder lists nodes parents-first. Joint insertion order does not
// have to follow the tree, so the order is rebuilt after any topology
// change.
func (r *Reduced) topoOrder() []int {
	if r.order != nil {
		return r.order
	}
	n := len(r.nodes)
	placed := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		progress := false
		for i := 0; i < n; i++ {
			if placed[i] {
				continue
			}
			p := r.nodes[i].parent
			if p < 0 || placed[p] {
				placed[i] = true
				order = append(order, i)
				progress = true
			}
		}
		if !progress {
			break // cycle; AddJoint prevents this, but do not spin
		}
	}
	r.order = order
	return order
}

func (r *Reduced) ensureScratch() {
	n := len(r.nodes)
	if len(r.rot) == n {
		return
	}
	r.rot = make([]algebra.Mat3, n)
	r.pos = make([]algebra.Vec3, n)
	r.omg = make([]algebra.Vec3, n)
	r.vel = make([]algebra.Vec3, n)
	r.alp = make([]algebra.Vec3, n)
	r.acc = make([]algebra.Vec3, n)
	r.pivW = make([]algebra.Vec3, n)
	r.sumF = make([]algebra.Vec3, n)
	r.sumN = make([]algebra.Vec3, n)
	r.fJ = make([]algebra.Vec3, n)
	r.nJ = make([]algebra.Vec3, n)
}

// pass runs the outward kinematic sweep for the given generalized
// state, filling pose, velocity and acceleration arrays. qdd may be nil
// for a zero-acceleration sweep.
func (r *Reduced) pass(q, qd, qdd []float64) {
	r.ensureScratch()
	for _, i := range r.topoOrder() {
		nd := &r.nodes[i]
		if nd.parent < 0 {
			r.rot[i] = nd.assembly.R
			r.pos[i] = nd.assembly.P
			r.omg[i] = algebra.Vec3{}
			r.vel[i] = algebra.Vec3{}
			r.alp[i] = algebra.Vec3{}
			r.acc[i] = algebra.Vec3{}
			continue
		}
		p := nd.parent
		rp := r.rot[p]
		var qi, qdi, qddi float64
		if nd.dof >= 0 {
			qi, qdi = q[nd.dof], qd[nd.dof]
			if qdd != nil {
				qddi = qdd[nd.dof]
			}
		}
		aw := rp.MulVec(nd.axis)
		rpp := rp.MulVec(nd.pivotP)

		switch nd.jtype {
		case Revolute:
			r.rot[i] = rp.Mul(algebra.AxisAngle(nd.axis, qi)).Mul(nd.rest)
			pivot := r.pos[p].Add(rpp)
			rcc := r.rot[i].MulVec(nd.pivotC)
			r.pivW[i] = pivot
			r.pos[i] = pivot.Sub(rcc)
			r.omg[i] = r.omg[p].Add(aw.Scale(qdi))
			vp := r.vel[p].Add(r.omg[p].Cross(rpp))
			r.vel[i] = vp.Sub(r.omg[i].Cross(rcc))
			r.alp[i] = r.alp[p].Add(aw.Scale(qddi)).Add(r.omg[p].Cross(aw.Scale(qdi)))
			ap := r.acc[p].Add(r.alp[p].Cross(rpp)).Add(r.omg[p].Cross(r.omg[p].Cross(rpp)))
			r.acc[i] = ap.Sub(r.alp[i].Cross(rcc)).Sub(r.omg[i].Cross(r.omg[i].Cross(rcc)))

		case Prismatic:
			r.rot[i] = rp.Mul(nd.rest)
			arm := rpp.Add(aw.Scale(qi))
			pivot := r.pos[p].Add(arm)
			rcc := r.rot[i].MulVec(nd.pivotC)
			r.pivW[i] = pivot
			r.pos[i] = pivot.Sub(rcc)
			r.omg[i] = r.omg[p]
			vp := r.vel[p].Add(r.omg[p].Cross(arm)).Add(aw.Scale(qdi))
			r.vel[i] = vp.Sub(r.omg[i].Cross(rcc))
			r.alp[i] = r.alp[p]
			ap := r.acc[p].Add(r.alp[p].Cross(arm)).Add(r.omg[p].Cross(r.omg[p].Cross(arm))).
				Add(aw.Scale(qddi)).Add(r.omg[p].Cross(aw.Scale(qdi)).Scale(2))
			r.acc[i] = ap.Sub(r.alp[i].Cross(rcc)).Sub(r.omg[i].Cross(r.omg[i].Cross(rcc)))

		default: // Fixed
			r.rot[i] = rp.Mul(nd.rest)
			pivot := r.pos[p].Add(rpp)
			rcc := r.rot[i].MulVec(nd.pivotC)
			r.pivW[i] = pivot
			r.pos[i] = pivot.Sub(rcc)
			arm := r.pos[i].Sub(r.pos[p])
			r.omg[i] = r.omg[p]
			r.vel[i] = r.vel[p].Add(r.omg[p].Cross(arm))
			r.alp[i] = r.alp[p]
			r.acc[i] = r.acc[p].Add(r.alp[p].Cross(arm)).Add(r.omg[p].Cross(r.omg[p].Cross(arm)))
		}
	}
}

// inverse runs the inward Newton-Euler sweep for the kinematic state
// left by the last pass, returning the applied generalized force each
// DOF would need. fJ/nJ receive the load each joint transmits to its
// child (force at the pivot, moment about the pivot, world frame).
func (r *Reduced) inverse(withExt bool) []float64 {
	tau := make([]float64, r.nDOF)
	order := r.topoOrder()
	for i := range r.sumF {
		r.sumF[i] = algebra.Vec3{}
		r.sumN[i] = algebra.Vec3{}
	}
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		nd := &r.nodes[i]

		fi := r.acc[i].Scale(nd.mass)
		iw := r.rot[i].Mul(algebra.Diag(nd.inertia)).Mul(r.rot[i].Transpose())
		ni := iw.MulVec(r.alp[i]).Add(r.omg[i].Cross(iw.MulVec(r.omg[i])))
		if withExt {
			fi = fi.Sub(r.extF[i])
			ni = ni.Sub(r.extN[i])
		}

		f := fi.Add(r.sumF[i])
		n := ni.Add(r.sumN[i])

		r.fJ[i] = f
		if nd.parent >= 0 {
			lever := r.pivW[i].Sub(r.pos[i])
			r.nJ[i] = n.Sub(lever.Cross(f))

			if nd.dof >= 0 {
				aw := r.rot[nd.parent].MulVec(nd.axis)
				switch nd.jtype {
				case Revolute:
					tau[nd.dof] = aw.Dot(r.nJ[i])
				case Prismatic:
					tau[nd.dof] = aw.Dot(f)
				}
			}

			p := nd.parent
			r.sumF[p] = r.sumF[p].Add(f)
			r.sumN[p] = r.sumN[p].Add(r.nJ[i]).Add(r.pivW[i].Sub(r.pos[p]).Cross(f))
		}
	}
	return tau
}

// Accel solves forward dynamics M qdd = tau - h for the supplied state
// using the currently accumulated generalized and Cartesian forces.
// It implements integrators.System.
func (r *Reduced) Accel(q, qd []float64) []float64 {
	n := r.nDOF
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	zero := make([]float64, n)

	// bias force: required tau at zero acceleration, externals included
	r.pass(q, qd, zero)
	h := r.inverse(true)

	// mass matrix, one unit-acceleration sweep per column
	m := mat.NewDense(n, n, nil)
	unit := make([]float64, n)
	for k := 0; k < n; k++ {
		unit[k] = 1
		r.pass(q, zero, unit)
		col := r.inverse(false)
		for i := 0; i < n; i++ {
			m.Set(i, k, col[i])
		}
		unit[k] = 0
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, r.tau[i]-h[i])
	}

	var x mat.VecDense
	if err := x.SolveVec(m, rhs); err != nil {
		r.solveErr = fmt.Errorf("%w: %v", ErrSingular, err)
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = x.AtVec(i)
	}
	return out
}

// Step advances the system by dt: solve accelerations, record joint
// reactions, integrate, project joint limits and consume the per-step
// force accumulators.
func (r *Reduced) Step(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("backend: timestep must be positive, got %g", dt)
	}

	var qdd []float64
	if r.nDOF > 0 {
		r.solveErr = nil
		qdd = r.Accel(r.q, r.qd)
		if r.solveErr != nil {
			return r.solveErr
		}
	}

	// transmitted loads at the pre-step state; a zero-DOF tree still
	// carries its external loads through the fixed joints
	r.pass(r.q, r.qd, qdd)
	r.inverse(true)
	if len(r.reacF) != len(r.nodes) {
		r.reacF = make([]algebra.Vec3, len(r.nodes))
		r.reacPivot = make([]algebra.Vec3, len(r.nodes))
		r.reacChild = make([]algebra.Transform, len(r.nodes))
	}
	copy(r.reacF, r.fJ)
	copy(r.reacPivot, r.pivW)
	for i := range r.nodes {
		r.reacChild[i] = algebra.Transform{R: r.rot[i], P: r.pos[i]}
	}

	if r.nDOF > 0 {
		r.stepper.Step(r, r.q, r.qd, dt)
		if r.solveErr != nil {
			return r.solveErr
		}

		for i := range r.limits {
			l := r.limits[i]
			if !l.active {
				continue
			}
			if r.q[i] <= l.lower {
				r.q[i] = l.lower
				if r.qd[i] < 0 {
					r.qd[i] = 0
				}
			}
			if r.q[i] >= l.upper {
				r.q[i] = l.upper
				if r.qd[i] > 0 {
					r.qd[i] = 0
				}
			}
		}

		for i := range r.q {
			if math.IsNaN(r.q[i]) || math.IsInf(r.q[i], 0) ||
				math.IsNaN(r.qd[i]) || math.IsInf(r.qd[i], 0) {
				return fmt.Errorf("%w: non-finite joint state after step", ErrSingular)
			}
		}
	}

	for i := range r.tau {
		r.tau[i] = 0
	}
	for i := range r.extF {
		r.extF[i] = algebra.Vec3{}
		r.extN[i] = algebra.Vec3{}
	}

	r.dirty = true
	return nil
}

// refresh recomputes poses and velocities for queries.
func (r *Reduced) refresh() {
	if !r.dirty {
		return
	}
	r.pass(r.q, r.qd, nil)
	r.dirty = false
}
