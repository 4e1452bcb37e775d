package multibody

import (
	"fmt"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/backend"
)

type Phase int

const (
	Unattached Phase = iota
	Attached
	Stepping
)

func (p Phase) String() string {
	switch p {
	case Unattached:
		return "unattached"
	case Attached:
		return "attached"
	case Stepping:
		return "stepping"
	}
	return "unknown"
}

// Link is one rigid body of the tree together with the fixed transform
// from its joint frame to the body frame.
type Link struct {
	Body      Body
	Transform algebra.Transform
}

// Tree is a kinematic tree of rigid links connected by revolute,
// prismatic and fixed joints, solved by an articulated-body back end
// that the tree owns exclusively. Link and joint records are metadata;
// the back end's generalized coordinates are the authoritative state.
//
// A tree moves Unattached -> Attached -> Stepping and never back.
// Topology mutations after attach are rejected.
type Tree struct {
	name       string
	totalLinks int
	links      []Link
	joints     []Joint
	childUsed  map[int]bool

	mb    backend.MultiBody
	phase Phase

	baseRenderable bool
	selfCollision  bool
}

// New creates a tree sized for totalLinks links, rooted at base. A
// fixed base is pinned to the world; otherwise the base floats with six
// degrees of freedom. The default reduced-coordinate back end is used.
func New(name string, totalLinks int, base Body, baseTransform algebra.Transform, fixedBase bool) (*Tree, error) {
	if totalLinks < 1 {
		return nil, fmt.Errorf("%w: totalLinks must be at least 1, got %d", ErrParameter, totalLinks)
	}
	mb := backend.NewReduced(
		backend.LinkSpec{Mass: base.Mass, Inertia: base.Inertia},
		baseTransform, fixedBase, nil)
	return newTree(name, totalLinks, base, mb), nil
}

// NewWithBackend builds a tree over a caller-supplied back end that
// already holds the base link, allowing the forward-dynamics algorithm
// to be substituted without touching the data model.
func NewWithBackend(name string, totalLinks int, base Body, mb backend.MultiBody) (*Tree, error) {
	if totalLinks < 1 {
		return nil, fmt.Errorf("%w: totalLinks must be at least 1, got %d", ErrParameter, totalLinks)
	}
	if mb == nil {
		return nil, fmt.Errorf("%w: nil back end", ErrParameter)
	}
	return newTree(name, totalLinks, base, mb), nil
}

func newTree(name string, totalLinks int, base Body, mb backend.MultiBody) *Tree {
	t := &Tree{
		name:           name,
		totalLinks:     totalLinks,
		links:          make([]Link, 0, totalLinks),
		joints:         make([]Joint, 0, totalLinks-1),
		childUsed:      make(map[int]bool),
		mb:             mb,
		baseRenderable: true,
	}
	t.links = append(t.links, Link{Body: base, Transform: algebra.IdentityTransform()})
	return t
}

func (t *Tree) Name() string    { return t.name }
func (t *Tree) Phase() Phase    { return t.phase }
func (t *Tree) LinkCount() int  { return len(t.links) }
func (t *Tree) JointCount() int { return len(t.joints) }

func (t *Tree) Link(index int) (Link, error) {
	if index < 0 || index >= len(t.links) {
		return Link{}, fmt.Errorf("%w: link %d of %d", ErrIndexRange, index, len(t.links))
	}
	return t.links[index], nil
}

func (t *Tree) Joint(index int) (*Joint, error) {
	if index < 0 || index >= len(t.joints) {
		return nil, fmt.Errorf("%w: joint %d of %d", ErrIndexRange, index, len(t.joints))
	}
	return &t.joints[index], nil
}

// AddLink appends a link positioned by transform (world pose of the
// body frame at assembly). Adding more links than declared at
// construction is a topology violation.
func (t *Tree) AddLink(body Body, transform algebra.Transform) error {
	if t.phase != Unattached {
		return fmt.Errorf("%w: AddLink in phase %s", ErrFrozen, t.phase)
	}
	if len(t.links) >= t.totalLinks {
		return fmt.Errorf("%w: %d links declared, link %d rejected", ErrTopology, t.totalLinks, len(t.links))
	}
	t.mb.AddLink(backend.LinkSpec{Mass: body.Mass, Inertia: body.Inertia}, transform)
	t.links = append(t.links, Link{Body: body, Transform: transform})
	return nil
}

func (t *Tree) addJoint(name string, jt backend.JointType, parent, child int, pivot, axis algebra.Vec3, collide bool) (int, error) {
	if t.phase != Unattached {
		return -1, fmt.Errorf("%w: add joint in phase %s", ErrFrozen, t.phase)
	}
	if parent < 0 || parent >= len(t.links) {
		return -1, fmt.Errorf("%w: parent link %d of %d", ErrIndexRange, parent, len(t.links))
	}
	if child < 0 || child >= len(t.links) {
		return -1, fmt.Errorf("%w: child link %d of %d", ErrIndexRange, child, len(t.links))
	}
	if t.childUsed[child] {
		return -1, fmt.Errorf("%w: link %d already has a parent joint", ErrTopology, child)
	}

	id, err := t.mb.AddJoint(backend.JointSpec{
		Type: jt, Parent: parent, Child: child, Pivot: pivot, Axis: axis,
	})
	if err != nil {
		return -1, err
	}

	t.childUsed[child] = true
	t.joints = append(t.joints, Joint{
		Name: name, Type: jt, Parent: parent, Child: child,
		collide: collide, backendID: id,
	})
	return len(t.joints) - 1, nil
}

// AddRevoluteJoint hinges child to parent about axis through pivot,
// both in world coordinates at assembly time. collide keeps collision
// response between the two linked bodies enabled.
func (t *Tree) AddRevoluteJoint(name string, parent, child int, pivot, axis algebra.Vec3, collide bool) (int, error) {
	return t.addJoint(name, backend.Revolute, parent, child, pivot, axis, collide)
}

// AddPrismaticJoint connects child to parent sliding along axis (world
// coordinates at assembly time).
func (t *Tree) AddPrismaticJoint(name string, parent, child int, axis algebra.Vec3, collide bool) (int, error) {
	return t.addJoint(name, backend.Prismatic, parent, child, algebra.Vec3{}, axis, collide)
}

// AddFixedJoint rigidly attaches child to parent. The joint still
// occupies an index for feedback purposes.
func (t *Tree) AddFixedJoint(name string, parent, child int) (int, error) {
	return t.addJoint(name, backend.Fixed, parent, child, algebra.Vec3{}, algebra.Vec3{}, false)
}

// AddJointMotor attaches a motor sub-object to the joint. Fixed joints
// have no actuation axis.
func (t *Tree) AddJointMotor(index int) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if j.Type == backend.Fixed {
		return fmt.Errorf("%w: motor on fixed joint %d", ErrTopology, index)
	}
	if j.hasMotor {
		return fmt.Errorf("%w: joint %d already has a motor", ErrTopology, index)
	}
	j.motor = Motor{}
	j.hasMotor = true
	return nil
}

// AddJointLimit attaches a position limit. lower == upper is legal and
// locks the joint at that value.
func (t *Tree) AddJointLimit(index int, lower, upper float64) error {
	j, err := t.Joint(index)
	if err != nil {
		return err
	}
	if j.Type == backend.Fixed {
		return fmt.Errorf("%w: limit on fixed joint %d", ErrTopology, index)
	}
	if lower > upper {
		return fmt.Errorf("%w: limit lower %g > upper %g", ErrParameter, lower, upper)
	}
	if err := t.mb.SetJointLimit(j.backendID, lower, upper); err != nil {
		return err
	}
	j.limit = Limit{Lower: lower, Upper: upper}
	j.hasLimit = true
	return nil
}

// Attach freezes the topology and registers the tree with an enclosing
// simulation world. Every declared link must exist and every link but
// the base must have exactly one parent joint.
func (t *Tree) Attach() error {
	if t.phase != Unattached {
		return nil
	}
	if len(t.links) != t.totalLinks {
		return fmt.Errorf("%w: %d of %d links added", ErrIncomplete, len(t.links), t.totalLinks)
	}
	if len(t.joints) != len(t.links)-1 {
		return fmt.Errorf("%w: %d joints for %d links", ErrIncomplete, len(t.joints), len(t.links))
	}
	t.phase = Attached
	return nil
}

// Step advances the tree by one timestep: motor control laws are
// applied, the back end integrates, and joint feedback is refreshed.
// Gravity, damping and external forces must already have been injected
// by the caller for this step.
func (t *Tree) Step(dt float64) error {
	if t.phase == Unattached {
		if err := t.Attach(); err != nil {
			return err
		}
	}
	t.phase = Stepping

	t.applyMotors()

	if err := t.mb.Step(dt); err != nil {
		return err
	}

	t.refreshFeedback()
	for i := range t.joints {
		t.joints[i].lastDrive = t.joints[i].driveSum
		t.joints[i].driveSum = 0
	}
	return nil
}

// SetBaseTransform repositions the whole assembly. Rejected once the
// tree is stepping: teleports mid-simulation leave the solver state
// inconsistent.
func (t *Tree) SetBaseTransform(tf algebra.Transform) error {
	if t.phase == Stepping {
		return fmt.Errorf("%w: SetBaseTransform while stepping", ErrFrozen)
	}
	t.mb.SetBaseTransform(tf)
	return nil
}

func (t *Tree) SetBaseRenderable(render bool) { t.baseRenderable = render }

// SetSelfCollision toggles collision response between all links of this
// tree; honored by the enclosing collision world.
func (t *Tree) SetSelfCollision(enabled bool) { t.selfCollision = enabled }
func (t *Tree) SelfCollision() bool           { return t.selfCollision }

// Backend exposes the owned dynamics object for energy queries and
// diagnostics. Callers must not mutate topology through it.
func (t *Tree) Backend() backend.MultiBody { return t.mb }

// Renderables derives one drawable primitive per link from the current
// world transforms.
func (t *Tree) Renderables() []Renderable {
	out := make([]Renderable, 0, len(t.links))
	for i, l := range t.links {
		if i == 0 && !t.baseRenderable {
			continue
		}
		out = append(out, Renderable{
			Shape:     l.Body.Shape,
			Dims:      l.Body.Dims,
			Transform: t.mb.LinkTransform(i),
		})
	}
	return out
}

// AABB returns a conservative world-frame bounding box over all links.
func (t *Tree) AABB() (min, max algebra.Vec3) {
	for i, l := range t.links {
		p := t.mb.LinkTransform(i).P
		r := l.Body.BoundingRadius()
		lo := p.Sub(algebra.Vec3{X: r, Y: r, Z: r})
		hi := p.Add(algebra.Vec3{X: r, Y: r, Z: r})
		if i == 0 {
			min, max = lo, hi
			continue
		}
		min = min.Min(lo)
		max = max.Max(hi)
	}
	return min, max
}
