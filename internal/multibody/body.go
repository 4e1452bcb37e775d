package multibody

import (
	"math"

	"github.com/vortexntnu/stonefish/internal/algebra"
)

type Shape int

const (
	Box Shape = iota
	Cylinder
	Sphere
	Capsule
)

func (s Shape) String() string {
	switch s {
	case Box:
		return "box"
	case Cylinder:
		return "cylinder"
	case Sphere:
		return "sphere"
	case Capsule:
		return "capsule"
	}
	return "unknown"
}

// Body holds the mass properties and collision/render geometry of one
// rigid link. The body frame has its origin at the center of mass;
// Inertia holds the principal moments about it. Dims is interpreted per
// shape: full extents for a box, (radius, height, radius) for cylinders
// and capsules, (radius, radius, radius) for spheres.
type Body struct {
	Name    string
	Mass    float64
	Inertia algebra.Vec3
	Shape   Shape
	Dims    algebra.Vec3
}

// BoundingRadius is a conservative sphere bound used for AABB queries.
func (b Body) BoundingRadius() float64 {
	switch b.Shape {
	case Sphere:
		return b.Dims.X
	case Cylinder, Capsule:
		h := b.Dims.Y / 2
		if b.Shape == Capsule {
			h += b.Dims.X
		}
		return math.Hypot(b.Dims.X, h)
	default:
		return b.Dims.Scale(0.5).Norm()
	}
}

// Renderable is one drawable primitive handed to the rendering
// collaborator: a shape, its dimensions and its current world pose.
type Renderable struct {
	Shape     Shape
	Dims      algebra.Vec3
	Transform algebra.Transform
}
