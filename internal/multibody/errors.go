package multibody

import "errors"

// Construction-time violations fail fast: they indicate a broken model
// assembly, not a runtime condition to recover from.
var (
	// ErrIndexRange indicates a joint or link index outside the current count.
	ErrIndexRange = errors.New("multibody: index out of range")

	// ErrTopology indicates an operation that would break the tree
	// structure: a second parent for a link, more links than declared,
	// actuation attached to a fixed joint.
	ErrTopology = errors.New("multibody: topology violation")

	// ErrParameter indicates a physically meaningless parameter value.
	ErrParameter = errors.New("multibody: invalid parameter")

	// ErrFrozen indicates a topology mutation after the tree was
	// attached to a simulation world.
	ErrFrozen = errors.New("multibody: topology frozen after attach")

	// ErrIncomplete indicates an attach attempt before every declared
	// link was added and connected.
	ErrIncomplete = errors.New("multibody: tree incomplete")
)
