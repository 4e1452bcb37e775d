// Package multibody builds and simulates tree-structured rigid-body
// systems: robot links connected by revolute, prismatic and fixed
// joints, solved by an articulated-body dynamics back end.
//
// A [Tree] is assembled incrementally: the base link at construction,
// one [Tree.AddLink] per further link, then one joint call per link to
// attach it to its parent, then optional motors and limits. Once the
// tree is attached to a simulation world the topology is frozen; only
// continuous state and actuation parameters may change.
//
// Per simulation step the caller injects gravity, damping and external
// forces, the back end integrates once, and the updated link and joint
// state (including per-joint reaction feedback) can be queried:
//
//	tree, _ := multibody.New("arm", 2, base, algebra.IdentityTransform(), true)
//	tree.AddLink(upper, pose)
//	tree.AddRevoluteJoint("shoulder", 0, 1, pivot, axis, false)
//	tree.ApplyGravity(g)
//	tree.ApplyDamping()
//	tree.Step(dt)
//	q, _, _ := tree.JointPosition(0)
//
// Trees are not safe for concurrent use; a host running several trees
// in parallel must give each its own instance.
package multibody
