// Package scene is the host scene graph the map build writes into: a tree of
// nodes, each with a local transform and a set of typed components.
//
// Components are keyed by their struct type, so a node holds at most one
// component of each type. Queries iterate in ascending node id order, which is
// spawn order, keeping every pass over the graph deterministic.
package scene

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeID identifies a node. The zero value is never assigned.
type NodeID uint64

// None is the absent node id.
const None NodeID = 0

// Transform is a node's position, rotation and scale relative to its parent.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// FromTranslation returns an identity transform moved to p.
func FromTranslation(p mgl32.Vec3) Transform {
	t := Identity()
	t.Position = p
	return t
}

// FromTranslationRotation returns a transform at p rotated by r.
func FromTranslationRotation(p mgl32.Vec3, r mgl32.Quat) Transform {
	t := FromTranslation(p)
	t.Rotation = r
	return t
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

type node struct {
	parent     NodeID
	children   []NodeID
	local      Transform
	components map[reflect.Type]any
}

// World owns every node. It is single-writer: callers must not mutate it from
// more than one goroutine.
type World struct {
	nodes  map[NodeID]*node
	nextID NodeID
}

// NewWorld creates an empty scene graph.
func NewWorld() *World {
	return &World{
		nodes:  make(map[NodeID]*node),
		nextID: 1,
	}
}

// Spawn creates a node under parent (None for a top-level node) with an identity
// transform and the given components.
func (w *World) Spawn(parent NodeID, components ...any) NodeID {
	return w.SpawnAt(parent, Identity(), components...)
}

// SpawnAt creates a node under parent with a local transform.
// Spawning under a node that does not exist panics; the build only spawns
// under nodes it created in the same cycle.
func (w *World) SpawnAt(parent NodeID, local Transform, components ...any) NodeID {
	if parent != None {
		if _, ok := w.nodes[parent]; !ok {
			panic(fmt.Sprintf("scene: spawn under missing node %d", parent))
		}
	}

	id := w.nextID
	w.nextID++

	n := &node{
		parent:     parent,
		local:      local,
		components: make(map[reflect.Type]any, len(components)),
	}
	w.nodes[id] = n
	if parent != None {
		p := w.nodes[parent]
		p.children = append(p.children, id)
	}

	Insert(w, id, components...)
	return id
}

// Exists reports whether the node is alive.
func (w *World) Exists(id NodeID) bool {
	_, ok := w.nodes[id]
	return ok
}

// Len returns the number of live nodes.
func (w *World) Len() int {
	return len(w.nodes)
}

// Parent returns the node's parent, or false for top-level or missing nodes.
func (w *World) Parent(id NodeID) (NodeID, bool) {
	n, ok := w.nodes[id]
	if !ok || n.parent == None {
		return None, false
	}
	return n.parent, true
}

// Children returns a copy of the node's children in spawn order.
func (w *World) Children(id NodeID) []NodeID {
	n, ok := w.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.children)
}

// Descendants returns every node below id in depth-first pre-order.
func (w *World) Descendants(id NodeID) []NodeID {
	var out []NodeID
	var walk func(NodeID)
	walk = func(cur NodeID) {
		n, ok := w.nodes[cur]
		if !ok {
			return
		}
		for _, c := range n.children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// Local returns the node's local transform.
func (w *World) Local(id NodeID) (Transform, bool) {
	n, ok := w.nodes[id]
	if !ok {
		return Identity(), false
	}
	return n.local, true
}

// SetLocal replaces the node's local transform. Missing nodes are ignored.
func (w *World) SetLocal(id NodeID, t Transform) {
	if n, ok := w.nodes[id]; ok {
		n.local = t
	}
}

// WorldMatrix composes local transforms from the top-level ancestor down to id.
// It returns identity and false when id no longer exists.
func (w *World) WorldMatrix(id NodeID) (mgl32.Mat4, bool) {
	n, ok := w.nodes[id]
	if !ok {
		return mgl32.Ident4(), false
	}
	m := n.local.Matrix()
	for p := n.parent; p != None; {
		pn, ok := w.nodes[p]
		if !ok {
			break
		}
		m = pn.local.Matrix().Mul4(m)
		p = pn.parent
	}
	return m, true
}

// Despawn removes the node and its whole subtree.
func (w *World) Despawn(id NodeID) {
	n, ok := w.nodes[id]
	if !ok {
		return
	}
	w.DespawnDescendants(id)
	if p, ok := w.nodes[n.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
	}
	delete(w.nodes, id)
}

// DespawnDescendants removes every node below id, keeping id itself.
func (w *World) DespawnDescendants(id NodeID) {
	n, ok := w.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		w.despawnTree(c)
	}
	n.children = nil
}

func (w *World) despawnTree(id NodeID) {
	n, ok := w.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		w.despawnTree(c)
	}
	delete(w.nodes, id)
}
