// Package physics is the collision port the map build talks to, plus a
// reference engine that stores convex point-cloud colliders on scene nodes.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushwork/internal/mesh"
	"github.com/Faultbox/brushwork/internal/scene"
)

// ColliderShape identifies the geometry a ColliderComponent carries.
type ColliderShape int

const (
	// ShapeConvexHull is a convex point cloud.
	ShapeConvexHull ColliderShape = iota
)

// BodyKind says how a rigid body takes part in collision.
type BodyKind int

const (
	// BodyStatic never moves and blocks other bodies.
	BodyStatic BodyKind = iota
	// BodySensor detects overlaps without blocking.
	BodySensor
)

// String returns the lowercase kind name.
func (k BodyKind) String() string {
	switch k {
	case BodyStatic:
		return "static"
	case BodySensor:
		return "sensor"
	default:
		return "unknown"
	}
}

// ConvexHull is a convex collision volume given by its points, in the local
// frame of the node that carries it.
type ConvexHull struct {
	Points []mgl32.Vec3
	Bounds mesh.Bounds
}

// Contains reports whether p lies inside the hull's bounds.
func (h *ConvexHull) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < h.Bounds.Min[i] || p[i] > h.Bounds.Max[i] {
			return false
		}
	}
	return true
}

// RigidBodyComponent marks a node as a physics body of the given kind.
type RigidBodyComponent struct {
	Kind BodyKind
}

// ColliderComponent is the collision shape of a body, with its surface
// response.
type ColliderComponent struct {
	Shape       ColliderShape
	Hull        *ConvexHull
	Friction    float32
	Restitution float32
}

// SensorComponent tags a collider that reports overlaps instead of blocking.
type SensorComponent struct{}

// Engine is the collision port. Build code never branches on which Engine it
// was handed.
type Engine interface {
	// ConvexHull builds a volume from a point cloud, or returns false when the
	// points do not enclose any volume.
	ConvexHull(points []mgl32.Vec3) (*ConvexHull, bool)
	// AttachStatic makes the node a solid, immovable collider.
	AttachStatic(w *scene.World, id scene.NodeID, hull *ConvexHull)
	// AttachSensor makes the node a non-blocking overlap volume.
	AttachSensor(w *scene.World, id scene.NodeID, hull *ConvexHull)
}
