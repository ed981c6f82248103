package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushwork/internal/mesh"
	"github.com/Faultbox/brushwork/internal/scene"
)

// ConvexEngine is the reference Engine. It keeps the deduplicated point cloud
// as the hull and stores components directly on the scene graph.
type ConvexEngine struct {
	// Epsilon is the distance under which two points are merged, and the
	// minimum height of a tetrahedron for the set to count as a volume.
	Epsilon     float32
	Friction    float32
	Restitution float32
}

// NewConvexEngine returns an engine with default tolerances.
func NewConvexEngine() *ConvexEngine {
	return &ConvexEngine{
		Epsilon:     1e-4,
		Friction:    0.5,
		Restitution: 0,
	}
}

// ConvexHull implements Engine.
func (e *ConvexEngine) ConvexHull(points []mgl32.Vec3) (*ConvexHull, bool) {
	eps := e.Epsilon
	if eps <= 0 {
		eps = 1e-4
	}

	unique := dedup(points, eps)
	if len(unique) < 4 || !spansVolume(unique, eps) {
		return nil, false
	}

	b, _ := mesh.BoundsOf(unique)
	return &ConvexHull{Points: unique, Bounds: b}, true
}

// AttachStatic implements Engine.
func (e *ConvexEngine) AttachStatic(w *scene.World, id scene.NodeID, hull *ConvexHull) {
	scene.Insert(w, id,
		RigidBodyComponent{Kind: BodyStatic},
		e.collider(hull),
	)
}

// AttachSensor implements Engine.
func (e *ConvexEngine) AttachSensor(w *scene.World, id scene.NodeID, hull *ConvexHull) {
	scene.Insert(w, id,
		RigidBodyComponent{Kind: BodySensor},
		e.collider(hull),
		SensorComponent{},
	)
}

func (e *ConvexEngine) collider(hull *ConvexHull) ColliderComponent {
	return ColliderComponent{
		Shape:       ShapeConvexHull,
		Hull:        hull,
		Friction:    e.Friction,
		Restitution: e.Restitution,
	}
}

// Sensors returns the sensor nodes whose hull contains the world point p.
func Sensors(w *scene.World, p mgl32.Vec3) []scene.NodeID {
	var hits []scene.NodeID
	scene.Each(w, func(id scene.NodeID, c *ColliderComponent) {
		if !scene.Has[SensorComponent](w, id) || c.Hull == nil {
			return
		}
		m, ok := w.WorldMatrix(id)
		if !ok {
			return
		}
		local := mgl32.TransformCoordinate(p, m.Inv())
		if c.Hull.Contains(local) {
			hits = append(hits, id)
		}
	})
	return hits
}

func dedup(points []mgl32.Vec3, eps float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, len(points))
	for _, p := range points {
		dup := false
		for _, q := range out {
			if p.Sub(q).Len() <= eps {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

// spansVolume reports whether the points are neither collinear nor coplanar.
func spansVolume(points []mgl32.Vec3, eps float32) bool {
	a := points[0]

	// farthest point from a
	var b mgl32.Vec3
	best := float32(0)
	for _, p := range points[1:] {
		if d := p.Sub(a).Len(); d > best {
			best, b = d, p
		}
	}
	if best <= eps {
		return false
	}
	ab := b.Sub(a)

	// farthest point from the line ab
	var c mgl32.Vec3
	best = 0
	for _, p := range points {
		if d := ab.Cross(p.Sub(a)).Len() / ab.Len(); d > best {
			best, c = d, p
		}
	}
	if best <= eps {
		return false
	}

	// farthest point from the plane abc
	n := ab.Cross(c.Sub(a)).Normalize()
	for _, p := range points {
		d := n.Dot(p.Sub(a))
		if d < 0 {
			d = -d
		}
		if d > eps {
			return true
		}
	}
	return false
}
