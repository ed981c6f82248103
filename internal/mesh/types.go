// Package mesh holds triangle-list mesh data for brush faces and render batches,
// and the operations the build needs on it: merge, transform, bounds, tangents.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle list. Positions and Normals are always parallel;
// UVs and Tangents are either empty or parallel to Positions.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Tangents  []mgl32.Vec4 // xyz tangent, w handedness
	Indices   []uint32
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the box midpoint.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// BoundsOf returns the bounds of a point set, or false for an empty set.
func BoundsOf(points []mgl32.Vec3) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Extend(p)
	}
	return b, true
}
