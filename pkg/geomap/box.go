package geomap

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Box returns the six faces of an axis-aligned box between min and max, with
// ids starting at first, in the order +X, -X, +Y, -Y, +Z, -Z. Every face gets
// texture and unit scale.
func Box(first FaceID, min, max mgl32.Vec3, texture string) []Face {
	faces := make([]Face, 0, 6)
	for axis := 0; axis < 3; axis++ {
		next := mgl32.Vec3{}
		next[(axis+1)%3] = 1
		after := mgl32.Vec3{}
		after[(axis+2)%3] = 1

		for _, positive := range []bool{true, false} {
			p0 := min
			// p1 = p0 + a and p2 = p0 + b with b x a along the outward normal.
			a, b := after, next
			if positive {
				p0[axis] = max[axis]
			} else {
				a, b = next, after
			}
			faces = append(faces, Face{
				ID:      first + FaceID(len(faces)),
				Texture: texture,
				Plane:   [3]mgl32.Vec3{p0, p0.Add(a), p0.Add(b)},
				Scale:   mgl32.Vec2{1, 1},
			})
		}
	}
	return faces
}
