// Package conv converts map-space values into the world basis.
//
// Map space is the editor convention: X forward, Y left, Z up, measured in map
// units. World space is Y up with Z pointing back, measured in world units.
// Every position, direction and rotation read from map data goes through a
// Basis so point entities, brush vertices and mover offsets share one frame.
//
// Axis mapping (applied once, here):
//
//	world.X =  map.X
//	world.Y =  map.Z
//	world.Z = -map.Y
package conv

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultUnitsPerMeter matches the editor grid: 32 map units make one world unit.
const DefaultUnitsPerMeter float32 = 32

// axes holds the map->world mapping as column-major columns: the images of the
// map X, Y and Z unit vectors.
var axes = mgl32.Mat3{
	1, 0, 0,
	0, 0, -1,
	0, 1, 0,
}

// Basis converts map-space data into world space.
type Basis struct {
	UnitsPerMeter float32
}

// NewBasis returns a Basis, falling back to DefaultUnitsPerMeter for non-positive scales.
func NewBasis(unitsPerMeter float32) Basis {
	if unitsPerMeter <= 0 {
		unitsPerMeter = DefaultUnitsPerMeter
	}
	return Basis{UnitsPerMeter: unitsPerMeter}
}

// Position converts a map-space point into world space, applying the unit scale.
func (b Basis) Position(v mgl32.Vec3) mgl32.Vec3 {
	return axes.Mul3x1(v).Mul(1 / b.scale())
}

// Positions converts a slice of points. The input is not modified.
func (b Basis) Positions(vs []mgl32.Vec3) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(vs))
	for i, v := range vs {
		out[i] = b.Position(v)
	}
	return out
}

// Direction converts a map-space direction (normal, axis) without scaling.
func (b Basis) Direction(v mgl32.Vec3) mgl32.Vec3 {
	return axes.Mul3x1(v)
}

// Directions converts a slice of directions. The input is not modified.
func (b Basis) Directions(vs []mgl32.Vec3) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(vs))
	for i, v := range vs {
		out[i] = b.Direction(v)
	}
	return out
}

// Rotation converts editor "pitch yaw roll" angles in degrees into a world rotation.
// Yaw turns about map up, pitch about map left, roll about map forward, applied
// in that order.
func (b Basis) Rotation(angles mgl32.Vec3) mgl32.Quat {
	pitch := mgl32.DegToRad(angles[0])
	yaw := mgl32.DegToRad(angles[1])
	roll := mgl32.DegToRad(angles[2])

	// Rotations about map axes become rotations about their world images:
	// map Z -> world Y, map Y -> world -Z, map X -> world X.
	qYaw := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})
	qPitch := mgl32.QuatRotate(-pitch, mgl32.Vec3{0, 0, 1})
	qRoll := mgl32.QuatRotate(roll, mgl32.Vec3{1, 0, 0})

	return qYaw.Mul(qPitch).Mul(qRoll).Normalize()
}

func (b Basis) scale() float32 {
	if b.UnitsPerMeter <= 0 {
		return DefaultUnitsPerMeter
	}
	return b.UnitsPerMeter
}
