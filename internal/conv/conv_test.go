package conv

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

// vecNear compares component-wise with an absolute tolerance.
func vecNear(t *testing.T, want, got mgl32.Vec3, msgAndArgs ...interface{}) {
	t.Helper()
	if len(msgAndArgs) == 0 {
		msgAndArgs = []interface{}{"want %v, got %v", want, got}
	}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, msgAndArgs...)
	}
}

func TestPositionAxisMapping(t *testing.T) {
	b := NewBasis(1)

	tests := []struct {
		name string
		in   mgl32.Vec3
		want mgl32.Vec3
	}{
		{"forward", mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{"left", mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1}},
		{"up", mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{"mixed", mgl32.Vec3{2, 3, 4}, mgl32.Vec3{2, 4, -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vecNear(t, tt.want, b.Position(tt.in))
		})
	}
}

func TestPositionAppliesUnits(t *testing.T) {
	b := NewBasis(32)
	vecNear(t, mgl32.Vec3{1, 2, -0.5}, b.Position(mgl32.Vec3{32, 16, 64}))
}

func TestNewBasisDefaultsUnits(t *testing.T) {
	assert.Equal(t, DefaultUnitsPerMeter, NewBasis(0).UnitsPerMeter)
	assert.Equal(t, DefaultUnitsPerMeter, NewBasis(-4).UnitsPerMeter)

	// A zero-value Basis must not divide by zero.
	vecNear(t, mgl32.Vec3{1, 0, 0}, Basis{}.Position(mgl32.Vec3{32, 0, 0}))
}

func TestDirectionIgnoresUnits(t *testing.T) {
	b := NewBasis(32)
	vecNear(t, mgl32.Vec3{0, 1, 0}, b.Direction(mgl32.Vec3{0, 0, 1}))
}

func TestSlicesDoNotAlias(t *testing.T) {
	b := NewBasis(1)
	in := []mgl32.Vec3{{0, 1, 0}}
	out := b.Positions(in)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, in[0])
	vecNear(t, mgl32.Vec3{0, 0, -1}, out[0])

	dirs := b.Directions(in)
	vecNear(t, mgl32.Vec3{0, 0, -1}, dirs[0])
}

func TestRotation(t *testing.T) {
	b := NewBasis(1)
	forward := b.Direction(mgl32.Vec3{1, 0, 0})

	t.Run("identity", func(t *testing.T) {
		q := b.Rotation(mgl32.Vec3{0, 0, 0})
		vecNear(t, forward, q.Rotate(forward))
	})

	t.Run("yaw 90 turns forward to left", func(t *testing.T) {
		q := b.Rotation(mgl32.Vec3{0, 90, 0})
		left := b.Direction(mgl32.Vec3{0, 1, 0})
		vecNear(t, left, q.Rotate(forward))
	})

	t.Run("pitch 90 looks down", func(t *testing.T) {
		q := b.Rotation(mgl32.Vec3{90, 0, 0})
		down := b.Direction(mgl32.Vec3{0, 0, -1})
		vecNear(t, down, q.Rotate(forward))
	})

	t.Run("matches rotated map vector", func(t *testing.T) {
		// Rotating in map space and converting must equal converting and rotating.
		yaw := mgl32.DegToRad(30)
		mapRot := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 0, 1})
		v := mgl32.Vec3{1, 2, 3}
		want := b.Direction(mapRot.Rotate(v))
		got := b.Rotation(mgl32.Vec3{0, 30, 0}).Rotate(b.Direction(v))
		vecNear(t, want, got)
	})
}
