package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tag struct{ Name string }
type counter struct{ N int }

func TestSpawnHierarchy(t *testing.T) {
	w := NewWorld()
	root := w.Spawn(None, tag{"root"})
	a := w.Spawn(root, tag{"a"})
	b := w.Spawn(root)
	aa := w.Spawn(a)

	assert.Equal(t, []NodeID{a, b}, w.Children(root))
	assert.Equal(t, []NodeID{a, aa, b}, w.Descendants(root))

	p, ok := w.Parent(aa)
	require.True(t, ok)
	assert.Equal(t, a, p)

	_, ok = w.Parent(root)
	assert.False(t, ok)
	assert.Equal(t, 4, w.Len())
}

func TestSpawnUnderMissingPanics(t *testing.T) {
	w := NewWorld()
	assert.Panics(t, func() { w.Spawn(NodeID(42)) })
}

func TestComponents(t *testing.T) {
	w := NewWorld()
	id := w.Spawn(None, tag{"x"})

	got, ok := Get[tag](w, id)
	require.True(t, ok)
	assert.Equal(t, "x", got.Name)

	// Mutations through the pointer persist.
	got.Name = "y"
	again, _ := Get[tag](w, id)
	assert.Equal(t, "y", again.Name)

	// Pointer components are stored as-is.
	c := &counter{N: 1}
	Insert(w, id, c)
	c.N = 5
	stored, ok := Get[counter](w, id)
	require.True(t, ok)
	assert.Equal(t, 5, stored.N)

	// Replacing keeps one component per type.
	Insert(w, id, tag{"z"})
	again, _ = Get[tag](w, id)
	assert.Equal(t, "z", again.Name)

	Remove[counter](w, id)
	assert.False(t, Has[counter](w, id))
	assert.True(t, Has[tag](w, id))

	assert.Panics(t, func() { Insert(w, id, 3) })
}

func TestEachOrderAndDespawnDuringIteration(t *testing.T) {
	w := NewWorld()
	root := w.Spawn(None)
	first := w.Spawn(root, counter{1})
	second := w.Spawn(root, counter{2})
	third := w.Spawn(root, counter{3})

	assert.Equal(t, []NodeID{first, second, third}, Query[counter](w))

	var seen []int
	Each(w, func(id NodeID, c *counter) {
		seen = append(seen, c.N)
		if id == first {
			w.Despawn(second)
		}
	})
	assert.Equal(t, []int{1, 3}, seen)
}

func TestDespawnDescendants(t *testing.T) {
	w := NewWorld()
	root := w.Spawn(None)
	child := w.Spawn(root)
	grandchild := w.Spawn(child)

	w.DespawnDescendants(root)

	assert.True(t, w.Exists(root))
	assert.False(t, w.Exists(child))
	assert.False(t, w.Exists(grandchild))
	assert.Empty(t, w.Children(root))
	assert.Equal(t, 1, w.Len())

	// New ids never reuse old ones.
	again := w.Spawn(root)
	assert.Greater(t, uint64(again), uint64(grandchild))
}

func TestDespawnDetachesFromParent(t *testing.T) {
	w := NewWorld()
	root := w.Spawn(None)
	a := w.Spawn(root)
	b := w.Spawn(root)

	w.Despawn(a)
	assert.Equal(t, []NodeID{b}, w.Children(root))
}

func TestWorldMatrix(t *testing.T) {
	w := NewWorld()
	root := w.SpawnAt(None, FromTranslation(mgl32.Vec3{10, 0, 0}))
	rot := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	child := w.SpawnAt(root, FromTranslationRotation(mgl32.Vec3{0, 0, -1}, rot))

	m, ok := w.WorldMatrix(child)
	require.True(t, ok)

	// Child-local +X rotates to -Z, then offsets by the child and root translations.
	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, m)
	vecNear(t, mgl32.Vec3{10, 0, -2}, p, "got %v", p)

	m, ok = w.WorldMatrix(NodeID(999))
	assert.False(t, ok)
	assert.Equal(t, mgl32.Ident4(), m)
}

func TestLocal(t *testing.T) {
	w := NewWorld()
	id := w.Spawn(None)

	local, ok := w.Local(id)
	require.True(t, ok)
	assert.Equal(t, Identity(), local)

	w.SetLocal(id, FromTranslation(mgl32.Vec3{1, 2, 3}))
	local, _ = w.Local(id)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, local.Position)

	w.SetLocal(NodeID(77), Identity())
	_, ok = w.Local(NodeID(77))
	assert.False(t, ok)
}

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
