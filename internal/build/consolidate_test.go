package build

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/brushwork/internal/mesh"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/internal/scene"
)

// triangleAt returns a single triangle whose bounds are centered on c.
func triangleAt(c mgl32.Vec3) *mesh.Mesh {
	d := mgl32.Vec3{1, 1, 1}
	return &mesh.Mesh{
		Positions: []mgl32.Vec3{c.Sub(d), c.Add(d), c},
		Normals:   []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
	}
}

func TestConsolidatorBuckets(t *testing.T) {
	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	entity := w.Spawn(root)
	reg := render.NewRegistry()
	c := NewConsolidator(50, reg)

	stone := render.MaterialHandleFor("stone")
	event := func(at mgl32.Vec3) SpawnMeshEvent {
		return SpawnMeshEvent{Map: root, Brush: entity, Mesh: triangleAt(at), Material: stone, TextureName: "stone"}
	}

	batches, markers := c.Run(w, []SpawnMeshEvent{
		event(mgl32.Vec3{10, 10, 10}),
		event(mgl32.Vec3{40, 10, 10}),
		event(mgl32.Vec3{60, 10, 10}),
	})

	require.Len(t, batches, 2)
	assert.Equal(t, Cell{0, 0, 0}, batches[0].Cell)
	assert.Equal(t, 2, batches[0].Sources)
	assert.Equal(t, 6, batches[0].Vertices)
	assert.Equal(t, Cell{1, 0, 0}, batches[1].Cell)
	assert.Equal(t, 1, batches[1].Sources)
	assert.Equal(t, 1, markers)
	assert.Equal(t, 2, reg.MeshCount())

	for _, b := range batches {
		parent, _ := w.Parent(b.Node)
		assert.Equal(t, root, parent, "no collider, so batches hang off the map root")
	}
}

func TestConsolidatorSplitsOnMaterialAndEntity(t *testing.T) {
	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	a := w.Spawn(root)
	b := w.Spawn(root)
	c := NewConsolidator(0, nil)
	assert.Equal(t, DefaultCellSize, c.CellSize)

	at := mgl32.Vec3{1, 1, 1}
	batches, markers := c.Run(w, []SpawnMeshEvent{
		{Map: root, Brush: a, Mesh: triangleAt(at), Material: render.MaterialHandleFor("stone")},
		{Map: root, Brush: a, Mesh: triangleAt(at), Material: render.MaterialHandleFor("wood")},
		{Map: root, Brush: b, Mesh: triangleAt(at), Material: render.MaterialHandleFor("stone")},
	})
	assert.Len(t, batches, 3)
	assert.Zero(t, markers)
}

func TestConsolidatorMergesInFirstFrame(t *testing.T) {
	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	entity := w.Spawn(root)
	first := w.SpawnAt(entity, scene.FromTranslation(mgl32.Vec3{2, 0, 0}))
	second := w.SpawnAt(entity, scene.FromTranslation(mgl32.Vec3{7, 0, 0}))
	reg := render.NewRegistry()
	c := NewConsolidator(50, reg)

	mat := render.MaterialHandleFor("stone")
	batches, markers := c.Run(w, []SpawnMeshEvent{
		{Map: root, Brush: entity, Collider: first, Mesh: triangleAt(mgl32.Vec3{}), Material: mat, TextureName: "stone"},
		{Map: root, Brush: entity, Collider: second, Mesh: triangleAt(mgl32.Vec3{}), Material: mat, TextureName: "stone"},
	})
	require.Len(t, batches, 1)
	assert.Equal(t, 1, markers)

	parent, _ := w.Parent(batches[0].Node)
	assert.Equal(t, first, parent)

	m, ok := reg.Mesh(batches[0].Mesh)
	require.True(t, ok)
	// The second triangle sits 5 units further along X in the first frame.
	vecNear(t, mgl32.Vec3{5, 0, 0}, m.Positions[5], "got %v", m.Positions[5])

	// The marker sits at the second collider's origin, not offset again.
	children := w.Children(second)
	require.Len(t, children, 1)
	local, _ := w.Local(children[0])
	assert.Equal(t, scene.Identity(), local)
	markerWorld, ok := w.WorldMatrix(children[0])
	require.True(t, ok)
	vecNear(t, mgl32.Vec3{7, 0, 0}, markerWorld.Col(3).Vec3())
	marker, ok := scene.Get[Brush](w, children[0])
	require.True(t, ok)
	assert.Equal(t, "stone", marker.TextureName)
}

func TestConsolidatorStaleReference(t *testing.T) {
	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	entity := w.Spawn(root)
	moved := w.SpawnAt(root, scene.FromTranslation(mgl32.Vec3{500, 0, 0}))
	w.Despawn(moved)

	c := NewConsolidator(50, render.NewRegistry())
	batches, _ := c.Run(w, []SpawnMeshEvent{{
		Map:      root,
		Brush:    entity,
		Collider: moved,
		Mesh:     triangleAt(mgl32.Vec3{10, 10, 10}),
		Material: render.MaterialHandleFor("stone"),
	}})

	require.Len(t, batches, 1)
	assert.Equal(t, Cell{0, 0, 0}, batches[0].Cell, "identity frame, not the stale translation")
	parent, _ := w.Parent(batches[0].Node)
	assert.Equal(t, root, parent)
}

func TestConsolidatorNoMapRootLeft(t *testing.T) {
	w := scene.NewWorld()
	c := NewConsolidator(50, nil)
	batches, _ := c.Run(w, []SpawnMeshEvent{{
		Map:  scene.NodeID(42),
		Mesh: triangleAt(mgl32.Vec3{}),
	}})
	require.Len(t, batches, 1)
	_, hasParent := w.Parent(batches[0].Node)
	assert.False(t, hasParent)
	assert.Zero(t, batches[0].Mesh)
}
