package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/brushwork/internal/mesh"
)

func TestMaterialHandleFor(t *testing.T) {
	a := MaterialHandleFor("stone")
	assert.Equal(t, a, MaterialHandleFor("stone"))
	assert.NotEqual(t, a, MaterialHandleFor("wood"))
	assert.NotEqual(t, NilMaterial, a)
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceURL, []byte("materials/stone")).String(), a.String())
}

func TestRegistryMeshes(t *testing.T) {
	r := NewRegistry()
	m := mesh.New([]mgl32.Vec3{{0, 0, 0}}, []mgl32.Vec3{{0, 1, 0}}, nil)

	h := r.AddMesh(m)
	assert.NotZero(t, h)
	h2 := r.AddMesh(m)
	assert.NotEqual(t, h, h2)
	assert.Equal(t, 2, r.MeshCount())

	got, ok := r.Mesh(h)
	require.True(t, ok)
	assert.Same(t, m, got)

	r.RemoveMesh(h)
	_, ok = r.Mesh(h)
	assert.False(t, ok)
	assert.Equal(t, 1, r.MeshCount())
}

func TestRegistryMaterials(t *testing.T) {
	r := NewRegistry()
	h := MaterialHandleFor("stone")

	_, ok := r.Material(h)
	assert.False(t, ok)

	mat := &Material{Name: "stone", BaseColorTexture: &Texture{Path: "textures/stone.png"}}
	r.SetMaterial(h, mat)
	got, ok := r.Material(h)
	require.True(t, ok)
	assert.Same(t, mat, got)
	assert.Len(t, got.Textures(), 1)
}

func TestAlphaModeString(t *testing.T) {
	assert.Equal(t, "opaque", AlphaOpaque.String())
	assert.Equal(t, "mask", AlphaMask.String())
}
