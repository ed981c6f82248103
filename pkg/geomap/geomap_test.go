package geomap

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/brushwork/pkg/encoding"
)

const sampleMap = `
entities:
  - id: 2
    properties:
      - {key: classname, value: light}
      - {key: origin, value: "0 0 64"}
  - id: 0
    properties:
      - {key: classname, value: worldspawn}
brushes:
  - id: 0
    entity: 0
    faces: [2, 1, 0]
  - id: 1
    entity: 5
    faces: [3]
faces:
  - {id: 0, texture: stone, plane: [[0, 0, 0], [0, 1, 0], [1, 0, 0]]}
  - {id: 1, texture: wood, plane: [[0, 0, 0], [1, 0, 0], [0, 0, 1]]}
  - {id: 2, texture: stone, plane: [[0, 0, 0], [0, 0, 1], [0, 1, 0]]}
  - {id: 3, texture: trigger, plane: [[0, 0, 0], [0, 1, 0], [1, 0, 0]]}
`

func TestParse(t *testing.T) {
	g, err := Parse([]byte(sampleMap))
	require.NoError(t, err)

	assert.Equal(t, []EntityID{0, 2, 5}, g.EntityIDs(), "brush owners without a record still count")
	assert.Equal(t, []BrushID{0}, g.EntityBrushes(0))
	assert.Empty(t, g.EntityBrushes(2))
	assert.Equal(t, []string{"stone", "trigger", "wood"}, g.Textures())

	b, ok := g.Brush(0)
	require.True(t, ok)
	assert.Equal(t, []FaceID{0, 1, 2}, b.Faces, "faces are sorted")

	e, ok := g.Entity(2)
	require.True(t, ok)
	assert.Equal(t, "light", e.Properties[0].Value)

	_, ok = g.Entity(5)
	assert.False(t, ok)

	f, ok := g.Face(1)
	require.True(t, ok)
	assert.Equal(t, "wood", f.Texture)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", "", ErrMalformedMap},
		{"not yaml", "entities: [", ErrMalformedMap},
		{"unknown field", "bogus: 1", ErrMalformedMap},
		{"duplicate entity", "entities: [{id: 1}, {id: 1}]", ErrDuplicateEntity},
		{"duplicate face", "faces: [{id: 1}, {id: 1}]", ErrDuplicateFace},
		{"duplicate brush", "brushes: [{id: 1}, {id: 1}]", ErrDuplicateBrush},
		{"unknown face", "brushes: [{id: 1, faces: [9]}]", ErrUnknownFace},
		{"shared face", "faces: [{id: 1}]\nbrushes: [{id: 1, faces: [1]}, {id: 2, faces: [1]}]", ErrFaceOwnership},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestWriteParse(t *testing.T) {
	g, err := Parse([]byte(sampleMap))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.Write(&buf))

	again, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, g.Faces, again.Faces)
	assert.Equal(t, g.EntityIDs(), again.EntityIDs())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir() + "/nope.yaml")
	assert.Error(t, err)
}

func TestBoxNormals(t *testing.T) {
	faces := Box(10, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{32, 32, 32}, "stone")
	require.Len(t, faces, 6)

	want := []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for i, f := range faces {
		assert.Equal(t, FaceID(10+i), f.ID)
		vecNear(t, want[i], f.Normal(), "face %d normal %v", i, f.Normal())
	}
	assert.InDelta(t, 32, faces[0].Distance(), 1e-5)
	assert.InDelta(t, 0, faces[1].Distance(), 1e-5)
}

func boxMap(t *testing.T) *GeoMap {
	t.Helper()
	g := &GeoMap{
		Entities: []Entity{{ID: 0, Properties: []Property{{Key: "classname", Value: "worldspawn"}}}},
		Brushes:  []Brush{{ID: 0, Entity: 0, Faces: []FaceID{0, 1, 2, 3, 4, 5}}},
		Faces:    Box(0, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{32, 64, 16}, "stone"),
	}
	require.NoError(t, g.Index())
	return g
}

func TestPlanesSolveBox(t *testing.T) {
	g := boxMap(t)

	geo, err := Planes{}.Solve(g, TextureSizes{"stone": {32, 32}})
	require.NoError(t, err)
	require.Len(t, geo, 6)

	for _, f := range g.Faces {
		fg, ok := geo[f.ID]
		require.True(t, ok, "face %d", f.ID)
		assert.Len(t, fg.Vertices, 4)
		assert.Len(t, fg.Indices, 6)
		assert.Len(t, fg.UVs, 4)

		n := f.Normal()
		for _, v := range fg.Vertices {
			assert.InDelta(t, f.Distance(), n.Dot(v), 1e-3, "vertex on plane")
		}
		for i := 0; i < len(fg.Indices); i += 3 {
			a, b, c := fg.Vertices[fg.Indices[i]], fg.Vertices[fg.Indices[i+1]], fg.Vertices[fg.Indices[i+2]]
			assert.Greater(t, b.Sub(a).Cross(c.Sub(a)).Dot(n), float32(0), "face %d winds counter-clockwise", f.ID)
		}
		for _, fn := range fg.Normals {
			assert.Equal(t, n, fn)
		}
	}

	// Top face projects x and -y.
	top := geo[4]
	for i, v := range top.Vertices {
		assert.InDelta(t, v.X()/32, top.UVs[i].X(), 1e-5)
		assert.InDelta(t, -v.Y()/32, top.UVs[i].Y(), 1e-5)
	}
}

func TestPlanesSolveWithoutSizeOmitsUVs(t *testing.T) {
	geo, err := Planes{}.Solve(boxMap(t), nil)
	require.NoError(t, err)
	for _, fg := range geo {
		assert.Nil(t, fg.UVs)
	}
}

func TestPlanesSolveOpenBrush(t *testing.T) {
	// Three planes do not bound a volume: no face gets a polygon.
	g := &GeoMap{
		Brushes: []Brush{{ID: 0, Faces: []FaceID{0, 2, 4}}},
		Faces:   Box(0, mgl32.Vec3{}, mgl32.Vec3{8, 8, 8}, "stone"),
	}
	require.NoError(t, g.Index())

	geo, err := Planes{}.Solve(g, nil)
	require.NoError(t, err)
	assert.Empty(t, geo)
}

func TestProjectUVAngleScaleOffset(t *testing.T) {
	f := &Face{Angle: 90, Scale: mgl32.Vec2{2, 0}, Offset: mgl32.Vec2{4, 0}}
	uv := projectUV(f, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{8, 0, 0}, [2]uint32{16, 16})
	// (u, v) = (8, 0) rotated 90 degrees is (0, 8); scale (2, 1) gives (0, 8); offset gives (4, 8).
	assert.InDelta(t, 4.0/16, uv.X(), 1e-5)
	assert.InDelta(t, 8.0/16, uv.Y(), 1e-5)
}

func TestBakedSolve(t *testing.T) {
	g := boxMap(t)
	g.Geometry = []BakedFace{{
		Face:     4,
		Vertices: []mgl32.Vec3{{0, 0, 16}, {32, 0, 16}, {32, 64, 16}},
		Indices:  []uint32{0, 1, 2},
		UVs:      []mgl32.Vec2{{0, 0}, {1, 0}},
	}}

	assert.IsType(t, Baked{}, SolverFor(g))

	geo, err := SolverFor(g).Solve(g, nil)
	require.NoError(t, err)
	require.Len(t, geo, 1)

	fg := geo[4]
	assert.Equal(t, []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}, fg.Normals, "normals come from the plane")
	assert.Nil(t, fg.UVs, "partial uvs are dropped")
}

func TestBakedSolveErrors(t *testing.T) {
	tests := []struct {
		name string
		geo  []BakedFace
		want error
	}{
		{"unknown face", []BakedFace{{Face: 99}}, ErrUnknownFace},
		{"duplicate", []BakedFace{{Face: 1}, {Face: 1}}, ErrDuplicateFace},
		{"bad index count", []BakedFace{{Face: 1, Vertices: make([]mgl32.Vec3, 3), Indices: []uint32{0, 1}}}, ErrMalformedMap},
		{"index range", []BakedFace{{Face: 1, Vertices: make([]mgl32.Vec3, 3), Indices: []uint32{0, 1, 3}}}, ErrMalformedMap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := boxMap(t)
			g.Geometry = tt.geo
			_, err := Baked{}.Solve(g, nil)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSolverForPlanes(t *testing.T) {
	assert.IsType(t, Planes{}, SolverFor(boxMap(t)))
}

func TestLoadCharset(t *testing.T) {
	legacy := strings.Replace(sampleMap, "value: light", "value: \"caf\xe9\"", 1)
	path := filepath.Join(t.TempDir(), "legacy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	g, err := LoadCharset(path, "windows-1252")
	require.NoError(t, err)
	var names []string
	for _, e := range g.Entities {
		for _, p := range e.Properties {
			if p.Key == "classname" {
				names = append(names, p.Value)
			}
		}
	}
	assert.Contains(t, names, "café")

	_, err = LoadCharset(path, "nope")
	assert.ErrorIs(t, err, encoding.ErrUnknownCharset)
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
