package mesh

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Tangent generation errors.
var (
	ErrNoUVs          = errors.New("mesh has no texture coordinates")
	ErrNotTriangles   = errors.New("index count is not a multiple of 3")
	ErrIndexRange     = errors.New("index out of range")
	ErrAttributeCount = errors.New("attribute count does not match positions")
)

// New creates a mesh from positions, normals and a triangle index list.
func New(positions, normals []mgl32.Vec3, indices []uint32) *Mesh {
	return &Mesh{
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Empty reports whether the mesh has no vertices.
func (m *Mesh) Empty() bool {
	return len(m.Positions) == 0
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: slices.Clone(m.Positions),
		Normals:   slices.Clone(m.Normals),
		UVs:       slices.Clone(m.UVs),
		Tangents:  slices.Clone(m.Tangents),
		Indices:   slices.Clone(m.Indices),
	}
}

// Validate checks attribute lengths and index bounds.
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	if len(m.Normals) != n {
		return fmt.Errorf("normals: %w", ErrAttributeCount)
	}
	if len(m.UVs) != 0 && len(m.UVs) != n {
		return fmt.Errorf("uvs: %w", ErrAttributeCount)
	}
	if len(m.Tangents) != 0 && len(m.Tangents) != n {
		return fmt.Errorf("tangents: %w", ErrAttributeCount)
	}
	if len(m.Indices)%3 != 0 {
		return ErrNotTriangles
	}
	for _, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: %d >= %d", ErrIndexRange, idx, n)
		}
	}
	return nil
}

// SetNormals overwrites every normal with n.
func (m *Mesh) SetNormals(n mgl32.Vec3) {
	for i := range m.Normals {
		m.Normals[i] = n
	}
}

// Merge appends other's vertices and indices, offsetting other's indices by the
// current vertex count. An optional attribute (UVs, tangents) survives only when
// both sides carry it; merging into an empty mesh adopts other's attributes.
func (m *Mesh) Merge(other *Mesh) {
	if other == nil || other.Empty() {
		return
	}
	if m.Empty() {
		*m = *other.Clone()
		return
	}

	base := uint32(len(m.Positions))

	if len(m.UVs) > 0 && len(other.UVs) > 0 {
		m.UVs = append(m.UVs, other.UVs...)
	} else {
		m.UVs = nil
	}
	if len(m.Tangents) > 0 && len(other.Tangents) > 0 {
		m.Tangents = append(m.Tangents, other.Tangents...)
	} else {
		m.Tangents = nil
	}

	m.Positions = append(m.Positions, other.Positions...)
	m.Normals = append(m.Normals, other.Normals...)

	m.Indices = slices.Grow(m.Indices, len(other.Indices))
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+base)
	}
}

// Transformed returns a copy with positions moved by mat. Normals use the
// inverse-transpose of the upper 3x3 and tangents its plain rotation; both are
// renormalized. Tangent handedness is kept.
func (m *Mesh) Transformed(mat mgl32.Mat4) *Mesh {
	out := m.Clone()

	linear := mat.Mat3()
	normalMat := linear
	if det := linear.Det(); math.Abs(float64(det)) > 1e-12 {
		normalMat = linear.Inv().Transpose()
	}

	for i, p := range out.Positions {
		out.Positions[i] = mgl32.TransformCoordinate(p, mat)
	}
	for i, n := range out.Normals {
		out.Normals[i] = normalize(normalMat.Mul3x1(n), n)
	}
	for i, t := range out.Tangents {
		dir := normalize(linear.Mul3x1(t.Vec3()), t.Vec3())
		out.Tangents[i] = dir.Vec4(t.W())
	}
	return out
}

// Bounds returns the axis-aligned bounds of the positions, or false for an
// empty mesh.
func (m *Mesh) Bounds() (Bounds, bool) {
	return BoundsOf(m.Positions)
}

// GenerateTangents computes per-vertex tangents from positions, normals and UVs
// by accumulating per-triangle UV derivatives and Gram-Schmidt
// orthogonalizing against the normal. Triangles with degenerate UVs contribute
// nothing; vertices left without a tangent get an arbitrary one perpendicular
// to their normal.
func (m *Mesh) GenerateTangents() error {
	if len(m.UVs) == 0 {
		return ErrNoUVs
	}
	if err := m.Validate(); err != nil {
		return err
	}

	n := len(m.Positions)
	tan := make([]mgl32.Vec3, n)
	bitan := make([]mgl32.Vec3, n)

	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		p0, p1, p2 := m.Positions[i0], m.Positions[i1], m.Positions[i2]
		w0, w1, w2 := m.UVs[i0], m.UVs[i1], m.UVs[i2]

		e1 := p1.Sub(p0)
		e2 := p2.Sub(p0)
		du1, dv1 := w1.X()-w0.X(), w1.Y()-w0.Y()
		du2, dv2 := w2.X()-w0.X(), w2.Y()-w0.Y()

		det := du1*dv2 - du2*dv1
		if math.Abs(float64(det)) < 1e-12 {
			continue
		}
		r := 1 / det
		sdir := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(r)
		tdir := e2.Mul(du1).Sub(e1.Mul(du2)).Mul(r)

		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(sdir)
			bitan[idx] = bitan[idx].Add(tdir)
		}
	}

	m.Tangents = make([]mgl32.Vec4, n)
	for i := 0; i < n; i++ {
		nrm := m.Normals[i]
		t := tan[i].Sub(nrm.Mul(nrm.Dot(tan[i])))
		if t.Len() < 1e-6 {
			t = perpendicular(nrm)
		} else {
			t = t.Normalize()
		}
		w := float32(1)
		if nrm.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		m.Tangents[i] = t.Vec4(w)
	}
	return nil
}

func normalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 1e-8 {
		return fallback
	}
	return v.Normalize()
}

// perpendicular returns a unit vector orthogonal to n.
func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if math.Abs(float64(n.X())) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return normalize(axis.Sub(n.Mul(n.Dot(axis))), axis)
}
