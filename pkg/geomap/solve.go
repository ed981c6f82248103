package geomap

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// FaceGeometry is the triangulated polygon of one face, in map space.
// UVs are normalized by texture size; they are nil when the size is unknown.
type FaceGeometry struct {
	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	UVs      []mgl32.Vec2
	Indices  []uint32
}

// Geometry maps faces to their triangulation. Faces that produced no polygon
// are absent.
type Geometry map[FaceID]FaceGeometry

// TextureSizes maps texture names to pixel width and height.
type TextureSizes map[string][2]uint32

// Solver turns brush planes into per-face triangle geometry.
type Solver interface {
	Solve(g *GeoMap, sizes TextureSizes) (Geometry, error)
}

// SolverFor picks Baked when the map carries pre-solved geometry, Planes otherwise.
func SolverFor(g *GeoMap) Solver {
	if len(g.Geometry) > 0 {
		return Baked{}
	}
	return Planes{}
}

// BakedFace is pre-solved geometry stored alongside a map.
type BakedFace struct {
	Face     FaceID       `yaml:"face"`
	Vertices []mgl32.Vec3 `yaml:"vertices"`
	Normals  []mgl32.Vec3 `yaml:"normals,omitempty"`
	UVs      []mgl32.Vec2 `yaml:"uvs,omitempty"`
	Indices  []uint32     `yaml:"indices"`
}

// Baked returns the geometry stored in GeoMap.Geometry. Missing normals are
// filled with the face plane normal.
type Baked struct{}

// Solve implements Solver.
func (Baked) Solve(g *GeoMap, _ TextureSizes) (Geometry, error) {
	out := make(Geometry, len(g.Geometry))
	for _, bf := range g.Geometry {
		face, ok := g.Face(bf.Face)
		if !ok {
			return nil, fmt.Errorf("%w: baked geometry for face %d", ErrUnknownFace, bf.Face)
		}
		if _, dup := out[bf.Face]; dup {
			return nil, fmt.Errorf("%w: baked geometry for face %d", ErrDuplicateFace, bf.Face)
		}
		if len(bf.Indices)%3 != 0 {
			return nil, fmt.Errorf("%w: face %d index count %d", ErrMalformedMap, bf.Face, len(bf.Indices))
		}
		for _, idx := range bf.Indices {
			if int(idx) >= len(bf.Vertices) {
				return nil, fmt.Errorf("%w: face %d index %d out of range", ErrMalformedMap, bf.Face, idx)
			}
		}

		fg := FaceGeometry{
			Vertices: slices.Clone(bf.Vertices),
			Normals:  slices.Clone(bf.Normals),
			Indices:  slices.Clone(bf.Indices),
		}
		if len(fg.Normals) != len(fg.Vertices) {
			fg.Normals = repeat(face.Normal(), len(fg.Vertices))
		}
		if len(bf.UVs) == len(bf.Vertices) {
			fg.UVs = slices.Clone(bf.UVs)
		}
		out[bf.Face] = fg
	}
	return out, nil
}

// Planes solves geometry by intersecting brush planes: every face polygon is
// the set of triple-plane intersection points lying inside all of the brush's
// half-spaces. Polygons are wound counter-clockwise seen from outside and fan
// triangulated. UVs use the standard axis-aligned projection.
type Planes struct {
	// Epsilon is the half-space and vertex-merge tolerance in map units.
	Epsilon float32
}

const defaultPlaneEpsilon = 1e-3

// Solve implements Solver.
func (p Planes) Solve(g *GeoMap, sizes TextureSizes) (Geometry, error) {
	eps := p.Epsilon
	if eps <= 0 {
		eps = defaultPlaneEpsilon
	}

	out := make(Geometry)
	for _, b := range g.Brushes {
		faces := make([]*Face, 0, len(b.Faces))
		for _, fid := range b.Faces {
			f, ok := g.Face(fid)
			if !ok || f.Normal().Len() == 0 {
				continue
			}
			faces = append(faces, f)
		}

		for i, f := range faces {
			poly := facePolygon(faces, i, eps)
			if len(poly) < 3 {
				continue
			}
			out[f.ID] = triangulate(f, poly, sizes)
		}
	}
	return out, nil
}

func facePolygon(faces []*Face, i int, eps float32) []mgl32.Vec3 {
	fi := faces[i]
	var points []mgl32.Vec3
	for j := range faces {
		if j == i {
			continue
		}
		for k := j + 1; k < len(faces); k++ {
			if k == i {
				continue
			}
			pt, ok := intersect(fi, faces[j], faces[k])
			if !ok || !inside(faces, pt, eps) {
				continue
			}
			if !containsPoint(points, pt, eps) {
				points = append(points, pt)
			}
		}
	}
	if len(points) < 3 {
		return nil
	}
	return wind(points, fi.Normal())
}

// intersect solves the three plane equations by Cramer's rule.
func intersect(a, b, c *Face) (mgl32.Vec3, bool) {
	n1, n2, n3 := a.Normal(), b.Normal(), c.Normal()
	denom := n1.Dot(n2.Cross(n3))
	if math.Abs(float64(denom)) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	d1, d2, d3 := a.Distance(), b.Distance(), c.Distance()
	p := n2.Cross(n3).Mul(d1).
		Add(n3.Cross(n1).Mul(d2)).
		Add(n1.Cross(n2).Mul(d3))
	return p.Mul(1 / denom), true
}

func inside(faces []*Face, p mgl32.Vec3, eps float32) bool {
	for _, f := range faces {
		if f.Normal().Dot(p)-f.Distance() > eps {
			return false
		}
	}
	return true
}

func containsPoint(points []mgl32.Vec3, p mgl32.Vec3, eps float32) bool {
	for _, q := range points {
		if q.Sub(p).Len() <= eps {
			return true
		}
	}
	return false
}

// wind orders points counter-clockwise about n.
func wind(points []mgl32.Vec3, n mgl32.Vec3) []mgl32.Vec3 {
	var center mgl32.Vec3
	for _, p := range points {
		center = center.Add(p)
	}
	center = center.Mul(1 / float32(len(points)))

	u := points[0].Sub(center).Normalize()
	v := n.Cross(u)

	angle := func(p mgl32.Vec3) float64 {
		d := p.Sub(center)
		return math.Atan2(float64(d.Dot(v)), float64(d.Dot(u)))
	}
	slices.SortFunc(points, func(a, b mgl32.Vec3) int {
		aa, ab := angle(a), angle(b)
		switch {
		case aa < ab:
			return -1
		case aa > ab:
			return 1
		default:
			return 0
		}
	})
	return points
}

func triangulate(f *Face, poly []mgl32.Vec3, sizes TextureSizes) FaceGeometry {
	n := f.Normal()
	fg := FaceGeometry{
		Vertices: poly,
		Normals:  repeat(n, len(poly)),
		Indices:  make([]uint32, 0, (len(poly)-2)*3),
	}
	for i := 1; i+1 < len(poly); i++ {
		fg.Indices = append(fg.Indices, 0, uint32(i), uint32(i+1))
	}

	if size, ok := sizes[f.Texture]; ok && size[0] > 0 && size[1] > 0 {
		fg.UVs = make([]mgl32.Vec2, len(poly))
		for i, p := range poly {
			fg.UVs[i] = projectUV(f, n, p, size)
		}
	}
	return fg
}

// projectUV applies the axis-aligned texture projection: drop the dominant
// normal axis, rotate by the face angle, divide by scale, add the offset and
// normalize by the texture size.
func projectUV(f *Face, n, p mgl32.Vec3, size [2]uint32) mgl32.Vec2 {
	ax, ay, az := abs32(n.X()), abs32(n.Y()), abs32(n.Z())

	var u, v float32
	switch {
	case az >= ax && az >= ay:
		u, v = p.X(), -p.Y()
	case ax >= ay:
		u, v = p.Y(), -p.Z()
	default:
		u, v = p.X(), -p.Z()
	}

	rad := float64(mgl32.DegToRad(f.Angle))
	sin, cos := float32(math.Sin(rad)), float32(math.Cos(rad))
	u, v = u*cos-v*sin, u*sin+v*cos

	sx, sy := f.Scale.X(), f.Scale.Y()
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	u = u/sx + f.Offset.X()
	v = v/sy + f.Offset.Y()

	return mgl32.Vec2{u / float32(size[0]), v / float32(size[1])}
}

func repeat(v mgl32.Vec3, n int) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
