// Package geomap holds the tabular form of a parsed level-editor map: entities
// with their key/value properties, convex brushes, and brush faces described
// by three plane points and a texture projection.
package geomap

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Map errors.
var (
	ErrMalformedMap    = errors.New("malformed map document")
	ErrDuplicateEntity = errors.New("duplicate entity id")
	ErrDuplicateBrush  = errors.New("duplicate brush id")
	ErrDuplicateFace   = errors.New("duplicate face id")
	ErrUnknownFace     = errors.New("brush references unknown face")
	ErrFaceOwnership   = errors.New("face listed by more than one brush")
)

// EntityID identifies a map entity.
type EntityID uint32

// BrushID identifies a brush.
type BrushID uint32

// FaceID identifies a brush face.
type FaceID uint32

// Property is one key/value entry as written in the map source.
type Property struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Entity is one entity record. Its brushes are the brushes naming it as owner.
type Entity struct {
	ID         EntityID   `yaml:"id"`
	Properties []Property `yaml:"properties"`
}

// Brush is a convex solid bounded by its faces' planes.
type Brush struct {
	ID     BrushID  `yaml:"id"`
	Entity EntityID `yaml:"entity"`
	Faces  []FaceID `yaml:"faces"`
}

// Face is one bounding plane of a brush. Plane points are listed clockwise as
// seen from outside the brush, so (p2-p0)x(p1-p0) points outward.
type Face struct {
	ID      FaceID        `yaml:"id"`
	Texture string        `yaml:"texture"`
	Plane   [3]mgl32.Vec3 `yaml:"plane"`
	Offset  mgl32.Vec2    `yaml:"offset"`
	Angle   float32       `yaml:"angle"`
	Scale   mgl32.Vec2    `yaml:"scale"`
}

// Normal returns the outward unit normal of the face plane.
func (f *Face) Normal() mgl32.Vec3 {
	p0, p1, p2 := f.Plane[0], f.Plane[1], f.Plane[2]
	n := p2.Sub(p0).Cross(p1.Sub(p0))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// Distance returns the plane offset d in n.x = d.
func (f *Face) Distance() float32 {
	return f.Normal().Dot(f.Plane[0])
}

// GeoMap is a whole map. Tables are kept sorted by id.
type GeoMap struct {
	Entities []Entity `yaml:"entities"`
	Brushes  []Brush  `yaml:"brushes"`
	Faces    []Face   `yaml:"faces"`

	// Geometry optionally carries pre-solved face geometry in map space.
	Geometry []BakedFace `yaml:"geometry,omitempty"`

	entityIdx map[EntityID]int
	brushIdx  map[BrushID]int
	faceIdx   map[FaceID]int
}

// Index sorts the tables and builds id lookups. It validates id uniqueness and
// face references. Parse calls it; callers building a GeoMap by hand must too.
func (g *GeoMap) Index() error {
	slices.SortStableFunc(g.Entities, func(a, b Entity) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortStableFunc(g.Brushes, func(a, b Brush) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortStableFunc(g.Faces, func(a, b Face) int { return cmp.Compare(a.ID, b.ID) })

	g.entityIdx = make(map[EntityID]int, len(g.Entities))
	for i, e := range g.Entities {
		if _, dup := g.entityIdx[e.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateEntity, e.ID)
		}
		g.entityIdx[e.ID] = i
	}

	g.faceIdx = make(map[FaceID]int, len(g.Faces))
	for i, f := range g.Faces {
		if _, dup := g.faceIdx[f.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateFace, f.ID)
		}
		g.faceIdx[f.ID] = i
	}

	owner := make(map[FaceID]BrushID, len(g.Faces))
	g.brushIdx = make(map[BrushID]int, len(g.Brushes))
	for i := range g.Brushes {
		b := &g.Brushes[i]
		if _, dup := g.brushIdx[b.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateBrush, b.ID)
		}
		g.brushIdx[b.ID] = i

		slices.Sort(b.Faces)
		for _, fid := range b.Faces {
			if _, ok := g.faceIdx[fid]; !ok {
				return fmt.Errorf("%w: brush %d face %d", ErrUnknownFace, b.ID, fid)
			}
			if prev, taken := owner[fid]; taken {
				return fmt.Errorf("%w: face %d in brushes %d and %d", ErrFaceOwnership, fid, prev, b.ID)
			}
			owner[fid] = b.ID
		}
	}
	return nil
}

// Entity returns the entity record for id.
func (g *GeoMap) Entity(id EntityID) (*Entity, bool) {
	i, ok := g.entityIdx[id]
	if !ok {
		return nil, false
	}
	return &g.Entities[i], true
}

// Brush returns the brush for id.
func (g *GeoMap) Brush(id BrushID) (*Brush, bool) {
	i, ok := g.brushIdx[id]
	if !ok {
		return nil, false
	}
	return &g.Brushes[i], true
}

// Face returns the face for id.
func (g *GeoMap) Face(id FaceID) (*Face, bool) {
	i, ok := g.faceIdx[id]
	if !ok {
		return nil, false
	}
	return &g.Faces[i], true
}

// EntityIDs returns every entity id in ascending order: those with a record and
// those only named as a brush owner.
func (g *GeoMap) EntityIDs() []EntityID {
	seen := make(map[EntityID]bool, len(g.Entities))
	ids := make([]EntityID, 0, len(g.Entities))
	for _, e := range g.Entities {
		if !seen[e.ID] {
			seen[e.ID] = true
			ids = append(ids, e.ID)
		}
	}
	for _, b := range g.Brushes {
		if !seen[b.Entity] {
			seen[b.Entity] = true
			ids = append(ids, b.Entity)
		}
	}
	slices.Sort(ids)
	return ids
}

// EntityBrushes returns the brushes owned by an entity in ascending id order.
// A point entity has none.
func (g *GeoMap) EntityBrushes(id EntityID) []BrushID {
	var out []BrushID
	for _, b := range g.Brushes {
		if b.Entity == id {
			out = append(out, b.ID)
		}
	}
	return out
}

// Textures returns the distinct face texture names, sorted.
func (g *GeoMap) Textures() []string {
	names := make([]string, 0)
	for _, f := range g.Faces {
		names = append(names, f.Texture)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
