package build

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/logger"
	"github.com/Faultbox/brushwork/internal/mesh"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/internal/scene"
)

// Cell is an integer bucket coordinate.
type Cell [3]int32

// Batch describes one finished render batch.
type Batch struct {
	Node        scene.NodeID
	Mesh        render.MeshHandle
	Brush       scene.NodeID
	Material    render.MaterialHandle
	Cell        Cell
	TextureName string
	Sources     int
	Vertices    int
	Triangles   int
}

// Consolidator merges spawn events sharing a brush entity, a material and a
// spatial cell into one render batch.
type Consolidator struct {
	CellSize float32
	Registry *render.Registry

	log *zap.Logger
}

// NewConsolidator creates a consolidator. A non-positive cell size falls back
// to DefaultCellSize.
func NewConsolidator(cellSize float32, registry *render.Registry) *Consolidator {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Consolidator{
		CellSize: cellSize,
		Registry: registry,
		log:      logger.Named("consolidate"),
	}
}

type groupKey struct {
	brush    scene.NodeID
	material render.MaterialHandle
	cell     Cell
}

type group struct {
	key     groupKey
	first   SpawnMeshEvent
	world   mgl32.Mat4
	mesh    *mesh.Mesh
	sources int
}

// Run drains events in order and spawns the batches. Every event after the
// first of its group also gets a Brush marker node recording its provenance.
// It returns the batches in first-seen order and the number of markers.
func (c *Consolidator) Run(w *scene.World, events []SpawnMeshEvent) ([]Batch, int) {
	var groups []*group
	index := make(map[groupKey]int)
	markers := 0

	for _, ev := range events {
		ref := reference(ev)
		refWorld, ok := w.WorldMatrix(ref)
		if !ok {
			c.log.Debug("stale reference node, using identity", zap.Uint64("node", uint64(ref)))
		}

		key := groupKey{
			brush:    ev.Brush,
			material: ev.Material,
			cell:     c.cell(refWorld, ev.Mesh),
		}

		i, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, &group{
				key:     key,
				first:   ev,
				world:   refWorld,
				mesh:    ev.Mesh,
				sources: 1,
			})
			continue
		}

		g := groups[i]
		rel := g.world.Inv().Mul4(refWorld)
		if g.mesh == nil {
			g.mesh = &mesh.Mesh{}
		}
		if ev.Mesh != nil {
			g.mesh.Merge(ev.Mesh.Transformed(rel))
		}
		g.sources++

		// The parent is the reference node itself, so the marker keeps an
		// identity local transform and sits at the event's frame.
		w.Spawn(parentOf(w, ev), Brush{
			TextureName: ev.TextureName,
			TextureSize: ev.TextureSize,
		})
		markers++
	}

	batches := make([]Batch, 0, len(groups))
	for _, g := range groups {
		if g.mesh == nil {
			g.mesh = &mesh.Mesh{}
		}
		var h render.MeshHandle
		if c.Registry != nil {
			h = c.Registry.AddMesh(g.mesh)
		}
		node := w.Spawn(parentOf(w, g.first),
			render.Drawable{Mesh: h, Material: g.first.Material},
			Brush{TextureName: g.first.TextureName, TextureSize: g.first.TextureSize},
		)
		batches = append(batches, Batch{
			Node:        node,
			Mesh:        h,
			Brush:       g.key.brush,
			Material:    g.key.material,
			Cell:        g.key.cell,
			TextureName: g.first.TextureName,
			Sources:     g.sources,
			Vertices:    g.mesh.VertexCount(),
			Triangles:   g.mesh.TriangleCount(),
		})
	}

	c.log.Debug("consolidated",
		zap.Int("events", len(events)),
		zap.Int("batches", len(batches)),
	)
	return batches, markers
}

// cell buckets the world-space center of the mesh bounds.
func (c *Consolidator) cell(refWorld mgl32.Mat4, m *mesh.Mesh) Cell {
	var center mgl32.Vec3
	if m != nil {
		if b, ok := m.Bounds(); ok {
			center = b.Center()
		}
	}
	p := mgl32.TransformCoordinate(center, refWorld)

	size := c.CellSize
	if size <= 0 {
		size = DefaultCellSize
	}
	return Cell{
		int32(math.Floor(float64(p.X() / size))),
		int32(math.Floor(float64(p.Y() / size))),
		int32(math.Floor(float64(p.Z() / size))),
	}
}

// reference is the node whose transform frames an event's mesh.
func reference(ev SpawnMeshEvent) scene.NodeID {
	if ev.Collider != scene.None {
		return ev.Collider
	}
	return ev.Map
}

// parentOf picks the collider, else the map root, else a top-level node when
// both are gone.
func parentOf(w *scene.World, ev SpawnMeshEvent) scene.NodeID {
	if ev.Collider != scene.None && w.Exists(ev.Collider) {
		return ev.Collider
	}
	if w.Exists(ev.Map) {
		return ev.Map
	}
	return scene.None
}
