package build

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/mesh"
	"github.com/Faultbox/brushwork/internal/props"
	"github.com/Faultbox/brushwork/internal/scene"
	"github.com/Faultbox/brushwork/pkg/geomap"
)

var up = mgl32.Vec3{0, 1, 0}

// brushFragments accumulates per-texture meshes and the collision point set of
// one brush.
type brushFragments struct {
	points   []mgl32.Vec3
	meshes   map[string]*mesh.Mesh
	foliage  int
	rendered int
}

// buildBrush meshes one brush, gives it a collision volume and queues a spawn
// event per textured fragment.
func (b *Builder) buildBrush(c *cycle, entity scene.NodeID, classname string, p props.Properties, id geomap.BrushID) error {
	c.report.Brushes++

	var target string
	trigger := classname == ClassTriggerMultiple || classname == ClassTriggerOnce
	if trigger {
		t, ok := p[props.KeyTarget]
		if !ok {
			return ErrMissingTarget
		}
		target = t
	}

	frags := b.collectFaces(c, id)

	hull, ok := b.Physics.ConvexHull(frags.points)
	if !ok {
		c.report.DegenerateBrush++
		b.log.Warn("brush has no volume, skipped",
			zap.Uint32("brush", uint32(id)),
			zap.Int("points", len(frags.points)),
		)
		return nil
	}

	collider := c.w.Spawn(entity, BrushVolume{Brush: id, Points: frags.points})
	switch {
	case classname == ClassTriggerMultiple:
		b.Physics.AttachSensor(c.w, collider, hull)
		scene.Insert(c.w, collider, TriggerMultiple{Target: target})
		c.report.Sensors++
	case classname == ClassTriggerOnce:
		b.Physics.AttachSensor(c.w, collider, hull)
		scene.Insert(c.w, collider, TriggerOnce{Target: target})
		c.report.Sensors++
	case frags.foliage > 0 && frags.foliage == frags.rendered:
		// foliage never blocks; the node only parents the meshes
		b.log.Debug("foliage brush, no collision", zap.Uint32("brush", uint32(id)))
	default:
		b.Physics.AttachStatic(c.w, collider, hull)
		c.report.Colliders++
	}

	names := make([]string, 0, len(frags.meshes))
	for name := range frags.meshes {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		material, ok := c.asset.Material(name)
		if !ok {
			c.report.DroppedFragments++
			continue
		}
		c.events = append(c.events, SpawnMeshEvent{
			Map:         c.root,
			Brush:       entity,
			Mesh:        frags.meshes[name],
			Collider:    collider,
			Material:    material,
			TextureName: name,
			TextureSize: c.asset.TextureSizes[name],
		})
	}
	return nil
}

// collectFaces folds every face of the brush into the point set and builds
// the per-texture render fragments.
func (b *Builder) collectFaces(c *cycle, id geomap.BrushID) *brushFragments {
	frags := &brushFragments{meshes: make(map[string]*mesh.Mesh)}

	brush, ok := c.asset.Geo.Brush(id)
	if !ok {
		return frags
	}

	for _, fid := range brush.Faces {
		face, ok := c.asset.Geo.Face(fid)
		if !ok {
			continue
		}
		fg, ok := c.geo[fid]
		if !ok {
			c.report.SkippedFaces++
			b.log.Warn("face missing from geometry",
				zap.Uint32("brush", uint32(id)),
				zap.Uint32("face", uint32(fid)),
			)
			continue
		}

		// Every solved vertex shapes the collider, even on faces that draw nothing.
		positions := b.Basis.Positions(fg.Vertices)
		frags.points = append(frags.points, positions...)

		if len(fg.Indices) == 0 {
			c.report.SkippedFaces++
			b.log.Warn("face has no indices",
				zap.Uint32("brush", uint32(id)),
				zap.Uint32("face", uint32(fid)),
			)
			continue
		}

		if IsNonRendering(face.Texture) {
			continue
		}
		frags.rendered++

		normals := b.Basis.Directions(fg.Normals)
		m := &mesh.Mesh{
			Positions: positions,
			Normals:   normals,
			Indices:   slices.Clone(fg.Indices),
		}
		if IsFoliage(face.Texture) {
			m.SetNormals(up)
			frags.foliage++
		}

		if len(fg.UVs) > 0 {
			m.UVs = slices.Clone(fg.UVs)
			if err := m.GenerateTangents(); err != nil {
				c.report.TangentFailures++
				b.log.Warn("tangent generation failed",
					zap.Uint32("face", uint32(fid)),
					zap.String("texture", face.Texture),
					zap.Error(err),
				)
			}
		}

		if existing, ok := frags.meshes[face.Texture]; ok {
			existing.Merge(m)
		} else {
			frags.meshes[face.Texture] = m
		}
	}
	return frags
}
