package build

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/props"
	"github.com/Faultbox/brushwork/internal/scene"
	"github.com/Faultbox/brushwork/pkg/geomap"
)

// spawnEntities creates one node per map entity, in ascending entity id order,
// and meshes the brushes of brush entities as it goes.
func (b *Builder) spawnEntities(c *cycle) error {
	g := c.asset.Geo
	for _, id := range g.EntityIDs() {
		brushes := g.EntityBrushes(id)
		rec, hasRec := g.Entity(id)

		if len(brushes) == 0 {
			b.spawnPointEntity(c, rec)
			continue
		}
		if !hasRec {
			return fmt.Errorf("entity %d: %w", id, ErrMissingProperties)
		}
		if err := b.spawnBrushEntity(c, rec, brushes); err != nil {
			return fmt.Errorf("entity %d: %w", id, err)
		}
	}
	return nil
}

func (b *Builder) spawnPointEntity(c *cycle, rec *geomap.Entity) {
	p := props.FromPairs(rec.Properties)

	t := scene.Identity()
	t.Position = b.Basis.Position(p.Vec3(props.KeyOrigin, mgl32.Vec3{}))
	t.Rotation = b.Basis.Rotation(p.Vec3(props.KeyAngles, mgl32.Vec3{}))

	node := c.w.Spawn(c.root, MapEntityProperties{
		ID:         rec.ID,
		Classname:  p.Classname(),
		Properties: p,
		Transform:  t,
	})
	tagTarget(c.w, node, p)

	c.report.Entities++
	c.report.PointEntities++
	b.log.Debug("point entity",
		zap.Uint32("entity", uint32(rec.ID)),
		zap.String("classname", p.Classname()),
	)
}

func (b *Builder) spawnBrushEntity(c *cycle, rec *geomap.Entity, brushes []geomap.BrushID) error {
	p := props.FromPairs(rec.Properties)
	classname := p.Classname()

	node := c.w.Spawn(c.root,
		BrushEntity{},
		MapEntityProperties{
			ID:         rec.ID,
			Classname:  classname,
			Properties: p,
			Transform:  scene.Identity(),
		},
	)
	c.report.Entities++
	c.report.BrushEntities++

	for _, brushID := range brushes {
		if err := b.buildBrush(c, node, classname, p, brushID); err != nil {
			return fmt.Errorf("brush %d: %w", brushID, err)
		}
	}

	tagTarget(c.w, node, p)
	return nil
}

func tagTarget(w *scene.World, node scene.NodeID, p props.Properties) {
	if name, ok := p[props.KeyTargetname]; ok {
		scene.Insert(w, node, TriggerTarget{Name: name})
	}
}
