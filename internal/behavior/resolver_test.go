package behavior

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/brushwork/internal/assets"
	"github.com/Faultbox/brushwork/internal/build"
	"github.com/Faultbox/brushwork/internal/config"
	"github.com/Faultbox/brushwork/internal/conv"
	"github.com/Faultbox/brushwork/internal/physics"
	"github.com/Faultbox/brushwork/internal/props"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/internal/scene"
	"github.com/Faultbox/brushwork/pkg/geomap"
)

func prop(k, v string) geomap.Property { return geomap.Property{Key: k, Value: v} }

// doorMap is a floor slab, a door and a trigger volume in front of it, plus
// two lights.
func doorMap() *geomap.GeoMap {
	g := &geomap.GeoMap{
		Entities: []geomap.Entity{
			{ID: 0, Properties: []geomap.Property{prop("classname", "worldspawn")}},
			{ID: 1, Properties: []geomap.Property{
				prop("classname", "mover"),
				prop("mover_kind", "door"),
				prop("targetname", "door1"),
				prop("destination_offset", "0 0 64"),
			}},
			{ID: 2, Properties: []geomap.Property{
				prop("classname", "trigger_multiple"),
				prop("target", "door1"),
			}},
			{ID: 3, Properties: []geomap.Property{
				prop("classname", "light"),
				prop("origin", "32 0 64"),
				prop("color", "127.5 255 127.5"),
			}},
			{ID: 4, Properties: []geomap.Property{prop("classname", "directional_light")}},
		},
		Brushes: []geomap.Brush{
			{ID: 0, Entity: 0, Faces: []geomap.FaceID{0, 1, 2, 3, 4, 5}},
			{ID: 1, Entity: 1, Faces: []geomap.FaceID{6, 7, 8, 9, 10, 11}},
			{ID: 2, Entity: 2, Faces: []geomap.FaceID{12, 13, 14, 15, 16, 17}},
		},
	}
	g.Faces = append(g.Faces, geomap.Box(0, mgl32.Vec3{-256, -256, -32}, mgl32.Vec3{256, 256, 0}, "stone")...)
	g.Faces = append(g.Faces, geomap.Box(6, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{16, 64, 96}, "wood")...)
	g.Faces = append(g.Faces, geomap.Box(12, mgl32.Vec3{-64, 0, 0}, mgl32.Vec3{-32, 64, 64}, "trigger")...)
	return g
}

func buildDoorMap(t *testing.T) (*scene.World, scene.NodeID, *build.Report) {
	t.Helper()
	g := doorMap()
	require.NoError(t, g.Index())

	asset := &assets.MapAsset{
		ID:  uuid.New(),
		Geo: g,
		Materials: map[string]render.MaterialHandle{
			"stone": render.MaterialHandleFor("stone"),
			"wood":  render.MaterialHandleFor("wood"),
		},
		TextureSizes: geomap.TextureSizes{"stone": {64, 64}, "wood": {64, 64}},
	}

	cfg := config.BuildConfig{UnitsPerMeter: 32, BucketCellSize: 50}
	b := build.NewBuilder(cfg, physics.NewConvexEngine(), render.NewRegistry())
	b.PostBuild = append(b.PostBuild, NewResolver(conv.NewBasis(cfg.UnitsPerMeter)))

	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	report, err := b.Build(w, root, asset)
	require.NoError(t, err)
	return w, root, report
}

func TestResolverAfterBuild(t *testing.T) {
	w, root, report := buildDoorMap(t)
	assert.Equal(t, 3, report.Behaviors)

	movers := scene.Query[Mover](w)
	require.Len(t, movers, 1)
	assert.True(t, scene.Has[Door](w, movers[0]))
	assert.True(t, scene.Has[build.BrushEntity](w, movers[0]))

	lights := CollectLights(w, root)
	require.Len(t, lights.Points, 1)
	vecNear(t, mgl32.Vec3{1, 2, 0}, lights.Points[0].Position, "got %v", lights.Points[0].Position)
	assert.Equal(t, mgl32.Vec3{0.5, 1, 0.5}, lights.Points[0].Color, "0-255 colors are rescaled")
	require.Len(t, lights.Directional, 1)
	assert.Zero(t, lights.Dropped)
}

func TestTouchOpensDoor(t *testing.T) {
	w, _, _ := buildDoorMap(t)
	door := scene.Query[Mover](w)[0]

	// Outside every trigger volume.
	assert.Zero(t, Touch(w, mgl32.Vec3{5, 0.5, 0}, nil))

	// Inside the trigger: map x -48, y 32, z 32.
	inside := conv.NewBasis(32).Position(mgl32.Vec3{-48, 32, 32})
	assert.Equal(t, 1, Touch(w, inside, nil))
	assert.Zero(t, Touch(w, inside, nil), "door already moving")

	Step(w, time.Second)
	local, _ := w.Local(door)
	vecNear(t, mgl32.Vec3{0, 2, 0}, local.Position, "got %v", local.Position)
}

func TestTriggerOnceDisarms(t *testing.T) {
	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	spawnMover(w, root, "lift", nil)

	e := physics.NewConvexEngine()
	hull, ok := e.ConvexHull([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}})
	require.True(t, ok)
	sensor := w.Spawn(root, build.TriggerOnce{Target: "lift"})
	e.AttachSensor(w, sensor, hull)

	p := mgl32.Vec3{0.25, 0.25, 0.25}
	assert.Equal(t, 1, Touch(w, p, nil))
	assert.False(t, scene.Has[build.TriggerOnce](w, sensor))

	Step(w, 10*time.Second)
	assert.Zero(t, Touch(w, p, nil))
}

func TestResolverMissingRoot(t *testing.T) {
	r := NewResolver(conv.NewBasis(0))
	_, err := r.PostBuild(scene.NewWorld(), build.PostBuildMapEvent{Map: 3})
	assert.ErrorIs(t, err, build.ErrNoMapRoot)
}

func TestCollectLightsCap(t *testing.T) {
	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	for i := 0; i < MaxPointLights+3; i++ {
		id := w.Spawn(root)
		Attach(w, id, PointLight{Color: props.White, Range: -1, Transform: scene.Identity()})
	}
	buf := CollectLights(w, root)
	assert.Len(t, buf.Points, MaxPointLights)
	assert.Equal(t, 3, buf.Dropped)
	assert.Equal(t, DefaultLightRange, buf.Points[0].Range)
}
