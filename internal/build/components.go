// Package build turns a loaded map asset into scene nodes: one node per map
// entity, one collision volume per brush, and render batches that merge
// same-material fragments sharing a brush entity and a spatial cell.
//
// A build cycle runs its stages strictly in order, each draining the previous
// stage's queue: entity spawning, brush meshing, consolidation, then the
// post-build handlers.
package build

import (
	"errors"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/brushwork/internal/mesh"
	"github.com/Faultbox/brushwork/internal/props"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/internal/scene"
	"github.com/Faultbox/brushwork/pkg/geomap"
)

// Build errors. The first two abort a build; the rest describe bad arguments.
var (
	ErrMissingProperties = errors.New("brush entity has no properties")
	ErrMissingTarget     = errors.New("trigger brush has no target")
	ErrNoMapRoot         = errors.New("map root node does not exist")
	ErrNoGeometry        = errors.New("map asset has no geometry")
)

// Reserved classnames and texture conventions.
const (
	ClassTriggerMultiple = "trigger_multiple"
	ClassTriggerOnce     = "trigger_once"

	foliageMarker = "-f"
)

var nonRendering = map[string]bool{
	"trigger":        true,
	"clip":           true,
	"common/trigger": true,
	"common/clip":    true,
}

// IsNonRendering reports whether a texture name marks faces that contribute
// collision only.
func IsNonRendering(texture string) bool {
	return nonRendering[texture]
}

// IsFoliage reports whether a texture name carries the foliage marker.
func IsFoliage(texture string) bool {
	return strings.Contains(texture, foliageMarker)
}

// MapRoot tags the node a map was built under.
type MapRoot struct {
	Asset uuid.UUID
}

// MapEntityProperties is the raw property record of a map entity. Transform is
// set for point entities only.
type MapEntityProperties struct {
	ID         geomap.EntityID
	Classname  string
	Properties props.Properties
	Transform  scene.Transform
}

// TriggerTarget makes a node addressable by name.
type TriggerTarget struct {
	Name string
}

// BrushEntity tags an entity node that owns brushes.
type BrushEntity struct{}

// BrushVolume tags a brush's collision-volume node. Points is the full point
// set the volume was built from, in world units relative to the map root.
type BrushVolume struct {
	Brush  geomap.BrushID
	Points []mgl32.Vec3
}

// TriggerMultiple fires its target every time the volume is entered.
type TriggerMultiple struct {
	Target string
}

// TriggerOnce fires its target the first time the volume is entered.
type TriggerOnce struct {
	Target string
}

// Brush records the texture a render batch or source fragment came from.
type Brush struct {
	TextureName string
	TextureSize [2]uint32
}

// SpawnMeshEvent asks the consolidator to render one per-texture fragment of
// a brush. Collider is scene.None when the brush has no volume node.
type SpawnMeshEvent struct {
	Map         scene.NodeID
	Brush       scene.NodeID
	Mesh        *mesh.Mesh
	Collider    scene.NodeID
	Material    render.MaterialHandle
	TextureName string
	TextureSize [2]uint32
}

// PostBuildMapEvent signals that a map finished building.
type PostBuildMapEvent struct {
	Map scene.NodeID
}

// PostBuildHandler runs once per finished build and returns how many nodes it
// attached behavior to.
type PostBuildHandler interface {
	PostBuild(w *scene.World, ev PostBuildMapEvent) (int, error)
}
