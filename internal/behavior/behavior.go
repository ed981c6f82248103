// Package behavior turns generic map entity property bags into typed gameplay
// behaviors once a map build finishes: point lights, directional lights,
// movers and doors.
//
// Every entity resolves to at most one Behavior. The set of variants is closed;
// callers switch on the concrete type.
package behavior

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushwork/internal/build"
	"github.com/Faultbox/brushwork/internal/conv"
	"github.com/Faultbox/brushwork/internal/props"
	"github.com/Faultbox/brushwork/internal/scene"
)

// Classnames with a behavior.
const (
	ClassLight            = "light"
	ClassDirectionalLight = "directional_light"
	ClassMover            = "mover"
)

// Property keys.
const (
	KeyColor             = "color"
	KeyRadius            = "radius"
	KeyRange             = "range"
	KeyIntensity         = "intensity"
	KeyShadows           = "shadows_enabled"
	KeyIlluminance       = "illuminance"
	KeyMovingTime        = "moving_time"
	KeyDestinationTime   = "destination_time"
	KeyDestinationOffset = "destination_offset"
	KeyMoverKind         = "mover_kind"
	KeyKey               = "key"
	KeyOpenOnce          = "open_once"
)

// Mover kinds.
const (
	MoverLinear = "linear"
	MoverDoor   = "door"
)

// Defaults applied when a property is absent or malformed.
const (
	DefaultLightRange       float32 = 10
	DefaultLightIntensity   float32 = 800
	DefaultIlluminance      float32 = 10000
	DefaultMovingTime               = time.Second
	DefaultDestinationTime          = 2 * time.Second
)

// Behavior is one resolved entity behavior.
type Behavior interface {
	// Name is the classname the behavior was resolved from.
	Name() string
	attach(w *scene.World, id scene.NodeID)
}

// PointLight is an omnidirectional light.
type PointLight struct {
	Color     props.Color
	Radius    float32
	Range     float32
	Intensity float32
	Shadows   bool
	Transform scene.Transform
}

// Name returns the light classname.
func (PointLight) Name() string { return ClassLight }

func (l PointLight) attach(w *scene.World, id scene.NodeID) {
	scene.Insert(w, id, l)
	w.SetLocal(id, l.Transform)
}

// DirectionalLight lights the whole map from one direction.
type DirectionalLight struct {
	Color       props.Color
	Illuminance float32
	Shadows     bool
	Transform   scene.Transform
}

// Name returns the directional light classname.
func (DirectionalLight) Name() string { return ClassDirectionalLight }

func (l DirectionalLight) attach(w *scene.World, id scene.NodeID) {
	scene.Insert(w, id, l)
	w.SetLocal(id, l.Transform)
}

// Direction is the world-space direction the light shines in.
func (l DirectionalLight) Direction() mgl32.Vec3 {
	return l.Transform.Rotation.Normalize().Rotate(mgl32.Vec3{0, 0, -1})
}

// Door gates a mover. A nil Key means anyone may open it.
type Door struct {
	Key      *string
	OpenOnce bool
}

// MoverBehavior is a mover, optionally acting as a door.
type MoverBehavior struct {
	Mover Mover
	Door  *Door
}

// Name returns the mover classname.
func (MoverBehavior) Name() string { return ClassMover }

func (m MoverBehavior) attach(w *scene.World, id scene.NodeID) {
	scene.Insert(w, id, m.Mover)
	if m.Door != nil {
		scene.Insert(w, id, *m.Door)
	}
	// movers animate their local offset from the entity origin
	w.SetLocal(id, scene.Identity())
}

// Resolve picks the behavior for an entity. It returns false for classnames
// with no behavior.
func Resolve(e *build.MapEntityProperties, basis conv.Basis) (Behavior, bool) {
	p := e.Properties
	switch e.Classname {
	case ClassLight:
		return PointLight{
			Color:     p.Color(KeyColor, props.White),
			Radius:    p.Float(KeyRadius, 0),
			Range:     p.Float(KeyRange, DefaultLightRange),
			Intensity: p.Float(KeyIntensity, DefaultLightIntensity),
			Shadows:   p.Bool(KeyShadows, false),
			Transform: e.Transform,
		}, true

	case ClassDirectionalLight:
		return DirectionalLight{
			Color:       p.Color(KeyColor, props.White),
			Illuminance: p.Float(KeyIlluminance, DefaultIlluminance),
			Shadows:     p.Bool(KeyShadows, false),
			Transform:   e.Transform,
		}, true

	case ClassMover:
		mb := MoverBehavior{
			Mover: Mover{
				MovingTime:        seconds(p, KeyMovingTime, DefaultMovingTime),
				DestinationTime:   seconds(p, KeyDestinationTime, DefaultDestinationTime),
				DestinationOffset: basis.Position(p.Vec3(KeyDestinationOffset, mgl32.Vec3{})),
				State:             IdleAtOrigin,
			},
		}
		if p.String(KeyMoverKind, MoverLinear) == MoverDoor {
			mb.Door = &Door{
				Key:      p.StringOrNone(KeyKey, nil),
				OpenOnce: p.Bool(KeyOpenOnce, false),
			}
		}
		return mb, true
	}
	return nil, false
}

// Attach inserts the behavior's components on the node.
func Attach(w *scene.World, id scene.NodeID, b Behavior) {
	b.attach(w, id)
}

// maxSeconds keeps mover durations well inside time.Duration.
const maxSeconds = 1e9

// seconds reads a duration given in seconds. Values that are negative, not
// finite or beyond maxSeconds fall back to def.
func seconds(p props.Properties, key string, def time.Duration) time.Duration {
	s := float64(p.Float(key, float32(def.Seconds())))
	if !(s >= 0 && s <= maxSeconds) {
		return def
	}
	return time.Duration(s * float64(time.Second))
}
