package behavior

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushwork/internal/scene"
)

// MaxPointLights is the number of point lights a renderer is expected to take
// per map. Extra lights are counted in LightBuffer.Dropped.
const MaxPointLights = 32

// WorldPointLight is a point light resolved to world space.
type WorldPointLight struct {
	Node      scene.NodeID
	Position  mgl32.Vec3
	Color     mgl32.Vec3 // RGB, 0-1
	Radius    float32
	Range     float32
	Intensity float32
	Shadows   bool
}

// WorldDirectionalLight is a directional light resolved to world space.
type WorldDirectionalLight struct {
	Node        scene.NodeID
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Illuminance float32
	Shadows     bool
}

// LightBuffer holds the lights of one map.
type LightBuffer struct {
	Points      []WorldPointLight
	Directional []WorldDirectionalLight
	Dropped     int
}

// NewLightBuffer creates an empty light buffer.
func NewLightBuffer() *LightBuffer {
	return &LightBuffer{
		Points: make([]WorldPointLight, 0, MaxPointLights),
	}
}

// CollectLights gathers the lights below root in node order.
func CollectLights(w *scene.World, root scene.NodeID) *LightBuffer {
	buf := NewLightBuffer()
	for _, id := range w.Descendants(root) {
		m, ok := w.WorldMatrix(id)
		if !ok {
			continue
		}

		if l, ok := scene.Get[PointLight](w, id); ok {
			if len(buf.Points) >= MaxPointLights {
				buf.Dropped++
				continue
			}
			light := WorldPointLight{
				Node:      id,
				Position:  m.Col(3).Vec3(),
				Color:     clampColor(l.Color.Vec3()),
				Radius:    l.Radius,
				Range:     l.Range,
				Intensity: l.Intensity,
				Shadows:   l.Shadows,
			}
			if light.Range <= 0 {
				light.Range = DefaultLightRange
			}
			buf.Points = append(buf.Points, light)
		}

		if l, ok := scene.Get[DirectionalLight](w, id); ok {
			dir := m.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
			if dir.Len() > 0 {
				dir = dir.Normalize()
			}
			buf.Directional = append(buf.Directional, WorldDirectionalLight{
				Node:        id,
				Direction:   dir,
				Color:       clampColor(l.Color.Vec3()),
				Illuminance: l.Illuminance,
				Shadows:     l.Shadows,
			})
		}
	}
	return buf
}

// clampColor keeps each channel within 0-1.
func clampColor(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}
