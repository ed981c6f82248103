// Package render is the render-side port of the map build: a registry of mesh
// assets, material descriptions, and the Drawable component the build attaches
// to render nodes.
package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// MaterialHandle identifies a material. Handles for the same texture name are
// equal across runs.
type MaterialHandle uuid.UUID

// NilMaterial is the zero handle.
var NilMaterial = MaterialHandle(uuid.Nil)

// MaterialHandleFor derives the handle of the material for a texture name.
func MaterialHandleFor(textureName string) MaterialHandle {
	return MaterialHandle(uuid.NewSHA1(uuid.NameSpaceURL, []byte("materials/"+textureName)))
}

// String returns the handle as a UUID string.
func (h MaterialHandle) String() string {
	return uuid.UUID(h).String()
}

// AlphaMode selects how base color alpha is used.
type AlphaMode int

const (
	// AlphaOpaque ignores alpha.
	AlphaOpaque AlphaMode = iota
	// AlphaMask discards texels below the material cutoff.
	AlphaMask
)

// String returns "opaque" or "mask".
func (m AlphaMode) String() string {
	if m == AlphaMask {
		return "mask"
	}
	return "opaque"
}

// Filter is a texture sampling filter.
type Filter string

// Sampling filters.
const (
	FilterLinear  Filter = "linear"
	FilterNearest Filter = "nearest"
)

// Sampler describes how a material samples its textures.
type Sampler struct {
	Repeat bool
	Filter Filter
}

// Parallax configures relief mapping from a depth map.
type Parallax struct {
	MaxSteps   int
	DepthScale float32
}

// Texture is a texture file a material references.
type Texture struct {
	Path   string
	Width  uint32
	Height uint32
	SRGB   bool
}

// Material is a physically based surface description.
type Material struct {
	Name string

	BaseColor mgl32.Vec4

	BaseColorTexture            *Texture
	MetallicRoughnessTexture    *Texture
	NormalMapTexture            *Texture
	DepthMap                    *Texture
	OcclusionTexture            *Texture
	SpecularTransmissionTexture *Texture
	EmissiveTexture             *Texture
	DiffuseTransmissionTexture  *Texture

	PerceptualRoughness float32
	Metallic            float32

	AlphaMode   AlphaMode
	AlphaCutoff float32

	SpecularTransmission float32
	DiffuseTransmission  float32
	Thickness            float32

	Emissive mgl32.Vec3
	Parallax *Parallax
	Sampler  Sampler
}

// Textures returns every texture the material references, base color first.
func (m *Material) Textures() []*Texture {
	all := []*Texture{
		m.BaseColorTexture,
		m.MetallicRoughnessTexture,
		m.NormalMapTexture,
		m.DepthMap,
		m.OcclusionTexture,
		m.SpecularTransmissionTexture,
		m.EmissiveTexture,
		m.DiffuseTransmissionTexture,
	}
	out := make([]*Texture, 0, len(all))
	for _, t := range all {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
