// Package export writes a built map to glTF 2.0.
//
// Every Drawable below the map root becomes one node carrying its world
// matrix, so the exported scene is flat. Materials reference their texture
// files by URI; image data is never embedded. Lights are exported as empty
// nodes whose extras describe the light.
package export

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/behavior"
	"github.com/Faultbox/brushwork/internal/build"
	"github.com/Faultbox/brushwork/internal/logger"
	"github.com/Faultbox/brushwork/internal/mesh"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/internal/scene"
)

var (
	// ErrNoMapRoot is returned when the root node is not in the world.
	ErrNoMapRoot = errors.New("export: map root does not exist")
	// ErrEmpty is returned when nothing under the root has a mesh or light.
	ErrEmpty = errors.New("export: nothing to export")
)

// Options controls export.
type Options struct {
	// TextureBase is prefixed to texture paths in image URIs.
	TextureBase string
	// Lights exports light nodes.
	Lights bool
}

// Stats summarizes an export.
type Stats struct {
	Nodes     int
	Meshes    int
	Materials int
	Images    int
	Lights    int
	Vertices  int
	Triangles int
}

// Exporter converts a built map into a glTF document.
type Exporter struct {
	Registry *render.Registry
	Options  Options

	log *zap.Logger
}

// NewExporter creates an exporter reading meshes and materials from registry.
func NewExporter(registry *render.Registry, opts Options) *Exporter {
	return &Exporter{
		Registry: registry,
		Options:  opts,
		log:      logger.Named("export"),
	}
}

// state is the bookkeeping of one export.
type state struct {
	doc       *gltf.Document
	materials map[render.MaterialHandle]uint32
	images    map[string]uint32
	samplers  map[render.Sampler]uint32
	stats     *Stats
}

// Document builds a glTF document from the drawables and lights below root.
func (e *Exporter) Document(w *scene.World, root scene.NodeID) (*gltf.Document, *Stats, error) {
	if !w.Exists(root) {
		return nil, nil, ErrNoMapRoot
	}

	s := &state{
		doc:       gltf.NewDocument(),
		materials: make(map[render.MaterialHandle]uint32),
		images:    make(map[string]uint32),
		samplers:  make(map[render.Sampler]uint32),
		stats:     &Stats{},
	}
	s.doc.Asset.Generator = "brushwork"

	for _, id := range w.Descendants(root) {
		d, ok := scene.Get[render.Drawable](w, id)
		if !ok {
			continue
		}
		m, ok := e.Registry.Mesh(d.Mesh)
		if !ok || m.Empty() {
			e.log.Debug("drawable without mesh", zap.Uint64("node", uint64(id)))
			continue
		}
		world, _ := w.WorldMatrix(id)
		e.addMesh(s, nodeName(w, id), m, d.Material, world)
	}

	if e.Options.Lights {
		e.addLights(s, w, root)
	}

	if s.stats.Nodes == 0 {
		return nil, nil, ErrEmpty
	}
	return s.doc, s.stats, nil
}

// Save exports root to path. A ".glb" extension writes the binary container.
func (e *Exporter) Save(w *scene.World, root scene.NodeID, dst string) (*Stats, error) {
	doc, stats, err := e.Document(w, root)
	if err != nil {
		return nil, err
	}

	if err := encode(doc, dst); err != nil {
		return nil, fmt.Errorf("save %s: %w", dst, err)
	}

	e.log.Info("map exported",
		zap.String("path", dst),
		zap.Int("nodes", stats.Nodes),
		zap.Int("meshes", stats.Meshes),
		zap.Int("materials", stats.Materials),
		zap.Int("triangles", stats.Triangles),
	)
	return stats, nil
}

// encode writes doc to dst. A .glb embeds the geometry; anything else gets a
// <name>.bin sidecar in the same directory.
func encode(doc *gltf.Document, dst string) error {
	ext := filepath.Ext(dst)
	binary := strings.EqualFold(ext, ".glb")
	if !binary {
		bin := strings.TrimSuffix(filepath.Base(dst), ext) + ".bin"
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.URI = bin
			}
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(f).WithWriteHandler(sidecarWriter{dir: filepath.Dir(dst)})
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sidecarWriter writes external buffers relative to the document directory.
type sidecarWriter struct {
	dir string
}

func (h sidecarWriter) WriteResource(uri string, data []byte) error {
	name := filepath.Join(h.dir, filepath.FromSlash(path.Clean("/"+uri)))
	return os.WriteFile(name, data, 0o644)
}

func (e *Exporter) addMesh(s *state, name string, m *mesh.Mesh, h render.MaterialHandle, world mgl32.Mat4) {
	doc := s.doc

	prim := &gltf.Primitive{
		Attributes: gltf.Attribute{
			gltf.POSITION: modeler.WritePosition(doc, vec3s(m.Positions)),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, m.Indices)),
		Mode:    gltf.PrimitiveTriangles,
	}
	if len(m.Normals) == len(m.Positions) {
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, vec3s(m.Normals))
	}
	if len(m.UVs) == len(m.Positions) {
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, vec2s(m.UVs))
	}
	if len(m.Tangents) == len(m.Positions) {
		prim.Attributes[gltf.TANGENT] = modeler.WriteTangent(doc, vec4s(m.Tangents))
	}
	if idx, ok := e.material(s, h); ok {
		prim.Material = gltf.Index(idx)
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	s.stats.Meshes++
	s.stats.Vertices += m.VertexCount()
	s.stats.Triangles += m.TriangleCount()

	node := newNode(name, world)
	node.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
	s.addNode(node)
}

// material returns the document index of the material for h, adding it on
// first use.
func (e *Exporter) material(s *state, h render.MaterialHandle) (uint32, bool) {
	if h == render.NilMaterial {
		return 0, false
	}
	if idx, ok := s.materials[h]; ok {
		return idx, true
	}
	mat, ok := e.Registry.Material(h)
	if !ok {
		return 0, false
	}

	base := mat.BaseColor
	gm := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{base[0], base[1], base[2], base[3]},
			MetallicFactor:  float32Ptr(mat.Metallic),
			RoughnessFactor: float32Ptr(mat.PerceptualRoughness),
		},
		AlphaMode: gltf.AlphaOpaque,
	}
	if mat.AlphaMode == render.AlphaMask {
		gm.AlphaMode = gltf.AlphaMask
		gm.AlphaCutoff = float32Ptr(mat.AlphaCutoff)
	}
	if t := mat.BaseColorTexture; t != nil {
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: e.texture(s, t, mat.Sampler)}
	}
	if t := mat.MetallicRoughnessTexture; t != nil {
		gm.PBRMetallicRoughness.MetallicRoughnessTexture = &gltf.TextureInfo{Index: e.texture(s, t, mat.Sampler)}
	}
	if t := mat.EmissiveTexture; t != nil {
		gm.EmissiveTexture = &gltf.TextureInfo{Index: e.texture(s, t, mat.Sampler)}
		gm.EmissiveFactor = [3]float32{mat.Emissive[0], mat.Emissive[1], mat.Emissive[2]}
	}

	s.doc.Materials = append(s.doc.Materials, gm)
	idx := uint32(len(s.doc.Materials) - 1)
	s.materials[h] = idx
	s.stats.Materials++
	return idx, true
}

// texture adds a texture referencing the image at t.Path and returns its index.
func (e *Exporter) texture(s *state, t *render.Texture, smp render.Sampler) uint32 {
	doc := s.doc

	uri := path.Join(filepath.ToSlash(e.Options.TextureBase), filepath.ToSlash(t.Path))
	img, ok := s.images[uri]
	if !ok {
		doc.Images = append(doc.Images, &gltf.Image{URI: uri})
		img = uint32(len(doc.Images) - 1)
		s.images[uri] = img
		s.stats.Images++
	}

	sampler, ok := s.samplers[smp]
	if !ok {
		doc.Samplers = append(doc.Samplers, newSampler(smp))
		sampler = uint32(len(doc.Samplers) - 1)
		s.samplers[smp] = sampler
	}

	doc.Textures = append(doc.Textures, &gltf.Texture{
		Source:  gltf.Index(img),
		Sampler: gltf.Index(sampler),
	})
	return uint32(len(doc.Textures) - 1)
}

func (e *Exporter) addLights(s *state, w *scene.World, root scene.NodeID) {
	lights := behavior.CollectLights(w, root)
	for _, l := range lights.Points {
		world, _ := w.WorldMatrix(l.Node)
		node := newNode(nodeName(w, l.Node), world)
		node.Extras = map[string]interface{}{
			"light":     "point",
			"color":     [3]float32{l.Color[0], l.Color[1], l.Color[2]},
			"radius":    l.Radius,
			"range":     l.Range,
			"intensity": l.Intensity,
			"shadows":   l.Shadows,
		}
		s.addNode(node)
		s.stats.Lights++
	}
	for _, l := range lights.Directional {
		world, _ := w.WorldMatrix(l.Node)
		node := newNode(nodeName(w, l.Node), world)
		node.Extras = map[string]interface{}{
			"light":       "directional",
			"color":       [3]float32{l.Color[0], l.Color[1], l.Color[2]},
			"direction":   [3]float32{l.Direction[0], l.Direction[1], l.Direction[2]},
			"illuminance": l.Illuminance,
			"shadows":     l.Shadows,
		}
		s.addNode(node)
		s.stats.Lights++
	}
	if lights.Dropped > 0 {
		e.log.Warn("point lights over limit not exported",
			zap.Int("dropped", lights.Dropped),
			zap.Int("limit", behavior.MaxPointLights),
		)
	}
}

func (s *state) addNode(n *gltf.Node) {
	s.doc.Nodes = append(s.doc.Nodes, n)
	idx := uint32(len(s.doc.Nodes) - 1)
	scn := s.doc.Scenes[0]
	scn.Nodes = append(scn.Nodes, idx)
	s.stats.Nodes++
}

func newNode(name string, world mgl32.Mat4) *gltf.Node {
	return &gltf.Node{
		Name:     name,
		Matrix:   [16]float32(world),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

func newSampler(smp render.Sampler) *gltf.Sampler {
	s := &gltf.Sampler{
		MagFilter: gltf.MagLinear,
		MinFilter: gltf.MinLinear,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	}
	if smp.Filter == render.FilterNearest {
		s.MagFilter = gltf.MagNearest
		s.MinFilter = gltf.MinNearest
	}
	if smp.Repeat {
		s.WrapS = gltf.WrapRepeat
		s.WrapT = gltf.WrapRepeat
	}
	return s
}

// nodeName labels a node by its brush texture or its entity classname.
func nodeName(w *scene.World, id scene.NodeID) string {
	if b, ok := scene.Get[build.Brush](w, id); ok {
		return fmt.Sprintf("%s.%d", b.TextureName, id)
	}
	if p, ok := scene.Get[build.MapEntityProperties](w, id); ok {
		return fmt.Sprintf("%s.%d", p.Classname, p.ID)
	}
	return fmt.Sprintf("node.%d", id)
}

func float32Ptr(f float32) *float32 {
	return &f
}

func vec2s(vs []mgl32.Vec2) [][2]float32 {
	out := make([][2]float32, len(vs))
	for i, v := range vs {
		out[i] = [2]float32(v)
	}
	return out
}

func vec3s(vs []mgl32.Vec3) [][3]float32 {
	out := make([][3]float32, len(vs))
	for i, v := range vs {
		out[i] = [3]float32(v)
	}
	return out
}

func vec4s(vs []mgl32.Vec4) [][4]float32 {
	out := make([][4]float32, len(vs))
	for i, v := range vs {
		out[i] = [4]float32(v)
	}
	return out
}
