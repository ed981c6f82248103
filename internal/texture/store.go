package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/Faultbox/brushwork/internal/logger"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/pkg/encoding"
)

// Store errors.
var (
	// ErrAssetRead is an I/O failure other than a missing file.
	ErrAssetRead = errors.New("texture read failed")
	// ErrDecode means a texture file exists but its header is unreadable.
	ErrDecode = errors.New("texture decode failed")
)

// Companion map suffixes, appended to the texture name before the extension.
const (
	SuffixMetallicRoughness    = "metallic_roughness"
	SuffixNormalMap            = "normal_map"
	SuffixDepthMap             = "depth_map"
	SuffixOcclusion            = "occlusion"
	SuffixSpecularTransmission = "specular_transmission"
	SuffixEmissive             = "emissive"
	SuffixDiffuseTransmission  = "diffuse_transmission"
)

// Material parameters.
const (
	DefaultRoughness   float32 = 0.55
	MaskCutoff         float32 = 0.5
	TransmissionAmount float32 = 1.0
	TransmissionThick  float32 = 0.1
	ParallaxDepthScale float32 = 0.04
	ParallaxMaxSteps           = 20
)

const (
	maskSuffix  = "-m"
	texturesDir = "textures"
)

type configDecoder func(io.Reader) (image.Config, error)

var decoders = map[string]configDecoder{
	"png":  png.DecodeConfig,
	"jpg":  jpeg.DecodeConfig,
	"jpeg": jpeg.DecodeConfig,
	"tga":  DecodeTGAConfig,
	"bmp":  bmp.DecodeConfig,
	"webp": webp.DecodeConfig,
}

// Options configures a Store.
type Options struct {
	// Extensions is the probe order for every texture file.
	Extensions []string
	// Filter is the default sampler filter.
	Filter render.Filter
	// FilterOverrides maps texture names to a filter.
	FilterOverrides map[string]render.Filter
}

// DefaultOptions probes png first and samples linearly.
func DefaultOptions() Options {
	return Options{
		Extensions: []string{"png", "tga", "bmp", "webp"},
		Filter:     render.FilterLinear,
	}
}

// Store resolves texture names against a file system laid out as
// textures/<name>.<ext> with companions at textures/<name>.<suffix>.<ext>.
type Store struct {
	fsys fs.FS
	opts Options
	log  *zap.Logger
}

// NewStore creates a store over fsys.
func NewStore(fsys fs.FS, opts Options) *Store {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions().Extensions
	}
	if opts.Filter == "" {
		opts.Filter = render.FilterLinear
	}
	return &Store{
		fsys: fsys,
		opts: opts,
		log:  logger.Named("texture"),
	}
}

// Material builds the material for a texture name. It returns nil without an
// error when no base color file exists for the name.
func (s *Store) Material(name string) (*render.Material, error) {
	base, err := s.probe(name, true)
	if err != nil || base == nil {
		return nil, err
	}

	m := &render.Material{
		Name:                name,
		BaseColor:           [4]float32{1, 1, 1, 1},
		BaseColorTexture:    base,
		PerceptualRoughness: DefaultRoughness,
		Sampler: render.Sampler{
			Repeat: true,
			Filter: s.filterFor(name),
		},
	}
	companions := []struct {
		suffix string
		dst    **render.Texture
	}{
		{SuffixMetallicRoughness, &m.MetallicRoughnessTexture},
		{SuffixNormalMap, &m.NormalMapTexture},
		{SuffixDepthMap, &m.DepthMap},
		{SuffixOcclusion, &m.OcclusionTexture},
		{SuffixSpecularTransmission, &m.SpecularTransmissionTexture},
		{SuffixEmissive, &m.EmissiveTexture},
		{SuffixDiffuseTransmission, &m.DiffuseTransmissionTexture},
	}
	for _, c := range companions {
		tex, err := s.probe(name+"."+c.suffix, false)
		if err != nil {
			return nil, err
		}
		*c.dst = tex
	}

	if m.MetallicRoughnessTexture != nil {
		m.PerceptualRoughness, m.Metallic = 1, 1
	}
	if strings.HasSuffix(name, maskSuffix) {
		m.AlphaMode = render.AlphaMask
		m.AlphaCutoff = MaskCutoff
	}
	if m.SpecularTransmissionTexture != nil {
		m.SpecularTransmission = TransmissionAmount
		m.Thickness = TransmissionThick
	}
	if m.DiffuseTransmissionTexture != nil {
		m.DiffuseTransmission = TransmissionAmount
		m.Thickness = TransmissionThick
	}
	if m.EmissiveTexture != nil {
		m.Emissive = [3]float32{1, 1, 1}
	}
	if m.DepthMap != nil {
		m.Parallax = &render.Parallax{MaxSteps: ParallaxMaxSteps, DepthScale: ParallaxDepthScale}
	}

	s.log.Debug("material loaded",
		zap.String("texture", name),
		zap.String("path", base.Path),
		zap.Uint32("width", base.Width),
		zap.Uint32("height", base.Height),
		zap.Int("maps", len(m.Textures())),
	)
	return m, nil
}

// probe tries each extension in order and reads the first file found.
func (s *Store) probe(base string, srgb bool) (*render.Texture, error) {
	for _, ext := range s.opts.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		decode, ok := decoders[ext]
		if !ok {
			continue
		}

		path := texturesDir + "/" + encoding.NormalizePath(base) + "." + ext
		if !fs.ValidPath(path) {
			s.log.Warn("invalid texture path", zap.String("path", path))
			return nil, nil
		}

		data, err := fs.ReadFile(s.fsys, path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrAssetRead, path, err)
		}

		cfg, err := decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		return &render.Texture{
			Path:   path,
			Width:  uint32(cfg.Width),
			Height: uint32(cfg.Height),
			SRGB:   srgb,
		}, nil
	}
	return nil, nil
}

func (s *Store) filterFor(name string) render.Filter {
	if f, ok := s.opts.FilterOverrides[name]; ok {
		return f
	}
	return s.opts.Filter
}
