// Package assets loads map documents and resolves their textures into
// materials registered with the renderer.
package assets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/logger"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/pkg/geomap"
)

// ErrNoGeometry means a MapAsset has no parsed map behind it.
var ErrNoGeometry = errors.New("map asset has no geometry")

// MapAsset is a loaded map: its geometry tables plus the materials and texture
// sizes of every texture that resolved. Textures without a base color file
// appear in neither map.
type MapAsset struct {
	ID           uuid.UUID
	Path         string
	Geo          *geomap.GeoMap
	Materials    map[string]render.MaterialHandle
	TextureSizes geomap.TextureSizes
}

// Material returns the material handle for a texture name.
func (a *MapAsset) Material(texture string) (render.MaterialHandle, bool) {
	h, ok := a.Materials[texture]
	return h, ok
}

// MaterialSource resolves a texture name to a material, or nil when the
// texture has no files.
type MaterialSource interface {
	Material(name string) (*render.Material, error)
}

// Loader builds MapAssets. Materials are cached by texture name across loads.
type Loader struct {
	// Charset of map files on disk; empty means UTF-8.
	Charset string

	source   MaterialSource
	registry *render.Registry
	headless bool
	cache    *Cache
	log      *zap.Logger
}

// NewLoader creates a loader. In headless mode textures are never read and
// assets carry no materials, so builds produce collision only.
func NewLoader(source MaterialSource, registry *render.Registry, headless bool) *Loader {
	return &Loader{
		source:   source,
		registry: registry,
		headless: headless,
		cache:    NewCache(),
		log:      logger.Named("assets"),
	}
}

// Load reads a map file and resolves its textures.
func (l *Loader) Load(path string) (*MapAsset, error) {
	g, err := geomap.LoadCharset(path, l.Charset)
	if err != nil {
		return nil, err
	}
	asset, err := l.FromGeoMap(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	asset.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("maps/"+path))
	asset.Path = path
	return asset, nil
}

// FromGeoMap wraps an already parsed map and resolves its textures.
func (l *Loader) FromGeoMap(g *geomap.GeoMap) (*MapAsset, error) {
	if g == nil {
		return nil, ErrNoGeometry
	}
	asset := &MapAsset{
		ID:           uuid.New(),
		Geo:          g,
		Materials:    make(map[string]render.MaterialHandle),
		TextureSizes: make(geomap.TextureSizes),
	}
	if l.headless {
		l.log.Debug("headless load, textures skipped", zap.Int("textures", len(g.Textures())))
		return asset, nil
	}

	for _, name := range g.Textures() {
		mat, err := l.material(name)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", name, err)
		}
		if mat == nil {
			l.log.Debug("texture has no base color file", zap.String("texture", name))
			continue
		}

		h := render.MaterialHandleFor(name)
		if l.registry != nil {
			l.registry.SetMaterial(h, mat)
		}
		asset.Materials[name] = h
		asset.TextureSizes[name] = [2]uint32{mat.BaseColorTexture.Width, mat.BaseColorTexture.Height}
	}

	l.log.Info("map textures resolved",
		zap.Int("textures", len(g.Textures())),
		zap.Int("materials", len(asset.Materials)),
	)
	return asset, nil
}

func (l *Loader) material(name string) (*render.Material, error) {
	if m, ok := l.cache.Get(name); ok {
		return m, nil
	}
	m, err := l.source.Material(name)
	if err != nil {
		return nil, err
	}
	l.cache.Set(name, m)
	return m, nil
}

// CacheStats returns material cache hits and misses.
func (l *Loader) CacheStats() (hits, misses int) {
	return l.cache.Stats()
}

// Cache is an in-memory material cache. A nil entry records a texture known to
// have no files.
type Cache struct {
	data map[string]*render.Material
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*render.Material),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*render.Material, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return m, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, m *render.Material) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = m
}

// Clear empties the cache and resets statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*render.Material)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
