// Package assets resolves asset references to bytes, meshes and images.
//
// A reference is either a slash-separated path searched under the
// registered root directories, or a builtin reference of the form
// "builtin:<kind>:<variant>" naming a procedural asset.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/engine/texture"
	"github.com/Faultbox/verdant/internal/logger"
)

// ErrNotFound is returned when no root holds the requested file or a
// builtin reference names an unknown asset.
var ErrNotFound = errors.New("assets: not found")

const (
	builtinPrefix     = "builtin:"
	rockSubdivisions  = 2
	builtinTextureDim = 64
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	water = color.RGBA{R: 38, G: 92, B: 140, A: 255}
)

// Manager handles asset loading from directory roots.
type Manager struct {
	roots []string
	cache *Cache
	mu    sync.RWMutex
	log   *zap.Logger
}

// NewManager creates a new asset manager searching the given roots.
func NewManager(roots ...string) *Manager {
	return &Manager{
		roots: append([]string(nil), roots...),
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// AddRoot adds a directory to the search path.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding asset root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding asset root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()
	return nil
}

// Load reads a file from the roots.
func (m *Manager) Load(name string) ([]byte, error) {
	name = path.Clean(name)
	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		data, err := os.ReadFile(filepath.Join(m.roots[i], filepath.FromSlash(name)))
		if err == nil {
			m.cache.Set(name, data)
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// LoadMesh resolves a mesh reference. Files must be Wavefront OBJ.
func (m *Manager) LoadMesh(ref string) (*mesh.Data, error) {
	if kind, variant, ok, err := parseBuiltin(ref); ok {
		if err != nil {
			return nil, err
		}
		switch kind {
		case "grass":
			return mesh.GrassClump(variant), nil
		case "rock":
			return mesh.Rock(variant, rockSubdivisions), nil
		case "quad":
			return mesh.Quad(), nil
		}
		return nil, fmt.Errorf("%w: builtin mesh %q", ErrNotFound, ref)
	}

	if ext := strings.ToLower(path.Ext(ref)); ext != ".obj" {
		return nil, fmt.Errorf("loading mesh %s: unsupported format %q", ref, ext)
	}
	data, err := m.Load(ref)
	if err != nil {
		return nil, err
	}
	d, err := mesh.ParseOBJ(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing mesh %s: %w", ref, err)
	}
	m.log.Debug("mesh loaded",
		zap.String("ref", ref),
		zap.Int("vertices", len(d.Vertices)),
		zap.Int("triangles", d.TriangleCount()))
	return d, nil
}

// LoadTexture resolves a texture reference to RGBA pixels.
func (m *Manager) LoadTexture(ref string) (*texture.Image, error) {
	if kind, variant, ok, err := parseBuiltin(ref); ok {
		if err != nil {
			return nil, err
		}
		switch kind {
		case "grass":
			return texture.Grass(variant, builtinTextureDim), nil
		case "rock":
			return texture.Rock(variant, builtinTextureDim), nil
		case "ground":
			return texture.Ground(variant, builtinTextureDim), nil
		case "water":
			return texture.Solid(water, 1), nil
		case "white":
			return texture.Solid(white, 1), nil
		}
		return nil, fmt.Errorf("%w: builtin texture %q", ErrNotFound, ref)
	}

	data, err := m.Load(ref)
	if err != nil {
		return nil, err
	}
	img, err := texture.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", ref, err)
	}
	return img, nil
}

// parseBuiltin splits "builtin:kind[:variant]". ok is false for ordinary
// paths.
func parseBuiltin(ref string) (kind string, variant int, ok bool, err error) {
	rest, found := strings.CutPrefix(ref, builtinPrefix)
	if !found {
		return "", 0, false, nil
	}
	kind, num, hasVariant := strings.Cut(rest, ":")
	if hasVariant {
		variant, err = strconv.Atoi(num)
		if err != nil || variant < 0 {
			return kind, 0, true, fmt.Errorf("%w: bad variant in %q", ErrNotFound, ref)
		}
	}
	return kind, variant, true, nil
}

// CacheStats returns cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops the roots and the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roots = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
