// Package backend defines the texture backend interface and registry.
//
// A TextureBackend owns the GPU resources behind cache entries: it creates
// textures from decoded pixels and destroys them on eviction. Backends
// register themselves by name; the software backend is always available
// and is the default. GPU backends are opt-in via blank import:
//
//	import _ "github.com/rotoshake/imagecanvas-sub004/backend/wgpu"
package backend

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrResourceExhausted is returned when the underlying graphics API
	// refused an allocation. The cache treats this like a decode failure:
	// the request is dropped, never escalated.
	ErrResourceExhausted = errors.New("backend: GPU resource exhausted")

	// ErrInvalidDimensions is returned for zero or negative texture sizes.
	ErrInvalidDimensions = errors.New("backend: invalid texture dimensions")
)

// Texture is a GPU texture owned by the cache. Destroy releases the
// underlying resource; the cache calls it exactly once per texture.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// MipLevels returns the number of mip levels (1 for un-mipmapped).
	MipLevels() int

	// Destroy releases the GPU resource. Idempotent.
	Destroy()
}

// TextureBackend creates and destroys GPU textures for the cache.
type TextureBackend interface {
	// Name returns the backend identifier (e.g. "software", "wgpu").
	Name() string

	// Init prepares the backend. Called once before the first upload.
	Init() error

	// Close releases all backend resources.
	Close()

	// CreateTexture uploads base pixels plus optional pre-built mip
	// levels (level 1..n, each half the previous size) and returns the
	// texture handle. Returns ErrResourceExhausted when the graphics API
	// refuses the allocation.
	CreateTexture(base *image.RGBA, mips []*image.RGBA, label string) (Texture, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]TextureBackend)
)

// Register makes a backend available under its name. Registering the same
// name twice replaces the earlier backend; backends typically register
// from an init function.
func Register(b TextureBackend) {
	if b == nil {
		return
	}
	registryMu.Lock()
	registry[b.Name()] = b
	registryMu.Unlock()
}

// Get returns the named backend, or ErrBackendNotAvailable.
func Get(name string) (TextureBackend, error) {
	registryMu.RLock()
	b, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return b, nil
}

// Default returns the software backend, which is always registered.
func Default() TextureBackend {
	b, err := Get(SoftwareName)
	if err != nil {
		// The software backend registers from init; this is unreachable
		// unless the registry was tampered with.
		panic(err)
	}
	return b
}

// Names returns the registered backend names, sorted.
func Names() []string {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()
	sort.Strings(names)
	return names
}
