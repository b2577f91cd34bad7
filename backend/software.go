package backend

import (
	"image"
	"sync/atomic"
)

// SoftwareName is the identifier of the built-in software backend.
const SoftwareName = "software"

func init() {
	Register(&SoftwareBackend{})
}

// SoftwareBackend keeps texture pixels in CPU memory. It exists for tests,
// headless use, and as the fallback when no GPU backend is registered.
// "GPU memory" accounting still applies; the cache cannot tell the
// difference, which is the point.
type SoftwareBackend struct {
	live atomic.Int64 // live texture count, for leak checks in tests
}

// Name returns "software".
func (b *SoftwareBackend) Name() string { return SoftwareName }

// Init is a no-op for the software backend.
func (b *SoftwareBackend) Init() error { return nil }

// Close is a no-op; individual textures free their pixels on Destroy.
func (b *SoftwareBackend) Close() {}

// LiveTextures returns the number of textures created but not yet
// destroyed. Used by tests to verify release-exactly-once semantics.
func (b *SoftwareBackend) LiveTextures() int {
	return int(b.live.Load())
}

// CreateTexture retains the pixel buffers as the "GPU" resource.
func (b *SoftwareBackend) CreateTexture(base *image.RGBA, mips []*image.RGBA, label string) (Texture, error) {
	if base == nil || base.Bounds().Dx() <= 0 || base.Bounds().Dy() <= 0 {
		return nil, ErrInvalidDimensions
	}
	b.live.Add(1)
	return &softwareTexture{
		backend: b,
		base:    base,
		mips:    mips,
		label:   label,
	}, nil
}

// softwareTexture is a CPU-resident texture.
type softwareTexture struct {
	backend  *SoftwareBackend
	base     *image.RGBA
	mips     []*image.RGBA
	label    string
	released atomic.Bool
}

func (t *softwareTexture) Width() int  { return t.base.Bounds().Dx() }
func (t *softwareTexture) Height() int { return t.base.Bounds().Dy() }

func (t *softwareTexture) MipLevels() int { return 1 + len(t.mips) }

// Pixels returns the base level pixel buffer. Renderers drawing from the
// software backend sample this directly.
func (t *softwareTexture) Pixels() *image.RGBA { return t.base }

func (t *softwareTexture) Destroy() {
	if t.released.Swap(true) {
		return
	}
	t.backend.live.Add(-1)
	t.mips = nil
}
