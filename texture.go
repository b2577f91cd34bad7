package texcache

import (
	"fmt"

	"github.com/rotoshake/imagecanvas-sub004/backend"
)

// ContentID is a stable identifier for a source image, independent of
// resolution. In a canvas document this is typically a content hash; the
// cache treats it as opaque.
type ContentID string

// CacheKey identifies one resident texture: a content id at one tier.
type CacheKey struct {
	ID   ContentID
	Tier Tier
}

// String returns "id@tier" for logs.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s@%s", string(k.ID), k.Tier)
}

// Texture is a resident GPU texture handed to the renderer. The cache
// retains ownership; the renderer must not destroy the handle and must not
// use it across Invalidate or Clear.
type Texture struct {
	// Key is the (content id, tier) pair this texture holds.
	Key CacheKey

	// Handle is the backend GPU texture.
	Handle backend.Texture

	// Width and Height are the pixel dimensions of the uploaded texture.
	Width, Height int
}

// bytesPerPixel is the memory cost of one RGBA8 pixel.
const bytesPerPixel = 4

// mipMemoryFactor is the memory overhead of a full mip chain (sum of the
// geometric series 1 + 1/4 + 1/16 + ...).
const mipMemoryFactor = 4.0 / 3.0

// mipMinTier is the smallest tier that gets a mip chain. Smaller tiers are
// cheap enough to sample directly.
const mipMinTier = Tier512

// textureBytes computes the accounted GPU memory for a texture of the
// given dimensions, including mip chain overhead when one is generated.
func textureBytes(width, height int, mipped bool) uint64 {
	base := uint64(width) * uint64(height) * bytesPerPixel
	if mipped {
		return uint64(float64(base) * mipMemoryFactor)
	}
	return base
}

// tierMipped reports whether textures at this tier carry a mip chain.
func tierMipped(t Tier) bool {
	return t.IsFull() || t >= mipMinTier
}
