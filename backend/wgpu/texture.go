//go:build !nogpu

package wgpu

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/rotoshake/imagecanvas-sub004/backend"
)

// textureUsage is the usage for cache textures: sampled by the renderer,
// written by the upload path.
const textureUsage = gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// CreateTexture creates a GPU texture from decoded pixels and uploads the
// base level plus any pre-built mip levels via queue.WriteTexture.
func (b *Backend) CreateTexture(base *image.RGBA, mips []*image.RGBA, label string) (backend.Texture, error) {
	if base == nil || base.Bounds().Dx() <= 0 || base.Bounds().Dy() <= 0 {
		return nil, backend.ErrInvalidDimensions
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized || b.device == nil {
		return nil, backend.ErrNotInitialized
	}

	w := uint32(base.Bounds().Dx())
	h := uint32(base.Bounds().Dy())
	mipLevels := uint32(1 + len(mips))

	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: mipLevels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         textureUsage,
	})
	if err != nil {
		// Driver allocation failures surface here; map them to the
		// exhaustion sentinel so the cache drops the request.
		return nil, fmt.Errorf("%w: %v", backend.ErrResourceExhausted, err)
	}

	b.writeLevel(tex, 0, base)
	for i, mip := range mips {
		b.writeLevel(tex, uint32(i+1), mip)
	}

	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: create texture view: %w", err)
	}

	return &gpuTexture{
		backend:   b,
		tex:       tex,
		view:      view,
		width:     int(w),
		height:    int(h),
		mipLevels: int(mipLevels),
	}, nil
}

// writeLevel uploads one mip level. Caller must hold b.mu.
func (b *Backend) writeLevel(tex hal.Texture, level uint32, img *image.RGBA) {
	w := uint32(img.Bounds().Dx())
	h := uint32(img.Bounds().Dy())
	b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: level,
		},
		img.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Stride),
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

// gpuTexture is a wgpu-resident cache texture.
type gpuTexture struct {
	backend   *Backend
	tex       hal.Texture
	view      hal.TextureView
	width     int
	height    int
	mipLevels int
	released  atomic.Bool
}

func (t *gpuTexture) Width() int     { return t.width }
func (t *gpuTexture) Height() int    { return t.height }
func (t *gpuTexture) MipLevels() int { return t.mipLevels }

// View returns the texture view for binding in the renderer's pipeline.
func (t *gpuTexture) View() hal.TextureView { return t.view }

// Raw returns the underlying HAL texture handle.
func (t *gpuTexture) Raw() hal.Texture { return t.tex }

// Destroy releases the GPU texture. Idempotent. The cache's memory
// accounting treats the free as immediate even though the driver may
// reclaim lazily.
func (t *gpuTexture) Destroy() {
	if t.released.Swap(true) {
		return
	}
	b := t.backend
	b.mu.Lock()
	device := b.device
	b.mu.Unlock()
	if device == nil {
		return
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
