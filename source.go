package texcache

import (
	"context"
	"image"
)

// SourceProvider supplies decodable pixel sources for a content id at a
// resolution tier. It is the cache's only path to image data; thumbnail
// generation, disk and network I/O all live behind this interface.
type SourceProvider interface {
	// GetSource returns a handle for the pixels of id at tier, or nil
	// if the provider has nothing for that key. Returning nil drops the
	// load request without retry.
	//
	// Providers may return a source for a different (typically larger)
	// tier than requested; the scheduler downsamples to the tier size.
	GetSource(id ContentID, tier Tier) Source
}

// Source is a decodable image handle. Sources backed by in-memory bitmaps
// report Ready immediately; sources still streaming from disk or network
// report Ready false until their bytes are available.
type Source interface {
	// Ready reports whether Decode can complete without waiting for
	// underlying I/O. Requests whose source is not ready are re-queued
	// rather than dropped.
	Ready() bool

	// Decode produces the source pixels. It is called from a background
	// goroutine and must honor ctx cancellation; the cache applies a
	// decode timeout via ctx.
	Decode(ctx context.Context) (image.Image, error)
}

// ImageSource adapts an already-decoded image to the Source interface.
// It is always ready and decoding is a no-op, which makes it eligible for
// the scheduler's immediate-upload fast path.
type ImageSource struct {
	Image image.Image
}

// Ready always reports true.
func (s ImageSource) Ready() bool { return true }

// Decode returns the wrapped image.
func (s ImageSource) Decode(context.Context) (image.Image, error) {
	if s.Image == nil {
		return nil, ErrSourceUnavailable
	}
	return s.Image, nil
}
