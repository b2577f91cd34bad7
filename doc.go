// Package texcache keeps GPU texture memory for a canvas full of large
// bitmap images within a fixed budget while serving the best resident
// resolution for whatever is currently visible.
//
// The cache stores one GPU texture per (content id, resolution tier) pair.
// A render pass asks for a texture with [TextureCache.RequestTexture]; on a
// miss the cache returns nil immediately and schedules a background decode
// and upload, so the frame loop is never blocked. Each frame, the scheduler
// drains pending loads within a time budget and the eviction policy frees
// least-recently-used entries under memory pressure, honoring protection
// tiers for actively rendered, recently loaded, and focused content.
//
// Basic usage:
//
//	cache, err := texcache.New(provider,
//	    texcache.WithBudgetBytes(256<<20),
//	    texcache.WithViewport(vp),
//	)
//	if err != nil { ... }
//	defer cache.Close()
//
//	// Per frame:
//	cache.BeginFrame()
//	tex := cache.RequestTexture(id, screenW, screenH, true)
//	if tex != nil {
//	    // draw tex
//	}
//	cache.EndFrame()
//
// GPU uploads go through a pluggable backend (see the backend package).
// The default software backend keeps pixels in CPU memory and is suitable
// for tests and headless use; import the wgpu backend package for real GPU
// textures.
//
// TextureCache is driven from a single render thread. All methods must be
// called from the same goroutine; decode work runs on background goroutines
// but never mutates cache state directly.
package texcache
