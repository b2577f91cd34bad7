// Package wgpu provides a GPU texture backend using gogpu/wgpu.
//
// Import this package to register the "wgpu" backend:
//
//	import _ "github.com/rotoshake/imagecanvas-sub004/backend/wgpu"
//
//	cache, err := texcache.New(provider, texcache.WithBackend("wgpu"))
//
// If GPU initialization fails (no Vulkan available), Init returns an error
// and callers should fall back to the software backend.
//
// Host applications that already own a GPU device (e.g. a gogpu canvas)
// should share it via [UseDeviceProvider] instead of letting the backend
// create its own instance.
package wgpu
