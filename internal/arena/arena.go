// Package arena caches decoded source pixels so a texture that was
// evicted and re-requested skips the redecode. It replaces the implicit
// weak-reference decode caches of browser runtimes with an explicit
// bounded LRU.
package arena

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEntries is the default arena capacity. Decoded tier images are
// small relative to GPU textures (no mip chain, transient), so a modest
// count-bounded LRU is sufficient.
const DefaultEntries = 32

// Key identifies one decoded result: a content id at one tier size, for
// one content generation. The generation keeps a decode that was running
// when its content was invalidated from polluting the arena for the new
// pixels.
type Key struct {
	ID   string
	Tier int32
	Gen  uint64
}

// Arena is a bounded cache of decoded pixels keyed by (id, tier).
// It is safe for concurrent use; decode workers insert while the frame
// thread invalidates.
type Arena struct {
	cache *lru.Cache[Key, *image.RGBA]
}

// New creates an arena holding at most entries decoded images.
func New(entries int) *Arena {
	if entries <= 0 {
		entries = DefaultEntries
	}
	c, err := lru.New[Key, *image.RGBA](entries)
	if err != nil {
		// lru.New only fails for non-positive sizes, excluded above.
		panic(err)
	}
	return &Arena{cache: c}
}

// Get returns the decoded pixels for key, if cached.
func (a *Arena) Get(key Key) (*image.RGBA, bool) {
	return a.cache.Get(key)
}

// Put stores decoded pixels for key.
func (a *Arena) Put(key Key, img *image.RGBA) {
	if img == nil {
		return
	}
	a.cache.Add(key, img)
}

// DropID removes all cached tiers for a content id. Called on
// invalidation so stale pixels cannot be re-uploaded.
func (a *Arena) DropID(id string) {
	for _, key := range a.cache.Keys() {
		if key.ID == id {
			a.cache.Remove(key)
		}
	}
}

// Clear removes everything.
func (a *Arena) Clear() {
	a.cache.Purge()
}

// Len returns the number of cached entries.
func (a *Arena) Len() int {
	return a.cache.Len()
}
