package texcache

import (
	"container/list"
	"fmt"
	"time"
)

// entry is one resident texture with its bookkeeping.
type entry struct {
	key   CacheKey
	tex   *Texture
	bytes uint64

	created  time.Time
	lastUsed time.Time

	// screenAtLoad is the on-screen size the load was issued for, used
	// by the oversize checks in eviction. Zero when unknown.
	screenAtLoad float64

	// elem is the entry's node in the access-order list.
	elem *list.Element
}

// store maps cache keys to resident textures and tracks access order and
// memory usage. It is not safe for concurrent use; the owning
// TextureCache serializes all access on the frame thread.
type store struct {
	entries map[CacheKey]*entry
	byID    map[ContentID]map[Tier]*entry

	// lru is the access order: front = most recently used,
	// back = least recently used.
	lru *list.List

	current uint64 // accounted bytes of all resident entries
	budget  uint64
}

// newStore creates an empty store with the given memory budget.
func newStore(budget uint64) *store {
	return &store{
		entries: make(map[CacheKey]*entry),
		byID:    make(map[ContentID]map[Tier]*entry),
		lru:     list.New(),
		budget:  budget,
	}
}

// lookup returns the entry for key without touching access order.
func (s *store) lookup(key CacheKey) *entry {
	return s.entries[key]
}

// best returns the resident entry for id that best serves the ideal tier:
// the smallest resident tier at or above ideal (guaranteed sharpness), or
// failing that the largest resident tier below it. Returns nil when no
// tier of id is resident. Access order is not touched.
func (s *store) best(id ContentID, ideal Tier) *entry {
	tiers := s.byID[id]
	if len(tiers) == 0 {
		return nil
	}
	var below *entry
	for _, t := range Tiers {
		e, ok := tiers[t]
		if !ok {
			continue
		}
		if t >= ideal {
			return e
		}
		below = e
	}
	return below
}

// smallest returns the smallest resident tier for id, or nil.
func (s *store) smallest(id ContentID) *entry {
	tiers := s.byID[id]
	for _, t := range Tiers {
		if e, ok := tiers[t]; ok {
			return e
		}
	}
	return nil
}

// tierCount returns how many tiers of id are resident.
func (s *store) tierCount(id ContentID) int {
	return len(s.byID[id])
}

// touch marks an entry as just used, moving it to the most-recently-used
// end of the access order.
func (s *store) touch(e *entry, now time.Time) {
	e.lastUsed = now
	s.lru.MoveToFront(e.elem)
}

// insert adds a new resident entry. Returns ErrDuplicateKey if the key is
// already resident; callers are expected to check residency first, so a
// duplicate here is a logic bug, not a runtime condition.
func (s *store) insert(tex *Texture, bytes uint64, screenAtLoad float64, now time.Time) (*entry, error) {
	key := tex.Key
	if _, ok := s.entries[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	e := &entry{
		key:          key,
		tex:          tex,
		bytes:        bytes,
		created:      now,
		lastUsed:     now,
		screenAtLoad: screenAtLoad,
	}
	e.elem = s.lru.PushFront(e)
	s.entries[key] = e

	tiers := s.byID[key.ID]
	if tiers == nil {
		tiers = make(map[Tier]*entry)
		s.byID[key.ID] = tiers
	}
	tiers[key.Tier] = e

	s.current += bytes
	return e, nil
}

// evict removes one entry, destroys its GPU texture, and returns its
// bytes to the accountant. The handle is released exactly once; entries
// are only ever removed through evict or clearAll.
func (s *store) evict(e *entry) {
	key := e.key
	if s.entries[key] != e {
		return
	}
	delete(s.entries, key)
	if tiers := s.byID[key.ID]; tiers != nil {
		delete(tiers, key.Tier)
		if len(tiers) == 0 {
			delete(s.byID, key.ID)
		}
	}
	s.lru.Remove(e.elem)
	s.current -= e.bytes
	e.tex.Handle.Destroy()
}

// removeID evicts all resident tiers for a content id. Returns the number
// of entries removed.
func (s *store) removeID(id ContentID) int {
	tiers := s.byID[id]
	if len(tiers) == 0 {
		return 0
	}
	removed := 0
	// Collect first; evict mutates the map.
	victims := make([]*entry, 0, len(tiers))
	for _, e := range tiers {
		victims = append(victims, e)
	}
	for _, e := range victims {
		s.evict(e)
		removed++
	}
	return removed
}

// clearAll evicts everything.
func (s *store) clearAll() {
	for _, e := range s.entries {
		e.tex.Handle.Destroy()
	}
	s.entries = make(map[CacheKey]*entry)
	s.byID = make(map[ContentID]map[Tier]*entry)
	s.lru.Init()
	s.current = 0
}

// len returns the number of resident entries.
func (s *store) len() int {
	return len(s.entries)
}

// checkAccounting recomputes the byte sum and compares it to the running
// counter. Used by tests to catch bookkeeping drift.
func (s *store) checkAccounting() error {
	var sum uint64
	for _, e := range s.entries {
		sum += e.bytes
	}
	if sum != s.current {
		return fmt.Errorf("texcache: accounting drift: counter %d, actual %d", s.current, sum)
	}
	return nil
}
