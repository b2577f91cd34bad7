package texcache

import (
	"errors"
	"testing"
	"time"
)

// fakeHandle is a backend texture that only counts Destroy calls.
type fakeHandle struct {
	w, h, mips int
	destroyed  int
}

func (h *fakeHandle) Width() int     { return h.w }
func (h *fakeHandle) Height() int    { return h.h }
func (h *fakeHandle) MipLevels() int { return h.mips }
func (h *fakeHandle) Destroy()       { h.destroyed++ }

func mustInsert(t *testing.T, s *store, id ContentID, tier Tier, bytes uint64, now time.Time) *fakeHandle {
	t.Helper()
	h := &fakeHandle{mips: 1}
	tex := &Texture{Key: CacheKey{ID: id, Tier: tier}, Handle: h}
	if _, err := s.insert(tex, bytes, 0, now); err != nil {
		t.Fatalf("insert %s@%s: %v", id, tier, err)
	}
	return h
}

func TestStoreInsertDuplicate(t *testing.T) {
	s := newStore(1000)
	now := time.Now()
	mustInsert(t, s, "a", Tier256, 10, now)

	tex := &Texture{Key: CacheKey{ID: "a", Tier: Tier256}, Handle: &fakeHandle{}}
	if _, err := s.insert(tex, 10, 0, now); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("second insert err = %v, want ErrDuplicateKey", err)
	}
	if s.current != 10 {
		t.Errorf("current = %d after rejected duplicate, want 10", s.current)
	}
}

func TestStoreAccounting(t *testing.T) {
	s := newStore(1000)
	now := time.Now()
	mustInsert(t, s, "a", Tier256, 10, now)
	mustInsert(t, s, "b", Tier256, 20, now)
	mustInsert(t, s, "c", Tier512, 30, now)

	if s.current != 60 {
		t.Errorf("current = %d, want 60", s.current)
	}
	s.evict(s.lookup(CacheKey{ID: "b", Tier: Tier256}))
	if s.current != 40 {
		t.Errorf("current after evict = %d, want 40", s.current)
	}
	if err := s.checkAccounting(); err != nil {
		t.Error(err)
	}
	s.clearAll()
	if s.current != 0 || s.len() != 0 {
		t.Errorf("after clearAll: current=%d len=%d", s.current, s.len())
	}
}

func TestStoreLRUOrder(t *testing.T) {
	s := newStore(1000)
	now := time.Now()
	mustInsert(t, s, "a", Tier256, 10, now)
	mustInsert(t, s, "b", Tier256, 10, now)
	mustInsert(t, s, "c", Tier256, 10, now)

	// a is oldest; touching it moves b to the back.
	s.touch(s.lookup(CacheKey{ID: "a", Tier: Tier256}), now.Add(time.Second))

	back := s.lru.Back().Value.(*entry)
	if back.key.ID != "b" {
		t.Errorf("LRU back = %s, want b", back.key.ID)
	}
	front := s.lru.Front().Value.(*entry)
	if front.key.ID != "a" {
		t.Errorf("LRU front = %s, want a", front.key.ID)
	}
}

func TestStoreBest(t *testing.T) {
	s := newStore(1000)
	now := time.Now()
	mustInsert(t, s, "a", Tier128, 10, now)
	mustInsert(t, s, "a", Tier512, 10, now)

	// Smallest resident tier at or above the ideal wins.
	if e := s.best("a", Tier256); e == nil || e.key.Tier != Tier512 {
		t.Errorf("best(a, 256) = %v, want 512", e)
	}
	if e := s.best("a", Tier128); e == nil || e.key.Tier != Tier128 {
		t.Errorf("best(a, 128) = %v, want exact 128", e)
	}
	// Nothing at or above: largest below serves as a stand-in.
	if e := s.best("a", Tier1024); e == nil || e.key.Tier != Tier512 {
		t.Errorf("best(a, 1024) = %v, want 512 fallback", e)
	}
	if e := s.best("missing", Tier256); e != nil {
		t.Errorf("best(missing) = %v, want nil", e)
	}
}

func TestStoreSmallest(t *testing.T) {
	s := newStore(1000)
	now := time.Now()
	mustInsert(t, s, "a", Tier512, 10, now)
	mustInsert(t, s, "a", Tier64, 10, now)
	mustInsert(t, s, "a", TierFull, 10, now)

	if e := s.smallest("a"); e == nil || e.key.Tier != Tier64 {
		t.Errorf("smallest(a) = %v, want 64", e)
	}
	if s.tierCount("a") != 3 {
		t.Errorf("tierCount(a) = %d, want 3", s.tierCount("a"))
	}
}

func TestStoreEvictDestroysOnce(t *testing.T) {
	s := newStore(1000)
	now := time.Now()
	h := mustInsert(t, s, "a", Tier256, 10, now)

	e := s.lookup(CacheKey{ID: "a", Tier: Tier256})
	s.evict(e)
	s.evict(e) // second call must be a no-op

	if h.destroyed != 1 {
		t.Errorf("Destroy called %d times, want 1", h.destroyed)
	}
	if s.current != 0 {
		t.Errorf("current = %d, want 0", s.current)
	}
}

func TestStoreRemoveID(t *testing.T) {
	s := newStore(1000)
	now := time.Now()
	h1 := mustInsert(t, s, "a", Tier128, 10, now)
	h2 := mustInsert(t, s, "a", Tier512, 20, now)
	mustInsert(t, s, "b", Tier128, 5, now)

	if n := s.removeID("a"); n != 2 {
		t.Errorf("removeID(a) = %d, want 2", n)
	}
	if h1.destroyed != 1 || h2.destroyed != 1 {
		t.Errorf("handles destroyed %d/%d, want 1/1", h1.destroyed, h2.destroyed)
	}
	if s.len() != 1 || s.current != 5 {
		t.Errorf("after removeID: len=%d current=%d", s.len(), s.current)
	}
	if n := s.removeID("a"); n != 0 {
		t.Errorf("second removeID(a) = %d, want 0", n)
	}
	if err := s.checkAccounting(); err != nil {
		t.Error(err)
	}
}
