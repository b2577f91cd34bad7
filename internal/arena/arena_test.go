package arena

import (
	"image"
	"testing"
)

func img() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestArenaGetPut(t *testing.T) {
	a := New(4)
	key := Key{ID: "photo", Tier: 256}

	if _, ok := a.Get(key); ok {
		t.Fatal("hit on empty arena")
	}
	want := img()
	a.Put(key, want)
	got, ok := a.Get(key)
	if !ok || got != want {
		t.Errorf("Get = %v, %v", got, ok)
	}
}

func TestArenaEvictsOldest(t *testing.T) {
	a := New(2)
	a.Put(Key{ID: "a", Tier: 64}, img())
	a.Put(Key{ID: "b", Tier: 64}, img())
	a.Put(Key{ID: "c", Tier: 64}, img())

	if _, ok := a.Get(Key{ID: "a", Tier: 64}); ok {
		t.Error("oldest entry survived past capacity")
	}
	if a.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.Len())
	}
}

func TestArenaDropID(t *testing.T) {
	a := New(8)
	a.Put(Key{ID: "a", Tier: 64}, img())
	a.Put(Key{ID: "a", Tier: 256, Gen: 1}, img())
	a.Put(Key{ID: "b", Tier: 64}, img())

	a.DropID("a")
	if a.Len() != 1 {
		t.Fatalf("Len = %d after DropID, want 1", a.Len())
	}
	if _, ok := a.Get(Key{ID: "b", Tier: 64}); !ok {
		t.Error("unrelated entry dropped")
	}
}

func TestArenaGenerationsDistinct(t *testing.T) {
	a := New(8)
	old := img()
	a.Put(Key{ID: "a", Tier: 256, Gen: 0}, old)

	if _, ok := a.Get(Key{ID: "a", Tier: 256, Gen: 1}); ok {
		t.Error("new generation hit the old generation's pixels")
	}
}

func TestArenaNilPut(t *testing.T) {
	a := New(4)
	a.Put(Key{ID: "a", Tier: 64}, nil)
	if a.Len() != 0 {
		t.Errorf("Len = %d after nil Put, want 0", a.Len())
	}
}

func TestArenaClear(t *testing.T) {
	a := New(4)
	a.Put(Key{ID: "a", Tier: 64}, img())
	a.Clear()
	if a.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", a.Len())
	}
}

func TestArenaDefaultCapacity(t *testing.T) {
	a := New(0)
	for i := 0; i < DefaultEntries+5; i++ {
		a.Put(Key{ID: "x", Tier: int32(i)}, img())
	}
	if a.Len() != DefaultEntries {
		t.Errorf("Len = %d, want %d", a.Len(), DefaultEntries)
	}
}
