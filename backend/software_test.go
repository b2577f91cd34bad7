package backend

import (
	"errors"
	"image"
	"testing"
)

func rgba(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestRegistryDefault(t *testing.T) {
	b := Default()
	if b.Name() != SoftwareName {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), SoftwareName)
	}
	got, err := Get(SoftwareName)
	if err != nil || got != b {
		t.Errorf("Get(software) = %v, %v", got, err)
	}
}

func TestRegistryUnknown(t *testing.T) {
	if _, err := Get("no-such-backend"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("err = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryNames(t *testing.T) {
	names := Names()
	found := false
	for _, n := range names {
		if n == SoftwareName {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, missing %q", names, SoftwareName)
	}
}

func TestSoftwareCreateAndDestroy(t *testing.T) {
	b := &SoftwareBackend{}
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	mips := []*image.RGBA{rgba(128, 96), rgba(64, 48)}
	tex, err := b.CreateTexture(rgba(256, 192), mips, "test")
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if tex.Width() != 256 || tex.Height() != 192 {
		t.Errorf("texture %dx%d, want 256x192", tex.Width(), tex.Height())
	}
	if tex.MipLevels() != 3 {
		t.Errorf("MipLevels = %d, want 3", tex.MipLevels())
	}
	if b.LiveTextures() != 1 {
		t.Errorf("LiveTextures = %d, want 1", b.LiveTextures())
	}

	tex.Destroy()
	tex.Destroy() // idempotent
	if b.LiveTextures() != 0 {
		t.Errorf("LiveTextures = %d after destroy, want 0", b.LiveTextures())
	}
}

func TestSoftwareRejectsInvalidDimensions(t *testing.T) {
	b := &SoftwareBackend{}
	if _, err := b.CreateTexture(nil, nil, "nil"); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("nil base err = %v, want ErrInvalidDimensions", err)
	}
	if _, err := b.CreateTexture(rgba(0, 10), nil, "empty"); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero width err = %v, want ErrInvalidDimensions", err)
	}
}

func TestSoftwarePixelsAccessible(t *testing.T) {
	b := &SoftwareBackend{}
	base := rgba(4, 4)
	base.Pix[0] = 0xAB

	tex, err := b.CreateTexture(base, nil, "px")
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer tex.Destroy()

	st, ok := tex.(*softwareTexture)
	if !ok {
		t.Fatalf("texture type %T", tex)
	}
	if st.Pixels().Pix[0] != 0xAB {
		t.Error("Pixels() does not expose the uploaded buffer")
	}
}
