package mip

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFitToDownscales(t *testing.T) {
	src := solid(1024, 768, color.RGBA{R: 200, A: 255})
	dst := FitTo(src, 256)
	if dst == nil {
		t.Fatal("FitTo returned nil")
	}
	if dst.Bounds().Dx() != 256 || dst.Bounds().Dy() != 192 {
		t.Errorf("scaled to %dx%d, want 256x192", dst.Bounds().Dx(), dst.Bounds().Dy())
	}
}

func TestFitToPortraitAspect(t *testing.T) {
	dst := FitTo(solid(300, 600, color.RGBA{A: 255}), 128)
	if dst.Bounds().Dx() != 64 || dst.Bounds().Dy() != 128 {
		t.Errorf("scaled to %dx%d, want 64x128 (longest edge wins)",
			dst.Bounds().Dx(), dst.Bounds().Dy())
	}
}

func TestFitToPassthrough(t *testing.T) {
	src := solid(100, 80, color.RGBA{A: 255})
	// Already below target: no scaling, and an origin-anchored RGBA is
	// reused directly.
	if dst := FitTo(src, 256); dst != src {
		t.Error("small RGBA source was copied, want passthrough")
	}
	// Native resolution request.
	if dst := FitTo(src, 0); dst != src {
		t.Error("target 0 (native) scaled the source")
	}
}

func TestFitToConvertsNonRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	dst := FitTo(src, 256)
	if dst == nil || dst.Bounds().Dx() != 50 {
		t.Fatalf("conversion result %v", dst)
	}
}

func TestFitToNil(t *testing.T) {
	if FitTo(nil, 256) != nil {
		t.Error("FitTo(nil) != nil")
	}
}

func TestChainLevels(t *testing.T) {
	levels := Chain(solid(256, 128, color.RGBA{R: 10, G: 20, B: 30, A: 255}))

	// 256x128 halves to 128x64, ..., 2x1, 1x1: eight levels.
	if len(levels) != 8 {
		t.Fatalf("len(levels) = %d, want 8", len(levels))
	}
	w, h := 256, 128
	for i, lv := range levels {
		w = max(1, w/2)
		h = max(1, h/2)
		if lv.Bounds().Dx() != w || lv.Bounds().Dy() != h {
			t.Errorf("level %d is %dx%d, want %dx%d", i, lv.Bounds().Dx(), lv.Bounds().Dy(), w, h)
		}
	}
	last := levels[len(levels)-1]
	if last.Bounds().Dx() != 1 || last.Bounds().Dy() != 1 {
		t.Errorf("final level %dx%d, want 1x1", last.Bounds().Dx(), last.Bounds().Dy())
	}
}

func TestChainPreservesSolidColor(t *testing.T) {
	c := color.RGBA{R: 40, G: 80, B: 120, A: 255}
	levels := Chain(solid(64, 64, c))
	for i, lv := range levels {
		got := lv.RGBAAt(0, 0)
		if got != c {
			t.Errorf("level %d color = %v, want %v", i, got, c)
		}
	}
}

func TestChainTinyBase(t *testing.T) {
	if levels := Chain(solid(1, 1, color.RGBA{A: 255})); levels != nil {
		t.Errorf("Chain(1x1) = %d levels, want none", len(levels))
	}
	if Chain(nil) != nil {
		t.Error("Chain(nil) != nil")
	}
}
