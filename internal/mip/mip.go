// Package mip scales decoded images to resolution tiers and builds mip
// chains for upload.
package mip

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// FitTo scales src so its longest edge equals target pixels, preserving
// aspect ratio, and converts to RGBA. When the source is already at or
// below the target size (or target <= 0, meaning native resolution), the
// pixels are converted without scaling.
//
// Downscaling uses Catmull-Rom resampling; tier images are rendered at
// many zoom levels, so quality matters more than the one-time cost.
func FitTo(src image.Image, target int) *image.RGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw <= 0 || sh <= 0 {
		return nil
	}

	longest := max(sw, sh)
	if target <= 0 || longest <= target {
		return toRGBA(src)
	}

	scale := float64(target) / float64(longest)
	dw := max(1, int(math.Round(float64(sw)*scale)))
	dh := max(1, int(math.Round(float64(sh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// Chain builds a mip chain below base: each level is half the previous
// size (minimum 1px), down to the level where the longest edge reaches
// 1 pixel. The base image is not included in the returned slice.
//
// Levels are produced by successive halving with bilinear filtering,
// which matches the 2x2 box filter GPUs use for runtime mip generation.
func Chain(base *image.RGBA) []*image.RGBA {
	if base == nil {
		return nil
	}
	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	if w <= 1 && h <= 1 {
		return nil
	}

	numLevels := int(math.Floor(math.Log2(float64(max(w, h)))))
	levels := make([]*image.RGBA, 0, numLevels)

	prev := base
	for max(w, h) > 1 {
		w = max(1, w/2)
		h = max(1, h/2)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), xdraw.Src, nil)
		levels = append(levels, next)
		prev = next
	}
	return levels
}

// toRGBA converts any image to RGBA without scaling. An *image.RGBA whose
// bounds start at the origin is returned as-is.
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}
