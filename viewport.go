package texcache

// Viewport is a read-only view of the camera state, supplied by the host
// canvas application. It is optional: without one the cache falls back to
// simple visible/not-visible heuristics for load priority and eviction.
//
// Implementations are queried only from the cache's single scheduling
// thread, during RequestTexture and EndFrame.
type Viewport interface {
	// VisibleIDs returns the content ids intersecting the viewport,
	// expanded by margin (a fraction of the viewport size; 0 means the
	// exact viewport).
	VisibleIDs(margin float64) map[ContentID]struct{}

	// Scale returns the current zoom level (1.0 = 100%).
	Scale() float64

	// DPR returns the device pixel ratio.
	DPR() float64

	// Size returns the viewport dimensions in CSS pixels.
	Size() (width, height float64)

	// IsAnimating reports whether the camera is currently panning or
	// zooming. Uploads are throttled while true.
	IsAnimating() bool
}

// ItemMetrics describes how one content id relates to the viewport,
// used to weight load priority.
type ItemMetrics struct {
	// Coverage is the fraction of the viewport the item covers, 0..1.
	Coverage float64

	// CenterDist is the item's distance from the viewport center,
	// normalized so 1.0 is the viewport half-diagonal.
	CenterDist float64

	// Visible reports whether the item intersects the viewport.
	Visible bool
}

// MetricsProvider is an optional extension of Viewport. When implemented,
// the cache uses per-item coverage and center distance for the weighted
// priority score; otherwise only visibility is considered.
type MetricsProvider interface {
	// ItemMetrics returns viewport metrics for a content id.
	// ok is false when the id is unknown to the viewport.
	ItemMetrics(id ContentID) (m ItemMetrics, ok bool)
}

// focusThresholdCoverage is the viewport coverage above which a single
// image is considered dominant, triggering focus-mode protection and
// most-urgent load priority.
const focusThresholdCoverage = 0.5

// focusMaxVisible is the largest visible-item count that still counts as
// focus mode.
const focusMaxVisible = 2

// focusedIDs derives the set of content ids in focus from the viewport:
// focus mode holds when at most focusMaxVisible items are visible, or when
// one item covers more than half the viewport. Returns nil when not in
// focus mode or no viewport is attached.
func focusedIDs(vp Viewport) map[ContentID]struct{} {
	if vp == nil {
		return nil
	}
	visible := vp.VisibleIDs(0)
	if len(visible) == 0 {
		return nil
	}
	if len(visible) <= focusMaxVisible {
		return visible
	}
	mp, ok := vp.(MetricsProvider)
	if !ok {
		return nil
	}
	for id := range visible {
		if m, ok := mp.ItemMetrics(id); ok && m.Coverage > focusThresholdCoverage {
			return map[ContentID]struct{}{id: {}}
		}
	}
	return nil
}
