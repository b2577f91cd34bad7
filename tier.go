package texcache

import (
	"fmt"
	"math"
)

// Tier identifies one resolution variant of a source image. Fixed tiers
// hold a downsampled copy whose longest edge is the tier's nominal pixel
// size; TierFull holds the native-resolution pixels.
//
// Tiers are ordered by nominal size ascending, with TierFull sorting last.
type Tier int32

// The fixed resolution tiers. Values are the nominal longest-edge size in
// pixels, so ordinary integer comparison orders tiers correctly.
const (
	Tier64   Tier = 64
	Tier128  Tier = 128
	Tier256  Tier = 256
	Tier512  Tier = 512
	Tier1024 Tier = 1024
	Tier2048 Tier = 2048

	// TierFull is native resolution with no downsampling. Its value is
	// larger than any fixed tier so it sorts last.
	TierFull Tier = math.MaxInt32
)

// Tiers lists all resolution tiers in ascending order.
var Tiers = [...]Tier{Tier64, Tier128, Tier256, Tier512, Tier1024, Tier2048, TierFull}

// TierSmallest is the smallest fixed tier. The eviction policy always
// retains this tier for every content id so something stays drawable.
const TierSmallest = Tier64

// IsFull reports whether t is the native-resolution tier.
func (t Tier) IsFull() bool { return t == TierFull }

// Nominal returns the tier's nominal longest-edge size in pixels.
// For TierFull it returns 0; callers must use the source's native size.
func (t Tier) Nominal() int {
	if t.IsFull() {
		return 0
	}
	return int(t)
}

// Index returns the position of t in Tiers, or -1 for an unknown tier.
func (t Tier) Index() int {
	for i, tt := range Tiers {
		if tt == t {
			return i
		}
	}
	return -1
}

// String returns a human-readable tier name.
func (t Tier) String() string {
	if t.IsFull() {
		return "full"
	}
	if t.Index() < 0 {
		return fmt.Sprintf("tier(%d)", int32(t))
	}
	return fmt.Sprintf("%d", int32(t))
}

// Default LOD selection constants.
const (
	// DefaultQualityFactor oversizes the tier target slightly so the
	// selected tier is never upsampled on screen.
	DefaultQualityFactor = 1.15

	// DefaultBandBuffer widens each tier's acceptance band so small
	// screen-size fluctuations near a boundary do not flip the tier.
	DefaultBandBuffer = 1.05
)

// SelectTier maps an on-screen pixel size (longest edge, already adjusted
// for device pixel ratio) to the resolution tier that should be rendered.
//
// The screen size is multiplied by quality to avoid visible upsampling
// blur; the smallest tier whose buffered nominal size covers the target is
// chosen. Targets beyond the largest fixed tier select TierFull.
//
// SelectTier is pure and monotone: a larger screen size never selects a
// smaller tier.
func SelectTier(screenSize float64, quality, bandBuffer float64) Tier {
	if quality <= 0 {
		quality = DefaultQualityFactor
	}
	if bandBuffer <= 0 {
		bandBuffer = DefaultBandBuffer
	}
	if screenSize <= 0 {
		return TierSmallest
	}

	target := screenSize * quality
	for _, t := range Tiers {
		if t.IsFull() {
			break
		}
		if float64(t.Nominal())*bandBuffer >= target {
			return t
		}
	}
	return TierFull
}
