package texcache

import (
	"sort"
	"time"
)

// Eviction pressure thresholds.
const (
	// aggressiveUsageRatio switches the LRU sweep to aggressive mode:
	// every protection except active-render is relaxed.
	aggressiveUsageRatio = 0.95

	// elevatedUsageRatio only raises log verbosity.
	elevatedUsageRatio = 0.8

	// emergencyTargetRatio is the usage emergency relief restores.
	emergencyTargetRatio = 0.7

	// fullCapUsageRatio gates the FULL-tier residency cap: the cap is
	// only enforced once overall usage is past this ratio.
	fullCapUsageRatio = 0.7

	// fullCapBudgetShare is the fraction of the budget FULL-tier
	// entries may collectively occupy, used to derive the dynamic cap.
	fullCapBudgetShare = 0.5

	// oversizeFactor marks a resident tier as grossly oversized when
	// its nominal size exceeds this multiple of what the load's screen
	// size warranted.
	oversizeFactor = 2

	// targetedUnloadMargin is the visibility margin used by the
	// targeted unload pass, as a fraction of the viewport.
	targetedUnloadMargin = 0.25
)

// ensureRoom frees memory until required bytes fit inside the budget.
// It never fails: when every resident entry is protected the insertion
// proceeds anyway and the overflow is surfaced as a metric.
//
// The pass order is: targeted unload of non-visible high tiers, an LRU
// sweep honoring protection tiers, then emergency relief that ignores
// everything except active-render.
func (c *TextureCache) ensureRoom(required uint64) {
	s := c.store
	if s.current+required <= s.budget {
		return
	}
	now := c.cfg.clock()

	if c.cfg.viewport != nil {
		c.unloadNonVisible(required, now)
		if s.current+required <= s.budget {
			return
		}
	}

	usage := float64(s.current) / float64(s.budget)
	aggressive := usage > aggressiveUsageRatio
	if usage > elevatedUsageRatio {
		Logger().Debug("texcache: memory pressure",
			"usage", usage, "required", required, "aggressive", aggressive)
	}

	focused := focusedIDs(c.cfg.viewport)
	var visible map[ContentID]struct{}
	if c.cfg.viewport != nil {
		visible = c.cfg.viewport.VisibleIDs(0)
	}

	// One bounded pass over the access order, least recently used
	// first. Protected candidates rotate to the front so the loop
	// terminates.
	for pass, limit := 0, s.lru.Len(); pass < limit && s.current+required > s.budget; pass++ {
		elem := s.lru.Back()
		if elem == nil {
			break
		}
		e := elem.Value.(*entry)
		if c.entryProtected(e, now, aggressive, focused, visible) {
			s.lru.MoveToFront(elem)
			continue
		}
		c.evictForPressure(e, now)
	}

	// Emergency relief: still at or over budget before even accounting
	// for the new allocation.
	if s.current >= s.budget {
		c.emergencyRelief(now)
	}

	if s.current+required > s.budget {
		c.softOverflows.Add(1)
		Logger().Warn("texcache: soft budget overflow, all candidates protected",
			"currentBytes", s.current, "budgetBytes", s.budget, "required", required)
	}
}

// entryProtected reports whether the LRU sweep must skip e.
//
// Active-render protection always holds. In aggressive mode every other
// protection is relaxed. Otherwise an entry is protected when it is in
// focus, freshly loaded (and not grossly oversized for the screen size it
// was loaded at), or a preview-sized tier of currently visible content.
func (c *TextureCache) entryProtected(e *entry, now time.Time, aggressive bool, focused, visible map[ContentID]struct{}) bool {
	if _, ok := c.activeFrame[e.key]; ok {
		return true
	}
	if aggressive {
		return false
	}
	if _, ok := focused[e.key.ID]; ok {
		return true
	}
	if loaded, ok := c.recentLoad[e.key]; ok && now.Sub(loaded) < c.cfg.recentLoadWindow {
		if !c.entryOversized(e) {
			return true
		}
	}
	if e.key.Tier <= c.cfg.previewProtect {
		if _, ok := visible[e.key.ID]; ok {
			return true
		}
	}
	return false
}

// entryOversized reports whether e's tier is grossly above what the
// screen size it was loaded for warrants. Oversized entries forfeit the
// recent-load protection; they are usually leftovers of a request issued
// before a zoom-out.
func (c *TextureCache) entryOversized(e *entry) bool {
	if e.screenAtLoad <= 0 || e.key.Tier.IsFull() {
		return false
	}
	warranted := SelectTier(e.screenAtLoad, c.cfg.qualityFactor, c.cfg.bandBuffer)
	if warranted.IsFull() {
		return false
	}
	return e.key.Tier.Nominal() > oversizeFactor*warranted.Nominal()
}

// evictForPressure removes one entry under memory pressure and records an
// eviction cooldown so the key is not immediately re-requested.
func (c *TextureCache) evictForPressure(e *entry, now time.Time) {
	key := e.key
	c.store.evict(e)
	c.evictions.Add(1)
	delete(c.recentLoad, key)
	c.cooldown[key] = now
	Logger().Debug("texcache: evicted", "key", key.String(), "bytes", e.bytes)
}

// unloadNonVisible is the targeted first pass: it frees high-resolution
// tiers of content outside the viewport before the general sweep touches
// anything. The smallest resident tier of every id is always retained so
// the item stays drawable when it scrolls back in.
func (c *TextureCache) unloadNonVisible(required uint64, now time.Time) {
	vp := c.cfg.viewport
	visible := vp.VisibleIDs(targetedUnloadMargin)
	keep := c.offscreenKeepTier()

	s := c.store
	var victims []*entry
	for _, e := range s.entries {
		if _, ok := visible[e.key.ID]; ok {
			continue
		}
		if !e.key.Tier.IsFull() && e.key.Tier <= keep {
			continue
		}
		if smallest := s.smallest(e.key.ID); smallest == e {
			continue
		}
		victims = append(victims, e)
	}
	// Largest first so few evictions satisfy the request.
	sort.Slice(victims, func(i, j int) bool { return victims[i].bytes > victims[j].bytes })

	for _, e := range victims {
		if s.current+required <= s.budget {
			return
		}
		if _, ok := c.activeFrame[e.key]; ok {
			continue
		}
		c.evictForPressure(e, now)
	}
}

// offscreenKeepTier is the zoom-dependent threshold above which
// non-visible tiers are unloaded first: the tier an item occupying a
// quarter of the viewport would need at the current zoom, never below the
// preview-protection tier.
func (c *TextureCache) offscreenKeepTier() Tier {
	vp := c.cfg.viewport
	vw, vh := vp.Size()
	short := vw
	if vh < short {
		short = vh
	}
	target := 0.25 * short * vp.DPR() * vp.Scale()
	keep := SelectTier(target, c.cfg.qualityFactor, c.cfg.bandBuffer)
	if keep < c.cfg.previewProtect {
		keep = c.cfg.previewProtect
	}
	return keep
}

// emergencyRelief recovers from an already-over-budget state by evicting
// largest-memory entries first, ignoring every protection except
// active-render, until usage falls to the safety margin. Evicted keys get
// a cooldown stamp so they are not immediately re-requested (thrash
// prevention).
func (c *TextureCache) emergencyRelief(now time.Time) {
	s := c.store
	target := uint64(float64(s.budget) * emergencyTargetRatio)
	if s.current <= target {
		return
	}

	victims := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if _, ok := c.activeFrame[e.key]; ok {
			continue
		}
		victims = append(victims, e)
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i].bytes > victims[j].bytes })

	for _, e := range victims {
		if s.current <= target {
			break
		}
		c.evictForPressure(e, now)
	}
	Logger().Warn("texcache: emergency relief",
		"currentBytes", s.current, "budgetBytes", s.budget)
}

// maintainFullCap enforces the dynamic cap on simultaneously resident
// FULL-tier entries. The cap derives from the budget and the average
// resident FULL-tier size, and only bites once overall usage is past
// fullCapUsageRatio; the least recently used FULL entries go first.
func (c *TextureCache) maintainFullCap(now time.Time) {
	s := c.store
	if s.budget == 0 {
		return
	}
	if float64(s.current)/float64(s.budget) <= fullCapUsageRatio {
		return
	}

	var fullCount int
	var fullBytes uint64
	for _, e := range s.entries {
		if e.key.Tier.IsFull() {
			fullCount++
			fullBytes += e.bytes
		}
	}
	if fullCount == 0 {
		return
	}
	avg := fullBytes / uint64(fullCount)
	if avg == 0 {
		return
	}
	limit := int(uint64(float64(s.budget)*fullCapBudgetShare) / avg)
	if limit < 1 {
		limit = 1
	}
	if fullCount <= limit {
		return
	}

	// Walk from the least recently used end, FULL tiers only.
	for elem := s.lru.Back(); elem != nil && fullCount > limit; {
		prev := elem.Prev()
		e := elem.Value.(*entry)
		if e.key.Tier.IsFull() {
			if _, ok := c.activeFrame[e.key]; !ok {
				c.evictForPressure(e, now)
				fullCount--
			}
		}
		elem = prev
	}
}
