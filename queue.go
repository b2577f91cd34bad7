package texcache

import "time"

// Priority weights for the load queue. Lower priority values are more
// urgent. The weights are empirically tuned starting points, not a
// contract; see the package options for the pieces that are tunable.
const (
	prWeightCoverage   = 0.5
	prWeightCenterDist = 0.2
	prWeightVisibility = 0.2
	prWeightLODGap     = 0.1

	// prStartupBoost front-loads visible content during the initial
	// load window.
	prStartupBoost = 0.3

	// Two-level fallback priorities used when no viewport metrics are
	// available.
	prSimpleVisible   = 0.25
	prSimplePrefetch  = 0.75
)

// loadRequest is one pending (content id, tier) load.
type loadRequest struct {
	key        CacheKey
	priority   float64
	forced     bool // coverage-dominant; most urgent unconditionally
	visible    bool
	screenSize float64
	src        Source

	// gen and epoch snapshot the invalidation state at enqueue time;
	// completions with stale values are discarded.
	gen   uint64
	epoch uint64

	seq        uint64
	enqueuedAt time.Time
}

// loadQueue holds pending requests in priority order (ascending value,
// ties broken by insertion sequence — stable). The queue is small and
// frame-local, so a sorted slice beats a heap on simplicity and keeps
// front re-queueing trivial.
type loadQueue struct {
	items []*loadRequest
}

// push inserts a request in priority order, after any existing request of
// equal priority.
func (q *loadQueue) push(r *loadRequest) {
	i := len(q.items)
	for i > 0 && q.items[i-1].priority > r.priority {
		i--
	}
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = r
}

// pushFront re-inserts a request at the head of the queue regardless of
// priority. Used for requests whose source was not yet decodable.
func (q *loadQueue) pushFront(r *loadRequest) {
	q.items = append([]*loadRequest{r}, q.items...)
}

// pop removes and returns the most urgent request, or nil.
func (q *loadQueue) pop() *loadRequest {
	if len(q.items) == 0 {
		return nil
	}
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r
}

// removeID drops all queued requests for a content id.
func (q *loadQueue) removeID(id ContentID) {
	kept := q.items[:0]
	for _, r := range q.items {
		if r.key.ID != id {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
}

// len returns the number of queued requests.
func (q *loadQueue) len() int {
	return len(q.items)
}

// clear drops everything.
func (q *loadQueue) clear() {
	q.items = nil
}

// computePriority scores a load request. Lower is more urgent; the result
// is clamped to [0, 1]. forced is true when a single image dominates the
// viewport (coverage above 50%), which makes the request most urgent
// unconditionally.
//
// With viewport metrics the score is a weighted sum of inverse coverage,
// distance from the viewport center, a visibility penalty, and the gap
// between the resident and ideal tiers, minus a startup boost for visible
// content during the initial load window. Without metrics a simple
// two-level visible/prefetch scheme applies.
func (c *TextureCache) computePriority(id ContentID, tier Tier, visible bool, now time.Time) (priority float64, forced bool) {
	var m ItemMetrics
	haveMetrics := false
	if c.cfg.viewport != nil {
		if mp, ok := c.cfg.viewport.(MetricsProvider); ok {
			m, haveMetrics = mp.ItemMetrics(id)
		}
	}

	if !haveMetrics {
		if visible {
			return prSimpleVisible, false
		}
		return prSimplePrefetch, false
	}

	if m.Coverage > focusThresholdCoverage {
		return 0, true
	}

	visPenalty := 1.0
	if m.Visible {
		visPenalty = 0
	}

	lodGap := 1.0
	if r := c.store.best(id, tier); r != nil {
		gap := tier.Index() - r.key.Tier.Index()
		if gap < 0 {
			gap = -gap
		}
		lodGap = float64(gap) / float64(len(Tiers)-1)
	}

	p := (1-m.Coverage)*prWeightCoverage +
		m.CenterDist*prWeightCenterDist +
		visPenalty*prWeightVisibility +
		lodGap*prWeightLODGap

	if visible && now.Sub(c.startedAt) < c.cfg.initialLoadWindow {
		p -= prStartupBoost
	}

	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, false
}
