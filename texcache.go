package texcache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rotoshake/imagecanvas-sub004/backend"
	"github.com/rotoshake/imagecanvas-sub004/internal/arena"
)

// TextureCache is the LOD texture cache and eviction engine. It owns a
// memory-budgeted set of GPU textures keyed by (content id, tier), loads
// missing tiers through a prioritized background pipeline, and frees
// memory under pressure through a multi-tier protection policy.
//
// All methods except Stats must be called from a single goroutine,
// typically the render loop. Decoding happens on background goroutines,
// but every cache mutation is applied on the calling goroutine during
// RequestTexture, EndFrame or Flush.
type TextureCache struct {
	cfg     config
	source  SourceProvider
	backend backend.TextureBackend

	store *store
	queue loadQueue

	// inflight tracks every pending key, queued or decoding. A key is
	// removed when its result is applied or its request turns stale.
	inflight map[CacheKey]*loadRequest

	// gen increments per content id on Invalidate; epoch increments on
	// Clear. Requests snapshot both so stale completions are discarded.
	gen   map[ContentID]uint64
	epoch uint64

	// activeFrame holds the keys returned to the renderer since the last
	// BeginFrame. These are never evicted.
	activeFrame map[CacheKey]struct{}

	// recentLoad and cooldown hold per-key timestamps for the
	// recent-load eviction protection and the re-request cooldown.
	recentLoad map[CacheKey]time.Time
	cooldown   map[CacheKey]time.Time

	arena       *arena.Arena
	decodeSlots chan struct{}
	completions chan uploadResult

	startedAt time.Time
	seq       uint64
	closed    bool

	hits           atomic.Uint64
	misses         atomic.Uint64
	evictions      atomic.Uint64
	softOverflows  atomic.Uint64
	decodeFailures atomic.Uint64
}

// New creates a texture cache backed by the given source provider.
// The backend defaults to software rendering; select a GPU backend with
// WithBackend after blank-importing its package.
func New(provider SourceProvider, opts ...Option) (*TextureCache, error) {
	if provider == nil {
		return nil, errors.New("texcache: nil source provider")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := backend.Default()
	if cfg.backendName != "" && cfg.backendName != b.Name() {
		named, err := backend.Get(cfg.backendName)
		if err != nil {
			return nil, err
		}
		b = named
	}
	if err := b.Init(); err != nil {
		if b.Name() == backend.SoftwareName {
			return nil, err
		}
		Logger().Warn("texcache: backend init failed, falling back to software",
			"backend", b.Name(), "err", err)
		b = backend.Default()
		if err := b.Init(); err != nil {
			return nil, err
		}
	}

	c := &TextureCache{
		cfg:         cfg,
		source:      provider,
		backend:     b,
		store:       newStore(cfg.budgetBytes),
		inflight:    make(map[CacheKey]*loadRequest),
		gen:         make(map[ContentID]uint64),
		activeFrame: make(map[CacheKey]struct{}),
		recentLoad:  make(map[CacheKey]time.Time),
		cooldown:    make(map[CacheKey]time.Time),
		arena:       arena.New(arena.DefaultEntries),
		decodeSlots: make(chan struct{}, cfg.decodeConcurrency),
		completions: make(chan uploadResult, 128),
		startedAt:   cfg.clock(),
	}
	Logger().Debug("texcache: created",
		"backend", b.Name(), "budgetBytes", cfg.budgetBytes)
	return c, nil
}

// RequestTexture returns the best resident texture for drawing id at the
// given on-screen pixel size, or nil when nothing is resident yet. A miss
// enqueues a background load; re-requesting the same key before the load
// completes is a no-op. A hit on a lower tier than the screen size wants
// additionally enqueues the upgrade.
//
// The returned texture is owned by the cache and is valid until the next
// Invalidate or Clear for its content id.
func (c *TextureCache) RequestTexture(id ContentID, screenW, screenH float64, visible bool) *Texture {
	if c.closed || id == "" {
		return nil
	}
	screen := screenW
	if screenH > screen {
		screen = screenH
	}
	ideal := SelectTier(screen, c.cfg.qualityFactor, c.cfg.bandBuffer)
	now := c.cfg.clock()

	if e := c.store.best(id, ideal); e != nil {
		c.store.touch(e, now)
		c.activeFrame[e.key] = struct{}{}
		c.hits.Add(1)
		if e.key.Tier < ideal {
			c.maybeEnqueue(id, ideal, screen, visible, now)
		}
		return e.tex
	}

	c.misses.Add(1)
	c.maybeEnqueue(id, ideal, screen, visible, now)
	return nil
}

// GetAny returns the smallest resident tier for id regardless of screen
// size, or nil. Intended as a last-resort placeholder lookup, trading
// quality for availability; it marks the entry active for the current
// frame but does not enqueue anything.
func (c *TextureCache) GetAny(id ContentID) *Texture {
	if c.closed {
		return nil
	}
	e := c.store.smallest(id)
	if e == nil {
		return nil
	}
	c.store.touch(e, c.cfg.clock())
	c.activeFrame[e.key] = struct{}{}
	return e.tex
}

// maybeEnqueue schedules a background load for (id, tier) unless the key
// is already resident, already pending, or cooling down after an eviction
// or failure. A source that reports ready for a viewport-dominant request
// is decoded immediately on the calling goroutine.
func (c *TextureCache) maybeEnqueue(id ContentID, tier Tier, screen float64, visible bool, now time.Time) {
	key := CacheKey{ID: id, Tier: tier}
	if c.store.lookup(key) != nil {
		return
	}
	if _, ok := c.inflight[key]; ok {
		return
	}
	if stamp, ok := c.cooldown[key]; ok {
		if now.Sub(stamp) < c.cfg.evictCooldown {
			return
		}
		delete(c.cooldown, key)
	}

	src := c.source.GetSource(id, tier)
	if src == nil {
		return
	}

	priority, forced := c.computePriority(id, tier, visible, now)
	c.seq++
	req := &loadRequest{
		key:        key,
		priority:   priority,
		forced:     forced,
		visible:    visible,
		screenSize: screen,
		src:        src,
		gen:        c.gen[id],
		epoch:      c.epoch,
		seq:        c.seq,
		enqueuedAt: now,
	}

	// Dominant image with pixels at hand: skip the queue and upload now
	// so the next frame draws it sharp.
	if forced && src.Ready() {
		res := c.decode(req)
		if res.err != nil {
			c.decodeFailures.Add(1)
			c.cooldown[key] = now
			Logger().Warn("texcache: decode failed",
				"key", key.String(), "err", res.err)
			return
		}
		c.completeUpload(req, res.base, res.mips)
		return
	}

	c.inflight[key] = req
	c.queue.push(req)
}

// BeginFrame starts a new frame: the active-render protection set resets
// so it reflects only the textures this frame actually draws.
func (c *TextureCache) BeginFrame() {
	if c.closed {
		return
	}
	c.activeFrame = make(map[CacheKey]struct{})
}

// EndFrame runs the per-frame maintenance: applies finished decodes,
// starts queued loads within the frame time budget, expires protection
// windows, and enforces the FULL-tier residency cap.
func (c *TextureCache) EndFrame() {
	if c.closed {
		return
	}
	c.processFrame()

	now := c.cfg.clock()
	for key, stamp := range c.recentLoad {
		if now.Sub(stamp) >= c.cfg.recentLoadWindow {
			delete(c.recentLoad, key)
		}
	}
	for key, stamp := range c.cooldown {
		if now.Sub(stamp) >= c.cfg.evictCooldown {
			delete(c.cooldown, key)
		}
	}
	c.maintainFullCap(now)
}

// Invalidate removes every resident tier and pending load for id. Content
// edits call this; decodes already running for the old pixels finish in
// the background and are discarded on completion.
func (c *TextureCache) Invalidate(id ContentID) {
	if c.closed {
		return
	}
	c.gen[id]++
	removed := c.store.removeID(id)
	c.queue.removeID(id)
	for key := range c.inflight {
		if key.ID == id {
			delete(c.inflight, key)
		}
	}
	for key := range c.activeFrame {
		if key.ID == id {
			delete(c.activeFrame, key)
		}
	}
	for key := range c.recentLoad {
		if key.ID == id {
			delete(c.recentLoad, key)
		}
	}
	for key := range c.cooldown {
		if key.ID == id {
			delete(c.cooldown, key)
		}
	}
	c.arena.DropID(string(id))
	Logger().Debug("texcache: invalidated", "id", string(id), "removed", removed)
}

// Clear removes everything: resident textures, pending loads, decoded
// pixels and protection state. In-flight decodes are discarded when they
// complete.
func (c *TextureCache) Clear() {
	if c.closed {
		return
	}
	c.reset()
}

func (c *TextureCache) reset() {
	c.epoch++
	c.store.clearAll()
	c.queue.clear()
	c.inflight = make(map[CacheKey]*loadRequest)
	c.activeFrame = make(map[CacheKey]struct{})
	c.recentLoad = make(map[CacheKey]time.Time)
	c.cooldown = make(map[CacheKey]time.Time)
	c.arena.Clear()
}

// Close clears the cache and releases the backend. The cache is unusable
// afterwards; further calls are no-ops.
func (c *TextureCache) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.reset()
	c.closed = true
	c.backend.Close()
	return nil
}

// Flush drives the load pipeline until every pending request has been
// uploaded, dropped or deferred past ctx. Useful for preloading and for
// tests; render loops use EndFrame instead.
func (c *TextureCache) Flush(ctx context.Context) error {
	for {
		if c.closed {
			return ErrClosed
		}
		c.processFrame()
		if len(c.inflight) == 0 && c.queue.len() == 0 {
			return nil
		}
		if decoding := len(c.inflight) - c.queue.len(); decoding > 0 {
			select {
			case res := <-c.completions:
				c.applyCompletion(res)
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		// Only queued work left (sources not ready, or slots exhausted
		// momentarily). Yield and retry until ctx gives up.
		select {
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats returns a snapshot of cache statistics. Safe to call from any
// goroutine, though queue and residency counts are only exact on the
// cache's own goroutine.
func (c *TextureCache) Stats() Stats {
	decoding := len(c.inflight) - c.queue.len()
	if decoding < 0 {
		decoding = 0
	}
	return Stats{
		ResidentCount:  c.store.len(),
		CurrentBytes:   c.store.current,
		BudgetBytes:    c.store.budget,
		QueueLen:       c.queue.len(),
		InFlight:       decoding,
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Evictions:      c.evictions.Load(),
		SoftOverflows:  c.softOverflows.Load(),
		DecodeFailures: c.decodeFailures.Load(),
	}
}
