package texcache

import "time"

// Default configuration values.
const (
	// DefaultBudgetBytes is the default GPU memory budget (256 MB).
	DefaultBudgetBytes = 256 << 20

	// DefaultDecodeConcurrency bounds simultaneous background decodes.
	DefaultDecodeConcurrency = 4

	// DefaultDecodeTimeout is the maximum wait for a single decode
	// before its concurrency slot is reclaimed.
	DefaultDecodeTimeout = 10 * time.Second

	// DefaultRecentLoadWindow protects freshly uploaded entries from
	// eviction.
	DefaultRecentLoadWindow = 3 * time.Second

	// DefaultEvictCooldown keeps an evicted or failed key from being
	// re-requested immediately (thrash prevention).
	DefaultEvictCooldown = 2 * time.Second

	// DefaultInitialLoadWindow is the startup grace period with a
	// generous frame budget and a priority boost for visible content.
	DefaultInitialLoadWindow = 3 * time.Second

	// DefaultPreviewProtectTier is the largest tier treated as a
	// "preview" for eviction protection of visible content. The source
	// system disagrees with itself about this threshold, so it is a
	// tunable rather than a constant.
	DefaultPreviewProtectTier = Tier256
)

// Per-frame upload time budgets.
const (
	// DefaultFrameBudget applies in steady state.
	DefaultFrameBudget = 2 * time.Millisecond

	// DefaultInteractBudget applies while the viewport is animating;
	// kept sub-millisecond to avoid decode-induced stutter.
	DefaultInteractBudget = 500 * time.Microsecond

	// DefaultInitialBudget applies during the initial-load window to
	// front-load visible content.
	DefaultInitialBudget = 8 * time.Millisecond

	// DefaultBulkBudget applies when many requests are pending.
	DefaultBulkBudget = 4 * time.Millisecond

	// bulkQueueThreshold is the pending-request count that switches the
	// scheduler to the bulk budget.
	bulkQueueThreshold = 16
)

// Clock returns the current time. Injectable for tests so protection
// windows and cooldowns can be driven deterministically.
type Clock func() time.Time

// Option configures a TextureCache during creation.
//
// Example:
//
//	cache, err := texcache.New(provider,
//	    texcache.WithBudgetBytes(512<<20),
//	    texcache.WithDecodeConcurrency(8),
//	)
type Option func(*config)

// config holds resolved TextureCache configuration.
type config struct {
	budgetBytes       uint64
	qualityFactor     float64
	bandBuffer        float64
	decodeConcurrency int
	decodeTimeout     time.Duration
	recentLoadWindow  time.Duration
	evictCooldown     time.Duration
	initialLoadWindow time.Duration
	previewProtect    Tier
	frameBudget       time.Duration
	interactBudget    time.Duration
	initialBudget     time.Duration
	bulkBudget        time.Duration
	viewport          Viewport
	backendName       string
	clock             Clock
}

// defaultConfig returns the default cache configuration.
func defaultConfig() config {
	return config{
		budgetBytes:       DefaultBudgetBytes,
		qualityFactor:     DefaultQualityFactor,
		bandBuffer:        DefaultBandBuffer,
		decodeConcurrency: DefaultDecodeConcurrency,
		decodeTimeout:     DefaultDecodeTimeout,
		recentLoadWindow:  DefaultRecentLoadWindow,
		evictCooldown:     DefaultEvictCooldown,
		initialLoadWindow: DefaultInitialLoadWindow,
		previewProtect:    DefaultPreviewProtectTier,
		frameBudget:       DefaultFrameBudget,
		interactBudget:    DefaultInteractBudget,
		initialBudget:     DefaultInitialBudget,
		bulkBudget:        DefaultBulkBudget,
		clock:             time.Now,
	}
}

// WithBudgetBytes sets the GPU memory budget in bytes.
func WithBudgetBytes(n uint64) Option {
	return func(c *config) {
		if n > 0 {
			c.budgetBytes = n
		}
	}
}

// WithQualityFactor sets the LOD oversampling multiplier applied to the
// requested screen size before tier selection (default 1.15).
func WithQualityFactor(q float64) Option {
	return func(c *config) {
		if q > 0 {
			c.qualityFactor = q
		}
	}
}

// WithDecodeConcurrency bounds the number of simultaneous background
// decodes. Requests for the smallest tier bypass this limit.
func WithDecodeConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.decodeConcurrency = n
		}
	}
}

// WithDecodeTimeout sets the maximum wait for a single decode before it is
// treated as failed and its concurrency slot released.
func WithDecodeTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.decodeTimeout = d
		}
	}
}

// WithFrameBudget sets the steady-state per-frame upload time budget.
func WithFrameBudget(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.frameBudget = d
		}
	}
}

// WithRecentLoadWindow sets how long a freshly uploaded entry is protected
// from eviction.
func WithRecentLoadWindow(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.recentLoadWindow = d
		}
	}
}

// WithEvictCooldown sets how long an evicted or failed key is blocked from
// re-enqueueing.
func WithEvictCooldown(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.evictCooldown = d
		}
	}
}

// WithPreviewProtectTier sets the largest tier treated as a protected
// preview for visible content during eviction (default Tier256). The
// smallest tier of each content id is always retained regardless.
func WithPreviewProtectTier(t Tier) Option {
	return func(c *config) {
		if t.Index() >= 0 && !t.IsFull() {
			c.previewProtect = t
		}
	}
}

// WithViewport attaches a viewport model. Without one, priority and
// eviction degrade to simple visible/not-visible heuristics.
func WithViewport(vp Viewport) Option {
	return func(c *config) { c.viewport = vp }
}

// WithBackend selects a registered texture backend by name.
// The default is the software backend.
func WithBackend(name string) Option {
	return func(c *config) { c.backendName = name }
}

// WithClock injects a time source. Intended for tests.
func WithClock(clk Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}
