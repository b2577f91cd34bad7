package texcache

import "errors"

// Cache errors.
var (
	// ErrDuplicateKey is returned by insert when an entry for the cache
	// key is already resident. Callers check residency before inserting,
	// so hitting this indicates a logic bug rather than a runtime
	// condition.
	ErrDuplicateKey = errors.New("texcache: duplicate cache key")

	// ErrDecodeFailed is returned when a source image could not be
	// decoded. The request is dropped and the key enters a cooldown
	// before it may be re-requested.
	ErrDecodeFailed = errors.New("texcache: decode failed")

	// ErrDecodeTimeout is returned when a decode did not complete within
	// the configured timeout. Treated like ErrDecodeFailed; the decode
	// concurrency slot is released.
	ErrDecodeTimeout = errors.New("texcache: decode timed out")

	// ErrSourceUnavailable is returned when the source provider has no
	// pixels for a requested key. The request is dropped without retry.
	ErrSourceUnavailable = errors.New("texcache: source unavailable")

	// ErrClosed is returned when operating on a closed cache.
	ErrClosed = errors.New("texcache: cache closed")
)
