package texcache

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rotoshake/imagecanvas-sub004/internal/arena"
	"github.com/rotoshake/imagecanvas-sub004/internal/mip"
)

// uploadResult carries a finished decode from a worker goroutine back to
// the frame thread. Only the frame thread touches cache state.
type uploadResult struct {
	req  *loadRequest
	base *image.RGBA
	mips []*image.RGBA
	err  error
}

// processFrame drains completed decodes, then starts new ones from the
// load queue within the frame's time budget. Returns the number of
// textures uploaded. Called once per frame from EndFrame.
func (c *TextureCache) processFrame() int {
	uploaded := c.drainCompletions()

	budget := c.frameBudget()
	animating := c.cfg.viewport != nil && c.cfg.viewport.IsAnimating()
	start := time.Now()

	// Requests whose source is not ready yet, or that could not get a
	// decode slot, go back to the front of the queue for the next frame.
	var deferred []*loadRequest

	for c.queue.len() > 0 && time.Since(start) < budget {
		req := c.queue.pop()
		if req == nil {
			break
		}
		if c.requestStale(req) {
			c.dropInflight(req)
			continue
		}
		if c.store.lookup(req.key) != nil {
			c.dropInflight(req)
			continue
		}
		// Camera in motion: decoding causes stutter, so only the
		// dominant image loads; everything else resumes when the
		// motion stops.
		if animating && !req.forced {
			deferred = append(deferred, req)
			continue
		}
		if !req.src.Ready() {
			deferred = append(deferred, req)
			continue
		}

		// The smallest tier is cheap enough to bypass the decode
		// concurrency limit; everything else needs a slot.
		slotted := false
		if req.key.Tier != TierSmallest {
			select {
			case c.decodeSlots <- struct{}{}:
				slotted = true
			default:
				deferred = append(deferred, req)
				continue
			}
		}
		c.startDecode(req, slotted)
	}

	// Re-queue deferred requests at the front, preserving their order.
	for i := len(deferred) - 1; i >= 0; i-- {
		c.queue.pushFront(deferred[i])
	}

	uploaded += c.drainCompletions()
	return uploaded
}

// frameBudget picks the upload time budget for this frame from context:
// minimal while the user is interacting, generous during the initial load
// window, moderate for bulk loads, default otherwise.
func (c *TextureCache) frameBudget() time.Duration {
	if c.cfg.viewport != nil && c.cfg.viewport.IsAnimating() {
		return c.cfg.interactBudget
	}
	if c.cfg.clock().Sub(c.startedAt) < c.cfg.initialLoadWindow {
		return c.cfg.initialBudget
	}
	if c.queue.len() >= bulkQueueThreshold {
		return c.cfg.bulkBudget
	}
	return c.cfg.frameBudget
}

// startDecode launches the decode worker for a request. The worker owns
// no cache state; its result is delivered through the completion channel
// and applied on the frame thread. slotted indicates the request holds a
// decode concurrency slot that must be released.
func (c *TextureCache) startDecode(req *loadRequest, slotted bool) {
	go func() {
		res := c.decode(req)
		if slotted {
			<-c.decodeSlots
		}
		c.completions <- res
	}()
}

// decode produces tier-sized pixels for a request, consulting the decode
// arena first. Runs on a worker goroutine.
func (c *TextureCache) decode(req *loadRequest) uploadResult {
	akey := arena.Key{ID: string(req.key.ID), Tier: int32(req.key.Tier), Gen: req.gen}
	base, ok := c.arena.Get(akey)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.decodeTimeout)
		defer cancel()

		img, err := decodeWithDeadline(ctx, req.src)
		if err != nil {
			return uploadResult{req: req, err: err}
		}
		base = mip.FitTo(img, req.key.Tier.Nominal())
		if base == nil {
			return uploadResult{req: req, err: ErrDecodeFailed}
		}
		c.arena.Put(akey, base)
	}

	var mips []*image.RGBA
	if tierMipped(req.key.Tier) {
		mips = mip.Chain(base)
	}
	return uploadResult{req: req, base: base, mips: mips}
}

// decodeWithDeadline runs src.Decode but abandons it when the context
// deadline passes, even if the source misbehaves and never returns. The
// concurrency slot must not be held hostage by a stalled decode; an
// abandoned decode's late result is simply dropped.
func decodeWithDeadline(ctx context.Context, src Source) (image.Image, error) {
	type decoded struct {
		img image.Image
		err error
	}
	ch := make(chan decoded, 1)
	go func() {
		img, err := src.Decode(ctx)
		ch <- decoded{img, err}
	}()

	select {
	case d := <-ch:
		if d.err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecodeTimeout, d.err)
			}
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, d.err)
		}
		if d.img == nil {
			return nil, ErrDecodeFailed
		}
		return d.img, nil
	case <-ctx.Done():
		return nil, ErrDecodeTimeout
	}
}

// drainCompletions applies every decode result that has arrived, without
// blocking. Returns the number of textures uploaded.
func (c *TextureCache) drainCompletions() int {
	uploaded := 0
	for {
		select {
		case res := <-c.completions:
			if c.applyCompletion(res) {
				uploaded++
			}
		default:
			return uploaded
		}
	}
}

// applyCompletion handles one finished decode on the frame thread:
// staleness and failure checks, the oversize sanity check, then room
// making and the actual upload. Reports whether a texture was uploaded.
func (c *TextureCache) applyCompletion(res uploadResult) bool {
	req := res.req
	c.dropInflight(req)

	// A decode that completed after invalidation or clear is dead; its
	// pixels must not reach the cache.
	if c.requestStale(req) {
		return false
	}
	if res.err != nil {
		c.decodeFailures.Add(1)
		c.cooldown[req.key] = c.cfg.clock()
		Logger().Warn("texcache: decode failed",
			"key", req.key.String(), "err", res.err)
		return false
	}
	if c.store.lookup(req.key) != nil {
		// Resident already (fast path won the race across frames).
		return false
	}
	if c.uploadOversized(req, res.base) {
		Logger().Debug("texcache: discarding oversized upload",
			"key", req.key.String(), "screenSize", req.screenSize)
		return false
	}

	return c.completeUpload(req, res.base, res.mips)
}

// uploadOversized reports whether the decoded result is grossly larger
// than the request's screen-size context warrants. Stale high-priority
// requests issued before a zoom-out land here instead of bloating memory.
func (c *TextureCache) uploadOversized(req *loadRequest, base *image.RGBA) bool {
	if req.screenSize <= 0 || base == nil {
		return false
	}
	warranted := SelectTier(req.screenSize, c.cfg.qualityFactor, c.cfg.bandBuffer)
	if warranted.IsFull() {
		return false
	}
	longest := base.Bounds().Dx()
	if h := base.Bounds().Dy(); h > longest {
		longest = h
	}
	return longest > oversizeFactor*warranted.Nominal()
}

// completeUpload makes room, uploads pixels to the backend, and inserts
// the cache entry. Runs on the frame thread. Reports success.
func (c *TextureCache) completeUpload(req *loadRequest, base *image.RGBA, mips []*image.RGBA) bool {
	w := base.Bounds().Dx()
	h := base.Bounds().Dy()
	bytes := textureBytes(w, h, len(mips) > 0)

	c.ensureRoom(bytes)

	handle, err := c.backend.CreateTexture(base, mips, req.key.String())
	if err != nil {
		// GPU allocation refusal is handled like a decode failure:
		// drop, cool down, keep the frame loop alive.
		c.decodeFailures.Add(1)
		c.cooldown[req.key] = c.cfg.clock()
		Logger().Warn("texcache: texture upload failed",
			"key", req.key.String(), "err", err)
		return false
	}

	tex := &Texture{
		Key:    req.key,
		Handle: handle,
		Width:  w,
		Height: h,
	}
	now := c.cfg.clock()
	if _, err := c.store.insert(tex, bytes, req.screenSize, now); err != nil {
		// Residency is checked before upload; reaching this is a logic
		// bug. Release the fresh handle and surface loudly.
		handle.Destroy()
		Logger().Error("texcache: insert failed", "key", req.key.String(), "err", err)
		return false
	}
	c.recentLoad[req.key] = now
	Logger().Debug("texcache: uploaded",
		"key", req.key.String(), "bytes", bytes, "mips", len(mips))
	return true
}

// dropInflight removes the request's pending record, but only while it is
// still the current one. A stale request must not erase a newer request
// that was enqueued for the same key after an invalidation.
func (c *TextureCache) dropInflight(req *loadRequest) {
	if c.inflight[req.key] == req {
		delete(c.inflight, req.key)
	}
}

// requestStale reports whether a request belongs to an invalidated
// generation or a cleared epoch.
func (c *TextureCache) requestStale(req *loadRequest) bool {
	return req.epoch != c.epoch || req.gen != c.gen[req.key.ID]
}
