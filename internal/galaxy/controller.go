package galaxy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "galaxy-server/internal/shared/errors"
)

// ErrSuperseded is returned for a generation whose result was dropped because
// a newer parameter change arrived while it was running.
var ErrSuperseded = apperrors.Conflict("generation superseded by a newer parameter change")

// BufferSink is the rendering side of the controller. Release hands over the
// buffer being replaced for disposal and is always called before Adopt of
// its successor.
type BufferSink interface {
	Adopt(buf *Buffer)
	Release(buf *Buffer)
}

// Controller owns the published Buffer and rebuilds it from scratch on every
// finalized parameter change. Each request gets an epoch; only the result of
// the newest epoch is ever published.
type Controller struct {
	generate  GeneratorFunc
	newSource func(Parameters) RandomSource
	sinks     []BufferSink
	logger    *slog.Logger

	// publishMu serializes swap+notify so sinks observe publications in epoch order.
	publishMu sync.Mutex

	mu       sync.Mutex
	current  *Buffer
	epoch    uint64
	inflight int
	cancel   context.CancelFunc
}

func NewController(generate GeneratorFunc, logger *slog.Logger, sinks ...BufferSink) *Controller {
	if generate == nil {
		generate = GenerateContext
	}
	logger.Debug("Initializing regeneration controller", "sinks", len(sinks))

	return &Controller{
		generate:  generate,
		newSource: SourceFor,
		sinks:     sinks,
		logger:    logger,
	}
}

// SetSourceFactory replaces how a RandomSource is derived from parameters.
func (c *Controller) SetSourceFactory(f func(Parameters) RandomSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.newSource = f
}

// OnParametersFinalized regenerates synchronously on the calling goroutine.
// On error nothing is published and the current buffer stays visible.
func (c *Controller) OnParametersFinalized(p Parameters) error {
	return c.Regenerate(context.Background(), p)
}

// Regenerate is OnParametersFinalized bounded by ctx.
func (c *Controller) Regenerate(ctx context.Context, p Parameters) error {
	_, err := c.regenerate(ctx, p)
	return err
}

// regenerate returns the buffer it published, stamped with its epoch.
func (c *Controller) regenerate(ctx context.Context, p Parameters) (*Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	epoch, genCtx, newSource := c.begin(ctx)
	buf, err := c.generate(genCtx, p, newSource(p))
	if err := c.finish(epoch, buf, err); err != nil {
		return nil, err
	}
	return buf, nil
}

// Submit starts generation in the background and cancels any generation
// still in flight. The returned channel yields exactly one value: nil once
// the result is published, ErrSuperseded if a newer Submit or Regenerate
// overtook it, or the validation/generation error.
func (c *Controller) Submit(ctx context.Context, p Parameters) <-chan error {
	done := make(chan error, 1)

	if err := p.Validate(); err != nil {
		done <- err
		return done
	}

	epoch, genCtx, newSource := c.begin(ctx)
	go func() {
		buf, err := c.generate(genCtx, p, newSource(p))
		done <- c.finish(epoch, buf, err)
	}()

	return done
}

func (c *Controller) begin(ctx context.Context) (uint64, context.Context, func(Parameters) RandomSource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	genCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.epoch++
	c.inflight++

	c.logger.Debug("Galaxy regeneration started", "epoch", c.epoch, "in_flight", c.inflight)
	return c.epoch, genCtx, c.newSource
}

func (c *Controller) finish(epoch uint64, buf *Buffer, genErr error) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	c.inflight--
	latest := epoch == c.epoch
	if latest && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if !latest {
		c.mu.Unlock()
		c.logger.Debug("Dropping superseded generation", "epoch", epoch)
		return ErrSuperseded
	}
	if genErr != nil {
		c.mu.Unlock()
		return genErr
	}

	buf.Epoch = epoch
	prev := c.current
	c.current = buf
	c.mu.Unlock()

	c.notify(prev, buf)
	return nil
}

// notify runs with publishMu held.
func (c *Controller) notify(prev, buf *Buffer) {
	for _, sink := range c.sinks {
		if prev != nil {
			sink.Release(prev)
		}
		sink.Adopt(buf)
	}

	c.logger.Info("Galaxy buffer published",
		"epoch", buf.Epoch,
		"count", buf.Len(),
		"seeded", buf.Params.Seeded(),
		"generated_at", buf.GeneratedAt.Format(time.RFC3339Nano))
}

// Publish installs a buffer produced elsewhere (for example a cache hit)
// as a new epoch and cancels anything in flight. The epoch is taken and the
// buffer swapped in one step, so a ready buffer is never superseded; the
// assigned epoch is returned.
func (c *Controller) Publish(buf *Buffer) uint64 {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
	buf.Epoch = c.epoch
	prev := c.current
	c.current = buf
	c.mu.Unlock()

	c.notify(prev, buf)
	return buf.Epoch
}

// Current returns the published buffer, nil before the first publication.
// Callers must treat it as read-only.
func (c *Controller) Current() *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight > 0 {
		return StateRegenerating
	}
	return StateIdle
}

// Epoch returns the newest epoch handed out, published or not.
func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}
