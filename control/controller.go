// Package control drives the warp engine from an interactive strength
// control. It owns the caller-side policies the engine deliberately does not:
// debouncing rapid parameter changes and dropping superseded results.
package control

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"github.com/lensfix/lensfix/warp"
)

// DefaultDebounce is how long the strength control must settle before a
// correction starts. Keeps a fast-moving slider from saturating the engine
// with superseded work.
const DefaultDebounce = 150 * time.Millisecond

// Result carries one finished correction back to the caller.
type Result struct {
	Image    *image.NRGBA
	Strength float64
	Err      error
}

// Controller coalesces strength changes and runs corrections asynchronously.
// Latest request wins: a correction that finishes after a newer strength or
// image has been set is dropped, never delivered.
type Controller struct {
	engine    *warp.Engine
	logger    golog.Logger
	debounced func(func())
	deliver   func(Result)

	mu         sync.Mutex
	src        image.Image
	strength   float64
	generation uint64
	closed     bool

	inflight sync.WaitGroup
}

// NewController returns a controller delivering finished corrections to
// deliver. A non-positive interval selects DefaultDebounce.
func NewController(engine *warp.Engine, interval time.Duration, deliver func(Result), logger golog.Logger) *Controller {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Controller{
		engine:    engine,
		logger:    logger,
		debounced: debounce.New(interval),
		deliver:   deliver,
	}
}

// SetImage replaces the working image. Any in-flight correction of the old
// image becomes stale and will be dropped.
func (c *Controller) SetImage(img image.Image) {
	c.mu.Lock()
	c.src = img
	c.generation++
	c.mu.Unlock()
}

// SetStrength records a new strength value. The correction starts once the
// control has settled for the debounce interval; intermediate values a fast
// slider produces are never processed.
func (c *Controller) SetStrength(s float64) {
	c.mu.Lock()
	c.strength = s
	c.generation++
	c.mu.Unlock()
	c.debounced(c.run)
}

func (c *Controller) run() {
	c.mu.Lock()
	src, strength, gen := c.src, c.strength, c.generation
	closed := c.closed
	c.mu.Unlock()
	if closed || src == nil {
		return
	}
	c.inflight.Add(1)
	goutils.PanicCapturingGo(func() {
		defer c.inflight.Done()
		out, err := c.engine.Process(context.Background(), src, strength)
		c.mu.Lock()
		stale := gen != c.generation || c.closed
		c.mu.Unlock()
		if stale {
			c.logger.Debugw("dropping superseded correction", "strength", strength)
			return
		}
		c.deliver(Result{Image: out, Strength: strength, Err: err})
	})
}

// Close stops the controller and waits for any in-flight correction to
// finish. Nothing is delivered after Close returns; a debounce timer that
// fires later is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.inflight.Wait()
}
