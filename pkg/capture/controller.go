package capture

import (
	"context"
	"sync"
	"time"
)

// Controller states reported by State and recorded in the timeline.
const (
	ControllerRunning  = "running"
	ControllerPaused   = "paused"
	ControllerStopping = "stopping"
)

// Transition is one controller state change.
type Transition struct {
	State  string
	Reason string
	At     time.Time
}

// ControllerOption customises a Controller.
type ControllerOption func(*Controller)

// WithControllerClock overrides the clock used to stamp transitions.
func WithControllerClock(clock func() time.Time) ControllerOption {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// Controller gates the frame loop: a paused controller holds the scheduler
// between frames, a killed one stops it with the supplied error.
type Controller struct {
	mu       sync.Mutex
	paused   bool
	stopping bool
	stopErr  error
	signal   chan struct{}
	clock    func() time.Time
	timeline []Transition
}

// NewController constructs a controller in the running state.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{signal: make(chan struct{}, 1), clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.record(ControllerRunning, "started")
	return c
}

// Pause holds the loop before its next frame.
func (c *Controller) Pause(reason string) {
	c.mu.Lock()
	if !c.paused && !c.stopping {
		c.paused = true
		c.record(ControllerPaused, reason)
	}
	c.mu.Unlock()
}

// Resume clears a paused state and notifies waiters.
func (c *Controller) Resume(reason string) {
	c.mu.Lock()
	wasPaused := c.paused && !c.stopping
	c.paused = false
	if wasPaused {
		c.record(ControllerRunning, reason)
	}
	c.mu.Unlock()
	if wasPaused {
		c.notify()
	}
}

// Kill stops the loop. The first non-nil error is what Wait returns.
func (c *Controller) Kill(err error) {
	c.mu.Lock()
	if !c.stopping {
		c.stopping = true
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		c.record(ControllerStopping, reason)
	}
	if err != nil && c.stopErr == nil {
		c.stopErr = err
	}
	c.mu.Unlock()
	c.notify()
}

// Wait blocks until the controller is running or stopping.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		paused := c.paused
		stopping := c.stopping
		stopErr := c.stopErr
		c.mu.Unlock()

		if stopping {
			if stopErr != nil {
				return stopErr
			}
			if ctx != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return context.Canceled
		}
		if !paused {
			return nil
		}

		if ctx == nil {
			<-c.signal
			continue
		}

		select {
		case <-ctx.Done():
			c.Kill(ctx.Err())
			return ctx.Err()
		case <-c.signal:
			continue
		}
	}
}

// State reports the current state name.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.stopping:
		return ControllerStopping
	case c.paused:
		return ControllerPaused
	default:
		return ControllerRunning
	}
}

// Timeline returns a copy of every recorded transition in order.
func (c *Controller) Timeline() []Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transition(nil), c.timeline...)
}

// record must be called with mu held.
func (c *Controller) record(state, reason string) {
	c.timeline = append(c.timeline, Transition{State: state, Reason: reason, At: c.clock().UTC()})
}

func (c *Controller) notify() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}
