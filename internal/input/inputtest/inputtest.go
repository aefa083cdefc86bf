// Package inputtest provides scripted Hook and Controller implementations and
// a manual clock for exercising capture and replay without an X server.
package inputtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blackwell-systems/automice/internal/input"
)

// Clock is a manually advanced clock. Sleep advances it instead of blocking.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Sleep advances the clock by d unless ctx is already done.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if d > 0 {
		c.Advance(d)
	}
	return nil
}

// Step is one scripted input event. After is how far the clock moves before
// the event is delivered.
type Step struct {
	After   time.Duration
	Kind    string // "move", "click" or "scroll"
	X, Y    int
	Button  input.Button
	Pressed bool
	DX, DY  int
}

// Move returns a move step.
func Move(after time.Duration, x, y int) Step {
	return Step{After: after, Kind: "move", X: x, Y: y}
}

// Click returns a click step.
func Click(after time.Duration, x, y int, b input.Button, pressed bool) Step {
	return Step{After: after, Kind: "click", X: x, Y: y, Button: b, Pressed: pressed}
}

// Scroll returns a scroll step.
func Scroll(after time.Duration, x, y, dx, dy int) Step {
	return Step{After: after, Kind: "scroll", X: x, Y: y, DX: dx, DY: dy}
}

// Hook replays Steps to the handlers, advancing Clock before each one.
type Hook struct {
	Clock *Clock
	Steps []Step
	// Err is returned after all steps are delivered, simulating a failed source.
	Err error

	// Delivered counts steps handed to a handler, including the one that stopped.
	Delivered int
	// Stopped is set when a handler returned false.
	Stopped bool
}

// Run implements input.Hook.
func (h *Hook) Run(ctx context.Context, handlers input.Handlers) error {
	for _, step := range h.Steps {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if h.Clock != nil {
			h.Clock.Advance(step.After)
		}

		cont := true
		switch step.Kind {
		case "move":
			if handlers.OnMove != nil {
				cont = handlers.OnMove(step.X, step.Y)
			}
		case "click":
			if handlers.OnClick != nil {
				cont = handlers.OnClick(step.X, step.Y, step.Button, step.Pressed)
			}
		case "scroll":
			if handlers.OnScroll != nil {
				cont = handlers.OnScroll(step.X, step.Y, step.DX, step.DY)
			}
		default:
			return fmt.Errorf("inputtest: unknown step kind %q", step.Kind)
		}
		h.Delivered++

		if !cont {
			h.Stopped = true
			return nil
		}
	}
	return h.Err
}

// Call is one action received by a Controller.
type Call struct {
	Op     string // "position", "press", "release" or "scroll"
	X, Y   int
	Button input.Button
	DX, DY int
	At     time.Time
}

// ErrInjected is the default failure returned by Controller.FailOn.
var ErrInjected = errors.New("inputtest: injected failure")

// Controller records every call. When FailOn names an operation, that call
// fails with ErrInjected.
type Controller struct {
	Clock  *Clock
	FailOn string

	mu    sync.Mutex
	calls []Call
}

// Calls returns a copy of the calls recorded so far.
func (c *Controller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Controller) record(call Call) error {
	if c.Clock != nil {
		call.At = c.Clock.Now()
	}
	if c.FailOn == call.Op {
		return ErrInjected
	}
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetPosition(x, y int) error {
	return c.record(Call{Op: "position", X: x, Y: y})
}

func (c *Controller) Press(b input.Button) error {
	return c.record(Call{Op: "press", Button: b})
}

func (c *Controller) Release(b input.Button) error {
	return c.record(Call{Op: "release", Button: b})
}

func (c *Controller) Scroll(dx, dy int) error {
	return c.record(Call{Op: "scroll", DX: dx, DY: dy})
}
