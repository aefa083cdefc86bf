// Package player replays a recorded macro against an input.Controller.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/blackwell-systems/automice/internal/input"
	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/timing"
)

// SafeLimit is the longest a replay may run when Options.Safe is set.
const SafeLimit = 10 * time.Second

// Options configure a single replay.
type Options struct {
	// Delay is waited before the first event.
	Delay time.Duration
	// Safe stops the replay before the next event once SafeLimit has passed.
	Safe bool
	// Speed scales recorded delays: 2 plays twice as fast. Zero means 1.
	Speed float64
	// Progress, if set, is called after each replayed event.
	Progress func(played, total int)
}

// SynthesisError reports a controller failure while replaying an event.
type SynthesisError struct {
	Index int
	Op    string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("replay event %d: %s failed: %v", e.Index, e.Op, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Result summarises a finished replay.
type Result struct {
	Played  int
	Total   int
	Aborted bool // stopped early by the safe limit
	Elapsed time.Duration
}

// Player drives a Controller from a macro.Log.
type Player struct {
	ctrl   input.Controller
	clock  func() time.Time
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger
}

// Option customises a Player.
type Option func(*Player)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(p *Player) { p.clock = clock }
}

// WithSleep replaces the context-aware sleep between events.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(p *Player) { p.sleep = sleep }
}

// WithLogger sets the logger for replay messages.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) { p.logger = logger }
}

// New creates a Player driving ctrl.
func New(ctrl input.Controller, opts ...Option) (*Player, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	p := &Player{
		ctrl:   ctrl,
		clock:  time.Now,
		sleep:  timing.Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run loads the macro at path and plays it. Load failures are
// *macro.LoadError.
func (p *Player) Run(ctx context.Context, path string, opts Options) (Result, error) {
	log, err := macro.Load(path)
	if err != nil {
		return Result{}, err
	}
	return p.Play(ctx, log, opts)
}

// Play replays log in order. Controller failures abort the replay with a
// *SynthesisError; there is no retry.
func (p *Player) Play(ctx context.Context, log macro.Log, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 1
	}
	if speed < 0 {
		return Result{}, fmt.Errorf("speed must be positive, got %v", opts.Speed)
	}

	res := Result{Total: len(log)}

	if opts.Delay > 0 {
		p.logger.Info("waiting before replay", "delay", opts.Delay)
		if err := p.sleep(ctx, opts.Delay); err != nil {
			return res, err
		}
	}

	start := p.clock()
	p.logger.Info("running events", "events", len(log), "safe", opts.Safe, "speed", speed)

	for i, ev := range log {
		if opts.Safe && p.clock().Sub(start) > SafeLimit {
			res.Aborted = true
			p.logger.Warn("safe limit reached, stopping replay", "played", res.Played, "remaining", len(log)-i)
			break
		}

		wait := scaleWait(ev.Wait(), speed)
		if err := p.sleep(ctx, wait); err != nil {
			res.Elapsed = p.clock().Sub(start)
			return res, err
		}

		if err := p.apply(i, ev); err != nil {
			res.Elapsed = p.clock().Sub(start)
			return res, err
		}
		res.Played++
		if opts.Progress != nil {
			opts.Progress(res.Played, res.Total)
		}
	}

	res.Elapsed = p.clock().Sub(start)
	p.logger.Info("replay finished", "played", res.Played, "elapsed", res.Elapsed)
	return res, nil
}

// scaleWait divides wait by speed, saturating instead of overflowing.
func scaleWait(wait time.Duration, speed float64) time.Duration {
	if speed == 1 {
		return wait
	}
	scaled := float64(wait) / speed
	if scaled >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}

func (p *Player) apply(i int, ev macro.Event) error {
	p.logger.Debug("replaying event", "index", i, "event", ev.String())

	if err := p.ctrl.SetPosition(ev.X, ev.Y); err != nil {
		return &SynthesisError{Index: i, Op: "set position", Err: err}
	}

	switch ev.Kind {
	case macro.KindClick:
		if ev.Pressed {
			if err := p.ctrl.Press(ev.Button); err != nil {
				return &SynthesisError{Index: i, Op: "press " + ev.Button.String(), Err: err}
			}
		} else {
			if err := p.ctrl.Release(ev.Button); err != nil {
				return &SynthesisError{Index: i, Op: "release " + ev.Button.String(), Err: err}
			}
		}
	case macro.KindScroll:
		if err := p.ctrl.Scroll(ev.DX, ev.DY); err != nil {
			return &SynthesisError{Index: i, Op: "scroll", Err: err}
		}
	}
	return nil
}
