// Package recorder captures a chronological log of mouse activity from an
// input.Hook, bounded by stop rules.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blackwell-systems/automice/internal/input"
	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/timing"
)

// SafeLimit is how long a session may run when Safe is set and no other stop
// rule is configured.
const SafeLimit = 10 * time.Second

// ErrInvalidStopOn is returned when Options.StopOn is not an event kind.
var ErrInvalidStopOn = errors.New("stop-on must be one of move, click or scroll")

// Options configure a single Listen call.
type Options struct {
	// Delay is waited before capture starts.
	Delay time.Duration
	// StopAfter ends capture on the first event arriving after it has
	// elapsed. Zero means no limit.
	StopAfter time.Duration
	// StopOn ends capture on the first event of that kind. Empty means none.
	StopOn macro.Kind
	// Safe caps an otherwise unbounded session at SafeLimit.
	Safe bool
}

// StopReason explains why the last session ended.
type StopReason string

const (
	StopNone      StopReason = ""
	StopOnEvent   StopReason = "stop-on"
	StopAfterTime StopReason = "stop-after"
	StopSafeLimit StopReason = "safe-limit"
	StopCancelled StopReason = "cancelled"
	StopSourceEnd StopReason = "source-ended"
)

// Recorder turns hook callbacks into a macro.Log. A Recorder runs one session
// at a time; its session state lives only for the duration of Listen.
type Recorder struct {
	hook   input.Hook
	clock  func() time.Time
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger

	opts    Options
	start   time.Time
	last    time.Time
	events  macro.Log
	reason  StopReason
	skipped int
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) { r.clock = clock }
}

// WithSleep replaces the context-aware sleep used for Options.Delay.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Recorder) { r.sleep = sleep }
}

// WithLogger sets the logger for session messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// New creates a Recorder reading from hook.
func New(hook input.Hook, opts ...Option) (*Recorder, error) {
	if hook == nil {
		return nil, fmt.Errorf("hook cannot be nil")
	}
	r := &Recorder{
		hook:   hook,
		clock:  time.Now,
		sleep:  timing.Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Listen blocks until a stop rule fires, ctx is cancelled, or the hook ends,
// and returns the events captured. When ctx is cancelled the partial log is
// returned together with ctx's error.
func (r *Recorder) Listen(ctx context.Context, opts Options) (macro.Log, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.StopOn != "" {
		if _, err := macro.ParseKind(string(opts.StopOn)); err != nil {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidStopOn, opts.StopOn)
		}
	}
	if opts.StopAfter < 0 {
		return nil, fmt.Errorf("stop-after must not be negative")
	}

	r.opts = opts
	r.events = macro.Log{}
	r.reason = StopNone
	r.skipped = 0

	if opts.Delay > 0 {
		r.logger.Info("waiting before capture", "delay", opts.Delay)
		if err := r.sleep(ctx, opts.Delay); err != nil {
			r.reason = StopCancelled
			return r.events, err
		}
	}

	r.start = r.clock()
	r.last = r.start
	r.logger.Info("starting listener",
		"stop_after", opts.StopAfter,
		"stop_on", string(opts.StopOn),
		"safe", opts.Safe)

	err := r.hook.Run(ctx, input.Handlers{
		OnMove:   r.onMove,
		OnClick:  r.onClick,
		OnScroll: r.onScroll,
	})

	switch {
	case ctx.Err() != nil:
		r.reason = StopCancelled
		err = ctx.Err()
	case err != nil:
		err = fmt.Errorf("input hook failed: %w", err)
	case r.reason == StopNone:
		r.reason = StopSourceEnd
	}

	r.logger.Info("listener stopped",
		"reason", string(r.reason),
		"events", len(r.events),
		"skipped", r.skipped)
	return r.events, err
}

// Events returns the log captured by the most recent Listen call.
func (r *Recorder) Events() macro.Log {
	return r.events
}

// Reason reports why the most recent Listen call ended.
func (r *Recorder) Reason() StopReason {
	return r.reason
}

// Save writes the most recent log to path.
func (r *Recorder) Save(path string) error {
	return macro.Save(path, r.events)
}

// shouldStop evaluates the stop rules for an event of kind k arriving at t.
func (r *Recorder) shouldStop(k macro.Kind, t time.Time) bool {
	elapsed := t.Sub(r.start)
	switch {
	case r.opts.StopOn != "" && r.opts.StopOn == k:
		r.reason = StopOnEvent
	case r.opts.StopAfter > 0 && elapsed > r.opts.StopAfter:
		r.reason = StopAfterTime
	case r.opts.Safe && r.opts.StopAfter == 0 && r.opts.StopOn == "" && elapsed > SafeLimit:
		r.reason = StopSafeLimit
	default:
		return false
	}
	return true
}

func (r *Recorder) add(ev macro.Event, t time.Time) {
	ev.Delay = t.Sub(r.last).Seconds()
	r.last = t
	r.events = append(r.events, ev)
	r.logger.Debug("captured event", "event", ev.String())
}

func (r *Recorder) onMove(x, y int) bool {
	t := r.clock()
	if r.shouldStop(macro.KindMove, t) {
		return false
	}
	r.add(macro.Move(x, y, 0), t)
	return true
}

func (r *Recorder) onClick(x, y int, b input.Button, pressed bool) bool {
	t := r.clock()
	if r.shouldStop(macro.KindClick, t) {
		return false
	}
	if b != input.ButtonLeft && b != input.ButtonRight {
		r.skipped++
		r.logger.Debug("ignoring unsupported button", "button", b.String())
		return true
	}
	r.add(macro.Click(x, y, b, pressed, 0), t)
	return true
}

func (r *Recorder) onScroll(x, y, dx, dy int) bool {
	t := r.clock()
	if r.shouldStop(macro.KindScroll, t) {
		return false
	}
	r.add(macro.Scroll(x, y, dx, dy, 0), t)
	return true
}
