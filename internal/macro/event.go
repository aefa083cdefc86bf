// Package macro defines recorded mouse events and the JSON file format used
// to persist them.
package macro

import (
	"fmt"
	"math"
	"time"

	"github.com/blackwell-systems/automice/internal/input"
)

// Kind is the event variant tag, written as the "type" field.
type Kind string

const (
	KindMove   Kind = "move"
	KindClick  Kind = "click"
	KindScroll Kind = "scroll"
)

// ParseKind validates s as an event kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindMove, KindClick, KindScroll:
		return k, nil
	}
	return "", fmt.Errorf("unknown event type %q (want move, click or scroll)", s)
}

// Event is one captured unit of pointer activity. Which fields are meaningful
// depends on Kind: Button and Pressed for clicks, DX and DY for scrolls.
type Event struct {
	Kind    Kind
	X, Y    int
	Button  input.Button
	Pressed bool
	DX, DY  int

	// Delay is seconds elapsed since the previous event, or since capture
	// started for the first event.
	Delay float64
}

// Move returns a move event.
func Move(x, y int, delay float64) Event {
	return Event{Kind: KindMove, X: x, Y: y, Delay: delay}
}

// Click returns a click event.
func Click(x, y int, b input.Button, pressed bool, delay float64) Event {
	return Event{Kind: KindClick, X: x, Y: y, Button: b, Pressed: pressed, Delay: delay}
}

// Scroll returns a scroll event.
func Scroll(x, y, dx, dy int, delay float64) Event {
	return Event{Kind: KindScroll, X: x, Y: y, DX: dx, DY: dy, Delay: delay}
}

// MaxDelay is the longest delay, in seconds, a time.Duration can hold.
const MaxDelay = float64(math.MaxInt64 / time.Second)

// Wait returns Delay as a time.Duration, capped at MaxDelay.
func (e Event) Wait() time.Duration {
	if e.Delay <= 0 {
		return 0
	}
	if e.Delay >= MaxDelay {
		return time.Duration(MaxDelay) * time.Second
	}
	return time.Duration(math.Round(e.Delay * float64(time.Second)))
}

func (e Event) String() string {
	switch e.Kind {
	case KindClick:
		state := "release"
		if e.Pressed {
			state = "press"
		}
		return fmt.Sprintf("click %s %s at (%d, %d) +%.3fs", e.Button, state, e.X, e.Y, e.Delay)
	case KindScroll:
		return fmt.Sprintf("scroll (%d, %d) at (%d, %d) +%.3fs", e.DX, e.DY, e.X, e.Y, e.Delay)
	default:
		return fmt.Sprintf("%s to (%d, %d) +%.3fs", e.Kind, e.X, e.Y, e.Delay)
	}
}

// Log is an ordered, replayable sequence of events.
type Log []Event

// Duration is the sum of all event delays.
func (l Log) Duration() time.Duration {
	var total float64
	for _, e := range l {
		if e.Delay > 0 {
			total += e.Delay
		}
	}
	return time.Duration(math.Round(total * float64(time.Second)))
}

// Counts returns the number of events of each kind.
func (l Log) Counts() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, e := range l {
		counts[e.Kind]++
	}
	return counts
}
