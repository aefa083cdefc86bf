// Package input defines the boundary between automice and the OS input
// facility.
//
// Capture goes through a Hook, which delivers pointer, button and wheel
// events to a set of Handlers one at a time. Synthesis goes through a
// Controller, which moves the pointer and presses, releases or scrolls.
//
// Two X11 adapters are provided: XInputHook reads `xinput test-xi2 --root`
// and XDoToolController drives `xdotool`. LogController is a dry-run
// controller that only logs what it would do.
package input

import (
	"context"
	"fmt"
	"strings"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonUnknown Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

// String returns the lower-case button name used in macro files.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// ParseButton converts a button name back into a Button.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle":
		return ButtonMiddle, nil
	default:
		return ButtonUnknown, fmt.Errorf("unknown button %q", s)
	}
}

// Handlers receive captured events. Each returns true to keep capturing and
// false to ask the hook to stop.
type Handlers struct {
	OnMove   func(x, y int) bool
	OnClick  func(x, y int, button Button, pressed bool) bool
	OnScroll func(x, y, dx, dy int) bool
}

// Hook subscribes to OS input events.
//
// Run delivers events to h sequentially on a single goroutine and blocks
// until a handler returns false, ctx is done, or the event source ends.
// A nil handler means that kind of event is dropped.
type Hook interface {
	Run(ctx context.Context, h Handlers) error
}

// Controller synthesises pointer state.
type Controller interface {
	SetPosition(x, y int) error
	Press(b Button) error
	Release(b Button) error
	Scroll(dx, dy int) error
}
