package input

import (
	"fmt"
	"os/exec"
	"strconv"
)

// XDoToolController synthesises input by shelling out to xdotool.
type XDoToolController struct {
	// Command is the xdotool binary; defaults to "xdotool".
	Command string

	// run executes a command and returns its combined output. Tests replace it.
	run func(name string, args ...string) ([]byte, error)
}

// NewXDoToolController returns a controller that invokes command (or
// "xdotool" when empty).
func NewXDoToolController(command string) *XDoToolController {
	if command == "" {
		command = "xdotool"
	}
	return &XDoToolController{
		Command: command,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}
}

// SetPosition moves the pointer to absolute screen coordinates.
func (c *XDoToolController) SetPosition(x, y int) error {
	return c.exec("mousemove", strconv.Itoa(x), strconv.Itoa(y))
}

// Press holds down b.
func (c *XDoToolController) Press(b Button) error {
	n, err := x11ButtonNumber(b)
	if err != nil {
		return err
	}
	return c.exec("mousedown", strconv.Itoa(n))
}

// Release lets go of b.
func (c *XDoToolController) Release(b Button) error {
	n, err := x11ButtonNumber(b)
	if err != nil {
		return err
	}
	return c.exec("mouseup", strconv.Itoa(n))
}

// Scroll emits |dy| vertical and |dx| horizontal wheel notches. Positive dy
// scrolls up and positive dx scrolls right.
func (c *XDoToolController) Scroll(dx, dy int) error {
	for _, args := range scrollArgs(dx, dy) {
		if err := c.exec(args...); err != nil {
			return err
		}
	}
	return nil
}

func (c *XDoToolController) exec(args ...string) error {
	output, err := c.run(c.Command, args...)
	if err != nil {
		return fmt.Errorf("%s %v failed: %w (output: %s)", c.Command, args, err, string(output))
	}
	return nil
}

// scrollArgs returns one xdotool invocation per non-zero axis.
func scrollArgs(dx, dy int) [][]string {
	var out [][]string
	if dy != 0 {
		button, n := 4, dy
		if dy < 0 {
			button, n = 5, -dy
		}
		out = append(out, []string{"click", "--repeat", strconv.Itoa(n), strconv.Itoa(button)})
	}
	if dx != 0 {
		button, n := 7, dx
		if dx < 0 {
			button, n = 6, -dx
		}
		out = append(out, []string{"click", "--repeat", strconv.Itoa(n), strconv.Itoa(button)})
	}
	return out
}

func x11ButtonNumber(b Button) (int, error) {
	switch b {
	case ButtonLeft:
		return 1, nil
	case ButtonMiddle:
		return 2, nil
	case ButtonRight:
		return 3, nil
	default:
		return 0, fmt.Errorf("cannot synthesise %s button", b)
	}
}
