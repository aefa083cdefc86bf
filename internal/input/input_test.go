package input

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleXInput = `⎡ Virtual core pointer                    	id=2	[master pointer  (3)]
EVENT type 6 (Motion)
    device: 2 (11)
    detail: 0
    flags:
    root: 1021.95/558.40
    event: 1021.95/558.40
    buttons:
EVENT type 17 (RawMotion)
    device: 11 (11)
    detail: 0
EVENT type 4 (ButtonPress)
    device: 2 (11)
    detail: 1
    flags:
    root: 1022.00/559.00
    event: 1022.00/559.00
EVENT type 5 (ButtonRelease)
    device: 2 (11)
    detail: 1
    root: 1022.00/559.00
EVENT type 4 (ButtonPress)
    device: 2 (11)
    detail: 5
    root: 30.00/40.00
EVENT type 5 (ButtonRelease)
    device: 2 (11)
    detail: 5
    root: 30.00/40.00
EVENT type 4 (ButtonPress)
    device: 2 (11)
    detail: 8
    root: 1.00/2.00
`

type captured struct {
	kind    string
	x, y    int
	button  Button
	pressed bool
	dx, dy  int
}

func collectingHandlers(out *[]captured, stopAfter int) Handlers {
	keep := func() bool { return stopAfter <= 0 || len(*out) < stopAfter }
	return Handlers{
		OnMove: func(x, y int) bool {
			*out = append(*out, captured{kind: "move", x: x, y: y})
			return keep()
		},
		OnClick: func(x, y int, b Button, pressed bool) bool {
			*out = append(*out, captured{kind: "click", x: x, y: y, button: b, pressed: pressed})
			return keep()
		},
		OnScroll: func(x, y, dx, dy int) bool {
			*out = append(*out, captured{kind: "scroll", x: x, y: y, dx: dx, dy: dy})
			return keep()
		},
	}
}

func TestDecodeXInput(t *testing.T) {
	var got []captured
	stopped, err := decodeXInput(strings.NewReader(sampleXInput), collectingHandlers(&got, 0))
	if err != nil {
		t.Fatalf("decodeXInput() error = %v", err)
	}
	if stopped {
		t.Error("decodeXInput() reported stop without a handler asking for it")
	}

	want := []captured{
		{kind: "move", x: 1022, y: 558},
		{kind: "click", x: 1022, y: 559, button: ButtonLeft, pressed: true},
		{kind: "click", x: 1022, y: 559, button: ButtonLeft, pressed: false},
		{kind: "scroll", x: 30, y: 40, dx: 0, dy: -1},
		{kind: "click", x: 1, y: 2, button: ButtonUnknown, pressed: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decodeXInput() events =\n%+v\nwant\n%+v", got, want)
	}
}

func TestDecodeXInputStopsWhenHandlerReturnsFalse(t *testing.T) {
	var got []captured
	stopped, err := decodeXInput(strings.NewReader(sampleXInput), collectingHandlers(&got, 2))
	if err != nil {
		t.Fatalf("decodeXInput() error = %v", err)
	}
	if !stopped {
		t.Error("expected decodeXInput() to report a handler stop")
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events before stop, got %d", len(got))
	}
}

func TestWheelDelta(t *testing.T) {
	tests := []struct {
		detail int
		dx, dy int
		ok     bool
	}{
		{4, 0, 1, true},
		{5, 0, -1, true},
		{6, -1, 0, true},
		{7, 1, 0, true},
		{1, 0, 0, false},
	}
	for _, tt := range tests {
		dx, dy, ok := wheelDelta(tt.detail)
		if dx != tt.dx || dy != tt.dy || ok != tt.ok {
			t.Errorf("wheelDelta(%d) = (%d, %d, %v), want (%d, %d, %v)", tt.detail, dx, dy, ok, tt.dx, tt.dy, tt.ok)
		}
	}
}

func TestParseButton(t *testing.T) {
	for _, b := range []Button{ButtonLeft, ButtonRight, ButtonMiddle} {
		got, err := ParseButton(b.String())
		if err != nil {
			t.Fatalf("ParseButton(%q) error = %v", b.String(), err)
		}
		if got != b {
			t.Errorf("ParseButton(%q) = %v, want %v", b.String(), got, b)
		}
	}
	if _, err := ParseButton("x1"); err == nil {
		t.Error("expected error for unknown button name")
	}
}

func newTestXDoTool(fail bool) (*XDoToolController, *[][]string) {
	var calls [][]string
	c := NewXDoToolController("")
	c.run = func(name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		if fail {
			return []byte("Can't open display"), errors.New("exit status 1")
		}
		return nil, nil
	}
	return c, &calls
}

func TestXDoToolControllerCommands(t *testing.T) {
	c, calls := newTestXDoTool(false)

	if err := c.SetPosition(10, 20); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	if err := c.Press(ButtonLeft); err != nil {
		t.Fatalf("Press() error = %v", err)
	}
	if err := c.Release(ButtonRight); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := c.Scroll(-2, 3); err != nil {
		t.Fatalf("Scroll() error = %v", err)
	}

	want := [][]string{
		{"xdotool", "mousemove", "10", "20"},
		{"xdotool", "mousedown", "1"},
		{"xdotool", "mouseup", "3"},
		{"xdotool", "click", "--repeat", "3", "4"},
		{"xdotool", "click", "--repeat", "2", "6"},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("xdotool invocations =\n%v\nwant\n%v", *calls, want)
	}
}

func TestXDoToolControllerFailure(t *testing.T) {
	c, _ := newTestXDoTool(true)

	err := c.SetPosition(1, 1)
	if err == nil {
		t.Fatal("expected error when xdotool fails")
	}
	if !strings.Contains(err.Error(), "Can't open display") {
		t.Errorf("error should include command output, got: %v", err)
	}

	if err := c.Press(ButtonUnknown); err == nil {
		t.Error("expected error pressing an unknown button")
	}
}

func TestScrollArgsZero(t *testing.T) {
	if args := scrollArgs(0, 0); len(args) != 0 {
		t.Errorf("scrollArgs(0, 0) = %v, want none", args)
	}
}

func TestLogController(t *testing.T) {
	c := NewLogController(nil)
	_ = c.SetPosition(5, 6)
	_ = c.Press(ButtonRight)

	if x, y := c.Position(); x != 5 || y != 6 {
		t.Errorf("Position() = (%d, %d), want (5, 6)", x, y)
	}
	if !c.Held(ButtonRight) {
		t.Error("expected right button to be held")
	}
	_ = c.Release(ButtonRight)
	if c.Held(ButtonRight) {
		t.Error("expected right button to be released")
	}
}
