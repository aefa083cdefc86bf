package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// XI2 event types reported by `xinput test-xi2`.
const (
	xiButtonPress   = 4
	xiButtonRelease = 5
	xiMotion        = 6
)

// XInputHook captures events by running `xinput test-xi2 --root` and parsing
// its output. Requires an X11 session.
type XInputHook struct {
	// Command is the xinput binary; defaults to "xinput".
	Command string
	Logger  *slog.Logger
}

// Run implements Hook.
func (h *XInputHook) Run(ctx context.Context, handlers Handlers) error {
	if ctx == nil {
		ctx = context.Background()
	}
	command := h.Command
	if command == "" {
		command = "xinput"
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, "test-xi2", "--root")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open xinput output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", command, err)
	}
	if h.Logger != nil {
		h.Logger.Debug("xinput hook started", "pid", cmd.Process.Pid)
	}

	stopped, parseErr := decodeXInput(stdout, handlers)

	// The child never exits on its own; kill it before reaping.
	cancel()
	waitErr := cmd.Wait()

	switch {
	case stopped:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case parseErr != nil:
		return fmt.Errorf("failed to read xinput output: %w", parseErr)
	case waitErr != nil:
		return fmt.Errorf("%s exited: %w", command, waitErr)
	}
	return nil
}

// xiEvent accumulates the fields of one "EVENT type N" block.
type xiEvent struct {
	kind   int
	detail int
}

// decodeXInput feeds events parsed from r to handlers. It reports whether a
// handler asked to stop.
//
// An event is dispatched as soon as its "root:" line is read, since that is
// the last field automice needs and the next EVENT header may be a long time
// coming.
func decodeXInput(r io.Reader, handlers Handlers) (bool, error) {
	scanner := bufio.NewScanner(r)
	var cur *xiEvent

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "EVENT type ") {
			cur = nil
			fields := strings.Fields(strings.TrimPrefix(line, "EVENT type "))
			if len(fields) == 0 {
				continue
			}
			kind, err := strconv.Atoi(fields[0])
			if err != nil {
				continue
			}
			switch kind {
			case xiButtonPress, xiButtonRelease, xiMotion:
				cur = &xiEvent{kind: kind}
			}
			continue
		}

		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "detail:"):
			d, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "detail:")))
			if err == nil {
				cur.detail = d
			}
		case strings.HasPrefix(line, "root:"):
			x, y, ok := parseXICoords(strings.TrimPrefix(line, "root:"))
			ev := cur
			cur = nil
			if !ok {
				continue
			}
			if !dispatchXI(ev, x, y, handlers) {
				return true, nil
			}
		}
	}

	return false, scanner.Err()
}

// parseXICoords parses "1021.95/558.93" into rounded integer coordinates.
func parseXICoords(s string) (int, int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return int(math.Round(x)), int(math.Round(y)), true
}

func dispatchXI(ev *xiEvent, x, y int, handlers Handlers) bool {
	if ev.kind == xiMotion {
		if handlers.OnMove == nil {
			return true
		}
		return handlers.OnMove(x, y)
	}

	pressed := ev.kind == xiButtonPress

	// X11 reports wheel notches as buttons 4-7, each as a press/release pair.
	if dx, dy, ok := wheelDelta(ev.detail); ok {
		if !pressed || handlers.OnScroll == nil {
			return true
		}
		return handlers.OnScroll(x, y, dx, dy)
	}

	if handlers.OnClick == nil {
		return true
	}
	return handlers.OnClick(x, y, x11Button(ev.detail), pressed)
}

func wheelDelta(detail int) (int, int, bool) {
	switch detail {
	case 4:
		return 0, 1, true
	case 5:
		return 0, -1, true
	case 6:
		return -1, 0, true
	case 7:
		return 1, 0, true
	}
	return 0, 0, false
}

func x11Button(detail int) Button {
	switch detail {
	case 1:
		return ButtonLeft
	case 2:
		return ButtonMiddle
	case 3:
		return ButtonRight
	default:
		return ButtonUnknown
	}
}
