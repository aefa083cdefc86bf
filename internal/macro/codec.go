package macro

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/automice/internal/input"
)

// LoadError reports a macro file that could not be read or is not a valid
// event log.
type LoadError struct {
	Path  string
	Index int // offending event, or -1 for file-level problems
	Err   error
}

func (e *LoadError) Error() string {
	src := e.Path
	if src == "" {
		src = "<stream>"
	}
	if e.Index >= 0 {
		return fmt.Sprintf("load macro %s: event %d: %v", src, e.Index, e.Err)
	}
	return fmt.Sprintf("load macro %s: %v", src, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type moveJSON struct {
	Type  Kind    `json:"type"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Delay float64 `json:"delay"`
}

type clickJSON struct {
	Type    Kind    `json:"type"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Button  string  `json:"button"`
	Pressed bool    `json:"pressed"`
	Delay   float64 `json:"delay"`
}

type scrollJSON struct {
	Type  Kind    `json:"type"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	DX    int     `json:"dx"`
	DY    int     `json:"dy"`
	Delay float64 `json:"delay"`
}

// eventJSON is the decode side; pointers let missing fields be detected.
type eventJSON struct {
	Type    *string  `json:"type"`
	X       *int     `json:"x"`
	Y       *int     `json:"y"`
	Button  *string  `json:"button"`
	Pressed *bool    `json:"pressed"`
	DX      *int     `json:"dx"`
	DY      *int     `json:"dy"`
	Delay   *float64 `json:"delay"`
}

// MarshalJSON writes only the fields belonging to the event's kind.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindMove:
		return json.Marshal(moveJSON{Type: e.Kind, X: e.X, Y: e.Y, Delay: e.Delay})
	case KindClick:
		if e.Button != input.ButtonLeft && e.Button != input.ButtonRight {
			return nil, fmt.Errorf("click event has unsupported button %s", e.Button)
		}
		return json.Marshal(clickJSON{Type: e.Kind, X: e.X, Y: e.Y, Button: e.Button.String(), Pressed: e.Pressed, Delay: e.Delay})
	case KindScroll:
		return json.Marshal(scrollJSON{Type: e.Kind, X: e.X, Y: e.Y, DX: e.DX, DY: e.DY, Delay: e.Delay})
	}
	return nil, fmt.Errorf("unknown event type %q", e.Kind)
}

// UnmarshalJSON validates the object against its declared kind.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == nil {
		return errors.New(`missing "type"`)
	}
	kind, err := ParseKind(*w.Type)
	if err != nil {
		return err
	}
	if w.X == nil || w.Y == nil {
		return errors.New(`missing "x" or "y"`)
	}
	if w.Delay == nil {
		return errors.New(`missing "delay"`)
	}
	if *w.Delay < 0 {
		return fmt.Errorf("negative delay %v", *w.Delay)
	}
	if *w.Delay > MaxDelay {
		return fmt.Errorf("delay %v exceeds the maximum of %v seconds", *w.Delay, MaxDelay)
	}

	ev := Event{Kind: kind, X: *w.X, Y: *w.Y, Delay: *w.Delay}
	switch kind {
	case KindClick:
		if w.Button == nil || w.Pressed == nil {
			return errors.New(`click missing "button" or "pressed"`)
		}
		b, err := input.ParseButton(*w.Button)
		if err != nil || (b != input.ButtonLeft && b != input.ButtonRight) {
			return fmt.Errorf("unsupported button %q", *w.Button)
		}
		ev.Button = b
		ev.Pressed = *w.Pressed
	case KindScroll:
		if w.DX == nil || w.DY == nil {
			return errors.New(`scroll missing "dx" or "dy"`)
		}
		ev.DX = *w.DX
		ev.DY = *w.DY
	}

	*e = ev
	return nil
}

// Encode writes log to w as an indented JSON array.
func Encode(w io.Writer, log Log) error {
	if log == nil {
		log = Log{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("failed to encode macro: %w", err)
	}
	return nil
}

// Decode reads a JSON event array from r. Errors are *LoadError with an
// empty Path.
func Decode(r io.Reader) (Log, error) {
	return decode(r, "")
}

func decode(r io.Reader, path string) (Log, error) {
	dec := json.NewDecoder(r)

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("file is empty")
		}
		return nil, &LoadError{Path: path, Index: -1, Err: err}
	}
	if raw == nil {
		return nil, &LoadError{Path: path, Index: -1, Err: errors.New("expected a JSON array of events")}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &LoadError{Path: path, Index: -1, Err: errors.New("unexpected data after event array")}
	}

	log := make(Log, 0, len(raw))
	for i, msg := range raw {
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			return nil, &LoadError{Path: path, Index: i, Err: err}
		}
		log = append(log, ev)
	}
	return log, nil
}

// Load reads the macro file at path.
func Load(path string) (Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Index: -1, Err: err}
	}
	return decode(bytes.NewReader(data), path)
}

// Save writes log to path. The file is written to a temporary sibling and
// renamed into place so a failed save never truncates an existing macro.
func Save(path string, log Log) error {
	var buf bytes.Buffer
	if err := Encode(&buf, log); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move macro into place at %s: %w", path, err)
	}
	return nil
}
