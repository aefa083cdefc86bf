package input

import (
	"log/slog"
	"sync"
)

// LogController is a dry-run Controller. It records the pointer position and
// logs every action at info level instead of touching the real pointer.
type LogController struct {
	logger *slog.Logger

	mu   sync.Mutex
	x, y int
	held map[Button]bool
}

// NewLogController returns a dry-run controller writing to logger
// (slog.Default when nil).
func NewLogController(logger *slog.Logger) *LogController {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogController{logger: logger, held: make(map[Button]bool)}
}

func (c *LogController) SetPosition(x, y int) error {
	c.mu.Lock()
	c.x, c.y = x, y
	c.mu.Unlock()
	c.logger.Info("dry-run move", "x", x, "y", y)
	return nil
}

func (c *LogController) Press(b Button) error {
	c.mu.Lock()
	c.held[b] = true
	c.mu.Unlock()
	c.logger.Info("dry-run press", "button", b.String())
	return nil
}

func (c *LogController) Release(b Button) error {
	c.mu.Lock()
	delete(c.held, b)
	c.mu.Unlock()
	c.logger.Info("dry-run release", "button", b.String())
	return nil
}

func (c *LogController) Scroll(dx, dy int) error {
	c.logger.Info("dry-run scroll", "dx", dx, "dy", dy)
	return nil
}

// Position reports the last position set.
func (c *LogController) Position() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y
}

// Held reports whether b is currently pressed.
func (c *LogController) Held(b Button) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held[b]
}
