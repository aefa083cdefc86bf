// Package output provides terminal output utilities for automice.
//
// This package includes:
//   - Table rendering for the macro library and for a macro's events
//   - Progress bars for replay
//   - Spinners for capture sessions
//
// Tables use plain ASCII columns; ANSI colors are only emitted when stdout
// is a terminal and NO_COLOR is unset. Progress indicators are safe for use
// from multiple goroutines.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/store"
)

// ANSI color codes for event kinds
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

func kindColor(k macro.Kind) string {
	switch k {
	case macro.KindClick:
		return colorGreen
	case macro.KindScroll:
		return colorYellow
	case macro.KindMove:
		return colorCyan
	default:
		return colorGray
	}
}

// RenderMacroTable renders the stored macros in the order given.
func RenderMacroTable(macros []*store.Macro) string {
	if len(macros) == 0 {
		return "No macros found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-24s %-8s %-10s %-16s %s\n",
		"Name", "Events", "Duration", "Created", "Source"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, m := range macros {
		sb.WriteString(fmt.Sprintf("%-24s %-8s %-10s %-16s %s\n",
			truncate(m.Name, 24),
			humanize.Comma(int64(m.EventCount)),
			FormatDuration(m.Duration),
			formatRelativeTime(m.CreatedAt),
			m.Source))
	}

	return sb.String()
}

// RenderEventTable renders every event of a macro with its offset from the
// start of the recording.
func RenderEventTable(log macro.Log) string {
	if len(log) == 0 {
		return "No events recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-6s %-8s %-14s %-10s %-10s %s\n",
		"#", "Type", "Position", "Delay", "At", "Detail"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	var offset time.Duration
	for i, ev := range log {
		offset += ev.Wait()
		kind := fmt.Sprintf("%-8s", ev.Kind)

		sb.WriteString(fmt.Sprintf("%-6d %s %-14s %-10s %-10s %s\n",
			i,
			colorize(kindColor(ev.Kind), kind),
			fmt.Sprintf("(%d, %d)", ev.X, ev.Y),
			fmt.Sprintf("%.3fs", ev.Delay),
			FormatDuration(offset),
			eventDetail(ev)))
	}

	return sb.String()
}

func eventDetail(ev macro.Event) string {
	switch ev.Kind {
	case macro.KindClick:
		if ev.Pressed {
			return ev.Button.String() + " down"
		}
		return ev.Button.String() + " up"
	case macro.KindScroll:
		return fmt.Sprintf("dx=%d dy=%d", ev.DX, ev.DY)
	default:
		return ""
	}
}

// RenderSummary renders a one-line breakdown of a macro.
// Format: "27 events over 4.2s · move: 20 · click: 6 · scroll: 1"
func RenderSummary(log macro.Log) string {
	counts := log.Counts()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s over %s",
		humanize.Comma(int64(len(log))),
		pluralize(len(log), "event", "events"),
		FormatDuration(log.Duration())))

	for _, k := range []macro.Kind{macro.KindMove, macro.KindClick, macro.KindScroll} {
		if counts[k] == 0 {
			continue
		}
		label := fmt.Sprintf("%s: %d", k, counts[k])
		sb.WriteString(" · ")
		sb.WriteString(colorize(kindColor(k), label))
	}
	sb.WriteString("\n")

	return sb.String()
}

// FormatDuration renders d with millisecond precision below a minute and
// second precision above it.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if time.Since(t) < time.Minute {
		return "just now"
	}
	return humanize.Time(t)
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
