package store

import "time"

// Macro is a named recording in the library.
type Macro struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	EventCount int
	Duration   time.Duration
	Source     string // file the macro was recorded to or imported from
}
