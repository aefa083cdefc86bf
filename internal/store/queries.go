package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/automice/internal/input"
	"github.com/blackwell-systems/automice/internal/macro"
)

// Macro operations

// SaveMacro stores log under name, replacing any macro with the same name.
// The replacement happens in a single transaction.
func (s *Store) SaveMacro(name string, log macro.Log, source string) (*Macro, error) {
	if name == "" {
		return nil, fmt.Errorf("macro name cannot be empty")
	}

	m := &Macro{
		ID:         uuid.NewString(),
		Name:       name,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		EventCount: len(log),
		Duration:   log.Duration(),
		Source:     source,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM macros WHERE name = ?`, name); err != nil {
		return nil, wrapErr(err, "failed to replace macro %s", name)
	}

	_, err = tx.Exec(`
		INSERT INTO macros (id, name, created_at, event_count, duration_ms, source)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.Name,
		m.CreatedAt.Format(time.RFC3339),
		m.EventCount,
		m.Duration.Milliseconds(),
		m.Source,
	)
	if err != nil {
		return nil, wrapErr(err, "failed to insert macro %s", name)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO macro_events (macro_id, seq, type, x, y, button, pressed, dx, dy, delay)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for i, ev := range log {
		var button sql.NullString
		var pressed sql.NullBool
		var dx, dy sql.NullInt64

		switch ev.Kind {
		case macro.KindClick:
			button = sql.NullString{String: ev.Button.String(), Valid: true}
			pressed = sql.NullBool{Bool: ev.Pressed, Valid: true}
		case macro.KindScroll:
			dx = sql.NullInt64{Int64: int64(ev.DX), Valid: true}
			dy = sql.NullInt64{Int64: int64(ev.DY), Valid: true}
		}

		if _, err := stmt.Exec(m.ID, i, string(ev.Kind), ev.X, ev.Y, button, pressed, dx, dy, ev.Delay); err != nil {
			return nil, fmt.Errorf("failed to insert event %d of %s: %w", i, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit macro %s: %w", name, err)
	}

	return m, nil
}

// GetMacro retrieves a macro and its events by name.
func (s *Store) GetMacro(name string) (*Macro, macro.Log, error) {
	query := `
		SELECT id, name, created_at, event_count, duration_ms, source
		FROM macros
		WHERE name = ?
	`

	m, err := scanMacro(s.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, nil, wrapErr(err, "failed to get macro %s", name)
	}

	log, err := s.getEvents(m.ID)
	if err != nil {
		return nil, nil, err
	}

	return m, log, nil
}

func (s *Store) getEvents(macroID string) (macro.Log, error) {
	query := `
		SELECT type, x, y, button, pressed, dx, dy, delay
		FROM macro_events
		WHERE macro_id = ?
		ORDER BY seq
	`

	rows, err := s.db.Query(query, macroID)
	if err != nil {
		return nil, wrapErr(err, "failed to get events for macro %s", macroID)
	}
	defer rows.Close()

	log := macro.Log{}
	for rows.Next() {
		var ev macro.Event
		var kind string
		var button sql.NullString
		var pressed sql.NullBool
		var dx, dy sql.NullInt64

		if err := rows.Scan(&kind, &ev.X, &ev.Y, &button, &pressed, &dx, &dy, &ev.Delay); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		ev.Kind, err = macro.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("corrupt event in macro %s: %w", macroID, err)
		}
		if button.Valid {
			ev.Button, err = input.ParseButton(button.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt event in macro %s: %w", macroID, err)
			}
		}
		ev.Pressed = pressed.Bool
		ev.DX = int(dx.Int64)
		ev.DY = int(dy.Int64)

		log = append(log, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return log, nil
}

// ListMacros returns all macros, newest first.
func (s *Store) ListMacros() ([]*Macro, error) {
	query := `
		SELECT id, name, created_at, event_count, duration_ms, source
		FROM macros
		ORDER BY created_at DESC, name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapErr(err, "failed to list macros")
	}
	defer rows.Close()

	var macros []*Macro
	for rows.Next() {
		m, err := scanMacro(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan macro row: %w", err)
		}
		macros = append(macros, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating macros: %w", err)
	}

	return macros, nil
}

// DeleteMacro removes a macro and its events.
func (s *Store) DeleteMacro(name string) error {
	result, err := s.db.Exec(`DELETE FROM macros WHERE name = ?`, name)
	if err != nil {
		return wrapErr(err, "failed to delete macro %s", name)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

// MacroCount returns the number of macros in the library.
func (s *Store) MacroCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM macros").Scan(&count)
	if err != nil {
		return 0, wrapErr(err, "failed to count macros")
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMacro(row rowScanner) (*Macro, error) {
	var m Macro
	var createdAt string
	var durationMS int64
	var source sql.NullString

	if err := row.Scan(&m.ID, &m.Name, &createdAt, &m.EventCount, &durationMS, &source); err != nil {
		return nil, err
	}

	var err error
	m.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for %s: %w", m.Name, err)
	}
	m.Duration = time.Duration(durationMS) * time.Millisecond
	m.Source = source.String

	return &m, nil
}
