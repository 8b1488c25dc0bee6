// Package journal keeps an opt-in SQLite record of wizard sessions so an
// interrupted launch can be resumed and inspected.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/santiagomed/launchpad/core"
)

var ErrSessionNotFound = errors.New("session not found")

// Summary is one row of the session list.
type Summary struct {
	ID          string
	Name        string
	Symbol      string
	CurrentStep core.StepType
	Completed   bool
	UpdatedAt   time.Time
}

// Event is a journaled step outcome.
type Event struct {
	Step    core.StepType
	Kind    string
	Current core.StepType
	Error   string
	At      time.Time
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	symbol TEXT NOT NULL,
	current_step TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	state_json TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	step TEXT NOT NULL,
	kind TEXT NOT NULL,
	current_step TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS events_session ON events(session_id, id)`,
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal busy timeout: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initialize journal schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the session snapshot.
func (s *Store) Save(ctx context.Context, state core.State) error {
	return s.save(ctx, s.db, state)
}

// Record saves the snapshot and appends the event in one transaction.
func (s *Store) Record(ctx context.Context, state core.State, event core.StepEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.save(ctx, tx, state); err != nil {
		return err
	}
	errText := ""
	if event.Err != nil {
		errText = event.Err.Error()
	}
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (session_id, step, kind, current_step, error, at) VALUES (?, ?, ?, ?, ?, ?)`,
		state.SessionID,
		event.Step.String(),
		event.Kind.String(),
		event.Current.String(),
		errText,
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append journal event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal transaction: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) save(ctx context.Context, db execer, state core.State) error {
	if state.SessionID == "" {
		return errors.New("session id is required")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	completed := 0
	if state.Completed {
		completed = 1
	}
	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, symbol, current_step, completed, state_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 name = excluded.name,
		 symbol = excluded.symbol,
		 current_step = excluded.current_step,
		 completed = excluded.completed,
		 state_json = excluded.state_json,
		 updated_at = excluded.updated_at`,
		state.SessionID,
		state.Form.Name,
		state.Form.Symbol,
		state.CurrentStep.String(),
		completed,
		string(payload),
		updated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return nil
}

// Load returns the last snapshot of a session. The logo is not journaled and
// has to be read again from Form.LogoPath.
func (s *Store) Load(ctx context.Context, id string) (*core.State, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `SELECT state_json FROM sessions WHERE id = ?`, id).Scan(&stateJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}
	state := &core.State{}
	if err := json.Unmarshal([]byte(stateJSON), state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	if state.Signatures == nil {
		state.Signatures = make(map[core.StepType][]string)
	}
	return state, nil
}

// List returns every session, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, symbol, current_step, completed, updated_at FROM sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			sum       Summary
			step      string
			completed int
			updated   string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Symbol, &step, &completed, &updated); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if sum.CurrentStep, err = core.ParseStep(step); err != nil {
			return nil, fmt.Errorf("session %s: %w", sum.ID, err)
		}
		sum.Completed = completed != 0
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return out, nil
}

// Events returns the journaled events of a session in order.
func (s *Store) Events(ctx context.Context, id string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, kind, current_step, error, at FROM events WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list events of %s: %w", id, err)
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var ev Event
		var step, current, at string
		if err := rows.Scan(&step, &ev.Kind, &current, &ev.Error, &at); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if ev.Step, err = core.ParseStep(step); err != nil {
			return nil, err
		}
		if ev.Current, err = core.ParseStep(current); err != nil {
			return nil, err
		}
		ev.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return out, nil
}
