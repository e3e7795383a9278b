package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/airpointer/internal/gesture"
)

// Event is a journaled decoder event.
type Event struct {
	ID        int64             `json:"id"`
	SessionID string            `json:"session_id"`
	Kind      gesture.EventKind `json:"kind"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Amount    float64           `json:"amount"`
	CreatedAt time.Time         `json:"created_at"`
}

// EventRepository provides access to journaled events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends e to the journal of sessionID. NONE events are rejected.
func (r *EventRepository) Record(sessionID string, e gesture.Event) (*Event, error) {
	if e.Kind == gesture.None {
		return nil, fmt.Errorf("record event: %s is not journaled", e.Kind)
	}

	ev := &Event{
		SessionID: sessionID,
		Kind:      e.Kind,
		X:         e.X,
		Y:         e.Y,
		Amount:    e.Amount,
		CreatedAt: time.Now().UTC(),
	}

	result, err := r.db.Exec(
		`INSERT INTO events (session_id, kind, x, y, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.Kind.String(), ev.X, ev.Y, ev.Amount, ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ev.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// ListBySession returns every event of a session in the order recorded.
func (r *EventRepository) ListBySession(sessionID string) ([]*Event, error) {
	return r.query(
		`SELECT id, session_id, kind, x, y, amount, created_at
		 FROM events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
}

// Recent returns up to limit events across all sessions, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	if limit <= 0 {
		return []*Event{}, nil
	}
	return r.query(
		`SELECT id, session_id, kind, x, y, amount, created_at
		 FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

// CountByKind tallies the events of a session by kind. An empty sessionID
// counts across all sessions.
func (r *EventRepository) CountByKind(sessionID string) (map[gesture.EventKind]int, error) {
	query := `SELECT kind, COUNT(*) FROM events GROUP BY kind`
	args := []any{}
	if sessionID != "" {
		query = `SELECT kind, COUNT(*) FROM events WHERE session_id = ? GROUP BY kind`
		args = append(args, sessionID)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[gesture.EventKind]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		kind, err := gesture.ParseEventKind(name)
		if err != nil {
			return nil, err
		}
		counts[kind] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *EventRepository) query(query string, args ...any) ([]*Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		ev := &Event{}
		var kind string

		err := rows.Scan(&ev.ID, &ev.SessionID, &kind, &ev.X, &ev.Y, &ev.Amount, &ev.CreatedAt)
		if err != nil {
			return nil, err
		}

		ev.Kind, err = gesture.ParseEventKind(kind)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
