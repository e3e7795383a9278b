package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/airpointer/internal/gesture"
)

// newTestStore creates a new Store backed by a temporary database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestSessionRepository_CreateGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, err := repo.Create("pointer")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session ID should be set")
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}

	got, err := repo.Get(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Profile != "pointer" {
		t.Errorf("Profile = %q, want pointer", got.Profile)
	}
	if got.EndedAt != nil {
		t.Error("EndedAt should be nil for an open session")
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, err := repo.Create("scroll")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if err := repo.End(sess.ID); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	got, err := repo.Get(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.EndedAt == nil {
		t.Fatal("EndedAt should be set after End")
	}
	if got.EndedAt.Before(got.StartedAt) {
		t.Errorf("EndedAt %v is before StartedAt %v", got.EndedAt, got.StartedAt)
	}

	// Ending twice finds no open session.
	if err := repo.End(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second End() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sessions().Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := s.Sessions().End("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("End() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	for _, profile := range []string{"pointer", "scroll", "pointer"} {
		if _, err := repo.Create(profile); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
	}

	sessions, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i].StartedAt.After(sessions[i-1].StartedAt) {
			t.Error("sessions should be ordered newest first")
		}
	}
}

func TestEventRepository_Record(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Create("pointer")

	ev, err := s.Events().Record(sess.ID, gesture.Event{Kind: gesture.Scroll, Amount: -3.5})
	if err != nil {
		t.Fatalf("failed to record event: %v", err)
	}
	if ev.ID == 0 {
		t.Error("event ID should be set")
	}

	events, err := s.Events().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != gesture.Scroll || events[0].Amount != -3.5 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEventRepository_RecordRejects(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Events().Record("any", gesture.Event{Kind: gesture.None}); err == nil {
		t.Error("expected error recording NONE")
	}

	// Unknown session violates the foreign key.
	if _, err := s.Events().Record("no-such-session", gesture.Event{Kind: gesture.Click}); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestEventRepository_Recent(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Create("pointer")

	kinds := []gesture.EventKind{gesture.Click, gesture.Scroll, gesture.Click, gesture.Scroll}
	for _, k := range kinds {
		if _, err := s.Events().Record(sess.ID, gesture.Event{Kind: k}); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	recent, err := s.Events().Recent(2)
	if err != nil {
		t.Fatalf("failed to list recent events: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recent))
	}
	if recent[0].ID < recent[1].ID {
		t.Error("recent events should be newest first")
	}
	if recent[0].Kind != gesture.Scroll {
		t.Errorf("newest kind = %s, want SCROLL", recent[0].Kind)
	}

	none, err := s.Events().Recent(0)
	if err != nil || len(none) != 0 {
		t.Errorf("Recent(0) = %v, %v; want empty", none, err)
	}
}

func TestEventRepository_CountByKind(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Sessions().Create("pointer")
	b, _ := s.Sessions().Create("scroll")

	record := func(id string, k gesture.EventKind, n int) {
		for i := 0; i < n; i++ {
			if _, err := s.Events().Record(id, gesture.Event{Kind: k}); err != nil {
				t.Fatalf("failed to record event: %v", err)
			}
		}
	}
	record(a.ID, gesture.Click, 3)
	record(a.ID, gesture.Scroll, 1)
	record(b.ID, gesture.Scroll, 2)

	counts, err := s.Events().CountByKind(a.ID)
	if err != nil {
		t.Fatalf("CountByKind() error = %v", err)
	}
	if counts[gesture.Click] != 3 || counts[gesture.Scroll] != 1 {
		t.Errorf("session counts = %v", counts)
	}

	all, err := s.Events().CountByKind("")
	if err != nil {
		t.Fatalf("CountByKind() error = %v", err)
	}
	if all[gesture.Click] != 3 || all[gesture.Scroll] != 3 {
		t.Errorf("total counts = %v", all)
	}
}

func TestEventRepository_CascadeOnSessionDelete(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Create("pointer")
	s.Events().Record(sess.ID, gesture.Event{Kind: gesture.Click})

	if _, err := s.DB().Exec(`DELETE FROM sessions WHERE id = ?`, sess.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	events, err := s.Events().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected events to cascade, got %d", len(events))
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("enabled"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if !repo.Bool("enabled", true) {
		t.Error("Bool() should return the default when unset")
	}

	if err := repo.SetBool("enabled", false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if repo.Bool("enabled", true) {
		t.Error("Bool() = true after SetBool(false)")
	}

	if err := repo.Set("enabled", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := repo.Get("enabled"); v != "true" {
		t.Errorf("Get() = %q, want true", v)
	}

	repo.Set("enabled", "maybe")
	if !repo.Bool("enabled", true) {
		t.Error("Bool() should fall back to the default for unparseable values")
	}
}
