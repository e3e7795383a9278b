package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ayusman/airpointer/internal/gesture"
	"github.com/ayusman/airpointer/internal/store"
)

type fakeToggle struct {
	mu      sync.Mutex
	enabled bool
}

func (f *fakeToggle) IsEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeToggle) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Toggle: &fakeToggle{enabled: true}, Hub: NewHub(nil)})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := get(t, s, "/api/health")

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if response["enabled"] != true {
			t.Errorf("expected enabled true, got %v", response["enabled"])
		}
		if response["clients"] != float64(0) {
			t.Errorf("expected 0 clients, got %v", response["clients"])
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/nonexistent", "/api/events", "/api/sessions", "/api/enabled", "/api/ws"} {
		if rec := get(t, s, path); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_Events(t *testing.T) {
	st := newTestStore(t)
	session, err := st.Sessions().Create("pointer")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := st.Events().Record(session.ID, gesture.Event{Kind: gesture.Click}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if _, err := st.Events().Record(session.ID, gesture.Event{Kind: gesture.Scroll, Amount: -3}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	s := New(Config{Store: st})

	t.Run("newest first with limit", func(t *testing.T) {
		rec := get(t, s, "/api/events?limit=2")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body struct {
			Events []struct {
				Kind      string  `json:"kind"`
				Amount    float64 `json:"amount"`
				SessionID string  `json:"session_id"`
			} `json:"events"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(body.Events) != 2 {
			t.Fatalf("len(events) = %d, want 2", len(body.Events))
		}
		if body.Events[0].Kind != "SCROLL" || body.Events[0].Amount != -3 {
			t.Errorf("first event = %+v, want the scroll", body.Events[0])
		}
		if body.Events[0].SessionID != session.ID {
			t.Errorf("session_id = %q, want %q", body.Events[0].SessionID, session.ID)
		}
	})

	t.Run("default limit", func(t *testing.T) {
		rec := get(t, s, "/api/events")
		if !strings.Contains(rec.Body.String(), `"CLICK"`) {
			t.Errorf("body %s should list clicks", rec.Body.String())
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		for _, q := range []string{"limit=0", "limit=-1", "limit=abc"} {
			if rec := get(t, s, "/api/events?"+q); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want %d", q, rec.Code, http.StatusBadRequest)
			}
		}
	})
}

func TestServer_Sessions(t *testing.T) {
	st := newTestStore(t)
	session, err := st.Sessions().Create("scroll")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	st.Events().Record(session.ID, gesture.Event{Kind: gesture.Scroll, Amount: 2})
	st.Events().Record(session.ID, gesture.Event{Kind: gesture.Scroll, Amount: -2})

	s := New(Config{Store: st})

	t.Run("list", func(t *testing.T) {
		rec := get(t, s, "/api/sessions")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body struct {
			Sessions []store.Session `json:"sessions"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(body.Sessions) != 1 || body.Sessions[0].Profile != "scroll" {
			t.Errorf("sessions = %+v", body.Sessions)
		}
	})

	t.Run("detail with counts", func(t *testing.T) {
		rec := get(t, s, "/api/sessions/"+session.ID)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body struct {
			Session store.Session  `json:"session"`
			Counts  map[string]int `json:"counts"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Session.ID != session.ID {
			t.Errorf("session id = %q, want %q", body.Session.ID, session.ID)
		}
		if body.Counts["SCROLL"] != 2 {
			t.Errorf("counts = %v, want SCROLL:2", body.Counts)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if rec := get(t, s, "/api/sessions/missing"); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestServer_Enabled(t *testing.T) {
	toggle := &fakeToggle{enabled: true}
	s := New(Config{Toggle: toggle})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/enabled", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(`{"enabled": false}`); rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d, want %d", rec.Code, http.StatusOK)
	}
	if toggle.IsEnabled() {
		t.Error("POST should have disabled detection")
	}

	rec := get(t, s, "/api/enabled")
	if strings.TrimSpace(rec.Body.String()) != `{"enabled":false}` {
		t.Errorf("GET body = %s", rec.Body.String())
	}

	for _, body := range []string{`{}`, `not json`, `{"enabled":"yes"}`} {
		if rec := post(body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/enabled", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
