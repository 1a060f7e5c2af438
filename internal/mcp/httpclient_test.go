package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/storage"
)

// newTestAPI creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and headers.
func newTestAPI(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestHTTPClientClients verifies the client list is fetched with the API key
// header and decoded.
func TestHTTPClientClients(t *testing.T) {
	ts := newTestAPI(t, map[string]http.HandlerFunc{
		"/api/v1/clients": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("X-API-Key = %q, want k", got)
			}
			writeTestJSON(t, w, []models.Client{{ID: "c1", Name: "Sam"}, {ID: "c2", Name: "Ana"}})
		},
	})
	defer ts.Close()

	clients, err := NewHTTPClient(ts.URL+"/", "k").Clients(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 2 || clients[1].Name != "Ana" {
		t.Errorf("clients = %+v", clients)
	}
}

// TestHTTPClientClient verifies a single client is decoded, including
// movement maxes.
func TestHTTPClientClient(t *testing.T) {
	ts := newTestAPI(t, map[string]http.HandlerFunc{
		"/api/v1/clients/c1": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "" {
				t.Errorf("unexpected X-API-Key %q", got)
			}
			writeTestJSON(t, w, models.Client{
				ID:            "c1",
				MovementMaxes: loadcalc.Maxes{"Squats": {OneRepMax: 250}},
			})
		},
	})
	defer ts.Close()

	c, err := NewHTTPClient(ts.URL, "").Client(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if best, ok := c.MovementMaxes.Best("Squats"); !ok || best != 250 {
		t.Errorf("squat max = %v, %v", best, ok)
	}
}

// TestHTTPClientNotFound verifies a 404 maps to storage.ErrNotFound.
func TestHTTPClientNotFound(t *testing.T) {
	ts := newTestAPI(t, map[string]http.HandlerFunc{})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "").CurrentProgram(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestHTTPClientServerError verifies non-200 responses surface as errors.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestAPI(t, map[string]http.HandlerFunc{
		"/api/v1/clients": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "").Clients(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, storage.ErrNotFound) {
		t.Error("500 must not map to ErrNotFound")
	}
}

// TestHTTPClientDecodeError verifies malformed JSON is reported.
func TestHTTPClientDecodeError(t *testing.T) {
	ts := newTestAPI(t, map[string]http.HandlerFunc{
		"/api/v1/programs/current": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL, "").CurrentProgram(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
