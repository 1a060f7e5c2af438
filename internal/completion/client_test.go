package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// TestCompleteRequestShape verifies the request body, headers and path sent
// to the endpoint.
func TestCompleteRequestShape(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"workouts\":[]}"}}]}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/v1/", APIKey: "sk-test"})
	content, err := c.Complete(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != `{"workouts":[]}` {
		t.Errorf("content = %q", content)
	}

	if got.Model != DefaultModel || got.Temperature != DefaultTemperature || got.MaxTokens != DefaultMaxTokens {
		t.Errorf("request params = %+v", got)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v", got.ResponseFormat)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "usr" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

// TestCompleteNotConfigured verifies a missing key short-circuits without a request.
func TestCompleteNotConfigured(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	if _, err := c.Complete(context.Background(), "s", "u"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

// TestCompleteErrors verifies non-2xx responses and empty choices are errors,
// and 4xx responses are not retried.
func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, 1},
		{"server error retried", http.StatusBadGateway, `upstream`, 2},
		{"no choices", http.StatusOK, `{"choices":[]}`, 2},
		{"api error body", http.StatusOK, `{"error":{"message":"quota"}}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(Options{BaseURL: srv.URL, APIKey: "k", Attempts: 2})
			if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
				t.Fatal("expected error")
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

// TestCompleteHonoursContext verifies a cancelled context stops the request.
func TestCompleteHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(Options{BaseURL: srv.URL, APIKey: "k", Attempts: 3})
	if _, err := c.Complete(ctx, "s", "u"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
