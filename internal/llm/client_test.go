package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Fatalf("unexpected model: %v", req["model"])
		}
		_, _ = w.Write([]byte(completionBody(`["Acme Corp"]`)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key-1", BaseURL: server.URL, Model: "test-model"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `["Acme Corp"]` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestCompleteJSONRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(completionBody(`{"ok":true}`)))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithSleeper(func(d time.Duration) {}),
	)
	content, err := client.CompleteJSON(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", content)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}

func TestCompleteJSONDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithSleeper(func(d time.Duration) {}),
	)
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on 401")
	}
	if calls.Load() != 1 {
		t.Fatalf("401 must not be retried, got %d calls", calls.Load())
	}
}

func TestDecodeJSONHandlesCodeFences(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain", `["A","B"]`},
		{"fenced", "```json\n[\"A\",\"B\"]\n```"},
		{"chatter", "Here you go: [\"A\",\"B\"] hope that helps"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var names []string
			if err := DecodeJSON(tc.content, &names); err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if len(names) != 2 || names[0] != "A" || names[1] != "B" {
				t.Fatalf("unexpected decode result: %v", names)
			}
		})
	}
}

func TestDecodeJSONRejectsEmpty(t *testing.T) {
	var target any
	if err := DecodeJSON("   ", &target); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
