package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewServiceWithoutWebhookIsNoop(t *testing.T) {
	service := NewService(Config{})
	if _, ok := service.(*noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifySignalMatched(context.Background(), MatchedEvent{}); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
	if err := service.Test(context.Background()); err != nil {
		t.Fatalf("noop test: %v", err)
	}
}

func capturePayload(t *testing.T) (Service, *slackMessage) {
	t.Helper()
	captured := &slackMessage{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Fatalf("decode webhook payload: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)
	return NewService(Config{WebhookURL: server.URL}), captured
}

func blocksText(message *slackMessage) string {
	var parts []string
	for _, block := range message.Blocks {
		if block.Text != nil {
			parts = append(parts, block.Text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestNotifySignalMatchedFormatsBlocks(t *testing.T) {
	service, captured := capturePayload(t)

	err := service.NotifySignalMatched(context.Background(), MatchedEvent{
		SignalID:     "1001",
		SignalName:   "Expansion news",
		SignalText:   strings.Repeat("Acme Corp is expanding fast. ", 20),
		CompanyName:  "Acme Corp",
		Stage:        "Customer",
		Confidence:   1.0,
		TotalMatches: 2,
		OwnerName:    "Jordan Reyes",
		WatcherNames: []string{"Sam Park"},
	})
	if err != nil {
		t.Fatalf("NotifySignalMatched: %v", err)
	}

	text := blocksText(captured)
	if !strings.Contains(text, "\U0001F49A") {
		t.Fatal("customer stage emoji missing")
	}
	if !strings.Contains(text, "Exact match") {
		t.Fatalf("confidence label missing: %q", text)
	}
	if !strings.Contains(text, "Jordan Reyes") || !strings.Contains(text, "Sam Park") {
		t.Fatalf("owner section missing: %q", text)
	}
	if !strings.Contains(text, "Total matches:* 2") {
		t.Fatalf("total matches missing: %q", text)
	}
	for _, block := range captured.Blocks {
		if block.Type == "section" && block.Text != nil && strings.HasPrefix(block.Text.Text, "> ") {
			// Preview budget plus the quote prefix and ellipsis.
			if len([]rune(block.Text.Text)) > 155 {
				t.Fatalf("preview not truncated: %d runes", len([]rune(block.Text.Text)))
			}
		}
	}
}

func TestNotifySignalMatchedConfidenceTiers(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{1.0, "Exact match"},
		{0.9, "High confidence"},
		{0.8, "80% confidence"},
	}
	for _, tc := range tests {
		if got := confidenceLabel(tc.confidence); got != tc.want {
			t.Fatalf("confidenceLabel(%v) = %q, want %q", tc.confidence, got, tc.want)
		}
	}
}

func TestNotifySignalUnmatchedListsNames(t *testing.T) {
	service, captured := capturePayload(t)

	err := service.NotifySignalUnmatched(context.Background(), UnmatchedEvent{
		SignalID:       "1001",
		ExtractedNames: []string{"Acme Corp", "Globex"},
	})
	if err != nil {
		t.Fatalf("NotifySignalUnmatched: %v", err)
	}
	text := blocksText(captured)
	if !strings.Contains(text, "Acme Corp, Globex") {
		t.Fatalf("extracted names missing: %q", text)
	}
}

func TestPostFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid_payload"))
	}))
	defer server.Close()

	service := NewService(Config{WebhookURL: server.URL})
	if err := service.Test(context.Background()); err == nil {
		t.Fatal("expected error on webhook failure")
	}
}
