package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDetectWebhookType(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want WebhookType
	}{
		{name: "discord", url: "https://discord.com/api/webhooks/123", want: WebhookDiscord},
		{name: "discordapp", url: "https://discordapp.com/api/webhooks/123", want: WebhookDiscord},
		{name: "slack", url: "https://hooks.slack.com/services/abc", want: WebhookSlack},
		{name: "generic", url: "https://example.com/webhook", want: WebhookGeneric},
	}

	for _, tc := range cases {
		if got := DetectWebhookType(tc.url); got != tc.want {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestBuildGameOverPayloadDiscord(t *testing.T) {
	opts := GameOverOptions{
		SessionID:  "3f2a9c1e-0000-4000-8000-000000000000",
		WebhookURL: "https://discord.com/api/webhooks/123",
		Score:      40,
		Challenges: 5,
		Duration:   3661 * time.Second,
	}
	payload, err := buildGameOverPayload(opts, time.Date(2026, 1, 26, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	embed := decoded["embeds"].([]interface{})[0].(map[string]interface{})
	if embed["description"].(string) != "Session **3f2a9c1e** finished all 5 challenges." {
		t.Fatalf("unexpected description: %v", embed["description"])
	}
	fields := embed["fields"].([]interface{})
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if value := fields[0].(map[string]interface{})["value"].(string); value != "40" {
		t.Fatalf("unexpected score: %v", value)
	}
	if value := fields[1].(map[string]interface{})["value"].(string); value != "1h 1m 1s" {
		t.Fatalf("unexpected duration: %v", value)
	}
}

func TestBuildGameOverPayloadSlack(t *testing.T) {
	opts := GameOverOptions{
		SessionID:  "beta",
		WebhookURL: "https://hooks.slack.com/services/abc",
		Score:      0,
		Challenges: 5,
		Duration:   70 * time.Second,
	}
	payload, err := buildGameOverPayload(opts, time.Date(2026, 1, 26, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	blocks := decoded["attachments"].([]interface{})[0].(map[string]interface{})["blocks"].([]interface{})
	fields := blocks[2].(map[string]interface{})["fields"].([]interface{})
	if text := fields[0].(map[string]interface{})["text"].(string); text != "*Score:*\n0" {
		t.Fatalf("unexpected score field: %q", text)
	}
	if text := fields[1].(map[string]interface{})["text"].(string); text != "*Duration:*\n1m 10s" {
		t.Fatalf("unexpected duration field: %q", text)
	}
}

func TestNotifyGameOverPostsGenericPayload(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NotifyGameOver(context.Background(), GameOverOptions{
		SessionID:  "gamma",
		WebhookURL: srv.URL,
		Score:      30,
		Challenges: 5,
		Duration:   65 * time.Second,
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if received["event"] != "game_over" {
		t.Fatalf("unexpected event: %v", received["event"])
	}
	if received["message"] != "Vision Quest session 'gamma' finished with 30 points (1m 5s)" {
		t.Fatalf("unexpected message: %v", received["message"])
	}
}

func TestNotifyGameOverValidationAndStatus(t *testing.T) {
	if err := NotifyGameOver(context.Background(), GameOverOptions{WebhookURL: "http://x"}); err == nil {
		t.Fatalf("expected error for missing session")
	}
	if err := NotifyGameOver(context.Background(), GameOverOptions{SessionID: "a"}); err == nil {
		t.Fatalf("expected error for missing webhook")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NotifyGameOver(context.Background(), GameOverOptions{SessionID: "a", WebhookURL: srv.URL})
	if err == nil || err.Error() != "webhook returned HTTP 502" {
		t.Fatalf("expected HTTP 502 error, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                      "unknown",
		500 * time.Millisecond: "unknown",
		42 * time.Second:       "42s",
		125 * time.Second:      "2m 5s",
	}
	for input, want := range cases {
		if got := formatDuration(input); got != want {
			t.Fatalf("formatDuration(%v) = %q, want %q", input, got, want)
		}
	}
}
