package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type WebhookType string

const (
	WebhookDiscord WebhookType = "discord"
	WebhookSlack   WebhookType = "slack"
	WebhookGeneric WebhookType = "generic"
)

type GameOverOptions struct {
	SessionID  string
	WebhookURL string
	Score      int
	Challenges int
	Duration   time.Duration
	Timeout    time.Duration
}

func DetectWebhookType(url string) WebhookType {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "discord.com/api/webhooks") || strings.Contains(lower, "discordapp.com/api/webhooks") {
		return WebhookDiscord
	}
	if strings.Contains(lower, "hooks.slack.com") {
		return WebhookSlack
	}
	return WebhookGeneric
}

func NotifyGameOver(ctx context.Context, opts GameOverOptions) error {
	if strings.TrimSpace(opts.SessionID) == "" {
		return errors.New("session id is required")
	}
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return errors.New("webhook URL is required")
	}
	payload, err := buildGameOverPayload(opts, time.Now())
	if err != nil {
		return err
	}
	return SendWebhook(ctx, opts.WebhookURL, payload, opts.Timeout)
}

func SendWebhook(ctx context.Context, url string, payload []byte, timeout time.Duration) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook URL is required")
	}
	if len(payload) == 0 {
		return errors.New("payload is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func buildGameOverPayload(opts GameOverOptions, now time.Time) ([]byte, error) {
	session := shortID(opts.SessionID)
	score := fmt.Sprint(opts.Score)
	challenges := fmt.Sprint(opts.Challenges)
	duration := formatDuration(opts.Duration)
	timestamp := now.Format(time.RFC3339)

	switch DetectWebhookType(opts.WebhookURL) {
	case WebhookDiscord:
		payload := map[string]interface{}{
			"embeds": []map[string]interface{}{
				{
					"title":       "\U0001f3c1 Vision Quest: Game Over",
					"description": fmt.Sprintf("Session **%s** finished all %s challenges.", session, challenges),
					"color":       5763719,
					"fields": []map[string]interface{}{
						{
							"name":   "Score",
							"value":  score,
							"inline": true,
						},
						{
							"name":   "Duration",
							"value":  duration,
							"inline": true,
						},
					},
					"footer": map[string]interface{}{
						"text": "visionquest",
					},
					"timestamp": timestamp,
				},
			},
		}
		return json.Marshal(payload)
	case WebhookSlack:
		payload := map[string]interface{}{
			"attachments": []map[string]interface{}{
				{
					"color": "#57F287",
					"blocks": []map[string]interface{}{
						{
							"type": "header",
							"text": map[string]interface{}{
								"type":  "plain_text",
								"text":  "\U0001f3c1 Vision Quest: Game Over",
								"emoji": true,
							},
						},
						{
							"type": "section",
							"text": map[string]interface{}{
								"type": "mrkdwn",
								"text": fmt.Sprintf("Session *%s* finished all %s challenges.", session, challenges),
							},
						},
						{
							"type": "section",
							"fields": []map[string]interface{}{
								{
									"type": "mrkdwn",
									"text": fmt.Sprintf("*Score:*\n%s", score),
								},
								{
									"type": "mrkdwn",
									"text": fmt.Sprintf("*Duration:*\n%s", duration),
								},
							},
						},
						{
							"type": "context",
							"elements": []map[string]interface{}{
								{
									"type": "mrkdwn",
									"text": fmt.Sprintf("visionquest • %s", timestamp),
								},
							},
						},
					},
				},
			},
		}
		return json.Marshal(payload)
	default:
		payload := map[string]interface{}{
			"event":      "game_over",
			"session":    opts.SessionID,
			"score":      opts.Score,
			"challenges": opts.Challenges,
			"duration":   duration,
			"timestamp":  timestamp,
			"message":    fmt.Sprintf("Vision Quest session '%s' finished with %s points (%s)", session, score, duration),
		}
		return json.Marshal(payload)
	}
}

func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "unknown"
	}
	total := int(duration.Seconds())
	if total <= 0 {
		return "unknown"
	}
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// shortID keeps the first block of a uuid for display.
func shortID(id string) string {
	id = strings.TrimSpace(id)
	if head, _, ok := strings.Cut(id, "-"); ok && head != "" {
		return head
	}
	return id
}
