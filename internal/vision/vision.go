package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goosewin/visionquest/internal/backend"
)

const DefaultModel = "llama3.2-vision:latest"

// Result is either the model's reply (Err == nil) or the failure that replaced it.
type Result struct {
	Text string
	Err  error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Display renders the result as shown to a player. Failures become "Error: <detail>".
func (r Result) Display() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}
	return r.Text
}

// Client asks a vision-capable model whether an image satisfies a challenge.
type Client struct {
	backend backend.Backend
	model   string
}

func NewClient(b backend.Backend, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{backend: b, model: model}
}

func (c *Client) Model() string {
	return c.model
}

// Query sends one user turn holding the challenge prompt and the encoded image.
// It never returns an error directly; failures come back in Result.Err.
func (c *Client) Query(ctx context.Context, encodedImage, challenge string) Result {
	if c.backend == nil {
		return Result{Err: errors.New("no vision backend configured")}
	}
	reply, err := c.backend.Chat(ctx, backend.ChatRequest{
		Model: c.model,
		Messages: []backend.Message{{
			Role:    backend.RoleUser,
			Content: Prompt(challenge),
			Images:  []string{encodedImage},
		}},
	})
	if err != nil {
		return Result{Err: err}
	}
	return Result{Text: reply}
}

// Prompt builds the instruction sent alongside the image.
func Prompt(challenge string) string {
	return fmt.Sprintf("Analyze this image specifically for the following challenge: %s. "+
		"First, describe what you see. Then, explicitly state whether the image "+
		"meets the challenge criteria or not, and why.", challenge)
}
