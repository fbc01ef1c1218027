package backend

import (
	"context"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn. Images carry base64-encoded image bytes.
type Message struct {
	Role    string
	Content string
	Images  []string
}

// Options tunes generation. Zero values leave the backend defaults in place.
type Options struct {
	Temperature *float64
	MaxTokens   int
}

// StreamFunc receives response text as it arrives.
type StreamFunc func(chunk string) error

// ChatRequest is a single chat exchange.
type ChatRequest struct {
	Model    string
	Messages []Message
	Options  Options
	Stream   StreamFunc
}

// GenerateRequest is a single-prompt completion.
type GenerateRequest struct {
	Model   string
	Prompt  string
	System  string
	Options Options
	Stream  StreamFunc
}

// CreateRequest derives a new model from an existing one.
type CreateRequest struct {
	Model  string
	From   string
	System string
}

// ModelInfo describes an installed model.
type ModelInfo struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
	Family     string
	Parameters string
}

// Backend defines the interface for LLM servers.
type Backend interface {
	Name() string
	CheckAvailable(ctx context.Context) error
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
	CreateModel(ctx context.Context, req CreateRequest, progress func(status string)) error
}

// Float returns a pointer to v, for Options.Temperature.
func Float(v float64) *float64 {
	return &v
}
