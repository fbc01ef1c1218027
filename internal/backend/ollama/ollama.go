package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goosewin/visionquest/internal/backend"
	"github.com/ollama/ollama/api"
)

const DefaultHost = "http://localhost:11434"

type Backend struct {
	client *api.Client
	host   string
}

var _ backend.Backend = (*Backend)(nil)

func init() {
	if err := backend.Register("ollama", func(cfg backend.Config) (backend.Backend, error) {
		b, err := New(cfg.Host, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		return b, nil
	}); err != nil {
		panic(err)
	}
}

// New returns a backend talking to the ollama server at host.
func New(host string, httpClient *http.Client) (*Backend, error) {
	base, err := parseHost(host)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Backend{client: api.NewClient(base, httpClient), host: base.String()}, nil
}

func (b *Backend) Name() string {
	return "ollama"
}

func (b *Backend) Host() string {
	return b.host
}

func (b *Backend) CheckAvailable(ctx context.Context) error {
	if err := b.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", b.host, err)
	}
	return nil
}

func (b *Backend) Chat(ctx context.Context, req backend.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("model is required")
	}
	if len(req.Messages) == 0 {
		return "", errors.New("at least one message is required")
	}

	messages := make([]api.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		images, err := decodeImages(msg.Images)
		if err != nil {
			return "", err
		}
		messages = append(messages, api.Message{Role: msg.Role, Content: msg.Content, Images: images})
	}

	stream := req.Stream != nil
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  options(req.Options),
	}

	var reply strings.Builder
	err := b.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		if req.Stream != nil && resp.Message.Content != "" {
			return req.Stream(resp.Message.Content)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return reply.String(), nil
}

func (b *Backend) Generate(ctx context.Context, req backend.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("model is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is required")
	}

	stream := req.Stream != nil
	genReq := &api.GenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  &stream,
		Options: options(req.Options),
	}

	var reply strings.Builder
	err := b.client.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		reply.WriteString(resp.Response)
		if req.Stream != nil && resp.Response != "" {
			return req.Stream(resp.Response)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return reply.String(), nil
}

func (b *Backend) ListModels(ctx context.Context) ([]backend.ModelInfo, error) {
	resp, err := b.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list: %w", err)
	}
	models := make([]backend.ModelInfo, 0, len(resp.Models))
	for _, model := range resp.Models {
		models = append(models, backend.ModelInfo{
			Name:       model.Name,
			Size:       model.Size,
			ModifiedAt: model.ModifiedAt,
			Family:     model.Details.Family,
			Parameters: model.Details.ParameterSize,
		})
	}
	return models, nil
}

func (b *Backend) CreateModel(ctx context.Context, req backend.CreateRequest, progress func(status string)) error {
	if strings.TrimSpace(req.Model) == "" {
		return errors.New("model name is required")
	}
	if strings.TrimSpace(req.From) == "" {
		return errors.New("base model is required")
	}

	stream := progress != nil
	createReq := &api.CreateRequest{
		Model:  req.Model,
		From:   req.From,
		System: req.System,
		Stream: &stream,
	}
	err := b.client.Create(ctx, createReq, func(resp api.ProgressResponse) error {
		if progress != nil && resp.Status != "" {
			progress(resp.Status)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ollama create: %w", err)
	}
	return nil
}

func options(opts backend.Options) map[string]any {
	out := map[string]any{}
	if opts.Temperature != nil {
		out["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		out["num_predict"] = opts.MaxTokens
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func decodeImages(encoded []string) ([]api.ImageData, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	images := make([]api.ImageData, 0, len(encoded))
	for i, text := range encoded {
		data, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("image %d is not valid base64: %w", i, err)
		}
		images = append(images, api.ImageData(data))
	}
	return images, nil
}

func parseHost(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q", host)
	}
	return base, nil
}
