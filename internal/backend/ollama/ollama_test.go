package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goosewin/visionquest/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

type wireChatRequest struct {
	Model    string         `json:"model"`
	Messages []wireMessage  `json:"messages"`
	Stream   *bool          `json:"stream"`
	Options  map[string]any `json:"options"`
}

func newFakeServer(t *testing.T, captured *wireChatRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if captured.Model == "missing" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `{"error":"model \"missing\" not found"}`)
			return
		}
		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":"I see a red "},"done":false}`)
		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":"apple."},"done":true}`)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"model":"m","response":"Why did the ","done":false}`)
		fmt.Fprintln(w, `{"model":"m","response":"model cross the road?","done":true}`)
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"models":[{"name":"gemma3:1b","model":"gemma3:1b","size":815319791,"details":{"family":"gemma3","parameter_size":"999.89M"}}]}`)
	})
	mux.HandleFunc("/api/create", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["from"] != "gemma3:1b" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, `{"error":"unexpected base"}`)
			return
		}
		fmt.Fprintln(w, `{"status":"using existing layer"}`)
		fmt.Fprintln(w, `{"status":"success"}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestChatSendsImagesAndJoinsReply(t *testing.T) {
	var captured wireChatRequest
	srv := newFakeServer(t, &captured)

	b, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	encoded := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	reply, err := b.Chat(context.Background(), backend.ChatRequest{
		Model:    "llama3.2-vision:latest",
		Messages: []backend.Message{{Role: backend.RoleUser, Content: "describe", Images: []string{encoded}}},
		Options:  backend.Options{Temperature: backend.Float(0.5), MaxTokens: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, "I see a red apple.", reply)

	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, []string{encoded}, captured.Messages[0].Images)
	require.NotNil(t, captured.Stream)
	assert.False(t, *captured.Stream)
	assert.InDelta(t, 0.5, captured.Options["temperature"], 0.0001)
	assert.EqualValues(t, 100, captured.Options["num_predict"])
}

func TestChatStreamsChunks(t *testing.T) {
	var captured wireChatRequest
	srv := newFakeServer(t, &captured)
	b, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	var chunks []string
	_, err = b.Chat(context.Background(), backend.ChatRequest{
		Model:    "gemma3:1b",
		Messages: []backend.Message{{Role: backend.RoleUser, Content: "hi"}},
		Stream: func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"I see a red ", "apple."}, chunks)
	assert.True(t, *captured.Stream)
	assert.Nil(t, captured.Options)
}

func TestChatServerError(t *testing.T) {
	var captured wireChatRequest
	srv := newFakeServer(t, &captured)
	b, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = b.Chat(context.Background(), backend.ChatRequest{
		Model:    "missing",
		Messages: []backend.Message{{Role: backend.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestChatRejectsBadImageText(t *testing.T) {
	b, err := New("localhost:1", nil)
	require.NoError(t, err)

	_, err = b.Chat(context.Background(), backend.ChatRequest{
		Model:    "m",
		Messages: []backend.Message{{Role: backend.RoleUser, Content: "x", Images: []string{"%%%"}}},
	})
	assert.ErrorContains(t, err, "not valid base64")
}

func TestGenerateListCreateAndHeartbeat(t *testing.T) {
	var captured wireChatRequest
	srv := newFakeServer(t, &captured)
	b, err := New(srv.URL, srv.Client())
	require.NoError(t, err)
	ctx := context.Background()

	text, err := b.Generate(ctx, backend.GenerateRequest{Model: "gemma3:1b", Prompt: "joke"})
	require.NoError(t, err)
	assert.Equal(t, "Why did the model cross the road?", text)

	models, err := b.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "gemma3:1b", models[0].Name)
	assert.Equal(t, "gemma3", models[0].Family)
	assert.Equal(t, "999.89M", models[0].Parameters)

	var statuses []string
	err = b.CreateModel(ctx, backend.CreateRequest{Model: "jarvis", From: "gemma3:1b", System: "You are Jarvis."}, func(status string) {
		statuses = append(statuses, status)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"using existing layer", "success"}, statuses)

	err = b.CreateModel(ctx, backend.CreateRequest{Model: "jarvis", From: "other"}, nil)
	assert.Error(t, err)

	assert.NoError(t, b.CheckAvailable(ctx))
}

func TestValidation(t *testing.T) {
	b, err := New("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, b.Host())

	ctx := context.Background()
	_, err = b.Chat(ctx, backend.ChatRequest{Messages: []backend.Message{{Content: "x"}}})
	assert.Error(t, err)
	_, err = b.Chat(ctx, backend.ChatRequest{Model: "m"})
	assert.Error(t, err)
	_, err = b.Generate(ctx, backend.GenerateRequest{Model: "m"})
	assert.Error(t, err)
	assert.Error(t, b.CreateModel(ctx, backend.CreateRequest{Model: "x"}, nil))
}

func TestParseHost(t *testing.T) {
	u, err := parseHost("127.0.0.1:11434")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:11434", u.String())

	_, err = parseHost("http://")
	assert.Error(t, err)
}

func TestRegisteredInRegistry(t *testing.T) {
	b, err := backend.Open("ollama", backend.Config{Host: "http://example.test:11434"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", b.Name())
}
