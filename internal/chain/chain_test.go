package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/goosewin/visionquest/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	reply string
	err   error
	req   backend.ChatRequest
}

func (r *recordingBackend) Name() string { return "recording" }
func (r *recordingBackend) CheckAvailable(ctx context.Context) error { return nil }
func (r *recordingBackend) Chat(ctx context.Context, req backend.ChatRequest) (string, error) {
	r.req = req
	return r.reply, r.err
}
func (r *recordingBackend) Generate(ctx context.Context, req backend.GenerateRequest) (string, error) {
	return "", nil
}
func (r *recordingBackend) ListModels(ctx context.Context) ([]backend.ModelInfo, error) {
	return nil, nil
}
func (r *recordingBackend) CreateModel(ctx context.Context, req backend.CreateRequest, progress func(string)) error {
	return nil
}

func TestFormatSubstitutesVariables(t *testing.T) {
	tmpl := NewTemplate(System("Answer in {lang}."), User("{input} ({lang})"))
	assert.Equal(t, []string{"lang", "input"}, tmpl.Variables())

	messages, err := tmpl.Format(map[string]string{"input": "What is LangChain?", "lang": "English"})
	require.NoError(t, err)
	assert.Equal(t, []backend.Message{
		{Role: backend.RoleSystem, Content: "Answer in English."},
		{Role: backend.RoleUser, Content: "What is LangChain? (English)"},
	}, messages)
}

func TestFormatMissingVariable(t *testing.T) {
	_, err := DefinitionTemplate("").Format(map[string]string{})
	assert.ErrorIs(t, err, ErrMissingVariable)
	assert.ErrorContains(t, err, "input")
}

func TestDefinitionTemplateSystemPrompt(t *testing.T) {
	messages, err := DefinitionTemplate("  ").Format(map[string]string{"input": "What is LangChain?"})
	require.NoError(t, err)
	assert.Equal(t, []backend.Message{
		{Role: backend.RoleSystem, Content: DefaultSystemPrompt},
		{Role: backend.RoleUser, Content: "What is LangChain?"},
	}, messages)

	messages, err = DefinitionTemplate("Answer like a pirate.").Format(map[string]string{"input": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Answer like a pirate.", messages[0].Content)
	assert.Equal(t, []string{"input"}, DefinitionTemplate("").Variables())
}

func TestFormatLeavesNonPlaceholdersAlone(t *testing.T) {
	messages, err := NewTemplate(Assistant(`{"json": true} {x}`)).Format(map[string]string{"x": "y"})
	require.NoError(t, err)
	assert.Equal(t, `{"json": true} y`, messages[0].Content)
}

func TestInvokePipesThroughModelAndParser(t *testing.T) {
	rec := &recordingBackend{reply: "  LangChain is a framework for LLM apps.\n"}
	c := &Chain{
		Template: DefinitionTemplate(""),
		Backend:  rec,
		Model:    "gemma3:1b",
		Options:  backend.Options{Temperature: backend.Float(0.5), MaxTokens: 1000},
	}

	out, err := c.Invoke(context.Background(), map[string]string{"input": "What is LangChain?"})
	require.NoError(t, err)
	assert.Equal(t, "LangChain is a framework for LLM apps.", out)

	assert.Equal(t, "gemma3:1b", rec.req.Model)
	assert.Equal(t, 1000, rec.req.Options.MaxTokens)
	require.Len(t, rec.req.Messages, 2)
	assert.Equal(t, DefaultSystemPrompt, rec.req.Messages[0].Content)
	assert.Equal(t, "What is LangChain?", rec.req.Messages[1].Content)
}

func TestInvokeErrors(t *testing.T) {
	_, err := (&Chain{Backend: &recordingBackend{}}).Invoke(context.Background(), nil)
	assert.Error(t, err)

	_, err = (&Chain{Template: DefinitionTemplate("")}).Invoke(context.Background(), nil)
	assert.Error(t, err)

	rec := &recordingBackend{err: errors.New("boom")}
	_, err = (&Chain{Template: DefinitionTemplate(""), Backend: rec}).Invoke(context.Background(), map[string]string{"input": "x"})
	assert.EqualError(t, err, "boom")

	failing := func(raw string) (string, error) { return "", errors.New("parse failed") }
	rec = &recordingBackend{reply: "ok"}
	_, err = (&Chain{Template: DefinitionTemplate(""), Backend: rec, Parser: failing}).Invoke(context.Background(), map[string]string{"input": "x"})
	assert.EqualError(t, err, "parse failed")
}
