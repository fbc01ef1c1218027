package chain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goosewin/visionquest/internal/backend"
)

const DefaultSystemPrompt = "You are a helpful assistant that gives one line definition of the user's query."

var ErrMissingVariable = errors.New("missing template variable")

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// MessageTemplate is a chat turn whose text may contain {name} placeholders.
type MessageTemplate struct {
	Role string
	Text string
}

func System(text string) MessageTemplate {
	return MessageTemplate{Role: backend.RoleSystem, Text: text}
}

func User(text string) MessageTemplate {
	return MessageTemplate{Role: backend.RoleUser, Text: text}
}

func Assistant(text string) MessageTemplate {
	return MessageTemplate{Role: backend.RoleAssistant, Text: text}
}

// Template is an ordered list of message templates.
type Template struct {
	messages []MessageTemplate
}

func NewTemplate(messages ...MessageTemplate) *Template {
	return &Template{messages: messages}
}

// Variables lists the placeholder names used by the template, in first-seen order.
func (t *Template) Variables() []string {
	seen := map[string]bool{}
	var names []string
	for _, msg := range t.messages {
		for _, match := range placeholderPattern.FindAllStringSubmatch(msg.Text, -1) {
			if !seen[match[1]] {
				seen[match[1]] = true
				names = append(names, match[1])
			}
		}
	}
	return names
}

// Format substitutes vars into every message.
func (t *Template) Format(vars map[string]string) ([]backend.Message, error) {
	for _, name := range t.Variables() {
		if _, ok := vars[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
	}

	out := make([]backend.Message, 0, len(t.messages))
	for _, msg := range t.messages {
		text := placeholderPattern.ReplaceAllStringFunc(msg.Text, func(token string) string {
			return vars[token[1:len(token)-1]]
		})
		out = append(out, backend.Message{Role: msg.Role, Content: text})
	}
	return out, nil
}

// Parser turns raw model output into the chain's result.
type Parser func(raw string) (string, error)

// StringParser trims surrounding whitespace.
func StringParser(raw string) (string, error) {
	return strings.TrimSpace(raw), nil
}

// Chain pipes a formatted template into a model and then a parser.
type Chain struct {
	Template *Template
	Backend  backend.Backend
	Model    string
	Options  backend.Options
	Parser   Parser
}

func (c *Chain) Invoke(ctx context.Context, vars map[string]string) (string, error) {
	if c.Template == nil {
		return "", errors.New("chain template is required")
	}
	if c.Backend == nil {
		return "", errors.New("chain backend is required")
	}

	messages, err := c.Template.Format(vars)
	if err != nil {
		return "", err
	}

	raw, err := c.Backend.Chat(ctx, backend.ChatRequest{
		Model:    c.Model,
		Messages: messages,
		Options:  c.Options,
	})
	if err != nil {
		return "", err
	}

	parser := c.Parser
	if parser == nil {
		parser = StringParser
	}
	return parser(raw)
}

// DefinitionTemplate pairs system with a user turn holding {input}. An empty
// system falls back to DefaultSystemPrompt, a one line definition request.
func DefinitionTemplate(system string) *Template {
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	return NewTemplate(System(system), User("{input}"))
}
