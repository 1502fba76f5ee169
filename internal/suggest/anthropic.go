package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultModel is the model used for suggestion calls. Suggestions are
// short keyword lists, so the smallest fast model is enough.
const defaultModel = "claude-3-5-haiku-latest"

// AnthropicGenerator produces suggestions through the Anthropic
// Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

// AnthropicOption configures an AnthropicGenerator.
type AnthropicOption func(*AnthropicGenerator)

// WithModel overrides the model used for suggestion calls.
func WithModel(model string) AnthropicOption {
	return func(g *AnthropicGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// NewAnthropicGenerator creates a generator using the given API key.
func NewAnthropicGenerator(apiKey string, opts ...AnthropicOption) *AnthropicGenerator {
	g := &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate asks the model for suggestions and parses one suggestion per
// response line.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) ([]string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return parseSuggestionLines(text.String()), nil
}

// parseSuggestionLines extracts suggestions from model output, one per
// line, tolerating list markers and code fences.
func parseSuggestionLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		out = append(out, line)
	}
	return out
}
