package completion

import (
	"context"
	"errors"
	"strings"

	"docquiz/internal/domain"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicCompletion calls the Anthropic Messages API.
type AnthropicCompletion struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicCompletion(apiKey, model string, opts ...option.RequestOption) (*AnthropicCompletion, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if model == "" {
		return nil, errors.New("anthropic model is required")
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicCompletion{client: &client, model: model}, nil
}

func (c *AnthropicCompletion) Name() string { return "anthropic/" + c.model }

func (c *AnthropicCompletion) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(p.User)},
		}},
		Temperature: anthropic.Float(p.Temperature),
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapError(ctx, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", domain.NewLLMServiceError(errors.New("no text content in Anthropic response"))
	}
	return sb.String(), nil
}
