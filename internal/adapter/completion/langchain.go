// Package completion adapts language model SDKs to domain.CompletionService.
package completion

import (
	"context"
	"errors"
	"strings"

	"docquiz/internal/domain"

	"github.com/tmc/langchaingo/llms"
)

// LangchainCompletion drives any langchaingo model (OpenAI, Ollama, ...).
type LangchainCompletion struct {
	model llms.Model
	name  string
}

func NewLangchainCompletion(model llms.Model, name string) *LangchainCompletion {
	return &LangchainCompletion{model: model, name: name}
}

func (c *LangchainCompletion) Name() string { return c.name }

func (c *LangchainCompletion) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if p.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, p.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, p.User))

	opts := []llms.CallOption{llms.WithTemperature(p.Temperature)}
	if p.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.MaxTokens))
	}
	if p.JSONOutput {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", wrapError(ctx, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", domain.NewLLMServiceError(errors.New("model returned no choices"))
	}
	content := resp.Choices[0].Content
	if strings.TrimSpace(content) == "" {
		return "", domain.NewLLMServiceError(errors.New("model returned empty content"))
	}
	return content, nil
}

// wrapError keeps context errors recognisable for the pipeline's timeout handling.
func wrapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	return domain.NewLLMServiceError(err)
}
