package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docquiz/internal/domain"

	"google.golang.org/genai"
)

// GeminiCompletion calls the Gemini API through the genai SDK.
type GeminiCompletion struct {
	client *genai.Client
	model  string
}

// NewGeminiCompletion builds a client for the Gemini API backend. baseURL is
// optional and mainly useful for proxies.
func NewGeminiCompletion(ctx context.Context, apiKey, model, baseURL string) (*GeminiCompletion, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		return nil, errors.New("gemini model is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiCompletion{client: client, model: model}, nil
}

func (c *GeminiCompletion) Name() string { return "gemini/" + c.model }

func (c *GeminiCompletion) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	temp := float32(p.Temperature)
	config := &genai.GenerateContentConfig{Temperature: &temp}
	if p.MaxTokens > 0 {
		config.MaxOutputTokens = int32(p.MaxTokens)
	}
	if p.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.System}}}
	}
	if p.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: p.User}},
	}}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", wrapError(ctx, err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", domain.NewLLMServiceError(errors.New("no text content in Gemini response"))
	}
	return text, nil
}
