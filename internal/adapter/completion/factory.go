package completion

import (
	"context"
	"fmt"
	"net/http"

	"docquiz/internal/config"
	"docquiz/internal/domain"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// New builds the completion service selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (domain.CompletionService, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return NewLangchainCompletion(llm, "openai/"+cfg.Model), nil

	case "ollama":
		httpClient := &http.Client{Timeout: cfg.Timeout}
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return NewLangchainCompletion(llm, "ollama/"+cfg.Model), nil

	case "anthropic":
		return NewAnthropicCompletion(cfg.APIKey, cfg.Model)

	case "gemini":
		return NewGeminiCompletion(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)

	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
