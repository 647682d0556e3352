package main

import (
	"context"
	"encoding/json"

	"docquiz/internal/adapter/completion"
	"docquiz/internal/config"
	"docquiz/internal/parser"
	"docquiz/internal/prompt"

	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Generate questions for a local document without saving them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			_, text, err := extractText(cmd, args[0])
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt("count")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if cfg.LLM.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.LLM.Timeout)
				defer cancel()
			}

			llm, err := completion.New(ctx, cfg.LLM)
			if err != nil {
				return err
			}
			composer := prompt.NewComposer(prompt.Options{
				MaxSourceChars:      cfg.Generation.MaxSourceChars,
				Temperature:         cfg.LLM.Temperature,
				MaxTokens:           cfg.LLM.MaxTokens,
				IncludeExplanations: cfg.LLM.IncludeExplanations,
			})
			raw, err := llm.Complete(ctx, composer.Compose(text, count))
			if err != nil {
				return err
			}
			drafts, err := parser.NewResponseParser(nil).Parse(raw)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(drafts)
		},
	}
	cmd.Flags().IntP("count", "n", 5, "Number of questions to request")
	return cmd
}
