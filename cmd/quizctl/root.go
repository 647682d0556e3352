package main

import (
	"fmt"
	"os"

	"docquiz/internal/extract"
	"docquiz/internal/prompt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quizctl",
		Short:         "Inspect document extraction, prompts and usage quotas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Int("min-chars", extract.DefaultMinChars, "Minimum extracted characters accepted")
	root.PersistentFlags().Int("max-chars", prompt.DefaultMaxSourceChars, "Characters of document text embedded in the prompt")

	root.AddCommand(newExtractCmd())
	root.AddCommand(newPromptCmd())
	root.AddCommand(newPreviewCmd())
	root.AddCommand(newUsageCmd())
	return root
}

// localDocument is a file read from disk with its sniffed MIME type.
type localDocument struct {
	name string
	mime string
	data []byte
}

func readDocument(path string) (*localDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &localDocument{
		name: path,
		mime: mimetype.Detect(data).String(),
		data: data,
	}, nil
}

func extractText(cmd *cobra.Command, path string) (*localDocument, string, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, "", err
	}
	minChars, _ := cmd.Flags().GetInt("min-chars")
	text, err := extract.NewDefaultRegistry(nil, minChars).Extract(doc.data, doc.mime, doc.name)
	if err != nil {
		return doc, "", err
	}
	return doc, text, nil
}
