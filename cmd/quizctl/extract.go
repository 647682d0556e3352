package main

import (
	"fmt"
	"unicode/utf8"

	"docquiz/internal/prompt"

	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, text, err := extractText(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				fmt.Fprintf(out, "File:   %s\n", doc.name)
				fmt.Fprintf(out, "MIME:   %s\n", doc.mime)
				fmt.Fprintf(out, "Chars:  %d\n\n", utf8.RuneCountInString(text))
			}
			fmt.Fprintln(out, text)
			return nil
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "Print only the text")
	return cmd
}

func newPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt <file>",
		Short: "Print the completion prompt built for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, text, err := extractText(cmd, args[0])
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt("count")
			maxChars, _ := cmd.Flags().GetInt("max-chars")
			explain, _ := cmd.Flags().GetBool("explanations")

			composer := prompt.NewComposer(prompt.Options{MaxSourceChars: maxChars, IncludeExplanations: explain})
			p := composer.Compose(text, count)

			out := cmd.OutOrStdout()
			if composer.Truncated(text) {
				fmt.Fprintf(out, "# document truncated to %d characters\n", maxChars)
			}
			fmt.Fprintf(out, "## system\n%s\n\n## user\n%s\n", p.System, p.User)
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 5, "Number of questions to request")
	cmd.Flags().Bool("explanations", false, "Ask for per-choice explanations")
	return cmd
}
