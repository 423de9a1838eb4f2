package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirby/internal/perception"
)

func newAskCmd(a *app) *cobra.Command {
	var raw, withURLs bool

	cmd := &cobra.Command{
		Use:   "ask [final prompt...]",
		Short: "Send the collected context to the configured LLM",
		Long: `Composes the tracked prompts, the shared files and (with --with-urls)
the text of every tracked URL, followed by the final prompt, into a single
request to the model selected by AI_CLIENT or llm.provider.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := perception.NewClientFromConfig(cmd.Context(), perception.ModelConfigFrom(a.cfg))
			if err != nil {
				return err
			}

			req, err := a.buildRequest(cmd.Context(), strings.Join(args, " "), withURLs)
			if err != nil {
				return err
			}
			message := perception.FormatRequest(req)
			if strings.TrimSpace(message) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), a.styles.Warning.Render("⚠️  Nothing to ask: no prompts, files or final prompt."))
				return nil
			}

			logger.Debug("Sending request",
				zap.String("provider", a.cfg.LLM.Provider),
				zap.Int("chars", len(message)))
			answer, err := client.CompleteWithSystem(cmd.Context(), a.cfg.LLM.SystemPrompt, message)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), render(answer, raw))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the answer without markdown rendering")
	cmd.Flags().BoolVar(&withURLs, "with-urls", false, "Include the text of tracked URLs")
	return cmd
}

// render formats markdown for the terminal, falling back to the raw text.
func render(answer string, raw bool) string {
	if raw {
		return answer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return answer
	}
	out, err := r.Render(answer)
	if err != nil {
		return answer
	}
	return out
}
