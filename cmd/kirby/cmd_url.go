package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirby/internal/research"
)

// newURLCmd is the url collection plus `url parse`.
func newURLCmd(a *app) *cobra.Command {
	cmd := newCollectionCmd(a, urlCommand)

	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Fetch every tracked URL and print its text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := a.registry.URLs()
			if err != nil {
				return err
			}

			pages := research.NewFetcher(a.cfg).FetchAll(cmd.Context(), urls.Items())
			failed := 0
			for _, p := range pages {
				if p.Err != nil {
					failed++
					logger.Warn("URL parse failed", zap.String("url", p.URL), zap.Error(p.Err))
					fmt.Fprintln(cmd.ErrOrStderr(), a.styles.Error.Render(
						fmt.Sprintf("❌ Failed to parse %s: %v", p.URL, p.Err)))
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), p.String())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d URLs failed: %w", failed, len(pages), errReported)
			}
			return nil
		},
	}

	cmd.AddCommand(parseCmd)
	return cmd
}
