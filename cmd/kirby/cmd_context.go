package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirby/internal/collection"
	"kirby/internal/perception"
	"kirby/internal/research"
	"kirby/internal/world"
)

// Swapped out in tests.
var (
	clipboardReadAll     = clipboard.ReadAll
	clipboardWriteAll    = clipboard.WriteAll
	clipboardUnsupported = func() bool { return clipboard.Unsupported }
)

const clipboardUnavailable = "Clipboard not available on this system"

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			facades, err := a.registry.All()
			if err != nil {
				return err
			}
			summaries := make([]string, len(facades))
			for i, f := range facades {
				summaries[i] = f.Summary()
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(summaries, "\n\n"))
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			facades, err := a.registry.All()
			if err != nil {
				return err
			}
			for _, f := range facades {
				res, err := f.Clear()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.styles.RenderResult(res))
			}
			return nil
		},
	}
}

func newPasteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paste",
		Short: "Add the clipboard text as a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readClipboard()
			if err != nil {
				logger.Warn("Clipboard read failed", zap.Error(err))
				fmt.Fprintln(cmd.OutOrStdout(), a.styles.Error.Render(clipboardUnavailable))
				return errReported
			}
			prompts, err := a.registry.Prompts()
			if err != nil {
				return err
			}
			res, err := prompts.Append(text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.RenderResult(res))
			return nil
		},
	}
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy",
		Short: "Copy prompts and shared files to the clipboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.buildRequest(cmd.Context(), "", false)
			if err != nil {
				return err
			}
			text := perception.FormatRequest(req)
			if clipboardUnsupported() {
				fmt.Fprintln(cmd.OutOrStdout(), a.styles.Error.Render(clipboardUnavailable))
				return errReported
			}
			if err := clipboardWriteAll(text); err != nil {
				logger.Warn("Clipboard write failed", zap.Error(err))
				fmt.Fprintln(cmd.OutOrStdout(), a.styles.Error.Render(clipboardUnavailable))
				return errReported
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.Success.Render(
				fmt.Sprintf("✅ Copied context to clipboard (%d chars)", len(text))))
			return nil
		},
	}
}

func readClipboard() (string, error) {
	if clipboardUnsupported() {
		return "", fmt.Errorf("no clipboard utility found")
	}
	return clipboardReadAll()
}

// buildRequest gathers prompts, shared files and, when withURLs is set, the
// text of every tracked URL. URLs that fail to fetch are logged and skipped.
func (a *app) buildRequest(ctx context.Context, final string, withURLs bool) (perception.Request, error) {
	prompts, err := a.registry.Prompts()
	if err != nil {
		return perception.Request{}, err
	}
	shared, err := a.registry.SharedFiles()
	if err != nil {
		return perception.Request{}, err
	}

	req := perception.Request{
		Prompts: prompts.Items(),
		Files:   world.ReadFiles(shared.Items(), collection.SharedFiles.Label, a.cfg.Files.MaxFileBytes),
		Final:   final,
	}

	if withURLs {
		urls, err := a.registry.URLs()
		if err != nil {
			return perception.Request{}, err
		}
		for _, p := range research.NewFetcher(a.cfg).FetchAll(ctx, urls.Items()) {
			if p.Err != nil {
				logger.Warn("Skipping URL", zap.String("url", p.URL), zap.Error(p.Err))
				continue
			}
			req.Pages = append(req.Pages, p.String())
		}
	}
	return req, nil
}
