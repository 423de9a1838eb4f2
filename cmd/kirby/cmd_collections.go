package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirby/internal/collection"
	"kirby/internal/world"
)

// collectionCommand describes one collection subcommand tree.
type collectionCommand struct {
	use   string
	short string
	kind  collection.Kind
	// paths expands arguments through world.DiscoverFiles.
	paths bool
	// joinArgs treats all arguments as a single item.
	joinArgs bool
}

var (
	promptCommand = collectionCommand{
		use:      "prompt",
		short:    "📜 Manage tracked prompts",
		kind:     collection.Prompts,
		joinArgs: true,
	}
	fileCommand = collectionCommand{
		use:   "file",
		short: "📁 Manage shared files",
		kind:  collection.SharedFiles,
		paths: true,
	}
	processCommand = collectionCommand{
		use:   "process",
		short: "⚙️  Manage processing files",
		kind:  collection.ProcessingFiles,
		paths: true,
	}
	urlCommand = collectionCommand{
		use:   "url",
		short: "🔗 Manage tracked URLs",
		kind:  collection.URLs,
	}
)

// newCollectionCmd builds add/remove/clear/list/undo for one collection.
func newCollectionCmd(a *app, cc collectionCommand) *cobra.Command {
	noun := cc.kind.Noun

	cmd := &cobra.Command{
		Use:   cc.use,
		Short: cc.short,
	}

	addCmd := &cobra.Command{
		Use:   fmt.Sprintf("add <%s>...", strings.ReplaceAll(noun, " ", "-")),
		Short: fmt.Sprintf("Add a %s", noun),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutate(cmd, cc, args, collection.Facade.Append)
		},
	}

	removeCmd := &cobra.Command{
		Use:   fmt.Sprintf("remove <%s>...", strings.ReplaceAll(noun, " ", "-")),
		Short: fmt.Sprintf("Remove a %s", noun),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutate(cmd, cc, args, collection.Facade.Remove)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: fmt.Sprintf("Clear all %ss", noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(cc.kind)
			if err != nil {
				return err
			}
			res, err := f.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.RenderResult(res))
			return nil
		},
	}

	var depth bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List tracked %ss", noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(cc.kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Summary())
			if depth {
				fmt.Fprintln(cmd.OutOrStdout(), a.styles.Muted.Render(fmt.Sprintf("History depth: %d", f.Depth())))
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&depth, "depth", false, "Also print the number of stored snapshots")

	undoCmd := &cobra.Command{
		Use:   "undo",
		Short: fmt.Sprintf("Undo the last %s change", noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(cc.kind)
			if err != nil {
				return err
			}
			res, err := f.Undo()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.RenderResult(res))
			return nil
		},
	}

	cmd.AddCommand(addCmd, removeCmd, clearCmd, listCmd, undoCmd)
	return cmd
}

// mutate applies op to every item named by args and prints each result.
// Warnings are printed and do not fail the command.
func (a *app) mutate(cmd *cobra.Command, cc collectionCommand, args []string,
	op func(collection.Facade, string) (collection.Result, error)) error {
	f, err := a.facade(cc.kind)
	if err != nil {
		return err
	}

	items, err := a.expandItems(cmd, cc, args)
	if err != nil {
		return err
	}
	for _, item := range items {
		res, err := op(f, item)
		if err != nil {
			logger.Error("Collection update failed",
				zap.String("collection", cc.kind.Name),
				zap.String("item", item),
				zap.Error(err))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.styles.RenderResult(res))
	}
	return nil
}

// expandItems turns command arguments into collection items. Path arguments
// are expanded into the files beneath them; a path that no longer exists
// stands for itself in absolute form, so it can still be removed.
func (a *app) expandItems(cmd *cobra.Command, cc collectionCommand, args []string) ([]string, error) {
	if cc.joinArgs {
		return []string{strings.Join(args, " ")}, nil
	}
	if !cc.paths {
		return args, nil
	}

	var items []string
	for _, arg := range args {
		// Blank arguments reach the facade as-is so they are rejected as empty.
		if strings.TrimSpace(arg) == "" {
			items = append(items, arg)
			continue
		}
		files, err := world.DiscoverFiles(arg, a.cfg.Files)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			items = append(items, files...)
			continue
		}
		abs, err := world.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		if cmd.Name() == "remove" {
			items = append(items, abs)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.styles.Warning.Render(
			fmt.Sprintf("⚠️  No files found under %s", abs)))
	}
	return items, nil
}
