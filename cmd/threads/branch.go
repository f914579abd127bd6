package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/4thel00z/threads/internal"
	"github.com/spf13/cobra"
)

func NewBranchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage conversation branches",
		Long:  `Create, fork, merge, archive and navigate branching conversation threads.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(
		newBranchNewCmd(a),
		newBranchListCmd(a),
		newBranchTreeCmd(a),
		newBranchSwitchCmd(a),
		newBranchCurrentCmd(a),
		newBranchForkCmd(a),
		newBranchMergeCmd(a),
		newBranchBackCmd(a),
		newBranchSearchCmd(a),
		newBranchArchiveCmd(a),
		newBranchDeleteCmd(a),
		newBranchExportCmd(a),
	)

	return cmd
}

func newBranchNewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextArg, _ := cmd.Flags().GetString("context")
			parentArg, _ := cmd.Flags().GetString("parent")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			switchTo, _ := cmd.Flags().GetBool("switch")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			contextID := ""
			if contextArg != "" {
				contextID = resolveContextID(e, contextArg)
			}
			parentID := ""
			if parentArg != "" {
				parentID = resolveBranchID(e, parentArg)
			}

			id := e.Branches.Create(args[0], contextID, parentID, tags, nil)
			if switchTo {
				e.Branches.Switch(id)
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Created branch %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringP("context", "c", "", "Context for the branch (default: current)")
	cmd.Flags().StringP("parent", "p", "", "Parent branch")
	cmd.Flags().StringSliceP("tags", "t", nil, "Branch tags")
	cmd.Flags().Bool("switch", false, "Switch to the new branch")
	return cmd
}

func newBranchListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			all := e.Branches.All()
			if jsonFlag(cmd) {
				return outputJSON(cmd, all)
			}

			currentID := e.Branches.CurrentID()
			for _, b := range all {
				prefix := "  "
				if b.ID == currentID {
					prefix = "* "
				}
				status := ""
				if !b.IsActive {
					status = "  (archived)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s  %s  [%d msgs]%s\n", prefix, b.ID, b.Name, len(b.Messages), status)
			}
			return nil
		},
	}
}

func newBranchTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the branch forest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			forest := e.Branches.Tree()
			if jsonFlag(cmd) {
				return outputJSON(cmd, forest)
			}

			writeBranchForest(cmd.OutOrStdout(), forest, 0, e.Branches.CurrentID())
			return nil
		},
	}
}

func writeBranchForest(w io.Writer, nodes []*internal.BranchNode, depth int, currentID string) {
	for _, n := range nodes {
		marker := "  "
		if n.ID == currentID {
			marker = "* "
		}
		status := ""
		if !n.IsActive {
			status = " (archived)"
		}
		fmt.Fprintf(w, "%s%s%s [%d msgs]%s\n", strings.Repeat("  ", depth), marker, n.Name, n.MessageCount, status)
		writeBranchForest(w, n.Children, depth+1, currentID)
	}
}

func newBranchSwitchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id|name>",
		Short: "Switch the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			if !e.Branches.Switch(resolveBranchID(e, args[0])) {
				return fmt.Errorf("branch not found: %s", args[0])
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to branch %s\n", e.Branches.Current().Name)
			return nil
		},
	}
}

func newBranchCurrentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			b := e.Branches.Current()
			if b == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No current branch")
				return nil
			}

			if jsonFlag(cmd) {
				return outputJSON(cmd, b)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  [%d msgs]\n", b.ID, b.Name, len(b.Messages))
			return nil
		},
	}
}

func newBranchForkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fork <name>",
		Short: "Fork a branch",
		Long:  `Fork a branch into a new child branch, optionally carrying over the conversation so far.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromArg, _ := cmd.Flags().GetString("from")
			noHistory, _ := cmd.Flags().GetBool("no-history")
			switchTo, _ := cmd.Flags().GetBool("switch")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			fromID := ""
			if fromArg != "" {
				fromID = resolveBranchID(e, fromArg)
			}

			id, err := e.Branches.Fork(args[0], fromID, !noHistory)
			if err != nil {
				return fmt.Errorf("fork branch: %w", err)
			}
			if switchTo {
				e.Branches.Switch(id)
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Forked branch %s\n", id)
			return nil
		},
	}

	cmd.Flags().String("from", "", "Source branch (default: current)")
	cmd.Flags().Bool("no-history", false, "Start the fork with an empty conversation")
	cmd.Flags().Bool("switch", false, "Switch to the fork")
	return cmd
}

func newBranchMergeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <source>...",
		Short: "Merge branches into a target",
		Long:  `Merge the messages of one or more source branches into a target branch using the append, replace or smart strategy.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetArg, _ := cmd.Flags().GetString("into")
			strategy, _ := cmd.Flags().GetString("strategy")
			if targetArg == "" {
				return fmt.Errorf("target branch required (--into)")
			}
			if strategy == "" {
				strategy = a.config(cmd).DefaultMergeStrategy
			}

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			sources := make([]string, len(args))
			for i, arg := range args {
				sources[i] = resolveBranchID(e, arg)
			}
			targetID := resolveBranchID(e, targetArg)

			ok, err := e.Branches.Merge(sources, targetID, strategy)
			if err != nil {
				return fmt.Errorf("merge branches: %w", err)
			}
			if !ok {
				return fmt.Errorf("branch not found: %s", targetArg)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d branches into %s\n", len(sources), targetID)
			return nil
		},
	}

	cmd.Flags().String("into", "", "Target branch")
	cmd.Flags().StringP("strategy", "s", "", "Merge strategy (append|replace|smart, default from config)")
	return cmd
}

func newBranchBackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Navigate back to the previous branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			id := e.Branches.NavigateBack()
			persistState(e)

			if id == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No branch to go back to")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to branch %s\n", e.Branches.Current().Name)
			return nil
		},
	}
}

func newBranchSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search branches by name, tags and messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			if limit <= 0 {
				limit = a.config(cmd).Search.BranchLimit
			}

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			results := e.Branches.Search(args[0], limit)
			if jsonFlag(cmd) {
				return outputJSON(cmd, results)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching branches")
				return nil
			}
			for _, b := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  [%d msgs]\n", b.ID, b.Name, len(b.Messages))
			}
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum results (default from config)")
	return cmd
}

func newBranchArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id|name>",
		Short: "Archive a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			if !e.Branches.Archive(resolveBranchID(e, args[0])) {
				return fmt.Errorf("branch not found: %s", args[0])
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Archived branch %s\n", args[0])
			return nil
		},
	}
}

func newBranchDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a branch permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			ok, err := e.Branches.Delete(resolveBranchID(e, args[0]), force)
			var hce *internal.HasChildrenError
			if errors.As(err, &hce) {
				return fmt.Errorf("branch has %d children, re-run with --force to delete them too", hce.Count)
			}
			if err != nil {
				return fmt.Errorf("delete branch: %w", err)
			}
			if !ok {
				return fmt.Errorf("branch not found: %s", args[0])
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted branch %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Delete direct children as well")
	return cmd
}

func newBranchExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id|name>",
		Short: "Export a branch as JSON or markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			out, err := e.Branches.ExportBranch(resolveBranchID(e, args[0]), format)
			if err != nil {
				return fmt.Errorf("export branch: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", internal.FormatJSON, "Output format (json|markdown)")
	return cmd
}

// resolveBranchID accepts either a branch id or an exact name.
func resolveBranchID(e *internal.Engine, arg string) string {
	if _, ok := e.Branches.Get(arg); ok {
		return arg
	}
	for _, b := range e.Branches.All() {
		if b.Name == arg {
			return b.ID
		}
	}
	return arg
}
