package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/threads/internal"
	"github.com/spf13/cobra"
)

func NewContextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage conversation contexts",
		Long:  `Create, switch, merge, export and clean up conversation contexts.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(
		newContextNewCmd(a),
		newContextListCmd(a),
		newContextSwitchCmd(a),
		newContextCurrentCmd(a),
		newContextSummaryCmd(a),
		newContextSuggestCmd(a),
		newContextMergeCmd(a),
		newContextCleanupCmd(a),
		newContextExportCmd(a),
	)

	return cmd
}

func newContextNewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			switchTo, _ := cmd.Flags().GetBool("switch")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			id := e.Contexts.Create(args[0], description, tags, nil)
			if switchTo {
				e.Contexts.Switch(id)
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Created context %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringP("description", "d", "", "Context description")
	cmd.Flags().StringSliceP("tags", "t", nil, "Context tags")
	cmd.Flags().Bool("switch", false, "Switch to the new context")
	return cmd
}

func newContextListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			all := e.Contexts.All()
			if jsonFlag(cmd) {
				return outputJSON(cmd, all)
			}

			currentID := e.Contexts.CurrentID()
			for _, c := range all {
				prefix := "  "
				if c.ID == currentID {
					prefix = "* "
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s  %s", prefix, c.ID, c.Name)
				if len(c.Tags) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "  [%s]", strings.Join(c.Tags, ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newContextSwitchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id|name>",
		Short: "Switch the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			id := resolveContextID(e, args[0])
			if !e.Contexts.Switch(id) {
				return fmt.Errorf("context not found: %s", args[0])
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %s\n", e.Contexts.Current().Name)
			return nil
		},
	}
}

func newContextCurrentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			c := e.Contexts.Current()
			if c == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No current context")
				return nil
			}

			if jsonFlag(cmd) {
				return outputJSON(cmd, c)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", c.ID, c.Name)
			if c.ConversationSummary != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", c.ConversationSummary)
			}
			return nil
		},
	}
}

func newContextSummaryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <text>",
		Short: "Update the current context's conversation summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyPoints, _ := cmd.Flags().GetStringSlice("key-points")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}
			if e.Contexts.Current() == nil {
				return fmt.Errorf("no current context")
			}

			e.Contexts.UpdateSummary(args[0], keyPoints)
			fmt.Fprintln(cmd.OutOrStdout(), "Updated summary")
			return nil
		},
	}

	cmd.Flags().StringSliceP("key-points", "k", nil, "Key points to record")
	return cmd
}

func newContextSuggestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest contexts relevant to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			best, _ := cmd.Flags().GetBool("best")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			var matches []*internal.Context
			if best {
				if c := e.Contexts.Relevant(args[0]); c != nil {
					matches = append(matches, c)
				}
			} else {
				matches = e.Contexts.Suggestions(args[0])
			}

			if jsonFlag(cmd) {
				return outputJSON(cmd, matches)
			}

			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching contexts")
				return nil
			}
			for _, c := range matches {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", c.ID, c.Name)
			}
			return nil
		},
	}

	cmd.Flags().Bool("best", false, "Show only the single most relevant context")
	return cmd
}

func newContextMergeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <id>...",
		Short: "Merge contexts into a new one",
		Long:  `Merge two or more contexts into a new context, combining summaries, key points, tags and memory ownership. The source contexts are removed.`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			description, _ := cmd.Flags().GetString("description")
			if name == "" {
				return fmt.Errorf("merged context name required (--name)")
			}

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			ids := make([]string, len(args))
			for i, arg := range args {
				ids[i] = resolveContextID(e, arg)
			}

			mergedID, err := e.Contexts.Merge(ids, name, description)
			if err != nil {
				return fmt.Errorf("merge contexts: %w", err)
			}
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d contexts into %s\n", len(ids), mergedID)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Name for the merged context")
	cmd.Flags().StringP("description", "d", "", "Description for the merged context")
	return cmd
}

func newContextCleanupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove contexts not updated recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				days = a.config(cmd).CleanupDays
			}

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			removed := e.Contexts.CleanupOlderThan(days)
			persistState(e)

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d contexts older than %d days\n", removed, days)
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "Age threshold in days (default from config)")
	return cmd
}

func newContextExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id|name>",
		Short: "Export a context as JSON or markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			out, err := e.Contexts.ExportContext(resolveContextID(e, args[0]), format)
			if err != nil {
				return fmt.Errorf("export context: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", internal.FormatJSON, "Output format (json|markdown)")
	return cmd
}

// resolveContextID accepts either a context id or an exact name.
func resolveContextID(e *internal.Engine, arg string) string {
	if _, ok := e.Contexts.Get(arg); ok {
		return arg
	}
	for _, c := range e.Contexts.All() {
		if c.Name == arg {
			return c.ID
		}
	}
	return arg
}
