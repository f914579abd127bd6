package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewMemoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage persistent memories",
		Long:  `Store and search memory items owned by the current context or the shared global context.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(
		newMemoryAddCmd(a),
		newMemorySearchCmd(a),
		newMemoryListCmd(a),
	)

	return cmd
}

func newMemoryAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a memory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importance, _ := cmd.Flags().GetFloat64("importance")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			memoryType, _ := cmd.Flags().GetString("type")

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			id := e.Memories.Add(args[0], importance, tags, memoryType)
			m, _ := e.Memories.Get(id)

			fmt.Fprintf(cmd.OutOrStdout(), "Added memory %s (context %s)\n", id, m.ContextID)
			return nil
		},
	}

	cmd.Flags().Float64P("importance", "i", 0.5, "Importance between 0 and 1")
	cmd.Flags().StringSliceP("tags", "t", nil, "Memory tags")
	cmd.Flags().String("type", "", "Memory type (fact|preference|instruction|example)")
	return cmd
}

func newMemorySearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories by content and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			if limit <= 0 {
				limit = a.config(cmd).Search.MemoryLimit
			}

			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			results := e.Memories.Search(args[0], limit)
			if jsonFlag(cmd) {
				return outputJSON(cmd, results)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching memories")
				return nil
			}
			for _, m := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "[%.1f] %s", m.Importance, m.Content)
				if len(m.Tags) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "  (%s)", strings.Join(m.Tags, ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum results (default from config)")
	return cmd
}

func newMemoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}

			all := e.Memories.All()
			if jsonFlag(cmd) {
				return outputJSON(cmd, all)
			}

			for _, m := range all {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%.1f] %s\n", m.ID, m.Importance, m.Content)
			}
			return nil
		},
	}
}
