package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "threads",
		Short:         "Context, memory and branch management for terminal chat",
		Long:          `Manage conversation contexts, persistent memories and branching conversation threads, backed by JSON snapshots with git history.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("scope", "", "Target scope (global|project)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewInitCmd(a),
		NewContextCmd(a),
		NewMemoryCmd(a),
		NewBranchCmd(a),
		NewMsgCmd(a),
		NewStatsCmd(a),
		NewCommitCmd(a),
		NewLogCmd(a),
		NewDiffCmd(a),
		NewRevertCmd(a),
		NewWatchCmd(a),
	)
}

func jsonFlag(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
