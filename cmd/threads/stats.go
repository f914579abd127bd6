package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Long:  `Show context, memory and branch statistics for the resolved storage directory.`,
		Args:  cobra.NoArgs,
		RunE:  makeStatsRunner(a),
	}
}

func makeStatsRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := a.engine(cmd)
		if err != nil {
			return err
		}

		contextStats := e.ContextStats()
		branchStats := e.BranchStats()

		if jsonFlag(cmd) {
			return outputJSON(cmd, map[string]any{
				"contexts": contextStats,
				"branches": branchStats,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Storage:   %s\n", contextStats.StorageDirectory)
		fmt.Fprintf(out, "Contexts:  %d (current: %s)\n", contextStats.TotalContexts, orNone(contextStats.CurrentContext))
		fmt.Fprintf(out, "Memories:  %d (%.2f per context)\n", contextStats.TotalMemories, contextStats.AvgMemoriesPerContext)
		fmt.Fprintf(out, "Branches:  %d active, %d archived (current: %s)\n",
			branchStats.ActiveBranches, branchStats.ArchivedBranches, orNone(branchStats.CurrentBranch))
		fmt.Fprintf(out, "Messages:  %d (%.2f per branch)\n", branchStats.TotalMessages, branchStats.AvgMessagesPerBranch)
		return nil
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
