package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRevertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <ref>",
		Short: "Restore the snapshot files to a commit",
		Long:  `Hard-reset the snapshot files to the given commit. The working copies of contexts, memories and branches are replaced.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeRevertRunner(a),
	}
}

func makeRevertRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		h, err := a.history(cmd)
		if err != nil {
			return err
		}

		if err := h.Revert(args[0]); err != nil {
			return fmt.Errorf("revert: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reverted snapshot files to %s\n", args[0])
		return nil
	}
}
