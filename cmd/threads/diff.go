package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [ref]",
		Short: "Show snapshot changes",
		Long:  `Show changes to the snapshot files since the last commit, or between a ref and HEAD.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeDiffRunner(a),
	}
}

func makeDiffRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}

		h, err := a.history(cmd)
		if err != nil {
			return err
		}

		out, err := h.Diff(ref)
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		if out == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}
}
