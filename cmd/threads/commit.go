package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCommitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record a snapshot history commit",
		Long:  `Stage the snapshot files and record one commit in the store's history.`,
		Args:  cobra.NoArgs,
		RunE:  makeCommitRunner(a),
	}

	cmd.Flags().StringP("message", "m", "", "Commit message")
	return cmd
}

func makeCommitRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		message, _ := cmd.Flags().GetString("message")
		if message == "" {
			return fmt.Errorf("commit message required (-m)")
		}

		h, err := a.history(cmd)
		if err != nil {
			return err
		}

		commit, err := h.Commit(message)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", commit.Hash[:7], commit.Message)
		return nil
	}
}
