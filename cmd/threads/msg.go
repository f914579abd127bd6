package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewMsgCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "msg <role> <content>...",
		Short: "Append a message to the current branch",
		Long:  `Append one conversation turn (user or assistant) to the current branch or an explicit one.`,
		Args:  cobra.MinimumNArgs(2),
		RunE:  makeMsgRunner(a),
	}

	cmd.Flags().StringP("branch", "b", "", "Target branch (default: current)")
	return cmd
}

func makeMsgRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		branchArg, _ := cmd.Flags().GetString("branch")

		role := args[0]
		content := strings.Join(args[1:], " ")

		e, err := a.engine(cmd)
		if err != nil {
			return err
		}

		branchID := ""
		if branchArg != "" {
			branchID = resolveBranchID(e, branchArg)
		}

		if !e.Branches.AppendMessage(role, content, branchID) {
			return fmt.Errorf("no branch to append to; create one with 'threads branch new'")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Appended message")
		return nil
	}
}
