package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/4thel00z/threads/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new threads store",
		Long:  `Initialize a new .threads directory with snapshot storage, config and history.`,
		RunE:  makeInitRunner(a),
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.threads)")
	return cmd
}

func makeInitRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		isGlobal, _ := cmd.Flags().GetBool("global")

		var scope internal.Scope
		if isGlobal {
			scope = a.resolver.Global()
		} else {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			scope = internal.Scope{
				Type:      internal.ScopeProject,
				Path:      cwd,
				StorePath: filepath.Join(cwd, ".threads"),
			}
		}

		if _, err := os.Stat(scope.StorePath); err == nil {
			return fmt.Errorf("already initialized at %s", scope.StorePath)
		}

		if err := os.MkdirAll(scope.StorePath, 0755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}

		cfg := internal.DefaultConfig()
		if err := internal.SaveConfig(scope, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		if cfg.History.Enabled {
			if err := internal.InitHistory(scope); err != nil {
				return fmt.Errorf("init history: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized threads store at %s\n", scope.StorePath)
		return nil
	}
}
