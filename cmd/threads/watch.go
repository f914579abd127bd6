package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/4thel00z/threads/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the store and auto-commit changes",
		Long:  `Watch the snapshot files for changes and automatically record history commits.`,
		Args:  cobra.NoArgs,
		RunE:  makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")

		scope := a.scope(cmd)
		if _, err := os.Stat(scope.StorePath); os.IsNotExist(err) {
			return fmt.Errorf("not initialized: %s", scope.StorePath)
		}

		h, err := a.history(cmd)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(scope.StorePath); err != nil {
			return fmt.Errorf("watch store: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", scope.StorePath)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !isSnapshotEvent(event) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				commit, commitErr := h.Commit("auto: watch commit")
				if commitErr != nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", commit.Hash[:7], commit.Message)
			}
		}
	}
}

// isSnapshotEvent keeps only writes to the tracked snapshot files, so history
// object churn and session state never trigger commits.
func isSnapshotEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	base := filepath.Base(event.Name)
	for _, name := range internal.SnapshotFiles {
		if base == name {
			return true
		}
	}
	return false
}
