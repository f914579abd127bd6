package main

import (
	"context"
	"os"

	"github.com/4thel00z/threads/internal"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	app := newApp()
	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	resolver *internal.ScopeResolver
	scopeFn  func(hint string) internal.Scope
}

func newApp() *app {
	resolver := internal.NewScopeResolver()
	return &app{
		resolver: resolver,
		scopeFn:  resolver.Resolve,
	}
}

func (a *app) scope(cmd *cobra.Command) internal.Scope {
	hint, _ := cmd.Flags().GetString("scope")
	return a.scopeFn(hint)
}

// engine builds the engine for the resolved scope and resumes the previous
// invocation's session pointers.
func (a *app) engine(cmd *cobra.Command) (*internal.Engine, error) {
	e, err := internal.NewEngine(a.scope(cmd))
	if err != nil {
		return nil, err
	}
	e.RestoreState()
	return e, nil
}

func (a *app) config(cmd *cobra.Command) *internal.Config {
	cfg, err := internal.LoadConfig(a.scope(cmd))
	if err != nil {
		log.Warn("Could not load config, using defaults", "err", err)
		return internal.DefaultConfig()
	}
	return cfg
}

func (a *app) history(cmd *cobra.Command) (*internal.History, error) {
	return internal.NewHistory(a.scope(cmd))
}

// persistState saves the session pointers; a failure never fails the command.
func persistState(e *internal.Engine) {
	if err := e.SaveState(); err != nil {
		log.Warn("Could not save session state", "err", err)
	}
}
