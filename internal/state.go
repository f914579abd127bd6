package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const stateFile = "state.json"

// SessionState carries the per-session pointers across CLI invocations: the
// current context and branch plus the back-navigation stack. It lives next to
// the snapshot files but is not part of them; an engine starts pristine unless
// the caller explicitly restores.
type SessionState struct {
	CurrentContext string   `json:"current_context"`
	CurrentBranch  string   `json:"current_branch"`
	BranchHistory  []string `json:"branch_history"`
}

// State captures the engine's session pointers.
func (e *Engine) State() SessionState {
	return SessionState{
		CurrentContext: e.Contexts.CurrentID(),
		CurrentBranch:  e.Branches.CurrentID(),
		BranchHistory:  append([]string{}, e.Branches.history...),
	}
}

// SaveState writes the session pointers so the next invocation can resume
// where this one left off.
func (e *Engine) SaveState() error {
	data, err := json.MarshalIndent(e.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	path := filepath.Join(e.store.Dir(), stateFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	return nil
}

// RestoreState applies previously saved session pointers, dropping ids that no
// longer resolve. A missing or corrupt state file leaves the engine pristine.
func (e *Engine) RestoreState() {
	path := filepath.Join(e.store.Dir(), stateFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		log.Warn("Could not read session state", "path", path, "err", err)
		return
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Warn("Could not parse session state", "path", path, "err", err)
		return
	}

	if _, ok := e.Contexts.Get(state.CurrentContext); ok {
		e.Contexts.currentID = state.CurrentContext
	}
	if _, ok := e.Branches.Get(state.CurrentBranch); ok {
		e.Branches.currentID = state.CurrentBranch
	}
	for _, id := range state.BranchHistory {
		if _, ok := e.Branches.Get(id); ok {
			e.Branches.history = append(e.Branches.history, id)
		}
	}
}
