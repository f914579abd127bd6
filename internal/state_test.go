package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionStateRoundTrip(t *testing.T) {
	scope := newTestScope(t)
	e, err := NewEngine(scope)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctxID := e.Contexts.Create("infra", "", nil, nil)
	e.Contexts.Switch(ctxID)
	a := e.Branches.Create("a", "", "", nil, nil)
	b := e.Branches.Create("b", "", "", nil, nil)
	e.Branches.Switch(b)

	if err := e.SaveState(); err != nil {
		t.Fatalf("save state: %v", err)
	}

	rebuilt, err := NewEngine(scope)
	if err != nil {
		t.Fatalf("rebuild engine: %v", err)
	}
	if rebuilt.Branches.CurrentID() != "" {
		t.Fatal("engine must start pristine before restore")
	}

	rebuilt.RestoreState()
	if rebuilt.Contexts.CurrentID() != ctxID {
		t.Errorf("current context = %q, want %q", rebuilt.Contexts.CurrentID(), ctxID)
	}
	if rebuilt.Branches.CurrentID() != b {
		t.Errorf("current branch = %q, want %q", rebuilt.Branches.CurrentID(), b)
	}
	if rebuilt.Branches.HistoryDepth() != 1 {
		t.Errorf("history depth = %d, want 1", rebuilt.Branches.HistoryDepth())
	}
	if got := rebuilt.Branches.NavigateBack(); got != a {
		t.Errorf("navigate back = %q, want %q", got, a)
	}
}

func TestRestoreStateDropsDanglingIDs(t *testing.T) {
	scope := newTestScope(t)
	e, err := NewEngine(scope)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	id := e.Branches.Create("gone", "", "", nil, nil)
	if err := e.SaveState(); err != nil {
		t.Fatalf("save state: %v", err)
	}
	if ok, err := e.Branches.Delete(id, false); !ok || err != nil {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}

	rebuilt, err := NewEngine(scope)
	if err != nil {
		t.Fatalf("rebuild engine: %v", err)
	}
	rebuilt.RestoreState()
	if rebuilt.Branches.CurrentID() != "" {
		t.Errorf("current = %q, want none for a deleted branch", rebuilt.Branches.CurrentID())
	}
}

func TestRestoreStateToleratesCorruptFile(t *testing.T) {
	scope := newTestScope(t)
	e, err := NewEngine(scope)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	path := filepath.Join(scope.StorePath, "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	e.RestoreState()
	if e.Contexts.CurrentID() != "" || e.Branches.CurrentID() != "" {
		t.Error("corrupt state file must leave the engine pristine")
	}
}
