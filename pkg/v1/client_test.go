package v1

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".threads")
	c, err := New(append([]Option{WithStorageDir(dir)}, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClientContextLifecycle(t *testing.T) {
	c := newTestClient(t)

	ctx := c.CreateContext("infra", "", []string{"ops"})
	if ctx.Description != "Conversation about infra" {
		t.Errorf("description = %q", ctx.Description)
	}

	if _, ok := c.CurrentContext(); ok {
		t.Error("no context should be current before switch")
	}
	if err := c.SwitchContext(ctx.ID); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if err := c.SwitchContext("ctx_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	c.UpdateSummary("we discussed deploys", []string{"deploys are risky"})
	current, ok := c.CurrentContext()
	if !ok || current.ConversationSummary != "we discussed deploys" {
		t.Errorf("current = %+v", current)
	}
}

func TestClientMemories(t *testing.T) {
	c := newTestClient(t)

	m := c.AddMemory("Use tabs not spaces", 0.9, []string{"style"}, "preference")
	if m.ContextID != "global" {
		t.Errorf("context id = %q, want global without a current context", m.ContextID)
	}

	results := c.SearchMemories("tabs", 5)
	if len(results) != 1 || results[0].ID != m.ID {
		t.Errorf("search = %+v", results)
	}
}

func TestClientBranchLifecycle(t *testing.T) {
	c := newTestClient(t)

	main := c.CreateBranch("main", "", "", nil)
	if err := c.AppendMessage("user", "hello", ""); err != nil {
		t.Fatalf("append: %v", err)
	}

	fork, err := c.ForkBranch("experiment", main.ID, true)
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if fork.ParentID != main.ID || len(fork.Messages) != 1 {
		t.Errorf("fork = %+v", fork)
	}

	if err := c.MergeBranches([]string{fork.ID}, main.ID, "smart"); err != nil {
		t.Fatalf("merge: %v", err)
	}
	current, _ := c.CurrentBranch()
	if len(current.Messages) != 1 {
		t.Errorf("smart merge must not duplicate messages: %+v", current.Messages)
	}

	forest := c.BranchTree()
	if len(forest) != 1 || len(forest[0].Children) != 1 {
		t.Errorf("forest = %+v", forest)
	}

	if err := c.DeleteBranch(main.ID, false); err == nil {
		t.Error("delete with children must fail without force")
	}
	if err := c.DeleteBranch(main.ID, true); err != nil {
		t.Errorf("forced delete: %v", err)
	}
}

func TestClientSessionStateSharing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".threads")

	c, err := New(WithStorageDir(dir), WithSessionState())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := c.CreateContext("infra", "", nil)
	if err := c.SwitchContext(ctx.ID); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(WithStorageDir(dir), WithSessionState())
	if err != nil {
		t.Fatalf("reopen client: %v", err)
	}
	current, ok := reopened.CurrentContext()
	if !ok || current.ID != ctx.ID {
		t.Errorf("current after reopen = %+v (ok=%v)", current, ok)
	}
}

func TestClientStats(t *testing.T) {
	c := newTestClient(t)

	c.CreateContext("infra", "", nil)
	c.AddMemory("one", 0.5, nil, "")
	c.CreateBranch("main", "", "", nil)

	stats := c.Stats()
	// The branch minted its own context since none was current.
	if stats.Contexts.TotalContexts != 2 {
		t.Errorf("total contexts = %d, want 2", stats.Contexts.TotalContexts)
	}
	if stats.Branches.TotalBranches != 1 {
		t.Errorf("total branches = %d", stats.Branches.TotalBranches)
	}
}
