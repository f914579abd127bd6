package v1

import (
	"fmt"
	"path/filepath"

	"github.com/4thel00z/threads/internal"
)

// ErrNotFound is returned for lookups of unknown entities.
var ErrNotFound = internal.ErrNotFound

// Client provides programmatic access to a threads store: contexts, memories
// and conversation branches. A Client owns one engine for one storage
// directory; it is not safe for concurrent use.
type Client struct {
	engine *internal.Engine
	cfg    clientConfig
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var scope internal.Scope
	if cfg.storageDir != "" {
		scope = internal.Scope{
			Type:      internal.ScopeProject,
			Path:      filepath.Dir(cfg.storageDir),
			StorePath: cfg.storageDir,
		}
	} else {
		scope = internal.NewScopeResolver().Resolve(cfg.scope)
	}

	engine, err := internal.NewEngine(scope)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.sessionState {
		engine.RestoreState()
	}

	return &Client{engine: engine, cfg: cfg}, nil
}

// CreateContext creates a context and returns it. An empty description
// defaults to one derived from the name.
func (c *Client) CreateContext(name, description string, tags []string) Context {
	id := c.engine.Contexts.Create(name, description, tags, nil)
	ctx, _ := c.engine.Contexts.Get(id)
	return toContext(ctx)
}

// SwitchContext makes the given context current.
func (c *Client) SwitchContext(id string) error {
	if !c.engine.Contexts.Switch(id) {
		return fmt.Errorf("context %s: %w", id, ErrNotFound)
	}
	return nil
}

// CurrentContext returns the current context, if any.
func (c *Client) CurrentContext() (Context, bool) {
	ctx := c.engine.Contexts.Current()
	if ctx == nil {
		return Context{}, false
	}
	return toContext(ctx), true
}

// Contexts returns every context in insertion order.
func (c *Client) Contexts() []Context {
	all := c.engine.Contexts.All()
	out := make([]Context, 0, len(all))
	for _, ctx := range all {
		out = append(out, toContext(ctx))
	}
	return out
}

// UpdateSummary replaces the current context's conversation summary and
// appends the key points. Without a current context it is a no-op.
func (c *Client) UpdateSummary(summary string, keyPoints []string) {
	c.engine.Contexts.UpdateSummary(summary, keyPoints)
}

// MergeContexts merges two or more contexts into a new one and returns it.
func (c *Client) MergeContexts(ids []string, name, description string) (Context, error) {
	mergedID, err := c.engine.Contexts.Merge(ids, name, description)
	if err != nil {
		return Context{}, fmt.Errorf("merge contexts: %w", err)
	}
	merged, _ := c.engine.Contexts.Get(mergedID)
	return toContext(merged), nil
}

// RelevantContext returns the best-matching context for a query, if any.
func (c *Client) RelevantContext(query string) (Context, bool) {
	ctx := c.engine.Contexts.Relevant(query)
	if ctx == nil {
		return Context{}, false
	}
	return toContext(ctx), true
}

// SuggestContexts returns up to three contexts matching the query.
func (c *Client) SuggestContexts(query string) []Context {
	matches := c.engine.Contexts.Suggestions(query)
	out := make([]Context, 0, len(matches))
	for _, ctx := range matches {
		out = append(out, toContext(ctx))
	}
	return out
}

// CleanupContexts removes contexts not updated within the given number of
// days and returns how many were removed.
func (c *Client) CleanupContexts(days int) int {
	return c.engine.Contexts.CleanupOlderThan(days)
}

// ExportContext renders a context in the given format (json or markdown).
func (c *Client) ExportContext(id, format string) (string, error) {
	return c.engine.Contexts.ExportContext(id, format)
}

// AddMemory stores a memory item owned by the current context, or the shared
// global context when none is current.
func (c *Client) AddMemory(content string, importance float64, tags []string, memoryType string) Memory {
	id := c.engine.Memories.Add(content, importance, tags, memoryType)
	m, _ := c.engine.Memories.Get(id)
	return toMemory(m)
}

// SearchMemories ranks memories by content and tag matches, recency and
// importance.
func (c *Client) SearchMemories(query string, limit int) []Memory {
	results := c.engine.Memories.Search(query, limit)
	out := make([]Memory, 0, len(results))
	for _, m := range results {
		out = append(out, toMemory(m))
	}
	return out
}

// CreateBranch creates a conversation branch. Empty contextID means the
// current context (or a fresh one named after the branch).
func (c *Client) CreateBranch(name, contextID, parentID string, tags []string) Branch {
	id := c.engine.Branches.Create(name, contextID, parentID, tags, nil)
	b, _ := c.engine.Branches.Get(id)
	return toBranch(b)
}

// SwitchBranch makes the given branch current and moves the context pointer
// to the branch's context.
func (c *Client) SwitchBranch(id string) error {
	if !c.engine.Branches.Switch(id) {
		return fmt.Errorf("branch %s: %w", id, ErrNotFound)
	}
	return nil
}

// CurrentBranch returns the current branch, if any.
func (c *Client) CurrentBranch() (Branch, bool) {
	b := c.engine.Branches.Current()
	if b == nil {
		return Branch{}, false
	}
	return toBranch(b), true
}

// AppendMessage appends one conversation turn to the given branch, or the
// current branch when branchID is empty.
func (c *Client) AppendMessage(role, content, branchID string) error {
	if !c.engine.Branches.AppendMessage(role, content, branchID) {
		return fmt.Errorf("branch %s: %w", branchID, ErrNotFound)
	}
	return nil
}

// ForkBranch creates a child branch of the source (current when empty),
// optionally carrying over the conversation so far.
func (c *Client) ForkBranch(name, fromBranchID string, includeHistory bool) (Branch, error) {
	id, err := c.engine.Branches.Fork(name, fromBranchID, includeHistory)
	if err != nil {
		return Branch{}, fmt.Errorf("fork branch: %w", err)
	}
	b, _ := c.engine.Branches.Get(id)
	return toBranch(b), nil
}

// MergeBranches merges the source branches' messages into the target using
// the append, replace or smart strategy.
func (c *Client) MergeBranches(sourceIDs []string, targetID, strategy string) error {
	ok, err := c.engine.Branches.Merge(sourceIDs, targetID, strategy)
	if err != nil {
		return fmt.Errorf("merge branches: %w", err)
	}
	if !ok {
		return fmt.Errorf("branch %s: %w", targetID, ErrNotFound)
	}
	return nil
}

// BranchTree returns the branch forest.
func (c *Client) BranchTree() []BranchNode {
	forest := c.engine.Branches.Tree()
	out := make([]BranchNode, 0, len(forest))
	for _, n := range forest {
		out = append(out, toBranchNode(n))
	}
	return out
}

// NavigateBack switches to the previously-current branch and returns it.
func (c *Client) NavigateBack() (Branch, bool) {
	id := c.engine.Branches.NavigateBack()
	if id == "" {
		return Branch{}, false
	}
	b, _ := c.engine.Branches.Get(id)
	return toBranch(b), true
}

// SearchBranches ranks branches by name, tag and message matches.
func (c *Client) SearchBranches(query string, limit int) []Branch {
	results := c.engine.Branches.Search(query, limit)
	out := make([]Branch, 0, len(results))
	for _, b := range results {
		out = append(out, toBranch(b))
	}
	return out
}

// ArchiveBranch marks a branch inactive.
func (c *Client) ArchiveBranch(id string) error {
	if !c.engine.Branches.Archive(id) {
		return fmt.Errorf("branch %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteBranch removes a branch permanently. Branches with children require
// force, which deletes the direct children as well.
func (c *Client) DeleteBranch(id string, force bool) error {
	ok, err := c.engine.Branches.Delete(id, force)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if !ok {
		return fmt.Errorf("branch %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExportBranch renders a branch in the given format (json or markdown).
func (c *Client) ExportBranch(id, format string) (string, error) {
	return c.engine.Branches.ExportBranch(id, format)
}

// Stats reports context, memory and branch statistics.
func (c *Client) Stats() Stats {
	return Stats{
		Contexts: c.engine.ContextStats(),
		Branches: c.engine.BranchStats(),
	}
}

// Close releases the client, saving session pointers when enabled.
func (c *Client) Close() error {
	if c.cfg.sessionState {
		return c.engine.SaveState()
	}
	return nil
}
