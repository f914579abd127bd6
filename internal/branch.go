package internal

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Merge strategies for combining branch messages.
const (
	MergeAppend  = "append"
	MergeReplace = "replace"
	MergeSmart   = "smart"
)

// Message is one conversation turn. Messages are append-only and keep
// insertion order; only fork (copy) and merge (concatenate/replace/dedupe)
// ever rebuild a message list.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationBranch is one thread of conversation. Branches form a forest
// via ParentID; an empty ParentID marks a root.
type ConversationBranch struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	ParentID  string         `json:"parent_id"`
	ContextID string         `json:"context_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Messages  []Message      `json:"messages"`
	Metadata  map[string]any `json:"metadata"`
	IsActive  bool           `json:"is_active"`
	Tags      []string       `json:"tags"`
}

// BranchNode is one node of the rendered branch forest.
type BranchNode struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	IsActive     bool          `json:"is_active"`
	MessageCount int           `json:"message_count"`
	Children     []*BranchNode `json:"children"`
}

// BranchTree owns all ConversationBranch entities of one storage directory,
// the current-branch pointer and a back-navigation stack. It keeps the
// context registry's current context synchronized with the current branch.
type BranchTree struct {
	store     *Store
	contexts  *ContextRegistry
	branches  map[string]*ConversationBranch
	order     []string
	currentID string
	history   []string // stack of previously-current branch ids
}

func NewBranchTree(store *Store, contexts *ContextRegistry) *BranchTree {
	t := &BranchTree{
		store:    store,
		contexts: contexts,
		branches: make(map[string]*ConversationBranch),
	}

	for id, b := range LoadSnapshot[*ConversationBranch](store, "branches") {
		t.branches[id] = b
		t.order = append(t.order, id)
	}
	sortLoadedIDs(t.order, func(id string) time.Time { return t.branches[id].CreatedAt })

	return t
}

func (t *BranchTree) persist() {
	if err := SaveSnapshot(t.store, "branches", t.branches); err != nil {
		log.Warn("Could not save branches", "err", err)
	}
}

// Create inserts a new branch. When contextID is empty the registry's current
// context is used, or a fresh context named after the branch is created if
// none is current. The very first branch becomes the current branch.
func (t *BranchTree) Create(name, contextID, parentID string, tags []string, metadata map[string]any) string {
	id := GenerateID(BranchIDPrefix, name)

	if contextID == "" && t.contexts != nil {
		if current := t.contexts.Current(); current != nil {
			contextID = current.ID
		} else {
			contextID = t.contexts.Create(name, fmt.Sprintf("Conversation branch: %s", name), nil, nil)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	// Same-millisecond, same-name creates collide on the id: last write wins
	// in the map, the order slice must not gain a duplicate.
	if _, exists := t.branches[id]; !exists {
		t.order = append(t.order, id)
	}

	now := time.Now()
	t.branches[id] = &ConversationBranch{
		ID:        id,
		Name:      name,
		ParentID:  parentID,
		ContextID: contextID,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
		Metadata:  metadata,
		IsActive:  true,
		Tags:      tags,
	}

	if t.currentID == "" {
		t.currentID = id
	}

	t.persist()
	return id
}

// Switch makes the given branch current, pushing the previously-current
// branch onto the history stack. Switching to an archived branch reactivates
// it, and the context registry follows the branch's context. Returns false
// for unknown ids.
func (t *BranchTree) Switch(id string) bool {
	b, ok := t.branches[id]
	if !ok {
		return false
	}

	if t.currentID != "" {
		t.history = append(t.history, t.currentID)
	}

	t.currentID = id
	b.UpdatedAt = time.Now()
	b.IsActive = true

	if t.contexts != nil {
		t.contexts.Switch(b.ContextID)
	}

	t.persist()
	return true
}

func (t *BranchTree) Current() *ConversationBranch {
	if t.currentID == "" {
		return nil
	}
	return t.branches[t.currentID]
}

func (t *BranchTree) CurrentID() string {
	return t.currentID
}

func (t *BranchTree) Get(id string) (*ConversationBranch, bool) {
	b, ok := t.branches[id]
	return b, ok
}

func (t *BranchTree) Len() int {
	return len(t.branches)
}

// All returns every branch in insertion order.
func (t *BranchTree) All() []*ConversationBranch {
	out := make([]*ConversationBranch, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.branches[id])
	}
	return out
}

// AppendMessage appends one conversation turn to the given branch, defaulting
// to the current branch. Returns false when no target branch resolves.
func (t *BranchTree) AppendMessage(role, content, branchID string) bool {
	if branchID == "" {
		branchID = t.currentID
	}

	b, ok := t.branches[branchID]
	if !ok {
		return false
	}

	b.Messages = append(b.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	b.UpdatedAt = time.Now()
	t.persist()
	return true
}

// Fork creates a child branch of the source (current branch when omitted)
// sharing its context. Tags and metadata are deep-copied so later mutation of
// either side never leaks across; messages are copied only when
// includeHistory is set.
func (t *BranchTree) Fork(name, fromBranchID string, includeHistory bool) (string, error) {
	if fromBranchID == "" {
		fromBranchID = t.currentID
	}

	source, ok := t.branches[fromBranchID]
	if !ok {
		return "", ErrNoForkSource
	}

	newID := t.Create(name, source.ContextID, fromBranchID, copyTags(source.Tags), copyMetadata(source.Metadata))

	if includeHistory {
		fork := t.branches[newID]
		fork.Messages = append([]Message{}, source.Messages...)
		t.persist()
	}

	return newID, nil
}

// Merge combines the messages of the source branches into the target:
//   - append: sources' messages, in list order, after the target's
//   - replace: target messages become the concatenated source messages
//   - smart: append only (role, content) pairs not yet seen, scanning the
//     target first, then each source in order; first occurrence wins
//
// Unknown source ids are skipped; an unknown target returns false.
func (t *BranchTree) Merge(sourceIDs []string, targetID, strategy string) (bool, error) {
	target, ok := t.branches[targetID]
	if !ok {
		return false, nil
	}

	var incoming []Message
	for _, id := range sourceIDs {
		if source, ok := t.branches[id]; ok {
			incoming = append(incoming, source.Messages...)
		}
	}

	switch strategy {
	case MergeAppend:
		target.Messages = append(target.Messages, incoming...)
	case MergeReplace:
		target.Messages = append([]Message{}, incoming...)
	case MergeSmart:
		seen := make(map[string]bool, len(target.Messages))
		for _, msg := range target.Messages {
			seen[msg.Role+":"+msg.Content] = true
		}
		for _, msg := range incoming {
			key := msg.Role + ":" + msg.Content
			if !seen[key] {
				target.Messages = append(target.Messages, msg)
				seen[key] = true
			}
		}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	target.UpdatedAt = time.Now()
	t.persist()
	return true, nil
}

// Tree renders the branch forest: one node per root branch with children
// nested recursively. A corrupted parent cycle is reported as a warning and
// broken instead of recursing forever.
func (t *BranchTree) Tree() []*BranchNode {
	var forest []*BranchNode
	visited := make(map[string]bool)

	for _, id := range t.order {
		if t.branches[id].ParentID == "" {
			forest = append(forest, t.subtree(id, visited))
		}
	}

	return forest
}

func (t *BranchTree) subtree(id string, visited map[string]bool) *BranchNode {
	if visited[id] {
		log.Warn("Branch parent cycle detected", "id", id)
		return nil
	}
	visited[id] = true

	b := t.branches[id]
	node := &BranchNode{
		ID:           b.ID,
		Name:         b.Name,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		IsActive:     b.IsActive,
		MessageCount: len(b.Messages),
		Children:     []*BranchNode{},
	}

	for _, childID := range t.order {
		if t.branches[childID].ParentID == id {
			if child := t.subtree(childID, visited); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}

	return node
}

// NavigateBack pops the history stack and switches to that branch. Returns
// the empty string when the stack is empty or the popped branch no longer
// exists.
func (t *BranchTree) NavigateBack() string {
	if len(t.history) == 0 {
		return ""
	}

	previous := t.history[len(t.history)-1]
	t.history = t.history[:len(t.history)-1]

	if _, ok := t.branches[previous]; !ok {
		return ""
	}

	t.Switch(previous)
	return previous
}

// Search ranks branches by name and tag matches plus recency, with a bonus of
// 0.5 per message whose content contains the query.
func (t *BranchTree) Search(query string, limit int) []*ConversationBranch {
	items := make([]scored[*ConversationBranch], 0, len(t.order))
	for _, id := range t.order {
		b := t.branches[id]
		fields := []Field{
			{Text: b.Name, Weight: 3},
			{Values: b.Tags, Weight: 1},
		}

		hits := 0
		for _, msg := range b.Messages {
			if containsFold(msg.Content, query) {
				hits++
			}
		}

		items = append(items, scored[*ConversationBranch]{
			candidate: b,
			score:     Score(query, fields, b.UpdatedAt, 0.5*float64(hits)),
		})
	}
	return rank(items, limit)
}

// Archive marks a branch inactive. When the current branch is archived, the
// pointer re-targets its parent if that still exists, else the first branch
// that is still active, else nothing.
func (t *BranchTree) Archive(id string) bool {
	b, ok := t.branches[id]
	if !ok {
		return false
	}

	b.IsActive = false
	b.UpdatedAt = time.Now()

	if id == t.currentID {
		t.retarget(b.ParentID, true)
	}

	t.persist()
	return true
}

// Delete removes a branch permanently. Branches with children fail with
// HasChildrenError unless force is set, in which case direct children are
// deleted as well (one level only; deeper descendants become roots). The
// history stack forgets the deleted id.
func (t *BranchTree) Delete(id string, force bool) (bool, error) {
	b, ok := t.branches[id]
	if !ok {
		return false, nil
	}

	var children []string
	for _, childID := range t.order {
		if t.branches[childID].ParentID == id {
			children = append(children, childID)
		}
	}

	if len(children) > 0 && !force {
		return false, &HasChildrenError{Count: len(children)}
	}

	for _, childID := range children {
		t.remove(childID)
	}
	t.remove(id)

	if id == t.currentID {
		t.currentID = ""
		t.retarget(b.ParentID, false)
	}

	scrubbed := t.history[:0]
	for _, hid := range t.history {
		if hid != id {
			scrubbed = append(scrubbed, hid)
		}
	}
	t.history = scrubbed

	t.persist()
	return true, nil
}

// retarget moves the current pointer after the current branch was archived or
// deleted: to the parent when it still exists, otherwise to the first
// remaining branch (active ones only when activeOnly is set), otherwise to
// nothing.
func (t *BranchTree) retarget(parentID string, activeOnly bool) {
	if parentID != "" {
		if _, ok := t.branches[parentID]; ok {
			t.Switch(parentID)
			return
		}
	}

	for _, id := range t.order {
		if activeOnly && !t.branches[id].IsActive {
			continue
		}
		t.Switch(id)
		return
	}

	t.currentID = ""
}

func (t *BranchTree) remove(id string) {
	delete(t.branches, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *BranchTree) HistoryDepth() int {
	return len(t.history)
}

type BranchStats struct {
	TotalBranches        int     `json:"total_branches"`
	ActiveBranches       int     `json:"active_branches"`
	ArchivedBranches     int     `json:"archived_branches"`
	TotalMessages        int     `json:"total_messages"`
	AvgMessagesPerBranch float64 `json:"avg_messages_per_branch"`
	CurrentBranch        string  `json:"current_branch"`
	BranchHistoryDepth   int     `json:"branch_history_depth"`
	StorageDirectory     string  `json:"storage_directory"`
}

func (t *BranchTree) Stats() BranchStats {
	stats := BranchStats{
		TotalBranches:      len(t.branches),
		CurrentBranch:      t.currentID,
		BranchHistoryDepth: len(t.history),
		StorageDirectory:   t.store.Dir(),
	}

	for _, b := range t.branches {
		if b.IsActive {
			stats.ActiveBranches++
		}
		stats.TotalMessages += len(b.Messages)
	}
	stats.ArchivedBranches = stats.TotalBranches - stats.ActiveBranches

	if stats.TotalBranches > 0 {
		stats.AvgMessagesPerBranch = roundTo(float64(stats.TotalMessages)/float64(stats.TotalBranches), 2)
	}

	return stats
}

func copyTags(tags []string) []string {
	return append([]string{}, tags...)
}

func copyMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
