package internal

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// Context is a named topical grouping of conversation. It accumulates a
// running summary and key points as the conversation within it evolves.
type Context struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Tags                []string       `json:"tags"`
	Metadata            map[string]any `json:"metadata"`
	ConversationSummary string         `json:"conversation_summary"`
	KeyPoints           []string       `json:"key_points"`
	ModelUsed           string         `json:"model_used"`
	ProviderUsed        string         `json:"provider_used"`
}

// ContextRegistry owns all Context entities of one storage directory plus the
// current-context pointer. Every mutation re-saves the full contexts snapshot.
type ContextRegistry struct {
	store     *Store
	contexts  map[string]*Context
	order     []string // ids in insertion order, ties in search resolve by it
	currentID string
	memories  *MemoryIndex // bound after construction, may stay nil
}

func NewContextRegistry(store *Store) *ContextRegistry {
	r := &ContextRegistry{
		store:    store,
		contexts: make(map[string]*Context),
	}

	for id, c := range LoadSnapshot[*Context](store, "contexts") {
		r.contexts[id] = c
		r.order = append(r.order, id)
	}
	sortLoadedIDs(r.order, func(id string) time.Time { return r.contexts[id].CreatedAt })

	return r
}

// BindMemories wires the memory index so that merging contexts can re-point
// memories owned by the merged-away sources.
func (r *ContextRegistry) BindMemories(idx *MemoryIndex) {
	r.memories = idx
}

func (r *ContextRegistry) persist() {
	if err := SaveSnapshot(r.store, "contexts", r.contexts); err != nil {
		log.Warn("Could not save contexts", "err", err)
	}
}

// Create inserts a new context and returns its id. The current-context
// pointer is left untouched.
func (r *ContextRegistry) Create(name, description string, tags []string, metadata map[string]any) string {
	id := GenerateID(ContextIDPrefix, name)

	if description == "" {
		description = fmt.Sprintf("Conversation about %s", name)
	}
	if tags == nil {
		tags = []string{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	// A same-millisecond, same-name create collides on the id: last write
	// wins in the map, the order slice must not gain a duplicate.
	if _, exists := r.contexts[id]; !exists {
		r.order = append(r.order, id)
	}

	now := time.Now()
	r.contexts[id] = &Context{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        tags,
		Metadata:    metadata,
		KeyPoints:   []string{},
	}

	r.persist()
	return id
}

// Switch makes the given context current. Returns false for unknown ids.
func (r *ContextRegistry) Switch(id string) bool {
	c, ok := r.contexts[id]
	if !ok {
		return false
	}

	r.currentID = id
	c.UpdatedAt = time.Now()
	r.persist()
	return true
}

func (r *ContextRegistry) Current() *Context {
	if r.currentID == "" {
		return nil
	}
	return r.contexts[r.currentID]
}

func (r *ContextRegistry) CurrentID() string {
	return r.currentID
}

func (r *ContextRegistry) Get(id string) (*Context, bool) {
	c, ok := r.contexts[id]
	return c, ok
}

func (r *ContextRegistry) Len() int {
	return len(r.contexts)
}

// All returns every context in insertion order.
func (r *ContextRegistry) All() []*Context {
	out := make([]*Context, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.contexts[id])
	}
	return out
}

// UpdateSummary replaces the current context's conversation summary and,
// when given, its key points. No-op if no context is current.
func (r *ContextRegistry) UpdateSummary(summary string, keyPoints []string) {
	c := r.Current()
	if c == nil {
		return
	}

	c.ConversationSummary = summary
	if keyPoints != nil {
		c.KeyPoints = keyPoints
	}
	c.UpdatedAt = time.Now()
	r.persist()
}

func (r *ContextRegistry) scoreFields(c *Context) []Field {
	return []Field{
		{Text: c.Name, Weight: 3},
		{Text: c.Description, Weight: 2},
		{Values: c.Tags, Weight: 1},
	}
}

// Relevant returns the single best-scoring context for the query, or nil when
// nothing scores above zero.
func (r *ContextRegistry) Relevant(query string) *Context {
	matches := r.search(query, 1)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Suggestions returns up to 3 contexts ranked by the same weighting as
// Relevant.
func (r *ContextRegistry) Suggestions(query string) []*Context {
	return r.search(query, 3)
}

func (r *ContextRegistry) search(query string, limit int) []*Context {
	items := make([]scored[*Context], 0, len(r.order))
	for _, id := range r.order {
		c := r.contexts[id]
		items = append(items, scored[*Context]{
			candidate: c,
			score:     Score(query, r.scoreFields(c), c.UpdatedAt, 0),
		})
	}
	return rank(items, limit)
}

// Merge combines two or more contexts into one new context: summaries are
// concatenated in source order, key points and tags are unioned, memories
// owned by the sources are re-pointed at the merged context, and the sources
// are deleted. Returns the new context's id.
func (r *ContextRegistry) Merge(ids []string, newName, newDescription string) (string, error) {
	if len(ids) < 2 {
		return "", ErrMergeTooFew
	}

	mergedID := r.Create(newName, newDescription, nil, nil)
	merged := r.contexts[mergedID]

	var summaries []string
	var keyPoints, tags []string
	seenPoints := make(map[string]bool)
	seenTags := make(map[string]bool)

	for _, id := range ids {
		c, ok := r.contexts[id]
		if !ok {
			continue
		}
		if c.ConversationSummary != "" {
			summaries = append(summaries, c.ConversationSummary)
		}
		for _, p := range c.KeyPoints {
			if !seenPoints[p] {
				seenPoints[p] = true
				keyPoints = append(keyPoints, p)
			}
		}
		for _, t := range c.Tags {
			if !seenTags[t] {
				seenTags[t] = true
				tags = append(tags, t)
			}
		}
	}

	merged.ConversationSummary = joinParagraphs(summaries)
	merged.KeyPoints = keyPoints
	merged.Tags = tags

	if r.memories != nil {
		r.memories.Reassign(ids, mergedID)
	}

	for _, id := range ids {
		r.remove(id)
	}

	r.persist()
	return mergedID, nil
}

// CleanupOlderThan deletes every context whose updated_at is older than the
// cutoff and returns how many were removed. Memories and branches still
// referencing a removed id keep their dangling reference.
func (r *ContextRegistry) CleanupOlderThan(days int) int {
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	var stale []string
	for _, id := range r.order {
		if r.contexts[id].UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}

	for _, id := range stale {
		r.remove(id)
	}

	if len(stale) > 0 {
		log.Info("Removed old contexts", "count", len(stale))
		r.persist()
	}

	return len(stale)
}

func (r *ContextRegistry) remove(id string) {
	if _, ok := r.contexts[id]; !ok {
		return
	}
	delete(r.contexts, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.currentID == id {
		r.currentID = ""
	}
}

func joinParagraphs(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

// sortLoadedIDs orders freshly loaded ids by creation time with the id string
// as tiebreak, so iteration order is deterministic across loads.
func sortLoadedIDs(ids []string, createdAt func(string) time.Time) {
	sort.SliceStable(ids, func(i, j int) bool {
		ti, tj := createdAt(ids[i]), createdAt(ids[j])
		if ti.Equal(tj) {
			return ids[i] < ids[j]
		}
		return ti.Before(tj)
	})
}
