package internal

import (
	"time"

	"github.com/charmbracelet/log"
)

// GlobalContextID owns memories created while no context is current.
const GlobalContextID = "global"

// Memory item types. The field is an open string; these are the conventional
// values.
const (
	MemoryFact        = "fact"
	MemoryPreference  = "preference"
	MemoryInstruction = "instruction"
	MemoryExample     = "example"
)

// MemoryItem is a durable fact, preference, instruction or example scoped to
// a context (or global).
type MemoryItem struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	ContextID    string    `json:"context_id"`
	Importance   float64   `json:"importance"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	AccessCount  int       `json:"access_count"`
	Tags         []string  `json:"tags"`
	Type         string    `json:"type"`
}

// MemoryIndex owns all MemoryItem entities of one storage directory. New
// memories attach to the registry's current context.
type MemoryIndex struct {
	store    *Store
	contexts *ContextRegistry
	memories map[string]*MemoryItem
	order    []string
}

func NewMemoryIndex(store *Store, contexts *ContextRegistry) *MemoryIndex {
	idx := &MemoryIndex{
		store:    store,
		contexts: contexts,
		memories: make(map[string]*MemoryItem),
	}

	for id, m := range LoadSnapshot[*MemoryItem](store, "memories") {
		idx.memories[id] = m
		idx.order = append(idx.order, id)
	}
	sortLoadedIDs(idx.order, func(id string) time.Time { return idx.memories[id].CreatedAt })

	if contexts != nil {
		contexts.BindMemories(idx)
	}

	return idx
}

func (idx *MemoryIndex) persist() {
	if err := SaveSnapshot(idx.store, "memories", idx.memories); err != nil {
		log.Warn("Could not save memories", "err", err)
	}
}

// Add stores a new memory item owned by the current context, or by the global
// sentinel when no context is current. Returns the new item's id.
func (idx *MemoryIndex) Add(content string, importance float64, tags []string, memoryType string) string {
	id := GenerateID(MemoryIDPrefix, content)

	contextID := GlobalContextID
	if idx.contexts != nil && idx.contexts.CurrentID() != "" {
		contextID = idx.contexts.CurrentID()
	}
	if tags == nil {
		tags = []string{}
	}
	if memoryType == "" {
		memoryType = MemoryFact
	}

	// Same-millisecond, same-content adds collide on the id: the record is
	// overwritten, the view must not grow a duplicate entry.
	if _, exists := idx.memories[id]; !exists {
		idx.order = append(idx.order, id)
	}

	now := time.Now()
	idx.memories[id] = &MemoryItem{
		ID:           id,
		Content:      content,
		ContextID:    contextID,
		Importance:   importance,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
		Tags:         tags,
		Type:         memoryType,
	}

	idx.persist()
	return id
}

func (idx *MemoryIndex) Get(id string) (*MemoryItem, bool) {
	m, ok := idx.memories[id]
	return m, ok
}

func (idx *MemoryIndex) Len() int {
	return len(idx.memories)
}

// All returns every memory in insertion order.
func (idx *MemoryIndex) All() []*MemoryItem {
	out := make([]*MemoryItem, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.memories[id])
	}
	return out
}

// Search ranks memories by content and tag matches plus recency and
// importance. Items scoring zero or below are dropped.
func (idx *MemoryIndex) Search(query string, limit int) []*MemoryItem {
	items := make([]scored[*MemoryItem], 0, len(idx.order))
	for _, id := range idx.order {
		m := idx.memories[id]
		fields := []Field{
			{Text: m.Content, Weight: 2},
			{Values: m.Tags, Weight: 1},
		}
		items = append(items, scored[*MemoryItem]{
			candidate: m,
			score:     Score(query, fields, m.CreatedAt, m.Importance),
		})
	}
	return rank(items, limit)
}

// Reassign re-points every memory owned by one of the given contexts at the
// replacement context. Used when contexts are merged away.
func (idx *MemoryIndex) Reassign(contextIDs []string, newContextID string) {
	owned := make(map[string]bool, len(contextIDs))
	for _, id := range contextIDs {
		owned[id] = true
	}

	changed := false
	for _, id := range idx.order {
		if owned[idx.memories[id].ContextID] {
			idx.memories[id].ContextID = newContextID
			changed = true
		}
	}

	if changed {
		idx.persist()
	}
}

type MemoryStats struct {
	TotalMemories         int     `json:"total_memories"`
	AvgMemoriesPerContext float64 `json:"avg_memories_per_context"`
}

func (idx *MemoryIndex) Stats() MemoryStats {
	stats := MemoryStats{TotalMemories: len(idx.memories)}

	if idx.contexts != nil && idx.contexts.Len() > 0 {
		stats.AvgMemoriesPerContext = roundTo(float64(len(idx.memories))/float64(idx.contexts.Len()), 2)
	}

	return stats
}
