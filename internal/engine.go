package internal

import (
	"fmt"
	"math"
)

// Engine ties one storage directory's context registry, memory index and
// branch tree together. Construct one Engine per session/scope pair; there is
// no process-wide instance.
type Engine struct {
	scope    Scope
	store    *Store
	Contexts *ContextRegistry
	Memories *MemoryIndex
	Branches *BranchTree
}

func NewEngine(scope Scope) (*Engine, error) {
	store, err := NewStore(scope.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	contexts := NewContextRegistry(store)
	memories := NewMemoryIndex(store, contexts)
	branches := NewBranchTree(store, contexts)

	return &Engine{
		scope:    scope,
		store:    store,
		Contexts: contexts,
		Memories: memories,
		Branches: branches,
	}, nil
}

func (e *Engine) Scope() Scope {
	return e.scope
}

type ContextStats struct {
	TotalContexts         int     `json:"total_contexts"`
	TotalMemories         int     `json:"total_memories"`
	AvgMemoriesPerContext float64 `json:"avg_memories_per_context"`
	CurrentContext        string  `json:"current_context"`
	StorageDirectory      string  `json:"storage_directory"`
}

// ContextStats reports context and memory counts for this storage directory.
func (e *Engine) ContextStats() ContextStats {
	memStats := e.Memories.Stats()
	return ContextStats{
		TotalContexts:         e.Contexts.Len(),
		TotalMemories:         memStats.TotalMemories,
		AvgMemoriesPerContext: memStats.AvgMemoriesPerContext,
		CurrentContext:        e.Contexts.CurrentID(),
		StorageDirectory:      e.store.Dir(),
	}
}

// BranchStats reports branch and message counts for this storage directory.
func (e *Engine) BranchStats() BranchStats {
	return e.Branches.Stats()
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
