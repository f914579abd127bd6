package internal

import (
	"strings"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) (*ContextRegistry, *MemoryIndex) {
	t.Helper()
	store := newTestStore(t)
	contexts := NewContextRegistry(store)
	memories := NewMemoryIndex(store, contexts)
	return contexts, memories
}

func TestCreateAndSwitchContext(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	id := contexts.Create("infra", "ops stuff", []string{"infra"}, nil)
	if !strings.HasPrefix(id, "ctx_") {
		t.Fatalf("unexpected id %q", id)
	}

	if contexts.Current() != nil {
		t.Error("create must not touch the current-context pointer")
	}

	if !contexts.Switch(id) {
		t.Fatal("switch returned false for existing context")
	}
	if got := contexts.Current().Name; got != "infra" {
		t.Errorf("current context name = %q, want %q", got, "infra")
	}
}

func TestSwitchUnknownContext(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	if contexts.Switch("ctx_missing") {
		t.Error("switch to unknown id must return false")
	}
	if contexts.Current() != nil {
		t.Error("current must stay unset after failed switch")
	}
}

func TestCreateFillsDefaultDescription(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	id := contexts.Create("golang", "", nil, nil)
	c, _ := contexts.Get(id)
	if c.Description != "Conversation about golang" {
		t.Errorf("description = %q", c.Description)
	}
}

func TestUpdateSummary(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	// No current context: silently a no-op.
	contexts.UpdateSummary("nothing", nil)

	id := contexts.Create("infra", "", nil, nil)
	contexts.Switch(id)
	contexts.UpdateSummary("we discussed deploys", []string{"deploys are risky"})

	c := contexts.Current()
	if c.ConversationSummary != "we discussed deploys" {
		t.Errorf("summary = %q", c.ConversationSummary)
	}
	if len(c.KeyPoints) != 1 || c.KeyPoints[0] != "deploys are risky" {
		t.Errorf("key points = %v", c.KeyPoints)
	}
}

func TestRelevantContext(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	if contexts.Relevant("anything") != nil {
		t.Error("empty registry must yield no relevant context")
	}

	contexts.Create("infra", "ops stuff", []string{"infra"}, nil)
	best := contexts.Create("infra deep dive", "all about infra", []string{"infra"}, nil)

	got := contexts.Relevant("infra")
	if got == nil {
		t.Fatal("expected a relevant context")
	}
	// name(3) + description(2) + tag(1) beats name(3) + tag(1).
	if got.ID != best {
		t.Errorf("relevant = %q, want %q", got.ID, best)
	}

	// Fresh contexts carry the recency bonus and surface for any query;
	// aged ones must not without a lexical match.
	for _, c := range contexts.All() {
		c.UpdatedAt = time.Now().Add(-8 * 24 * time.Hour)
	}
	if contexts.Relevant("quantum") != nil {
		t.Error("non-matching query must yield none")
	}
}

func TestSuggestionsCappedAtThree(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	for _, name := range []string{"go basics", "go tooling", "go generics", "go modules"} {
		contexts.Create(name, "", nil, nil)
	}

	got := contexts.Suggestions("go")
	if len(got) != 3 {
		t.Fatalf("suggestions = %d entries, want 3", len(got))
	}
}

func TestMergeContexts(t *testing.T) {
	contexts, memories := newTestRegistry(t)

	a := contexts.Create("docker", "", []string{"infra", "docker"}, nil)
	b := contexts.Create("k8s", "", []string{"infra", "k8s"}, nil)

	contexts.Switch(a)
	contexts.UpdateSummary("docker talk", []string{"use multi-stage builds"})
	memA := memories.Add("prefer alpine images", 0.5, nil, MemoryFact)

	contexts.Switch(b)
	contexts.UpdateSummary("k8s talk", []string{"use multi-stage builds", "limits matter"})
	memB := memories.Add("requests != limits", 0.5, nil, MemoryFact)

	mergedID, err := contexts.Merge([]string{a, b}, "containers", "all container talk")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	merged, ok := contexts.Get(mergedID)
	if !ok {
		t.Fatal("merged context missing")
	}
	if merged.ConversationSummary != "docker talk\n\nk8s talk" {
		t.Errorf("summary = %q", merged.ConversationSummary)
	}
	if len(merged.KeyPoints) != 2 {
		t.Errorf("key points = %v, want deduplicated union", merged.KeyPoints)
	}
	if len(merged.Tags) != 3 {
		t.Errorf("tags = %v, want union of 3", merged.Tags)
	}

	for _, id := range []string{a, b} {
		if _, ok := contexts.Get(id); ok {
			t.Errorf("source context %s survived merge", id)
		}
	}

	for _, memID := range []string{memA, memB} {
		m, _ := memories.Get(memID)
		if m.ContextID != mergedID {
			t.Errorf("memory %s context = %q, want %q", memID, m.ContextID, mergedID)
		}
	}
}

func TestMergeRequiresTwoContexts(t *testing.T) {
	contexts, _ := newTestRegistry(t)
	id := contexts.Create("solo", "", nil, nil)

	if _, err := contexts.Merge([]string{id}, "merged", ""); err != ErrMergeTooFew {
		t.Errorf("err = %v, want ErrMergeTooFew", err)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	stale := contexts.Create("old", "", nil, nil)
	fresh := contexts.Create("new", "", nil, nil)

	c, _ := contexts.Get(stale)
	c.UpdatedAt = time.Now().Add(-40 * 24 * time.Hour)

	removed := contexts.CleanupOlderThan(30)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := contexts.Get(stale); ok {
		t.Error("stale context survived cleanup")
	}
	if _, ok := contexts.Get(fresh); !ok {
		t.Error("fresh context removed by cleanup")
	}
}

func TestRegistryPersistsAcrossReload(t *testing.T) {
	store := newTestStore(t)

	contexts := NewContextRegistry(store)
	id := contexts.Create("infra", "ops stuff", []string{"infra"}, map[string]any{"source": "test"})

	reloaded := NewContextRegistry(store)
	c, ok := reloaded.Get(id)
	if !ok {
		t.Fatal("context missing after reload")
	}
	if c.Name != "infra" || c.Description != "ops stuff" {
		t.Errorf("reloaded context = %+v", c)
	}
	if c.Metadata["source"] != "test" {
		t.Errorf("metadata = %v", c.Metadata)
	}
	if reloaded.Current() != nil {
		t.Error("current pointer is per-session state and must not survive reload")
	}
}

func TestCreateCollidingIDOverwrites(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	// The same name within the same millisecond yields the same id: the
	// record is overwritten, never listed twice.
	for i := 0; i < 200; i++ {
		contexts.Create("infra", "", nil, nil)
	}

	if got, want := len(contexts.All()), contexts.Len(); got != want {
		t.Fatalf("All returned %d contexts for %d stored", got, want)
	}
}
