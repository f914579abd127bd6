package internal

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), ".threads"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().Truncate(time.Second)
	records := map[string]*MemoryItem{
		"mem_aaaaaaaa_1": {
			ID:           "mem_aaaaaaaa_1",
			Content:      "Use tabs not spaces",
			ContextID:    GlobalContextID,
			Importance:   0.9,
			CreatedAt:    now,
			LastAccessed: now,
			AccessCount:  1,
			Tags:         []string{"style"},
			Type:         MemoryPreference,
		},
		"mem_bbbbbbbb_2": {
			ID:          "mem_bbbbbbbb_2",
			Content:     "Deploys happen on Friday",
			ContextID:   "ctx_11111111_1",
			Importance:  0.4,
			CreatedAt:   now,
			AccessCount: 1,
			Tags:        []string{},
			Type:        MemoryFact,
		},
	}

	if err := SaveSnapshot(store, "memories", records); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := LoadSnapshot[*MemoryItem](store, "memories")
	if len(loaded) != len(records) {
		t.Fatalf("loaded %d records, want %d", len(loaded), len(records))
	}
	for id, want := range records {
		got, ok := loaded[id]
		if !ok {
			t.Fatalf("record %s missing after round trip", id)
		}
		// Reparsed timestamps can carry a different *Location for the same
		// instant, so compare them as instants before the struct compare.
		if !got.CreatedAt.Equal(want.CreatedAt) || !got.LastAccessed.Equal(want.LastAccessed) {
			t.Errorf("record %s timestamps = %v/%v, want %v/%v",
				id, got.CreatedAt, got.LastAccessed, want.CreatedAt, want.LastAccessed)
		}
		got.CreatedAt, got.LastAccessed = want.CreatedAt, want.LastAccessed
		if !reflect.DeepEqual(got, want) {
			t.Errorf("record %s = %+v, want %+v", id, got, want)
		}
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	store := newTestStore(t)

	loaded := LoadSnapshot[*Context](store, "contexts")
	if len(loaded) != 0 {
		t.Errorf("expected empty map for missing file, got %d records", len(loaded))
	}
}

func TestLoadSnapshotCorruptFile(t *testing.T) {
	store := newTestStore(t)

	path := filepath.Join(store.Dir(), "contexts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	loaded := LoadSnapshot[*Context](store, "contexts")
	if len(loaded) != 0 {
		t.Errorf("expected empty map for corrupt file, got %d records", len(loaded))
	}
}

func TestLoadSnapshotSkipsBadRecord(t *testing.T) {
	store := newTestStore(t)

	raw := `{
  "ctx_good": {"id": "ctx_good", "name": "infra"},
  "ctx_bad": {"id": "ctx_bad", "name": 42, "tags": "nope"}
}`
	path := filepath.Join(store.Dir(), "contexts.json")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	loaded := LoadSnapshot[*Context](store, "contexts")
	if len(loaded) != 1 {
		t.Fatalf("expected 1 surviving record, got %d", len(loaded))
	}
	if loaded["ctx_good"].Name != "infra" {
		t.Errorf("surviving record = %+v", loaded["ctx_good"])
	}
}

func TestSaveSnapshotIsFullRewrite(t *testing.T) {
	store := newTestStore(t)

	first := map[string]*Context{"ctx_a": {ID: "ctx_a", Name: "a"}}
	if err := SaveSnapshot(store, "contexts", first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := map[string]*Context{"ctx_b": {ID: "ctx_b", Name: "b"}}
	if err := SaveSnapshot(store, "contexts", second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded := LoadSnapshot[*Context](store, "contexts")
	if _, ok := loaded["ctx_a"]; ok {
		t.Error("ctx_a survived a full-rewrite save")
	}
	if _, ok := loaded["ctx_b"]; !ok {
		t.Error("ctx_b missing after save")
	}
}
