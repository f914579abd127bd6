package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Store persists entity collections as JSON snapshot files, one file per
// collection, under a single storage directory. Every save is a full rewrite
// of the file; there is no incremental append.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// SaveSnapshot writes the full id -> record snapshot for a collection,
// replacing any previous contents.
func SaveSnapshot[T any](s *Store, collection string, records map[string]T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", collection, err)
	}

	if err := os.WriteFile(s.path(collection), data, 0644); err != nil {
		return fmt.Errorf("write %s snapshot: %w", collection, err)
	}

	return nil
}

// LoadSnapshot reads a collection snapshot back. A missing, unreadable or
// corrupt file yields an empty map with a warning; a record that fails to
// parse on its own is skipped with a warning. Load never fails the caller.
func LoadSnapshot[T any](s *Store, collection string) map[string]T {
	records := make(map[string]T)

	data, err := os.ReadFile(s.path(collection))
	if os.IsNotExist(err) {
		return records
	}
	if err != nil {
		log.Warn("Could not load snapshot", "collection", collection, "err", err)
		return records
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("Could not parse snapshot", "collection", collection, "err", err)
		return records
	}

	for id, msg := range raw {
		var record T
		if err := json.Unmarshal(msg, &record); err != nil {
			log.Warn("Skipping unparseable record", "collection", collection, "id", id, "err", err)
			continue
		}
		records[id] = record
	}

	return records
}
