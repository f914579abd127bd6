package internal

import (
	"os"
	"path/filepath"
)

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

// Scope locates one storage directory. Each scope owns its own contexts,
// memories and branches; a single process is assumed to own the directory.
type Scope struct {
	Type      ScopeType
	Path      string // working directory root
	StorePath string // .threads directory path
}

func (s Scope) ContextsPath() string {
	return filepath.Join(s.StorePath, "contexts.json")
}

func (s Scope) MemoriesPath() string {
	return filepath.Join(s.StorePath, "memories.json")
}

func (s Scope) BranchesPath() string {
	return filepath.Join(s.StorePath, "branches.json")
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.StorePath, "config.yaml")
}

func (s Scope) HistoryPath() string {
	return filepath.Join(s.StorePath, "history")
}

type ScopeResolver struct {
	homeDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

func (r *ScopeResolver) Global() Scope {
	storePath := filepath.Join(r.homeDir, ".threads")
	return Scope{
		Type:      ScopeGlobal,
		Path:      r.homeDir,
		StorePath: storePath,
	}
}

func (r *ScopeResolver) Project() (Scope, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return Scope{}, false
	}
	return r.findProjectScope(cwd)
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		storePath := filepath.Join(dir, ".threads")
		info, err := os.Stat(storePath)
		if err == nil && info.IsDir() {
			return Scope{Type: ScopeProject, Path: dir, StorePath: storePath}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == "global" {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}
