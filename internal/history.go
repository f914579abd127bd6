package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	DefaultHistoryBranch = "main"
	DefaultAuthor        = "threads"
	DefaultEmail         = "threads@local"

	initMarker = ".threads-init"
)

// SnapshotFiles are the worktree paths tracked by snapshot history.
var SnapshotFiles = []string{
	"contexts.json",
	"memories.json",
	"branches.json",
	"config.yaml",
}

// Commit is one recorded generation of the snapshot files.
type Commit struct {
	Hash      string
	Message   string
	Author    string
	Timestamp time.Time
	Parents   []string
}

// History versions the snapshot files of one storage directory in a git
// repository whose object store lives under the directory itself. It is an
// optional layer on top of the full-rewrite snapshot persistence; the engine
// never depends on it.
type History struct {
	repo     *git.Repository
	worktree *git.Worktree
	scope    Scope
}

func NewHistory(scope Scope) (*History, error) {
	if _, err := os.Stat(scope.HistoryPath()); os.IsNotExist(err) {
		return nil, fmt.Errorf("history not initialized: %s", scope.HistoryPath())
	}

	fs := osfs.New(scope.HistoryPath())
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(scope.StorePath)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	return &History{repo: repo, worktree: worktree, scope: scope}, nil
}

// InitHistory creates the history repository for a storage directory and
// records an initial commit.
func InitHistory(scope Scope) error {
	if err := os.MkdirAll(scope.HistoryPath(), 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	fs := osfs.New(scope.HistoryPath())
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(scope.StorePath)

	repo, err := git.Init(storage, wt)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}
	cfg.Init.DefaultBranch = DefaultHistoryBranch
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("set config: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	markerPath := filepath.Join(scope.StorePath, initMarker)
	if err := os.WriteFile(markerPath, []byte("threads store initialized\n"), 0644); err != nil {
		return fmt.Errorf("write init marker: %w", err)
	}

	if _, err := worktree.Add(initMarker); err != nil {
		return fmt.Errorf("stage init marker: %w", err)
	}

	if _, err := worktree.Commit("init: initialize threads store", &git.CommitOptions{
		Author: signature(),
	}); err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	return nil
}

// Commit stages the snapshot files and records one commit. Returns
// git.ErrEmptyCommit wrapped when nothing changed since the last commit.
func (h *History) Commit(message string) (*Commit, error) {
	for _, name := range SnapshotFiles {
		if _, err := os.Stat(filepath.Join(h.scope.StorePath, name)); err != nil {
			continue
		}
		if _, err := h.worktree.Add(name); err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
	}

	hash, err := h.worktree.Commit(message, &git.CommitOptions{
		Author: signature(),
	})
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	return toCommit(commit), nil
}

// Log returns the newest commits first, up to limit (0 means all).
func (h *History) Log(limit int) ([]*Commit, error) {
	iter, err := h.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var commits []*Commit
	count := 0

	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && count >= limit {
			return io.EOF
		}
		commits = append(commits, toCommit(c))
		count++
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	return commits, nil
}

// Diff renders changes to the snapshot files: against HEAD when ref is empty,
// or between ref and HEAD otherwise.
func (h *History) Diff(ref string) (string, error) {
	if ref == "" {
		return h.diffWorktreeVsHead()
	}
	return h.diffHeadVsRef(ref)
}

func (h *History) diffWorktreeVsHead() (string, error) {
	headTree, err := h.headTree()
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	var buf strings.Builder

	for _, name := range SnapshotFiles {
		var oldContent string
		if f, err := headTree.File(name); err == nil {
			oldContent, _ = f.Contents()
		}

		var newContent string
		if data, err := os.ReadFile(filepath.Join(h.scope.StorePath, name)); err == nil {
			newContent = string(data)
		}

		if oldContent == newContent {
			continue
		}

		fmt.Fprintf(&buf, "--- a/%s\n+++ b/%s\n", name, name)
		writeLineDiff(&buf, dmp, oldContent, newContent)
	}

	return buf.String(), nil
}

// writeLineDiff renders a line-based -/+ diff between two file versions.
func writeLineDiff(buf *strings.Builder, dmp *diffmatchpatch.DiffMatchPatch, before, after string) {
	oldChars, newChars, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			fmt.Fprintf(buf, "%s%s\n", prefix, line)
		}
	}
}

func (h *History) diffHeadVsRef(ref string) (string, error) {
	headTree, err := h.headTree()
	if err != nil {
		return "", err
	}

	resolved, err := h.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolve ref: %w", err)
	}

	targetCommit, err := h.repo.CommitObject(*resolved)
	if err != nil {
		return "", fmt.Errorf("get target commit: %w", err)
	}

	targetTree, err := targetCommit.Tree()
	if err != nil {
		return "", fmt.Errorf("get target tree: %w", err)
	}

	changes, err := targetTree.Diff(headTree)
	if err != nil {
		return "", fmt.Errorf("diff trees: %w", err)
	}

	patch, err := changes.Patch()
	if err != nil {
		return "", fmt.Errorf("get patch: %w", err)
	}

	return patch.String(), nil
}

// Revert hard-resets the snapshot files to the given commit. Callers must
// rebuild their Engine afterwards to pick up the restored state.
func (h *History) Revert(ref string) error {
	resolved, err := h.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("resolve ref: %w", err)
	}

	if err := h.worktree.Reset(&git.ResetOptions{
		Commit: *resolved,
		Mode:   git.HardReset,
	}); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	return nil
}

func (h *History) headTree() (*object.Tree, error) {
	head, err := h.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}

	headCommit, err := h.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("get HEAD commit: %w", err)
	}

	tree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get HEAD tree: %w", err)
	}

	return tree, nil
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  DefaultAuthor,
		Email: DefaultEmail,
		When:  time.Now(),
	}
}

func toCommit(c *object.Commit) *Commit {
	var parents []string
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}

	return &Commit{
		Hash:      c.Hash.String(),
		Message:   strings.TrimSpace(c.Message),
		Author:    c.Author.Name,
		Timestamp: c.Author.When,
		Parents:   parents,
	}
}
