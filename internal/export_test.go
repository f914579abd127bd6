package internal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestExportContextJSON(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	id := contexts.Create("infra", "ops stuff", []string{"infra"}, nil)
	contexts.Switch(id)
	contexts.UpdateSummary("we discussed deploys", []string{"deploys are risky"})

	out, err := contexts.ExportContext(id, FormatJSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var c Context
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}
	if c.ID != id || c.Name != "infra" || c.ConversationSummary != "we discussed deploys" {
		t.Errorf("exported record = %+v", c)
	}
}

func TestExportContextMarkdown(t *testing.T) {
	contexts, _ := newTestRegistry(t)

	id := contexts.Create("infra", "ops stuff", []string{"infra", "ops"}, map[string]any{"owner": "me"})
	contexts.Switch(id)
	contexts.UpdateSummary("we discussed deploys", []string{"deploys are risky"})

	out, err := contexts.ExportContext(id, FormatMarkdown)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	for _, want := range []string{
		"# infra",
		"**Description**: ops stuff",
		"**Tags**: `infra`, `ops`",
		"## Summary\n\nwe discussed deploys",
		"- deploys are risky",
		"## Metadata",
		"- **owner**: me",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestExportBranchMarkdown(t *testing.T) {
	tree, _ := newTestTree(t)

	parent := tree.Create("main", "", "", nil, nil)
	id, err := tree.Fork("feature", parent, false)
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	tree.AppendMessage(RoleUser, "hello", id)
	tree.AppendMessage(RoleAssistant, "hi there", id)
	tree.Archive(id)

	out, err := tree.ExportBranch(id, FormatMarkdown)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	for _, want := range []string{
		"# feature",
		"**Status**: Archived",
		"**Parent Branch**: main",
		"## Messages (2)",
		"**User**",
		"hello",
		"**Assistant**",
		"hi there",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestExportBranchJSON(t *testing.T) {
	tree, _ := newTestTree(t)

	id := tree.Create("main", "", "", []string{"keep"}, nil)
	tree.AppendMessage(RoleUser, "hello", id)

	out, err := tree.ExportBranch(id, FormatJSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var b ConversationBranch
	if err := json.Unmarshal([]byte(out), &b); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}
	if b.ID != id || len(b.Messages) != 1 {
		t.Errorf("exported record = %+v", b)
	}
}

func TestExportUnknownEntity(t *testing.T) {
	contexts, _ := newTestRegistry(t)
	if _, err := contexts.ExportContext("ctx_missing", FormatJSON); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	tree, _ := newTestTree(t)
	if _, err := tree.ExportBranch("branch_missing", FormatJSON); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	contexts, _ := newTestRegistry(t)
	id := contexts.Create("infra", "", nil, nil)

	if _, err := contexts.ExportContext(id, "xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}
