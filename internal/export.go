package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportContext renders a context either as its full JSON record or as a
// human-oriented markdown report. Every persisted field appears in both.
func (r *ContextRegistry) ExportContext(id, format string) (string, error) {
	c, ok := r.contexts[id]
	if !ok {
		return "", fmt.Errorf("context %s: %w", id, ErrNotFound)
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal context: %w", err)
		}
		return string(data), nil
	case FormatMarkdown:
		return contextToMarkdown(c), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func contextToMarkdown(c *Context) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# %s\n\n", c.Name)
	fmt.Fprintf(&md, "**Description**: %s\n\n", c.Description)
	fmt.Fprintf(&md, "**Created**: %s\n", c.CreatedAt.Format(exportTimeLayout))
	fmt.Fprintf(&md, "**Updated**: %s\n\n", c.UpdatedAt.Format(exportTimeLayout))

	if len(c.Tags) > 0 {
		fmt.Fprintf(&md, "**Tags**: %s\n\n", backtickJoin(c.Tags))
	}
	if c.ModelUsed != "" || c.ProviderUsed != "" {
		fmt.Fprintf(&md, "**Model**: %s (%s)\n\n", c.ModelUsed, c.ProviderUsed)
	}

	if c.ConversationSummary != "" {
		fmt.Fprintf(&md, "## Summary\n\n%s\n\n", c.ConversationSummary)
	}

	if len(c.KeyPoints) > 0 {
		md.WriteString("## Key Points\n\n")
		for _, point := range c.KeyPoints {
			fmt.Fprintf(&md, "- %s\n", point)
		}
		md.WriteString("\n")
	}

	writeMetadata(&md, c.Metadata)

	return md.String()
}

// ExportBranch renders a branch either as its full JSON record or as a
// markdown transcript.
func (t *BranchTree) ExportBranch(id, format string) (string, error) {
	b, ok := t.branches[id]
	if !ok {
		return "", fmt.Errorf("branch %s: %w", id, ErrNotFound)
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal branch: %w", err)
		}
		return string(data), nil
	case FormatMarkdown:
		return t.branchToMarkdown(b), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func (t *BranchTree) branchToMarkdown(b *ConversationBranch) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# %s\n\n", b.Name)
	fmt.Fprintf(&md, "**Created**: %s\n", b.CreatedAt.Format(exportTimeLayout))
	fmt.Fprintf(&md, "**Updated**: %s\n", b.UpdatedAt.Format(exportTimeLayout))
	fmt.Fprintf(&md, "**Status**: %s\n", activeLabel(b.IsActive))
	fmt.Fprintf(&md, "**Context**: %s\n\n", b.ContextID)

	if b.ParentID != "" {
		if parent, ok := t.branches[b.ParentID]; ok {
			fmt.Fprintf(&md, "**Parent Branch**: %s\n\n", parent.Name)
		}
	}

	if len(b.Tags) > 0 {
		fmt.Fprintf(&md, "**Tags**: %s\n\n", backtickJoin(b.Tags))
	}

	if len(b.Messages) > 0 {
		fmt.Fprintf(&md, "## Messages (%d)\n\n", len(b.Messages))
		for _, msg := range b.Messages {
			fmt.Fprintf(&md, "**%s** (%s): %s\n\n", titleCase(msg.Role), msg.Timestamp.Format("15:04:05"), msg.Content)
		}
	}

	writeMetadata(&md, b.Metadata)

	return md.String()
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Archived"
}

func backtickJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "`" + v + "`"
	}
	return strings.Join(quoted, ", ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeMetadata(md *strings.Builder, metadata map[string]any) {
	if len(metadata) == 0 {
		return
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	md.WriteString("## Metadata\n\n")
	for _, k := range keys {
		fmt.Fprintf(md, "- **%s**: %v\n", k, metadata[k])
	}
}
