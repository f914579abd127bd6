package main

import (
	"strings"
	"testing"
)

func TestMemoryAddAndSearch(t *testing.T) {
	a, _ := newTestApp(t)

	out := execute(t, a, "memory", "add", "Use tabs not spaces", "-i", "0.9", "-t", "style", "--type", "preference")
	if !strings.Contains(out, "Added memory mem_") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "(context global)") {
		t.Errorf("memory without current context must be global: %q", out)
	}

	out = execute(t, a, "memory", "search", "tabs")
	if !strings.Contains(out, "Use tabs not spaces") {
		t.Errorf("search output = %q", out)
	}
}

func TestMemoryAddToCurrentContext(t *testing.T) {
	a, _ := newTestApp(t)

	execute(t, a, "context", "new", "infra", "--switch")
	out := execute(t, a, "memory", "add", "deploys happen on friday")
	if !strings.Contains(out, "(context ctx_") {
		t.Errorf("memory must be owned by the current context: %q", out)
	}
}

func TestMemoryList(t *testing.T) {
	a, _ := newTestApp(t)

	execute(t, a, "memory", "add", "one")
	execute(t, a, "memory", "add", "two")

	out := execute(t, a, "memory", "list")
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Errorf("list output = %q", out)
	}
}
