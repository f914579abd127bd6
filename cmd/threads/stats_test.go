package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStatsText(t *testing.T) {
	a, _ := newTestApp(t)

	execute(t, a, "context", "new", "infra", "--switch")
	execute(t, a, "memory", "add", "deploys happen on friday")
	execute(t, a, "branch", "new", "main")
	execute(t, a, "msg", "user", "hello")

	out := execute(t, a, "stats")
	for _, want := range []string{
		"Contexts:  1",
		"Memories:  1",
		"Branches:  1 active, 0 archived",
		"Messages:  1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestStatsJSON(t *testing.T) {
	a, _ := newTestApp(t)

	execute(t, a, "branch", "new", "main")

	out := execute(t, a, "stats", "--json")
	var parsed map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("stats --json is not valid json: %v\n%s", err, out)
	}
	if parsed["branches"]["total_branches"].(float64) != 1 {
		t.Errorf("branches stats = %v", parsed["branches"])
	}
}
