package internal

import (
	"sort"
	"strings"
	"time"
)

const (
	recencyWindow = 7 * 24 * time.Hour
	recencyBonus  = 0.5
)

// Field is one weighted candidate field for relevance scoring. Exactly one of
// Text or Values is consulted: a text field contributes Weight once on a
// substring match, a list field contributes Weight per matching element.
type Field struct {
	Text   string
	Values []string
	Weight float64
}

// Score computes the shared relevance score used by context lookup, memory
// search and branch search. The query is matched case-insensitively as a
// substring; entities touched within the recency window get a fixed bonus;
// extra is added verbatim (importance, message hits).
func Score(query string, fields []Field, recency time.Time, extra float64) float64 {
	queryLower := strings.ToLower(query)
	score := 0.0

	for _, f := range fields {
		if f.Values != nil {
			for _, v := range f.Values {
				if strings.Contains(strings.ToLower(v), queryLower) {
					score += f.Weight
				}
			}
			continue
		}
		if strings.Contains(strings.ToLower(f.Text), queryLower) {
			score += f.Weight
		}
	}

	if time.Since(recency) < recencyWindow {
		score += recencyBonus
	}

	return score + extra
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type scored[T any] struct {
	candidate T
	score     float64
}

// rank keeps candidates with positive scores and stable-sorts them by score
// descending, so ties retain the caller's iteration order.
func rank[T any](items []scored[T], limit int) []T {
	kept := items[:0]
	for _, it := range items {
		if it.score > 0 {
			kept = append(kept, it)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	out := make([]T, len(kept))
	for i, it := range kept {
		out[i] = it.candidate
	}
	return out
}
