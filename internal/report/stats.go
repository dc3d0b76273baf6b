package report

import (
	"cmp"
	"slices"
	"strings"
)

// Count is one bucket of a breakdown.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds the aggregate counts shown above the issue table.
type Summary struct {
	Total      int     `json:"total_issues"`
	ByPriority []Count `json:"by_priority"`
	ByStatus   []Count `json:"by_status"`
	ByReporter []Count `json:"by_reporter"`
}

// Summarize counts rows per priority, status and reporter. Buckets are ordered by count descending,
// then by name.
func Summarize(rows RowSet) Summary {
	return Summary{
		Total:      len(rows),
		ByPriority: countBy(rows, func(r Row) string { return r.Priority }),
		ByStatus:   countBy(rows, func(r Row) string { return r.Status }),
		ByReporter: countBy(rows, func(r Row) string { return r.Reporter }),
	}
}

func countBy(rows RowSet, key func(Row) string) []Count {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[key(r)]++
	}
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Top returns the largest bucket, if any.
func Top(counts []Count) (Count, bool) {
	if len(counts) == 0 {
		return Count{}, false
	}
	return counts[0], true
}

// Limit truncates a breakdown to its first n buckets.
func Limit(counts []Count, n int) []Count {
	if len(counts) <= n {
		return counts
	}
	return counts[:n]
}

// FirstName shortens a display name for compact metric cards.
func FirstName(name string) string {
	if first, _, ok := strings.Cut(name, " "); ok {
		return first
	}
	return name
}
