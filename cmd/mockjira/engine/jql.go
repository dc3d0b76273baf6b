package engine

import (
	"regexp"
	"slices"
	"strings"
)

var quotedValue = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

// Match applies the subset of JQL the dashboard emits: type/status/priority membership, sprint emptiness
// and summary containment. Unknown clauses match everything.
func Match(jql string, it Issue) bool {
	where, _, _ := strings.Cut(jql, " ORDER BY ")
	for _, clause := range strings.Split(where, " AND ") {
		clause = strings.TrimSpace(clause)
		field, _, _ := strings.Cut(clause, " ")
		switch strings.ToLower(field) {
		case "type":
			if !inValues(clause, it.Type) {
				return false
			}
		case "status":
			if !inValues(clause, it.Status) {
				return false
			}
		case "priority":
			if !inValues(clause, it.Priority) {
				return false
			}
		case "sprint":
			if strings.HasSuffix(clause, "is EMPTY") && it.InSprint {
				return false
			}
		case "summary":
			vals := values(clause)
			if len(vals) == 1 && !strings.Contains(strings.ToLower(it.Summary), strings.ToLower(vals[0])) {
				return false
			}
		}
	}
	return true
}

func values(clause string) []string {
	var out []string
	for _, m := range quotedValue.FindAllStringSubmatch(clause, -1) {
		out = append(out, strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(m[1]))
	}
	if len(out) == 0 {
		// Unquoted single value, e.g. type = Task.
		if _, v, ok := strings.Cut(clause, "="); ok {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

func inValues(clause, v string) bool {
	return slices.ContainsFunc(values(clause), func(s string) bool { return strings.EqualFold(s, v) })
}
