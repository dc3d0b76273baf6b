package report

import (
	"slices"
	"strings"

	"jira-extract/internal/jira"
)

// Filter is the client-side filter chain. Every stage is optional and only narrows the set, so the
// stages commute. A nil allow-list means "no constraint"; an empty non-nil one admits nothing.
type Filter struct {
	Search     string
	Reporters  []string
	Priorities []string
	Statuses   []string
	StartDate  string
	EndDate    string

	// ClarificationMarker filters summaries locally instead of in JQL. The dashboard pushes the
	// clarification filter into the query; this stage exists for the client-side variant.
	ClarificationMarker bool
}

// Apply returns a new RowSet holding the rows that pass every active stage, in input order.
func (f Filter) Apply(rows RowSet) RowSet {
	out := make(RowSet, 0, len(rows))
	search := strings.ToLower(f.Search)
	for _, r := range rows {
		if search != "" && !containsFold(r.Summary, search) && !containsFold(r.IssueKey, search) {
			continue
		}
		if f.Reporters != nil && !slices.Contains(f.Reporters, r.Reporter) {
			continue
		}
		if f.Priorities != nil && !slices.Contains(f.Priorities, r.Priority) {
			continue
		}
		if f.Statuses != nil && !slices.Contains(f.Statuses, r.Status) {
			continue
		}
		// YYYY-MM-DD is fixed width, so string order is date order.
		if f.StartDate != "" && r.CreatedDate < f.StartDate {
			continue
		}
		if f.EndDate != "" && r.CreatedDate > f.EndDate {
			continue
		}
		if f.ClarificationMarker && !containsFold(r.Summary, jira.ClarificationMarker) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Active reports whether any stage would run.
func (f Filter) Active() bool {
	return f.Search != "" || f.Reporters != nil || f.Priorities != nil || f.Statuses != nil ||
		f.StartDate != "" || f.EndDate != "" || f.ClarificationMarker
}

// Search is a shorthand for the free-text stage alone.
func Search(rows RowSet, term string) RowSet {
	return Filter{Search: term}.Apply(rows)
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
