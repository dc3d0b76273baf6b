package jira

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MinResults = 10
	MaxResults = 500

	// ClarificationMarker is the summary phrase that identifies tasks awaiting requirement clarification.
	ClarificationMarker = "clarification"
)

// FilterSelection is the set of filter choices made in the UI for one fetch.
type FilterSelection struct {
	IssueTypes        []string `json:"issue_types,omitempty"`
	Statuses          []string `json:"statuses,omitempty"`
	Priorities        []string `json:"priorities,omitempty"`
	Reporters         []string `json:"reporters,omitempty"`
	StartDate         string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NoSprintOnly      bool     `json:"no_sprint_only,omitempty"`
	ClarificationOnly bool     `json:"clarification_only,omitempty"`
	SummarySearch     string   `json:"summary_search,omitempty" validate:"max=1000"`
	MaxResults        int      `json:"max_results" validate:"min=10,max=500"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the selection's shape. Allowed lists are optional; a nil list skips membership checks.
func (s FilterSelection) Validate(allowedTypes, allowedStatuses, allowedPriorities []string) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{Field: fe.Field(), Reason: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value())}
		}
		return &ValidationError{Field: "selection", Reason: err.Error()}
	}
	if s.StartDate != "" && s.EndDate != "" && s.StartDate > s.EndDate {
		return &ValidationError{Field: "EndDate", Reason: "end date is before start date"}
	}
	for _, c := range []struct {
		field   string
		values  []string
		allowed []string
	}{
		{"IssueTypes", s.IssueTypes, allowedTypes},
		{"Statuses", s.Statuses, allowedStatuses},
		{"Priorities", s.Priorities, allowedPriorities},
	} {
		if c.allowed == nil {
			continue
		}
		var invalid []string
		for _, v := range c.values {
			if !slices.Contains(c.allowed, v) {
				invalid = append(invalid, v)
			}
		}
		if len(invalid) > 0 {
			return &ValidationError{Field: c.field, Reason: "unknown values: " + strings.Join(invalid, ", ")}
		}
	}
	return nil
}

// DefaultSelection mirrors the dashboard's initial filter state.
func DefaultSelection() FilterSelection {
	return FilterSelection{
		IssueTypes:   []string{"Bug", "Task"},
		Statuses:     []string{"To Do", "Ready for Dev"},
		Priorities:   []string{"P0", "P1", "P2"},
		NoSprintOnly: true,
		MaxResults:   100,
	}
}

// ClampMaxResults forces n into [MinResults, MaxResults].
func ClampMaxResults(n int) int {
	return max(MinResults, min(MaxResults, n))
}

type clause struct {
	field string
	text  string
}

// BuildJQL composes the JQL for a selection. It is pure and total.
func BuildJQL(projectKey string, sel FilterSelection) string {
	clauses := []clause{{field: "project", text: "project = " + projectKey}}

	if c, ok := inClause("type", sel.IssueTypes); ok {
		clauses = append(clauses, c)
	}
	if c, ok := inClause("status", expandStatuses(sel.Statuses)); ok {
		clauses = append(clauses, c)
	}
	if c, ok := inClause("priority", sel.Priorities); ok {
		clauses = append(clauses, c)
	}
	if sel.NoSprintOnly {
		clauses = append(clauses, clause{field: "sprint", text: "sprint is EMPTY"})
	}
	if sel.SummarySearch != "" {
		clauses = append(clauses, clause{field: "summary", text: "summary ~ " + quote(sel.SummarySearch)})
	}

	// Clarification replaces whatever type/status the user picked.
	if sel.ClarificationOnly {
		clauses = slices.DeleteFunc(clauses, func(c clause) bool {
			return c.field == "type" || c.field == "status"
		})
		clauses = append(clauses,
			clause{field: "status", text: `status IN ("01_To Do", "To Do", "Ready For Dev")`},
			clause{field: "type", text: "type = Task"},
			clause{field: "summary", text: `summary ~ "` + ClarificationMarker + `"`},
		)
	}

	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.text
	}

	order := "priority ASC, created DESC"
	if sel.ClarificationOnly {
		order = "rank"
	}
	return strings.Join(parts, " AND ") + " ORDER BY " + order
}

// ProjectUsersJQL is the broad query used to discover reporters.
func ProjectUsersJQL(projectKey string) string {
	return fmt.Sprintf("project = %s ORDER BY created DESC", projectKey)
}

func inClause(field string, values []string) (clause, bool) {
	switch len(values) {
	case 0:
		return clause{}, false
	case 1:
		return clause{field: field, text: fmt.Sprintf("%s = %s", field, quote(values[0]))}, true
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return clause{field: field, text: fmt.Sprintf("%s IN (%s)", field, strings.Join(quoted, ", "))}, true
}

// "To Do" exists under two names after the tracker migration.
func expandStatuses(statuses []string) []string {
	var out []string
	for _, s := range statuses {
		if s == "To Do" {
			out = append(out, "01_To Do", "To Do")
			continue
		}
		out = append(out, s)
	}
	return out
}

var jqlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")

func quote(v string) string {
	return `"` + jqlEscaper.Replace(v) + `"`
}

var projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,9}$`)

// ValidateProjectKey checks the project key format (2-10 uppercase alphanumerics).
func ValidateProjectKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "project key", Reason: "cannot be empty"}
	}
	if !projectKeyPattern.MatchString(key) {
		return &ValidationError{Field: "project key", Reason: "must be 2-10 uppercase alphanumeric characters"}
	}
	return nil
}

// DateRangeLastDays returns the default dashboard date range ending today.
func DateRangeLastDays(now time.Time, days int) (string, string) {
	return now.AddDate(0, 0, -days).Format("2006-01-02"), now.Format("2006-01-02")
}
