package report

import (
	"errors"
	"slices"

	"jira-extract/internal/jira"
	"jira-extract/internal/metrics"

	"github.com/rs/zerolog/log"
)

const (
	defaultReporter = "Unknown"
	defaultPriority = "None"
	defaultStatus   = "Unknown"
)

var priorityRank = map[string]int{"P0": 0, "P1": 1, "P2": 2, "P3": 3, "P4": 4, "None": 5}

// PriorityRank returns the sort rank for a priority name; unmapped names rank with "None".
func PriorityRank(p string) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[defaultPriority]
}

var errEmptyKey = errors.New("issue has no key")

// Normalize converts raw issues into rows sorted by priority. Issues that cannot be extracted are
// logged and skipped; the result is never nil.
func Normalize(issues []jira.RawIssue, baseURL string) RowSet {
	rows := make(RowSet, 0, len(issues))
	if len(issues) == 0 {
		log.Warn().Msg("No issues provided for processing")
		return rows
	}

	for i, raw := range issues {
		row, err := MapIssue(raw, baseURL)
		if err != nil {
			metrics.RowsSkipped.Inc()
			log.Error().Err(err).Int("index", i).Msg("Error processing issue")
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		log.Warn().Msg("No data was successfully processed")
		return rows
	}

	SortByPriority(rows)
	log.Info().Int("count", len(rows)).Msg("Successfully processed issues")
	return rows
}

// MapIssue extracts one row. All nested objects are optional and fall back to defaults.
func MapIssue(raw jira.RawIssue, baseURL string) (Row, error) {
	dto, err := jira.DecodeIssue(raw)
	if err != nil {
		return Row{}, err
	}
	if dto.Key == "" {
		return Row{}, errEmptyKey
	}
	f := dto.Fields

	row := Row{
		IssueKey:    dto.Key,
		IssueURL:    BrowseURL(baseURL, dto.Key),
		Summary:     f.Summary,
		Reporter:    defaultReporter,
		Priority:    defaultPriority,
		Status:      defaultStatus,
		CreatedDate: CreatedDate(f.Created),
	}

	if f.Parent != nil {
		row.EpicKey = f.Parent.Key
		row.EpicURL = BrowseURL(baseURL, f.Parent.Key)
	}
	if f.Reporter != nil && f.Reporter.DisplayName != "" {
		row.Reporter = f.Reporter.DisplayName
	}
	if f.Priority != nil && f.Priority.Name != "" {
		row.Priority = f.Priority.Name
	}
	if f.Status != nil && f.Status.Name != "" {
		row.Status = f.Status.Name
	}

	return row, nil
}

// BrowseURL builds <baseURL>/browse/<key>, or "" when either part is missing.
func BrowseURL(baseURL, key string) string {
	if baseURL == "" || key == "" {
		return ""
	}
	return baseURL + "/browse/" + key
}

// CreatedDate turns a Jira timestamp into YYYY-MM-DD, falling back to the raw prefix.
func CreatedDate(created string) string {
	if created == "" {
		return ""
	}
	if t, err := jira.ParseTime(created); err == nil {
		return t.Format("2006-01-02")
	}
	if len(created) >= 10 {
		return created[:10]
	}
	return ""
}

// SortByPriority stable-sorts rows in place by priority rank.
func SortByPriority(rows RowSet) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return PriorityRank(a.Priority) - PriorityRank(b.Priority)
	})
}
