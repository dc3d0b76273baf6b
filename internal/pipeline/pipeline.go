package pipeline

import (
	"context"
	"fmt"
	"time"

	"jira-extract/internal/jira"
	"jira-extract/internal/metrics"
	"jira-extract/internal/report"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of one fetch. An empty Rows with a nil error means nothing matched.
type Result struct {
	JQL       string
	Fetched   int
	Rows      report.RowSet
	FetchedAt time.Time
}

// Fetcher runs the query → normalize → filter chain against one project.
// Callers are expected to have authenticated the user before invoking it.
type Fetcher struct {
	Client jira.Client
}

// New builds a Fetcher around a Jira client.
func New(client jira.Client) *Fetcher {
	return &Fetcher{Client: client}
}

// Fetch validates the selection, executes it and returns the filtered rows. Gateway failures are
// returned unchanged (as *jira.APIError) and never retried.
func (f *Fetcher) Fetch(ctx context.Context, sel jira.FilterSelection) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}()

	if err := sel.Validate(nil, nil, nil); err != nil {
		return nil, err
	}

	jql := jira.BuildJQL(f.Client.ProjectKey(), sel)
	issues, err := f.Client.SearchIssues(ctx, jql, sel.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	res := &Result{JQL: jql, Fetched: len(issues), FetchedAt: time.Now()}
	if len(issues) == 0 {
		res.Rows = report.RowSet{}
		metrics.RowsReturned.Observe(0)
		return res, nil
	}

	rows := report.Normalize(issues, f.Client.BaseURL())
	if cf := ClientFilter(sel); cf.Active() {
		rows = cf.Apply(rows)
	}
	res.Rows = rows

	metrics.RowsReturned.Observe(float64(len(res.Rows)))
	log.Info().Int("fetched", res.Fetched).Int("rows", len(res.Rows)).Msg("Fetched issues from Jira")
	return res, nil
}

// ClientFilter is the part of a selection that JQL does not encode. Summary search and the
// clarification filter are already pushed into the query. An empty reporter list means "all".
func ClientFilter(sel jira.FilterSelection) report.Filter {
	var reporters []string
	if len(sel.Reporters) > 0 {
		reporters = sel.Reporters
	}
	return report.Filter{
		Reporters: reporters,
		StartDate: sel.StartDate,
		EndDate:   sel.EndDate,
	}
}
