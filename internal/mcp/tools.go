package mcp

import (
	"context"
	"errors"

	"jira-extract/internal/jira"
	"jira-extract/internal/report"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// SearchInput mirrors the dashboard's filter form.
type SearchInput struct {
	IssueTypes        []string `json:"issue_types,omitempty" jsonschema:"issue types to include, e.g. Bug or Task"`
	Statuses          []string `json:"statuses,omitempty" jsonschema:"workflow statuses; To Do also matches 01_To Do"`
	Priorities        []string `json:"priorities,omitempty" jsonschema:"priorities such as P0 to P4"`
	Reporters         []string `json:"reporters,omitempty" jsonschema:"reporter display names; empty means all reporters"`
	StartDate         string   `json:"start_date,omitempty" jsonschema:"inclusive created date lower bound (YYYY-MM-DD)"`
	EndDate           string   `json:"end_date,omitempty" jsonschema:"inclusive created date upper bound (YYYY-MM-DD)"`
	NoSprintOnly      bool     `json:"no_sprint_only,omitempty" jsonschema:"only issues without a sprint"`
	ClarificationOnly bool     `json:"clarification_only,omitempty" jsonschema:"only tasks awaiting requirement clarification; overrides issue types and statuses"`
	SummarySearch     string   `json:"summary_search,omitempty" jsonschema:"text the summary must contain"`
	MaxResults        int      `json:"max_results,omitempty" jsonschema:"result cap between 10 and 500 (default 100)"`
}

func (in SearchInput) selection() jira.FilterSelection {
	sel := jira.FilterSelection{
		IssueTypes:        in.IssueTypes,
		Statuses:          in.Statuses,
		Priorities:        in.Priorities,
		Reporters:         in.Reporters,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		NoSprintOnly:      in.NoSprintOnly,
		ClarificationOnly: in.ClarificationOnly,
		SummarySearch:     in.SummarySearch,
		MaxResults:        in.MaxResults,
	}
	if sel.MaxResults == 0 {
		sel.MaxResults = jira.DefaultSelection().MaxResults
	}
	return sel
}

// SearchOutput is the tool result: the rows in priority order plus their breakdown.
type SearchOutput struct {
	JQL     string         `json:"jql"`
	Fetched int            `json:"fetched"`
	Rows    []report.Row   `json:"rows"`
	Summary report.Summary `json:"summary"`
}

// BuildJQLOutput returns the query without running it.
type BuildJQLOutput struct {
	JQL string `json:"jql"`
}

// FilterOptions lists the values the search tool accepts.
type FilterOptions struct {
	Project    string   `json:"project"`
	IssueTypes []string `json:"issue_types"`
	Statuses   []string `json:"statuses"`
	Priorities []string `json:"priorities"`
	Reporters  []string `json:"reporters"`
	QATeam     []string `json:"qa_team"`
}

type noInput struct{}

func (s *Server) registerTools() {
	mcp.AddTool(s.srv, &mcp.Tool{
		Name: "search_issues",
		Description: "Fetch issues from the configured Jira project using the QA dashboard filters. " +
			"Rows come back sorted by priority (P0 first) together with counts per priority, status and reporter. " +
			"Call 'list_filter_options' first to learn the valid issue types, statuses and priorities.",
	}, s.handleSearch)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "build_jql",
		Description: "Return the JQL the given filters would run, without contacting Jira.",
	}, s.handleBuildJQL)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "list_filter_options",
		Description: "List issue types, statuses, priorities and known reporters for the configured project.",
	}, s.handleListOptions)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	sel := in.selection()
	res, err := s.fetcher.Fetch(ctx, sel)
	if err != nil {
		log.Error().Err(err).Msg("search_issues failed")
		return nil, SearchOutput{}, toolError(err)
	}

	rows := res.Rows
	if rows == nil {
		rows = report.RowSet{}
	}
	return nil, SearchOutput{
		JQL:     res.JQL,
		Fetched: res.Fetched,
		Rows:    rows,
		Summary: report.Summarize(rows),
	}, nil
}

func (s *Server) handleBuildJQL(_ context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, BuildJQLOutput, error) {
	sel := in.selection()
	if err := sel.Validate(nil, nil, nil); err != nil {
		return nil, BuildJQLOutput{}, err
	}
	return nil, BuildJQLOutput{JQL: jira.BuildJQL(s.jira.ProjectKey(), sel)}, nil
}

func (s *Server) handleListOptions(ctx context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, FilterOptions, error) {
	return nil, FilterOptions{
		Project:    s.jira.ProjectKey(),
		IssueTypes: s.jira.GetIssueTypes(ctx),
		Statuses:   s.jira.GetStatuses(),
		Priorities: s.jira.GetPriorities(),
		Reporters:  s.jira.GetProjectUsers(ctx),
		QATeam:     jira.DefaultQATeam(),
	}, nil
}

// toolError keeps the user-facing part of gateway errors.
func toolError(err error) error {
	var apiErr *jira.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}
