package pipeline

import (
	"context"
	"errors"
	"testing"

	"jira-extract/internal/jira"

	"github.com/google/go-cmp/cmp"
)

type fakeClient struct {
	issues   []jira.RawIssue
	err      error
	gotJQL   string
	gotLimit int
	calls    int
}

func (f *fakeClient) SearchIssues(_ context.Context, jql string, maxResults int) ([]jira.RawIssue, error) {
	f.calls++
	f.gotJQL, f.gotLimit = jql, maxResults
	return f.issues, f.err
}
func (f *fakeClient) GetProject(context.Context) (*jira.ProjectDTO, error) { return &jira.ProjectDTO{}, nil }
func (f *fakeClient) GetProjectUsers(context.Context) []string             { return nil }
func (f *fakeClient) GetIssueTypes(context.Context) []string               { return nil }
func (f *fakeClient) GetStatuses() []string                                { return nil }
func (f *fakeClient) GetPriorities() []string                              { return nil }
func (f *fakeClient) ProjectKey() string                                   { return "IBNU" }
func (f *fakeClient) BaseURL() string                                      { return "https://x.atlassian.net" }

func issue(key, prio, reporter, created string) jira.RawIssue {
	return jira.RawIssue(`{"key":"` + key + `","fields":{"priority":{"name":"` + prio + `"},"reporter":{"displayName":"` + reporter + `"},"created":"` + created + `"}}`)
}

func TestFetch_EndToEnd(t *testing.T) {
	client := &fakeClient{issues: []jira.RawIssue{
		issue("IBNU-1", "P1", "Ann", "2024-03-10T09:00:00.000+0000"),
		issue("IBNU-2", "P0", "Ben", "2024-03-15T09:00:00.000+0000"),
		issue("IBNU-3", "P0", "Ann", "2024-03-20T09:00:00.000+0000"),
		jira.RawIssue(`{"key":"IBNU-4"}`),
	}}

	sel := jira.FilterSelection{
		IssueTypes:   []string{"Bug"},
		Statuses:     []string{"To Do"},
		Priorities:   []string{"P0", "P1"},
		NoSprintOnly: true,
		Reporters:    []string{"Ann"},
		StartDate:    "2024-03-01",
		EndDate:      "2024-03-15",
		MaxResults:   100,
	}

	res, err := New(client).Fetch(context.Background(), sel)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	wantJQL := `project = IBNU AND type = "Bug" AND status IN ("01_To Do", "To Do") AND priority IN ("P0", "P1") AND sprint is EMPTY ORDER BY priority ASC, created DESC`
	if client.gotJQL != wantJQL || res.JQL != wantJQL {
		t.Errorf("JQL = %q", client.gotJQL)
	}
	if client.gotLimit != 100 {
		t.Errorf("maxResults = %d", client.gotLimit)
	}
	if res.Fetched != 4 {
		t.Errorf("Fetched = %d, want 4", res.Fetched)
	}

	var got []string
	for _, r := range res.Rows {
		got = append(got, r.IssueKey)
	}
	if diff := cmp.Diff([]string{"IBNU-1"}, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.Rows[0].IssueURL != "https://x.atlassian.net/browse/IBNU-1" {
		t.Errorf("IssueURL = %q", res.Rows[0].IssueURL)
	}
}

func TestFetch_NothingFound(t *testing.T) {
	res, err := New(&fakeClient{issues: []jira.RawIssue{}}).Fetch(context.Background(), jira.DefaultSelection())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Rows == nil || len(res.Rows) != 0 {
		t.Errorf("Rows = %#v, want empty", res.Rows)
	}
}

func TestFetch_GatewayErrorPropagates(t *testing.T) {
	apiErr := &jira.APIError{Kind: jira.KindAuth, StatusCode: 401, Message: "Authentication failed. Check your credentials."}
	client := &fakeClient{err: apiErr}

	_, err := New(client).Fetch(context.Background(), jira.DefaultSelection())
	if !errors.Is(err, apiErr) || !jira.IsKind(err, jira.KindAuth) {
		t.Fatalf("error = %v, want wrapped auth APIError", err)
	}
	if client.calls != 1 {
		t.Errorf("client called %d times, want 1", client.calls)
	}
}

func TestFetch_InvalidSelectionNeverHitsNetwork(t *testing.T) {
	client := &fakeClient{}
	sel := jira.DefaultSelection()
	sel.MaxResults = 5000

	_, err := New(client).Fetch(context.Background(), sel)
	var verr *jira.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *jira.ValidationError", err)
	}
	if client.calls != 0 {
		t.Errorf("client called %d times, want 0", client.calls)
	}
}

func TestClientFilter_EmptyReportersMeansAll(t *testing.T) {
	f := ClientFilter(jira.FilterSelection{Reporters: []string{}})
	if f.Reporters != nil {
		t.Errorf("Reporters = %#v, want nil", f.Reporters)
	}
	if f.Search != "" || f.ClarificationMarker {
		t.Error("JQL-pushed stages must not be repeated client-side")
	}
	if f.Active() {
		t.Error("empty reporter list and no dates should leave the filter inactive")
	}
}

func TestFetch_ReporterFilterNarrowsRows(t *testing.T) {
	client := &fakeClient{issues: []jira.RawIssue{
		issue("IBNU-1", "P1", "Ana Lopez", "2024-03-01T10:00:00.000+0000"),
		issue("IBNU-2", "P2", "Ben Ode", "2024-03-02T10:00:00.000+0000"),
	}}
	sel := jira.DefaultSelection()
	sel.Reporters = []string{"Ben Ode"}
	if !ClientFilter(sel).Active() {
		t.Fatal("reporter selection should activate the client filter")
	}

	res, err := New(client).Fetch(context.Background(), sel)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Fetched != 2 || len(res.Rows) != 1 || res.Rows[0].IssueKey != "IBNU-2" {
		t.Errorf("Fetched=%d rows=%+v", res.Fetched, res.Rows)
	}
}
