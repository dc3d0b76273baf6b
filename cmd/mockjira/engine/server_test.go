package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jira-extract/internal/jira"
)

func TestServerWithRealClient(t *testing.T) {
	issues := Generate(GeneratorConfig{ProjectKey: "QA", Count: 60, Seed: 5, Now: now})
	srv := httptest.NewServer(NewServer("QA", issues))
	defer srv.Close()

	client := jira.NewClient(jira.Config{
		ProjectKey:   "QA",
		BaseURL:      srv.URL,
		RequestDelay: time.Millisecond,
	})
	ctx := context.Background()

	sel := jira.FilterSelection{IssueTypes: []string{"Bug"}, MaxResults: 500}
	got, err := client.SearchIssues(ctx, jira.BuildJQL("QA", sel), sel.MaxResults)
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}

	want := 0
	for _, it := range issues {
		if it.Type == "Bug" {
			want++
		}
	}
	if len(got) != want {
		t.Errorf("got %d bugs, want %d", len(got), want)
	}

	limited, err := client.SearchIssues(ctx, "project = QA", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 10 {
		t.Errorf("maxResults not honoured: %d", len(limited))
	}

	types := client.GetIssueTypes(ctx)
	if len(types) != len(issueTypes) {
		t.Errorf("GetIssueTypes = %v", types)
	}
}

func TestServerUnknownProject(t *testing.T) {
	srv := httptest.NewServer(NewServer("QA", nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/rest/api/3/project/NOPE")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
