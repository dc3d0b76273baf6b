package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetProjectUsers(t *testing.T) {
	var req SearchRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(`{"issues":[
			{"key":"QA-1","fields":{"reporter":{"displayName":"Zoe"}}},
			{"key":"QA-2","fields":{"reporter":{"displayName":"Adam"}}},
			{"key":"QA-3","fields":{"reporter":{"displayName":"Zoe"}}},
			{"key":"QA-4","fields":{"reporter":null}},
			{"key":"QA-5","fields":{"reporter":{"displayName":"Unknown"}}},
			{"key":"QA-6","fields":{"reporter":{"name":"legacy.user"}}},
			{"key":"QA-7","fields":"broken"}
		]}`))
	})

	got := c.GetProjectUsers(context.Background())
	want := []string{"Adam", "Zoe", "legacy.user"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetProjectUsers() mismatch (-want +got):\n%s", diff)
	}
	if req.JQL != "project = QA ORDER BY created DESC" || req.MaxResults != 1000 {
		t.Errorf("request = %+v", req)
	}
	if !slices.Equal(req.Fields, []string{"reporter"}) {
		t.Errorf("fields = %v", req.Fields)
	}
}

func TestGetProjectUsers_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"api failure", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) }},
		{"no reporters", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"issues":[]}`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			if diff := cmp.Diff(DefaultQATeam(), c.GetProjectUsers(context.Background())); diff != "" {
				t.Errorf("fallback mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetIssueTypes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"key":"QA","issueTypes":[{"name":"Bug"},{"name":"Improvement"}]}`))
	})
	if diff := cmp.Diff([]string{"Bug", "Improvement"}, c.GetIssueTypes(context.Background())); diff != "" {
		t.Errorf("GetIssueTypes() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetIssueTypes_Fallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	want := []string{"Bug", "Task", "Story", "Epic"}
	if diff := cmp.Diff(want, c.GetIssueTypes(context.Background())); diff != "" {
		t.Errorf("GetIssueTypes() mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticLookups(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("static lookups must not hit the network")
	})

	if got := c.GetPriorities(); !slices.Equal(got, []string{"P0", "P1", "P2", "P3", "P4", "None"}) {
		t.Errorf("GetPriorities() = %v", got)
	}
	statuses := c.GetStatuses()
	if len(statuses) != 11 || statuses[0] != "To Do" || statuses[10] != "Closed" {
		t.Errorf("GetStatuses() = %v", statuses)
	}

	// Callers must not be able to mutate the shared defaults.
	statuses[0] = "mutated"
	if c.GetStatuses()[0] != "To Do" {
		t.Error("GetStatuses() exposes shared backing array")
	}
}
