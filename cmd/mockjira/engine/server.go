package engine

import (
	"encoding/json"
	"net/http"

	"jira-extract/internal/jira"

	"github.com/gorilla/mux"
)

// NewServer serves the two Jira Cloud endpoints the client uses, backed by generated issues.
func NewServer(projectKey string, issues []Issue) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/rest/api/3/search/jql", func(w http.ResponseWriter, req *http.Request) {
		var body jira.SearchRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, `{"errorMessages":["Invalid request payload"]}`, http.StatusBadRequest)
			return
		}

		resp := jira.SearchResponse{Issues: []jira.RawIssue{}, IsLast: true}
		for _, it := range issues {
			if body.MaxResults > 0 && len(resp.Issues) >= body.MaxResults {
				resp.IsLast = false
				break
			}
			if Match(body.JQL, it) {
				resp.Issues = append(resp.Issues, it.Raw)
			}
		}
		writeJSON(w, resp)
	}).Methods(http.MethodPost)

	r.HandleFunc("/rest/api/3/project/{key}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["key"] != projectKey {
			http.Error(w, `{"errorMessages":["No project could be found"]}`, http.StatusNotFound)
			return
		}
		types := make([]jira.NamedDTO, len(issueTypes))
		for i, t := range issueTypes {
			types[i] = jira.NamedDTO{Name: t}
		}
		writeJSON(w, jira.ProjectDTO{Key: projectKey, Name: "Mock " + projectKey, IssueTypes: types})
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
