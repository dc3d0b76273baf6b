package jira

import (
	"encoding/json"
	"errors"
	"time"
)

// SearchRequest is the body of POST /rest/api/3/search/jql.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

// SearchResponse is the top-level container for Jira search results. Issues are kept raw so a single
// malformed record can be skipped without failing the whole page.
type SearchResponse struct {
	Issues        []RawIssue `json:"issues"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
	IsLast        bool       `json:"isLast"`
}

// RawIssue is one undecoded element of the search response's issues array.
type RawIssue = json.RawMessage

// IssueDTO represents a single issue in the Jira search response.
type IssueDTO struct {
	Key    string     `json:"key"`
	Fields *FieldsDTO `json:"fields"`
}

// FieldsDTO contains the specific fields we request. Every nested object is optional.
type FieldsDTO struct {
	Summary  string     `json:"summary"`
	Status   *NamedDTO  `json:"status"`
	Priority *NamedDTO  `json:"priority"`
	Reporter *UserDTO   `json:"reporter"`
	Parent   *ParentDTO `json:"parent"`
	Created  string     `json:"created"`
}

// NamedDTO is any Jira entity identified by a name (status, priority, issue type).
type NamedDTO struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// UserDTO is the reporter object.
type UserDTO struct {
	AccountID   string `json:"accountId,omitempty"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name,omitempty"`
}

// ParentDTO is the minimal epic/story reference for the parent field.
type ParentDTO struct {
	Key    string `json:"key"`
	Fields *struct {
		Summary string `json:"summary"`
	} `json:"fields,omitempty"`
}

// ProjectDTO is the subset of GET /rest/api/3/project/{key} we read.
type ProjectDTO struct {
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	IssueTypes []NamedDTO `json:"issueTypes"`
}

var ErrMissingFields = errors.New("issue has no fields object")

// DecodeIssue decodes one raw issue. An issue without a fields object is rejected.
func DecodeIssue(raw RawIssue) (IssueDTO, error) {
	var dto IssueDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return IssueDTO{}, err
	}
	if dto.Fields == nil {
		return dto, ErrMissingFields
	}
	return dto, nil
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseTime parses the timestamp formats Jira emits for created/updated.
func ParseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
