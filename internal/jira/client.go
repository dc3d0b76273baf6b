package jira

import (
	"context"
	"time"
)

// Client is the interface for interacting with Jira.
type Client interface {
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]RawIssue, error)
	GetProject(ctx context.Context) (*ProjectDTO, error)
	GetProjectUsers(ctx context.Context) []string
	GetIssueTypes(ctx context.Context) []string
	GetStatuses() []string
	GetPriorities() []string
	ProjectKey() string
	BaseURL() string
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	CloudID    string
	ProjectKey string
	BaseURL    string

	// Basic auth; both must be set for authenticated calls.
	Email    string
	APIToken string

	// Performance Settings
	RequestDelay time.Duration
	Timeout      time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewCloudClient(cfg)
}
