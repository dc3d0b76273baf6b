package jira

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

const projectUsersLimit = 1000

var (
	defaultIssueTypes = []string{"Bug", "Task", "Story", "Epic"}

	defaultStatuses = []string{
		"To Do",
		"Ready for Dev",
		"In Progress",
		"Dev in Progress",
		"In Review",
		"Ready for QA",
		"In QA",
		"QA Blocked",
		"Ready for UAT",
		"Done",
		"Closed",
	}

	defaultPriorities = []string{"P0", "P1", "P2", "P3", "P4", "None"}

	defaultQATeam = []string{
		"Chinthaka Somarathna",
		"Madushika Deshappriya",
		"Pasindu Hashara Liyanage",
		"Rukshani Jayathilaka",
		"Ushan Jayakody",
	}
)

// DefaultQATeam is the fallback reporter list and the "QA Team Only" preset.
func DefaultQATeam() []string { return slices.Clone(defaultQATeam) }

// GetIssueTypes asks Jira for the project's issue types, falling back to a static list.
func (c *cloudClient) GetIssueTypes(ctx context.Context) []string {
	project, err := c.GetProject(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get issue types from API")
		return slices.Clone(defaultIssueTypes)
	}

	types := make([]string, 0, len(project.IssueTypes))
	for _, it := range project.IssueTypes {
		if it.Name != "" {
			types = append(types, it.Name)
		}
	}
	if len(types) == 0 {
		return slices.Clone(defaultIssueTypes)
	}
	log.Info().Int("count", len(types)).Msg("Retrieved issue types")
	return types
}

func (c *cloudClient) GetStatuses() []string { return slices.Clone(defaultStatuses) }

func (c *cloudClient) GetPriorities() []string { return slices.Clone(defaultPriorities) }

// GetProjectUsers derives the project's active users from the reporters of recent issues.
// There is no reliable member-listing endpoint, so this runs a broad search instead.
func (c *cloudClient) GetProjectUsers(ctx context.Context) []string {
	issues, err := c.searchInternal(ctx, ProjectUsersJQL(c.cfg.ProjectKey), projectUsersLimit, []string{"reporter"})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get project users from API")
		return DefaultQATeam()
	}

	users := UniqueReporters(issues)
	log.Info().Int("count", len(users)).Str("project", c.cfg.ProjectKey).Msg("Retrieved unique reporters")
	if len(users) == 0 {
		return DefaultQATeam()
	}
	log.Debug().Str("reporters", strings.Join(users, ", ")).Msg("Reporter list")
	return users
}

// UniqueReporters extracts distinct, sorted reporter names, skipping undecodable issues.
func UniqueReporters(issues []RawIssue) []string {
	seen := make(map[string]struct{})
	for _, raw := range issues {
		var item struct {
			Fields struct {
				Reporter *UserDTO `json:"reporter"`
			} `json:"fields"`
		}
		if err := json.Unmarshal(raw, &item); err != nil || item.Fields.Reporter == nil {
			continue
		}
		name := item.Fields.Reporter.DisplayName
		if name == "" {
			name = item.Fields.Reporter.Name
		}
		if name == "" || name == "Unknown" {
			continue
		}
		seen[name] = struct{}{}
	}

	users := make([]string, 0, len(seen))
	for name := range seen {
		users = append(users, name)
	}
	slices.Sort(users)
	return users
}
