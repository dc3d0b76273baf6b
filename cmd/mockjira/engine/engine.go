package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"jira-extract/internal/jira"

	"github.com/natefinch/atomic"
)

type GeneratorConfig struct {
	ProjectKey string
	Scenario   string // "clean" or "messy"
	Count      int
	Seed       uint64
	Now        time.Time
}

var (
	issueTypes = []string{"Bug", "Task", "Story"}
	statuses   = []string{"01_To Do", "To Do", "Ready for Dev", "In Progress", "Ready for QA", "Done"}
	priorities = []string{"P0", "P1", "P2", "P3", "P4"}
	reporters  = []string{"Chinthaka Somarathna", "Madushika Deshappriya", "Ushan Jayakody", "Dana Developer", "Pat Product"}
	subjects   = []string{"Login", "Checkout", "Search", "Profile page", "Payment gateway", "Report export", "Notifications"}
	problems   = []string{"crashes on submit", "shows wrong totals", "needs clarification on rules", "is slow", "loses state", "rejects valid input"}
)

// Issue is a generated issue together with the facts the fake server filters on.
type Issue struct {
	Key      string
	Type     string
	Status   string
	Priority string
	Summary  string
	InSprint bool
	Raw      jira.RawIssue
}

// Generate builds Count issues, newest first. The messy scenario mixes in the shapes real projects produce:
// missing priorities and parents, reporters without display names, and a few records with no fields at all.
func Generate(cfg GeneratorConfig) []Issue {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.ProjectKey == "" {
		cfg.ProjectKey = "MOCK"
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	messy := cfg.Scenario == "messy"

	epics := []string{cfg.ProjectKey + "-1", cfg.ProjectKey + "-2", cfg.ProjectKey + "-3"}

	issues := make([]Issue, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		key := fmt.Sprintf("%s-%d", cfg.ProjectKey, 100+i)
		it := Issue{
			Key:      key,
			Type:     pick(rng, issueTypes),
			Status:   pick(rng, statuses),
			Priority: pick(rng, priorities),
			Summary:  pick(rng, subjects) + " " + pick(rng, problems),
			InSprint: rng.IntN(3) == 0,
		}

		fields := map[string]any{
			"summary":  it.Summary,
			"status":   map[string]any{"name": it.Status},
			"reporter": map[string]any{"displayName": pick(rng, reporters)},
			"created":  cfg.Now.Add(-time.Duration(i) * 7 * time.Hour).Format("2006-01-02T15:04:05.000-0700"),
		}
		if rng.IntN(2) == 0 {
			epic := pick(rng, epics)
			fields["parent"] = map[string]any{"key": epic, "fields": map[string]any{"summary": "Epic " + epic}}
		}
		fields["priority"] = map[string]any{"name": it.Priority}

		if messy {
			switch rng.IntN(10) {
			case 0:
				delete(fields, "priority")
				it.Priority = "None"
			case 1:
				fields["reporter"] = map[string]any{"accountId": "5b10a2844c20165700ede21g"}
			case 2:
				fields["created"] = "not-a-date"
			}
		}

		doc := map[string]any{"key": key, "fields": fields}
		if messy && rng.IntN(25) == 0 {
			doc = map[string]any{"key": key}
		}
		raw, _ := json.Marshal(doc)
		it.Raw = raw
		issues = append(issues, it)
	}
	return issues
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}

// Save writes the issues as a single search response so they can be replayed without the server.
func Save(outDir, projectKey string, issues []Issue) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	resp := jira.SearchResponse{IsLast: true, Issues: make([]jira.RawIssue, len(issues))}
	for i, it := range issues {
		resp.Issues[i] = it.Raw
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return "", err
	}

	path := filepath.Join(outDir, fmt.Sprintf("%s_search.json", projectKey))
	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", err
	}
	return path, nil
}
