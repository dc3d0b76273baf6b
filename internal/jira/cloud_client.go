package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jira-extract/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultRequestDelay is the minimum spacing between two outbound requests.
const DefaultRequestDelay = 500 * time.Millisecond

var searchFields = []string{"summary", "status", "priority", "reporter", "parent", "created"}

type cloudClient struct {
	cfg        Config
	httpClient *http.Client
	authHeader string

	// Burst of one: every call waits until RequestDelay has passed since the previous one.
	limiter *rate.Limiter
}

// NewCloudClient builds a Jira Cloud REST v3 client.
func NewCloudClient(cfg Config) Client {
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = DefaultRequestDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &cloudClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
	}

	if cfg.Email != "" && cfg.APIToken != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIToken))
		c.authHeader = "Basic " + creds
		log.Info().Msg("Initialized Jira client with API token authentication")
	} else {
		log.Warn().Msg("Initialized Jira client without authentication - API calls may fail")
	}
	log.Info().Str("project", cfg.ProjectKey).Str("baseUrl", cfg.BaseURL).Msg("Initialized Jira client")

	return c
}

func (c *cloudClient) ProjectKey() string { return c.cfg.ProjectKey }
func (c *cloudClient) BaseURL() string    { return c.cfg.BaseURL }

func (c *cloudClient) throttle(ctx context.Context) error {
	r := c.limiter.Reserve()
	if wait := r.Delay(); wait > 0 {
		log.Debug().Dur("wait", wait).Msg("Throttling Jira request")
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			r.Cancel()
			return &APIError{Kind: KindNetwork, Message: "Network error", Err: ctx.Err()}
		}
	}
	return nil
}

func (c *cloudClient) authenticateRequest(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}
}

// do runs one request and decodes a JSON body into out, classifying every failure as *APIError.
func (c *cloudClient) do(ctx context.Context, endpoint, method, path string, body any, out any) (err error) {
	defer func() {
		metrics.RecordJiraRequest(endpoint, outcome(err))
	}()

	if err := c.throttle(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindProtocol, Message: "Failed to encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "Network error", Err: err}
	}
	c.authenticateRequest(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("endpoint", endpoint).Msg("Request failed")
		return &APIError{Kind: KindNetwork, Message: "Network error", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := classifyStatus(resp.StatusCode, string(snippet))
		log.Error().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("HTTP error occurred")
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error().Err(err).Str("endpoint", endpoint).Msg("Invalid JSON response")
		return &APIError{Kind: KindProtocol, Message: "Invalid response from Jira API", Err: err}
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	return "error"
}

func (c *cloudClient) SearchIssues(ctx context.Context, jql string, maxResults int) ([]RawIssue, error) {
	return c.searchInternal(ctx, jql, maxResults, searchFields)
}

func (c *cloudClient) searchInternal(ctx context.Context, jql string, maxResults int, fields []string) ([]RawIssue, error) {
	log.Info().Str("jql", jql).Int("maxResults", maxResults).Msg("Executing JQL")

	payload := SearchRequest{JQL: jql, MaxResults: maxResults, Fields: fields}
	var result SearchResponse
	if err := c.do(ctx, "search", http.MethodPost, "/rest/api/3/search/jql", payload, &result); err != nil {
		return nil, err
	}
	if result.Issues == nil {
		return []RawIssue{}, nil
	}
	// Only the first page is read; maxResults is the caller's cap.
	if !result.IsLast && result.NextPageToken != "" {
		log.Warn().
			Int("count", len(result.Issues)).
			Int("maxResults", maxResults).
			Str("nextPageToken", result.NextPageToken).
			Msg("Jira returned a partial page; results are truncated")
	}

	log.Info().Int("count", len(result.Issues)).Msg("Retrieved issues from Jira")
	return result.Issues, nil
}

func (c *cloudClient) GetProject(ctx context.Context) (*ProjectDTO, error) {
	var project ProjectDTO
	path := fmt.Sprintf("/rest/api/3/project/%s", c.cfg.ProjectKey)
	if err := c.do(ctx, "project", http.MethodGet, path, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}
