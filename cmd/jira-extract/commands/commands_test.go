package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jira-extract/internal/config"
	"jira-extract/internal/jira"
	"jira-extract/internal/report"
)

func TestBrowserHost(t *testing.T) {
	tests := map[string]string{
		":8501":          "localhost:8501",
		"0.0.0.0:8080":   "localhost:8080",
		"127.0.0.1:8501": "127.0.0.1:8501",
	}
	for in, want := range tests {
		if got := browserHost(in); got != want {
			t.Errorf("browserHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	rows := report.RowSet{{IssueKey: "QA-1", IssueURL: "https://x/browse/QA-1", Summary: "s", Priority: "P0"}}
	at := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	csvPath := filepath.Join(dir, "out.csv")
	if err := writeExport(csvPath, rows, at); err != nil {
		t.Fatalf("csv: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "QA-1") {
		t.Errorf("csv missing row: %s", data)
	}

	xlsxPath := filepath.Join(dir, "out.xlsx")
	if err := writeExport(xlsxPath, rows, at); err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	if info, err := os.Stat(xlsxPath); err != nil || info.Size() == 0 {
		t.Errorf("xlsx not written: %v", err)
	}

	if err := writeExport(filepath.Join(dir, "out.txt"), rows, at); err == nil {
		t.Error("expected extension error")
	}
}

func TestFetchErrorHints(t *testing.T) {
	authErr := &jira.APIError{Kind: jira.KindAuth, StatusCode: 401, Message: "Authentication failed. Check your credentials."}
	err := fetchError(fmt.Errorf("search issues: %w", authErr))
	if !errors.Is(err, authErr) {
		t.Fatalf("hint must wrap the gateway error, got %v", err)
	}
	if !strings.Contains(err.Error(), "JIRA_API_TOKEN") {
		t.Errorf("auth hint missing: %v", err)
	}

	netErr := &jira.APIError{Kind: jira.KindNetwork, Message: "Could not connect to Jira."}
	if got := fetchError(netErr); got != error(netErr) {
		t.Errorf("network errors pass through unchanged, got %v", got)
	}
}

func TestLoadUsersFromSecrets(t *testing.T) {
	cfg := &config.AppConfig{Secrets: &config.Secrets{Users: map[string]string{"sam": "hash"}}}
	users := loadUsers(cfg)
	if got := users.Usernames(); len(got) != 1 || got[0] != "sam" {
		t.Errorf("Usernames = %v", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "fetch", "adduser", "mcp"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered", name)
		}
	}
}

func TestAddUserPathsMatchServer(t *testing.T) {
	tests := []struct {
		name   string
		dotenv string
		data   bool
	}{
		{name: "secrets file from .env", dotenv: "SECRETS_FILE=team-secrets.toml\nENV_FILE=.env\n"},
		{name: "data path", data: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			for _, k := range []string{"DATA_PATH", "ENV_FILE", "SECRETS_FILE", "LOGS_FOLDER"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			t.Setenv("JIRA_CLOUD_ID", "cloud-123")
			t.Setenv("JIRA_PROJECT_KEY", "QA")
			t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net")
			if tt.dotenv != "" {
				if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(tt.dotenv), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if tt.data {
				t.Setenv("DATA_PATH", filepath.Join(dir, "data"))
			}

			envPath, secretsPath := addUserPaths()
			cfg, err := config.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if secretsPath != cfg.SecretsFile {
				t.Errorf("adduser writes %q, server reads %q", secretsPath, cfg.SecretsFile)
			}
			if envPath != cfg.EnvFile {
				t.Errorf("adduser env file %q, server %q", envPath, cfg.EnvFile)
			}
			if tt.data && secretsPath != filepath.Join(dir, "data", "secrets.toml") {
				t.Errorf("secrets path %q ignores DATA_PATH", secretsPath)
			}
			if tt.dotenv != "" && secretsPath != "team-secrets.toml" {
				t.Errorf("secrets path %q ignores .env", secretsPath)
			}
		})
	}
}

func TestAddUserFlagsOverridePaths(t *testing.T) {
	t.Setenv("SECRETS_FILE", "team-secrets.toml")
	addUserEnv, addUserSecrets = "custom.env", "custom.toml"
	t.Cleanup(func() { addUserEnv, addUserSecrets = "", "" })

	envPath, secretsPath := addUserPaths()
	if envPath != "custom.env" || secretsPath != "custom.toml" {
		t.Errorf("addUserPaths() = %q, %q", envPath, secretsPath)
	}
}
