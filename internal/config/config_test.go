package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func validEnv() map[string]string {
	return map[string]string{
		"JIRA_CLOUD_ID":    "cloud-123",
		"JIRA_PROJECT_KEY": "IBNU",
		"JIRA_BASE_URL":    "https://example.atlassian.net/",
		"JIRA_EMAIL":       "qa@example.com",
		"JIRA_API_TOKEN":   "secret",
	}
}

func TestResolveJiraFromEnv(t *testing.T) {
	s, fromSecrets, err := resolveJira(nil, lookupFrom(validEnv()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromSecrets {
		t.Error("expected environment source")
	}
	if s.BaseURL != "https://example.atlassian.net" {
		t.Errorf("trailing slash should be trimmed, got %q", s.BaseURL)
	}
	if s.ProjectKey != "IBNU" || s.Email != "qa@example.com" {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestResolveJiraErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantErr string
	}{
		{"missing cloud id", func(m map[string]string) { delete(m, "JIRA_CLOUD_ID") }, "JIRA_CLOUD_ID"},
		{"missing everything", func(m map[string]string) { clear(m) }, "JIRA_PROJECT_KEY"},
		{"lowercase key", func(m map[string]string) { m["JIRA_PROJECT_KEY"] = "ibnu" }, "project key"},
		{"key too long", func(m map[string]string) { m["JIRA_PROJECT_KEY"] = "ABCDEFGHIJK" }, "ProjectKey"},
		{"plain http", func(m map[string]string) { m["JIRA_BASE_URL"] = "http://example.atlassian.net" }, "HTTPS"},
		{"not a url", func(m map[string]string) { m["JIRA_BASE_URL"] = "https//nope" }, "BaseURL"},
		{"plain http elsewhere", func(m map[string]string) { m["JIRA_BASE_URL"] = "http://10.0.0.5:8089" }, "HTTPS"},
		{"bad email", func(m map[string]string) { m["JIRA_EMAIL"] = "not-an-email" }, "Email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := validEnv()
			tt.mutate(env)
			_, _, err := resolveJira(nil, lookupFrom(env))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

const secretsTOML = `
JIRA_EMAIL = "root@example.com"
JIRA_API_TOKEN = "root-token"

[jira]
cloud_id = "cloud-xyz"
project_key = "QA"
base_url = "https://hosted.atlassian.net"

[users]
alice = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

[auth]
username = "legacy"
password_hash = "abc"
`

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSecrets(t *testing.T) {
	s, err := LoadSecrets(writeSecrets(t, secretsTOML))
	if err != nil {
		t.Fatalf("LoadSecrets: %v", err)
	}
	if !s.HasJira() || s.Jira.ProjectKey != "QA" {
		t.Errorf("jira table not decoded: %+v", s.Jira)
	}
	if s.Users["alice"] == "" {
		t.Error("users table not decoded")
	}
	if s.Auth == nil || s.Auth.Username != "legacy" {
		t.Errorf("auth table not decoded: %+v", s.Auth)
	}
}

func TestLoadSecretsMissingFile(t *testing.T) {
	s, err := LoadSecrets(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil || s != nil {
		t.Errorf("missing file should yield (nil, nil), got (%v, %v)", s, err)
	}
}

func TestLoadSecretsMalformed(t *testing.T) {
	if _, err := LoadSecrets(writeSecrets(t, "[jira\nbroken")); err == nil {
		t.Error("expected parse error")
	}
}

func TestSecretsTakePrecedence(t *testing.T) {
	s, err := LoadSecrets(writeSecrets(t, secretsTOML))
	if err != nil {
		t.Fatal(err)
	}
	got, fromSecrets, err := resolveJira(s, lookupFrom(validEnv()))
	if err != nil {
		t.Fatalf("resolveJira: %v", err)
	}
	if !fromSecrets || got.ProjectKey != "QA" {
		t.Errorf("expected secrets settings, got %+v (fromSecrets=%v)", got, fromSecrets)
	}
	// Root-level credentials fill in when the [jira] table has none.
	if got.Email != "root@example.com" || got.APIToken != "root-token" {
		t.Errorf("root credentials not used: %+v", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	for k, v := range validEnv() {
		t.Setenv(k, v)
	}
	t.Setenv("DATA_PATH", dir)
	t.Setenv("SECRETS_FILE", filepath.Join(dir, "none.toml"))
	t.Setenv("JIRA_REQUEST_DELAY_MS", "250")
	t.Setenv("SESSION_TIMEOUT_MINUTES", "15")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("LOGS_FOLDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jira.RequestDelay != 250*time.Millisecond {
		t.Errorf("RequestDelay = %v", cfg.Jira.RequestDelay)
	}
	if cfg.SessionTimeout != 15*time.Minute {
		t.Errorf("SessionTimeout = %v", cfg.SessionTimeout)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Secrets != nil || cfg.FromSecrets {
		t.Error("no secrets file should be loaded")
	}
	if cfg.LogDir != filepath.Join(dir, "logs") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Paths
	}{
		{
			name: "defaults",
			want: Paths{EnvFile: ".env", SecretsFile: "secrets.toml"},
		},
		{
			name: "data path",
			env:  map[string]string{"DATA_PATH": "/srv/qa"},
			want: Paths{EnvFile: ".env", SecretsFile: "/srv/qa/secrets.toml", LogDir: "/srv/qa/logs"},
		},
		{
			name: "explicit files",
			env: map[string]string{
				"DATA_PATH":    "/srv/qa",
				"ENV_FILE":     "qa.env",
				"SECRETS_FILE": "team-secrets.toml",
				"LOGS_FOLDER":  "/var/log/qa",
			},
			want: Paths{EnvFile: "qa.env", SecretsFile: "team-secrets.toml", LogDir: "/var/log/qa"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for _, k := range []string{"DATA_PATH", "ENV_FILE", "SECRETS_FILE", "LOGS_FOLDER"} {
				unsetenv(t, k)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := ResolvePaths(); got != tt.want {
				t.Errorf("ResolvePaths() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolvePathsReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"DATA_PATH", "ENV_FILE", "SECRETS_FILE", "LOGS_FOLDER"} {
		unsetenv(t, k)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRETS_FILE=team-secrets.toml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := ResolvePaths().SecretsFile; got != "team-secrets.toml" {
		t.Errorf("SecretsFile = %q, want value from .env", got)
	}
}

func TestLoopbackHTTPAllowed(t *testing.T) {
	for _, u := range []string{"http://127.0.0.1:8089", "http://localhost:8089"} {
		env := validEnv()
		env["JIRA_BASE_URL"] = u
		if _, _, err := resolveJira(nil, lookupFrom(env)); err != nil {
			t.Errorf("%s: unexpected error %v", u, err)
		}
	}
}

func TestGetEnvIntFallback(t *testing.T) {
	t.Setenv("X_DELAY", "abc")
	if got := getEnvInt("X_DELAY", 7); got != 7 {
		t.Errorf("non-numeric should fall back, got %d", got)
	}
	t.Setenv("X_DELAY", "-3")
	if got := getEnvInt("X_DELAY", 7); got != 7 {
		t.Errorf("negative should fall back, got %d", got)
	}
}
