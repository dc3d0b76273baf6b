package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jira-extract/internal/jira"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Paths
	Jira           jira.Config
	ListenAddr     string
	SessionTimeout time.Duration

	// Secrets is the parsed secrets file, or nil when none was found.
	Secrets *Secrets
	// FromSecrets reports whether the Jira settings came from the secrets file.
	FromSecrets bool
}

// Paths locates the files shared by the dashboard and the adduser command.
type Paths struct {
	EnvFile     string
	SecretsFile string
	// LogDir is empty when neither LOGS_FOLDER nor DATA_PATH is set.
	LogDir string
}

// jiraSettings is validated before it becomes a jira.Config.
type jiraSettings struct {
	CloudID    string `validate:"required"`
	ProjectKey string `validate:"required,max=10"`
	BaseURL    string `validate:"required,url"`
	Email      string `validate:"omitempty,email"`
	APIToken   string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadEnv loads the .env next to the executable, then the one in the working directory.
// Variables already set in the environment are never overridden. It returns the files it loaded.
func LoadEnv() []string {
	var loaded []string

	// 1. Try to load from the executable's directory
	if exePath, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			loaded = append(loaded, envPath)
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err == nil {
		loaded = append(loaded, ".env")
	}
	return loaded
}

// ResolvePaths loads the .env files and works out where the env, secrets and log files live.
func ResolvePaths() Paths {
	LoadEnv()
	return currentPaths()
}

func currentPaths() Paths {
	dataPath := os.Getenv("DATA_PATH")

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" && dataPath != "" {
		logDir = filepath.Join(dataPath, "logs")
	}
	if dataPath == "" {
		dataPath = "."
	}

	return Paths{
		EnvFile:     getEnv("ENV_FILE", ".env"),
		SecretsFile: getEnv("SECRETS_FILE", filepath.Join(dataPath, "secrets.toml")),
		LogDir:      logDir,
	}
}

// Load loads the configuration from .env files, environment variables and the optional secrets file.
func Load() (*AppConfig, error) {
	for _, path := range LoadEnv() {
		log.Debug().Str("path", path).Msg("Loaded .env file")
	}

	cfg := &AppConfig{
		Paths:          currentPaths(),
		ListenAddr:     getEnv("LISTEN_ADDR", "127.0.0.1:8501"),
		SessionTimeout: time.Duration(getEnvInt("SESSION_TIMEOUT_MINUTES", 60)) * time.Minute,
	}

	secrets, err := LoadSecrets(cfg.SecretsFile)
	if err != nil {
		return nil, err
	}
	cfg.Secrets = secrets

	settings, fromSecrets, err := resolveJira(secrets, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	cfg.FromSecrets = fromSecrets

	cfg.Jira = jira.Config{
		CloudID:      settings.CloudID,
		ProjectKey:   settings.ProjectKey,
		BaseURL:      settings.BaseURL,
		Email:        settings.Email,
		APIToken:     settings.APIToken,
		RequestDelay: time.Duration(getEnvInt("JIRA_REQUEST_DELAY_MS", 500)) * time.Millisecond,
		Timeout:      time.Duration(getEnvInt("JIRA_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	return cfg, nil
}

// resolveJira prefers a complete [jira] section in the secrets file and otherwise reads the environment.
func resolveJira(secrets *Secrets, lookup func(string) (string, bool)) (jiraSettings, bool, error) {
	if secrets != nil && secrets.HasJira() {
		s := jiraSettings{
			CloudID:    secrets.Jira.CloudID,
			ProjectKey: secrets.Jira.ProjectKey,
			BaseURL:    secrets.Jira.BaseURL,
			Email:      firstNonEmpty(secrets.Jira.Email, secrets.JiraEmail),
			APIToken:   firstNonEmpty(secrets.Jira.APIToken, secrets.JiraAPIToken),
		}
		if err := validateSettings(&s); err != nil {
			return s, true, fmt.Errorf("secrets file: %w", err)
		}
		return s, true, nil
	}

	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	s := jiraSettings{
		CloudID:    get("JIRA_CLOUD_ID"),
		ProjectKey: get("JIRA_PROJECT_KEY"),
		BaseURL:    get("JIRA_BASE_URL"),
		Email:      get("JIRA_EMAIL"),
		APIToken:   get("JIRA_API_TOKEN"),
	}

	var missing []string
	for _, kv := range []struct{ key, val string }{
		{"JIRA_CLOUD_ID", s.CloudID},
		{"JIRA_PROJECT_KEY", s.ProjectKey},
		{"JIRA_BASE_URL", s.BaseURL},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return s, false, fmt.Errorf("missing required environment variables: %s (copy .env.example to .env and fill in your credentials)", strings.Join(missing, ", "))
	}

	if err := validateSettings(&s); err != nil {
		return s, false, err
	}
	return s, false, nil
}

func validateSettings(s *jiraSettings) error {
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return fmt.Errorf("invalid Jira setting %s (%s)", fe.Field(), fe.Tag())
		}
		return err
	}
	if err := requireHTTPS(s.BaseURL); err != nil {
		return err
	}
	return jira.ValidateProjectKey(s.ProjectKey)
}

// requireHTTPS rejects plain HTTP except on loopback, where the local fake Jira runs.
func requireHTTPS(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "https" {
		return nil
	}
	if u.Scheme == "http" {
		if ip := net.ParseIP(u.Hostname()); u.Hostname() == "localhost" || (ip != nil && ip.IsLoopback()) {
			return nil
		}
	}
	return errors.New("base URL must use HTTPS")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
