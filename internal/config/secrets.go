package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// Secrets mirrors the hosted secrets store: a [jira] table, optional root-level credentials and a
// [users] table of username = password hash.
type Secrets struct {
	Jira struct {
		CloudID    string `toml:"cloud_id"`
		ProjectKey string `toml:"project_key"`
		BaseURL    string `toml:"base_url"`
		Email      string `toml:"email"`
		APIToken   string `toml:"api_token"`
	} `toml:"jira"`

	JiraEmail    string `toml:"JIRA_EMAIL"`
	JiraAPIToken string `toml:"JIRA_API_TOKEN"`

	Users map[string]string `toml:"users"`

	// Legacy single-user table.
	Auth *struct {
		Username     string `toml:"username"`
		PasswordHash string `toml:"password_hash"`
	} `toml:"auth"`
}

// HasJira reports whether the secrets carry any Jira connection settings.
func (s *Secrets) HasJira() bool {
	return s.Jira.CloudID != "" || s.Jira.ProjectKey != "" || s.Jira.BaseURL != ""
}

// LoadSecrets reads the secrets file. A missing file is not an error and yields nil.
func LoadSecrets(path string) (*Secrets, error) {
	if path == "" {
		return nil, nil
	}
	var s Secrets
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading secrets from %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Loaded secrets file")
	return &s, nil
}
