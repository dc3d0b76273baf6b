package auth

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
)

var ErrUserExists = errors.New("user already exists")

// Provisioner writes user accounts into the .env file and/or the secrets TOML file.
type Provisioner struct {
	EnvPath     string
	ExamplePath string
	SecretsPath string
	// Overwrite replaces the hash of an existing user instead of failing with ErrUserExists.
	Overwrite bool
}

var envUserKey = regexp.MustCompile(`^APP_USER_(\d+)_USERNAME$`)

// AddToEnv stores the user under the next free APP_USER_<n> index. A missing .env is seeded from
// the example file when one exists.
func (p Provisioner) AddToEnv(username, hash string) error {
	if err := validateAccount(username, hash); err != nil {
		return err
	}

	content, err := os.ReadFile(p.EnvPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		content, err = os.ReadFile(p.ExamplePath)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("read %s: %w", p.ExamplePath, err)
			}
			content = nil
		} else {
			log.Info().Str("from", p.ExamplePath).Str("to", p.EnvPath).Msg("Creating .env from example")
		}
	case err != nil:
		return fmt.Errorf("read %s: %w", p.EnvPath, err)
	}

	env, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("parse %s: %w", p.EnvPath, err)
	}

	used := make(map[int]bool)
	existing := 0
	for key, val := range env {
		m := envUserKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		used[n] = true
		if val == username {
			existing = n
		}
	}

	var out string
	if existing > 0 {
		if !p.Overwrite {
			return fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		out = replaceEnvValue(string(content), fmt.Sprintf("APP_USER_%d_PASSWORD_HASH", existing), hash)
	} else {
		n := 1
		for used[n] {
			n++
		}
		out = string(content)
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += fmt.Sprintf("\n# User %d\nAPP_USER_%d_USERNAME=%s\nAPP_USER_%d_PASSWORD_HASH=%s\n", n, n, username, n, quoteEnv(hash))
	}

	if err := atomic.WriteFile(p.EnvPath, strings.NewReader(out)); err != nil {
		return fmt.Errorf("write %s: %w", p.EnvPath, err)
	}
	log.Info().Str("user", username).Str("path", p.EnvPath).Msg("User written to env file")
	return nil
}

// AddToSecrets stores the user in the [users] table, keeping every other table intact.
func (p Provisioner) AddToSecrets(username, hash string) error {
	if err := validateAccount(username, hash); err != nil {
		return err
	}

	doc := make(map[string]any)
	if _, err := toml.DecodeFile(p.SecretsPath, &doc); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("parse %s: %w", p.SecretsPath, err)
	}

	users, _ := doc["users"].(map[string]any)
	if users == nil {
		users = make(map[string]any)
	}
	if _, ok := users[username]; ok && !p.Overwrite {
		return fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	users[username] = hash
	doc["users"] = users

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode secrets: %w", err)
	}
	if dir := filepath.Dir(p.SecretsPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	if err := atomic.WriteFile(p.SecretsPath, &buf); err != nil {
		return fmt.Errorf("write %s: %w", p.SecretsPath, err)
	}
	log.Info().Str("user", username).Str("path", p.SecretsPath).Msg("User written to secrets file")
	return nil
}

func validateAccount(username, hash string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username cannot be empty")
	}
	if strings.ContainsAny(username, "=\n\"'#") {
		return fmt.Errorf("username %q contains unsupported characters", username)
	}
	if hash == "" {
		return errors.New("password hash cannot be empty")
	}
	return nil
}

// bcrypt hashes contain '$', which godotenv would expand unless single-quoted.
func quoteEnv(v string) string {
	if strings.Contains(v, "$") {
		return "'" + v + "'"
	}
	return v
}

func replaceEnvValue(content, key, value string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "export "))
		if strings.HasPrefix(trimmed, key+"=") {
			lines[i] = key + "=" + quoteEnv(value)
		}
	}
	return strings.Join(lines, "\n")
}
