package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Credential is a single username / password-hash pair.
type Credential struct {
	Username     string
	PasswordHash string
}

// UserSources lists every place users can be defined, highest precedence first:
// the secrets [users] table, the secrets [auth] table, numbered env pairs, legacy env vars.
type UserSources struct {
	SecretsUsers map[string]string
	SecretsAuth  *Credential
	Env          func(string) (string, bool)
}

// maxEnvUsers bounds the APP_USER_<n> scan; gaps in the numbering are tolerated.
const maxEnvUsers = 100

// UserStore maps usernames to password hashes.
type UserStore struct {
	users map[string]string
}

// NewUserStore builds a store from an explicit map.
func NewUserStore(users map[string]string) *UserStore {
	return &UserStore{users: maps.Clone(users)}
}

// LoadUsers resolves the user table from the first source that defines any user.
// With nothing configured it falls back to admin/admin and says so loudly.
func LoadUsers(src UserSources) *UserStore {
	if len(src.SecretsUsers) > 0 {
		log.Info().Int("count", len(src.SecretsUsers)).Msg("Loaded users from secrets [users] table")
		return NewUserStore(src.SecretsUsers)
	}
	if src.SecretsAuth != nil && src.SecretsAuth.Username != "" && src.SecretsAuth.PasswordHash != "" {
		log.Info().Msg("Loaded user from secrets [auth] table")
		return NewUserStore(map[string]string{src.SecretsAuth.Username: src.SecretsAuth.PasswordHash})
	}

	env := src.Env
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}

	users := make(map[string]string)
	for i := 1; i <= maxEnvUsers; i++ {
		name, _ := env(fmt.Sprintf("APP_USER_%d_USERNAME", i))
		hash, _ := env(fmt.Sprintf("APP_USER_%d_PASSWORD_HASH", i))
		if name = strings.TrimSpace(name); name != "" && hash != "" {
			users[name] = strings.TrimSpace(hash)
		}
	}
	if len(users) > 0 {
		log.Info().Int("count", len(users)).Msg("Loaded users from environment")
		return &UserStore{users: users}
	}

	name, _ := env("APP_USERNAME")
	hash, _ := env("APP_PASSWORD_HASH")
	if name != "" && hash != "" {
		log.Info().Msg("Loaded legacy single user from environment")
		return &UserStore{users: map[string]string{name: hash}}
	}

	log.Warn().Msg("No users configured, falling back to admin/admin. Run 'jira-extract adduser' to create real accounts")
	return &UserStore{users: map[string]string{"admin": HashPassword("admin")}}
}

// Usernames returns the configured usernames in sorted order.
func (s *UserStore) Usernames() []string {
	return slices.Sorted(maps.Keys(s.users))
}

func (s *UserStore) Len() int { return len(s.users) }

// Verify checks a password against the stored hash. Unknown users and empty input always fail.
func (s *UserStore) Verify(username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	stored, ok := s.users[username]
	if !ok {
		return false
	}
	return CheckPassword(stored, password)
}

// HashPassword returns the hex SHA-256 digest used by existing deployments.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// HashPasswordBcrypt returns a salted bcrypt hash.
func HashPasswordBcrypt(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a password with either hash format.
func CheckPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	want := strings.ToLower(stored)
	got := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
