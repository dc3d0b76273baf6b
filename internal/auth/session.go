package auth

import (
	"errors"
	"sync"
	"time"

	"jira-extract/internal/jira"
	"jira-extract/internal/metrics"
	"jira-extract/internal/report"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// DefaultSessionTimeout is how long a login stays valid. It is measured from login, not from last use.
const DefaultSessionTimeout = time.Hour

const maxSessions = 1024

var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is one logged-in browser. Fetched data lives here and nowhere else.
type Session struct {
	ID        string
	Username  string
	LoginTime time.Time
	CSRFToken string

	mu       sync.Mutex
	data     report.RowSet
	filtered report.RowSet
	jql      string
	fetched  time.Time
	sel      *jira.FilterSelection
}

// SetData stores a fresh fetch result; the filtered view starts out equal to it.
func (s *Session) SetData(rows report.RowSet, jql string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = rows
	s.filtered = rows
	s.jql = jql
	s.fetched = at
}

// SetSelection remembers the filter form state for the next render.
func (s *Session) SetSelection(sel jira.FilterSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = &sel
}

// Selection returns the last submitted filters, or the dashboard defaults.
func (s *Session) Selection() jira.FilterSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel == nil {
		return jira.DefaultSelection()
	}
	return *s.sel
}

// SetFiltered replaces the filtered view without touching the fetched data.
func (s *Session) SetFiltered(rows report.RowSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtered = rows
}

// Snapshot returns the fetched rows, the filtered rows, the JQL and the fetch time.
func (s *Session) Snapshot() (data, filtered report.RowSet, jql string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.filtered, s.jql, s.fetched
}

// HasData reports whether a fetch has been stored.
func (s *Session) HasData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil
}

// SessionManager issues and looks up sessions. Expiry is enforced both by the store's TTL and by an
// explicit login-time check, so a stale entry is never served.
type SessionManager struct {
	users   *UserStore
	timeout time.Duration
	store   *expirable.LRU[string, *Session]
	now     func() time.Time
}

// NewSessionManager creates a manager; a non-positive timeout means DefaultSessionTimeout.
func NewSessionManager(users *UserStore, timeout time.Duration) *SessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &SessionManager{
		users:   users,
		timeout: timeout,
		store: expirable.NewLRU[string, *Session](maxSessions, func(id string, s *Session) {
			log.Debug().Str("user", s.Username).Msg("Session evicted")
		}, timeout),
		now: time.Now,
	}
}

func (m *SessionManager) Timeout() time.Duration { return m.timeout }

// Login verifies credentials and starts a session.
func (m *SessionManager) Login(username, password string) (*Session, error) {
	if !m.users.Verify(username, password) {
		metrics.Logins.WithLabelValues("failure").Inc()
		log.Warn().Str("user", username).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}
	s := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		LoginTime: m.now(),
		CSRFToken: uuid.NewString(),
	}
	m.store.Add(s.ID, s)
	metrics.Logins.WithLabelValues("success").Inc()
	log.Info().Str("user", username).Msg("User logged in")
	return s, nil
}

// Get returns the live session for id.
func (m *SessionManager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	if m.now().Sub(s.LoginTime) > m.timeout {
		m.store.Remove(id)
		log.Info().Str("user", s.Username).Msg("Session expired")
		return nil, false
	}
	return s, true
}

// Logout discards the session together with its data.
func (m *SessionManager) Logout(id string) {
	if s, ok := m.store.Peek(id); ok {
		log.Info().Str("user", s.Username).Msg("User logged out")
	}
	m.store.Remove(id)
}

// Remaining is the time left before the session expires.
func (m *SessionManager) Remaining(s *Session) time.Duration {
	return max(0, s.LoginTime.Add(m.timeout).Sub(m.now()))
}
