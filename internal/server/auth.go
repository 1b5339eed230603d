package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/niravrohra/library-circulation/internal/config"
)

// SessionStore issues and validates bearer tokens for the single staff
// credential. Tokens live in memory; a restart logs everyone out.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	cfg      config.AuthConfig
	clock    func() time.Time
}

// NewSessionStore creates a session store over the injected credential.
func NewSessionStore(cfg config.AuthConfig) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]time.Time),
		cfg:      cfg,
		clock:    time.Now,
	}
}

// Login verifies the credential against the configured bcrypt hash and
// issues a fresh token with the configured TTL.
func (s *SessionStore) Login(user, password string) (token string, expiresAt time.Time, ok bool) {
	if user != s.cfg.AdminUser || s.cfg.AdminPasswordHash == "" {
		return "", time.Time{}, false
	}

	if bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) != nil {
		return "", time.Time{}, false
	}

	token = uuid.New().String()
	expiresAt = s.clock().Add(s.cfg.TokenTTL.Std())

	s.mu.Lock()
	s.sessions[token] = expiresAt
	s.mu.Unlock()

	return token, expiresAt, true
}

// Valid reports whether the token belongs to a live session. Expired
// tokens are dropped on sight.
func (s *SessionStore) Valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, found := s.sessions[token]
	if !found {
		return false
	}
	if s.clock().After(expiresAt) {
		delete(s.sessions, token)
		return false
	}

	return true
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
