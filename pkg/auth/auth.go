// Package auth manages the single-user credential file and the bearer
// tokens handed out at login. Until a user registers, the API runs open.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

var (
	// ErrUserExists is returned by Register when a user is already set up.
	ErrUserExists = errors.New("user already exists")

	// ErrNoUser is returned by Login before any user has registered.
	ErrNoUser = errors.New("user does not exist")

	// ErrInvalidCredentials is returned by Login on a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrMissingPassword is returned when a request carries no password.
	ErrMissingPassword = errors.New("missing username or password")
)

type userRecord struct {
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Manager owns the credential file and the set of live session tokens.
// Tokens are in-memory only; a restart logs everyone out.
type Manager struct {
	path string

	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewManager(userPath string) *Manager {
	return &Manager{
		path:   userPath,
		tokens: make(map[string]time.Time),
	}
}

// Registered reports whether a user credential file exists. When it does
// not, authentication is disabled and every request passes through.
func (m *Manager) Registered() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Register creates the user credential file. Only one user exists.
func (m *Manager) Register(password string) error {
	if password == "" {
		return ErrMissingPassword
	}
	if m.Registered() {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	data, err := json.MarshalIndent(userRecord{
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("creating user directory: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing user file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing user file: %w", err)
	}
	return nil
}

// Login checks the password against the stored hash and issues a bearer
// token valid for 24 hours.
func (m *Manager) Login(password string) (string, error) {
	if password == "" {
		return "", ErrMissingPassword
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoUser
		}
		return "", fmt.Errorf("reading user file: %w", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("decoding user file: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	m.mu.Lock()
	m.pruneLocked()
	m.tokens[token] = time.Now().Add(tokenTTL)
	m.mu.Unlock()
	return token, nil
}

// ValidToken reports whether token is a live session token.
func (m *Manager) ValidToken(token string) bool {
	if token == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(m.tokens, token)
		return false
	}
	return true
}

// Middleware enforces bearer-token auth when a user is registered. The
// register and login endpoints themselves are never wrapped.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Registered() {
			next.ServeHTTP(w, r)
			return
		}
		if !m.ValidToken(BearerToken(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"msg": "Missing or invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (m *Manager) pruneLocked() {
	now := time.Now()
	for token, expiry := range m.tokens {
		if now.After(expiry) {
			delete(m.tokens, token)
		}
	}
}
