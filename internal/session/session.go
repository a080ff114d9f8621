// Package session maps browser sessions to bearer tokens for the banking API.
//
// The browser only ever holds an opaque session id; the token itself stays
// on the server in a TokenStore.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNoToken means the session has no stored token: the user is not signed in.
var ErrNoToken = errors.New("no token for session")

// ErrInvalidToken is returned when an empty token is stored.
var ErrInvalidToken = errors.New("empty token")

// TokenStore persists one bearer token per session.
type TokenStore interface {
	Token(ctx context.Context, sessionID string) (string, error)
	SaveToken(ctx context.Context, sessionID, token string) error
	DeleteToken(ctx context.Context, sessionID string) error
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like a session id issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NormalizeToken strips whitespace and an optional "Bearer " prefix.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// MemoryStore keeps tokens in process memory; they are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

func (s *MemoryStore) Token(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[sessionID]
	if !ok || tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

func (s *MemoryStore) SaveToken(_ context.Context, sessionID, token string) error {
	token = NormalizeToken(token)
	if token == "" {
		return ErrInvalidToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
	return nil
}

func (s *MemoryStore) DeleteToken(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}
