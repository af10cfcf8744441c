// Package session keeps logged-in users in memory, keyed by the opaque
// token handed out in the session cookie. Sessions do not survive a
// restart; users just log in again.
package session

import (
	"errors"
	"sync"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.User // token -> user
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.User)}
}

// Create issues a fresh token for the user
func (s *Store) Create(user *domain.User) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = user
	return token
}

func (s *Store) Get(token string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Clear drops the session; clearing an unknown token is a no-op
func (s *Store) Clear(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// ClearUser drops every session belonging to the user, used after a
// password reset
func (s *Store) ClearUser(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, user := range s.sessions {
		if user.ID == userID {
			delete(s.sessions, token)
		}
	}
}
