package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"
)

type sessionItem struct {
	session   model.Session
	expiresAt time.Time
}

// SessionStore in-memory plugin sessions with TTL
type SessionStore struct {
	mu    sync.RWMutex
	items map[string]*sessionItem
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore creates a session store. Expired sessions are dropped on
// access and by Cleanup.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		items: make(map[string]*sessionItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func sessionKey(kind model.SessionKind, id string) string {
	return string(kind) + ":" + id
}

// Save stores a copy of session and refreshes its TTL
func (s *SessionStore) Save(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sessionKey(session.Kind, session.ID)] = &sessionItem{
		session:   *session,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Get retrieves a session
func (s *SessionStore) Get(_ context.Context, kind model.SessionKind, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[sessionKey(kind, id)]
	if !ok || s.now().After(item.expiresAt) {
		return nil, fmt.Errorf("session %s/%s: %w", kind, id, interfaces.ErrNotFound)
	}
	session := item.session
	return &session, nil
}

// List returns live sessions of kind, oldest first
func (s *SessionStore) List(_ context.Context, kind model.SessionKind) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	sessions := make([]*model.Session, 0)
	for _, item := range s.items {
		if item.session.Kind != kind || now.After(item.expiresAt) {
			continue
		}
		session := item.session
		sessions = append(sessions, &session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Delete removes a session
func (s *SessionStore) Delete(_ context.Context, kind model.SessionKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(kind, id)
	if _, ok := s.items[key]; !ok {
		return fmt.Errorf("session %s/%s: %w", kind, id, interfaces.ErrNotFound)
	}
	delete(s.items, key)
	return nil
}

// Cleanup removes expired sessions and returns how many were removed
func (s *SessionStore) Cleanup(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}
