package repository

import (
	"context"
	"sync"

	"assessment-service/internal/models"
)

// Sessions serializes all access to a session at the store boundary. Every
// mutation of one session runs under that session's exclusive lock as a
// read-modify-write; concurrent requests for the same session queue here, so
// the state machine code above never sees interleaved updates. Different
// sessions proceed in parallel.
type Sessions struct {
	store SessionStore

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewSessions(store SessionStore) *Sessions {
	return &Sessions{
		store: store,
		locks: make(map[string]*sync.RWMutex),
	}
}

func (s *Sessions) lockFor(id string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[id] = l
	}
	return l
}

// Create inserts a new session. No lock needed: the id is fresh.
func (s *Sessions) Create(ctx context.Context, session *models.QuizSession) error {
	return s.store.Create(ctx, session)
}

// Mutate runs fn on the current state of the session under its exclusive
// lock and persists the result if fn succeeds. fn may make external calls;
// the lock is held for the duration, which is exactly the serialization the
// state machine needs.
func (s *Sessions) Mutate(ctx context.Context, id string, fn func(session *models.QuizSession) error) (*models.QuizSession, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// View returns a read-only snapshot under the session's shared lock.
func (s *Sessions) View(ctx context.Context, id string) (*models.QuizSession, error) {
	l := s.lockFor(id)
	l.RLock()
	defer l.RUnlock()
	return s.store.Get(ctx, id)
}
