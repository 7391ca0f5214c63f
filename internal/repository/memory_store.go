package repository

import (
	"context"
	"sync"

	"assessment-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// MemorySessionStore is the no-Mongo backend. Documents are held as bson
// snapshots, the same wire format the Mongo backend uses, so callers get the
// same isolation and field set Mongo gives: mutating a returned session never
// changes the stored copy until Put, and fields hidden from API responses
// (json "-") still persist.
type MemorySessionStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{docs: make(map[string][]byte)}
}

func (s *MemorySessionStore) Create(ctx context.Context, session *models.QuizSession) error {
	return s.Put(ctx, session)
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*models.QuizSession, error) {
	s.mu.RLock()
	raw, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var session models.QuizSession
	if err := bson.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, session *models.QuizSession) error {
	raw, err := bson.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[session.ID] = raw
	s.mu.Unlock()
	return nil
}
