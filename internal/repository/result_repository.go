package repository

import (
	"context"
	"sync"

	"assessment-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ResultStore persists finalized session results. Results are write-once.
type ResultStore interface {
	Create(ctx context.Context, result *models.SessionResult) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.SessionResult, error)
}

type MongoResultStore struct {
	Col *mongo.Collection
}

func NewMongoResultStore(db *mongo.Database) *MongoResultStore {
	return &MongoResultStore{Col: db.Collection("results")}
}

func (s *MongoResultStore) Create(ctx context.Context, result *models.SessionResult) error {
	_, err := s.Col.InsertOne(ctx, result)
	return err
}

func (s *MongoResultStore) FindBySessionID(ctx context.Context, sessionID string) (*models.SessionResult, error) {
	var result models.SessionResult
	err := s.Col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type MemoryResultStore struct {
	mu   sync.RWMutex
	docs map[string][]byte // keyed by session id
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{docs: make(map[string][]byte)}
}

func (s *MemoryResultStore) Create(ctx context.Context, result *models.SessionResult) error {
	raw, err := bson.Marshal(result)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[result.SessionID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryResultStore) FindBySessionID(ctx context.Context, sessionID string) (*models.SessionResult, error) {
	s.mu.RLock()
	raw, ok := s.docs[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var result models.SessionResult
	if err := bson.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
