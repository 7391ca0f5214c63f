package repository

import (
	"context"
	"errors"

	"assessment-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by any store when the requested document does not
// exist, regardless of backend.
var ErrNotFound = errors.New("document not found")

// SessionStore persists whole sessions. Writes replace the full document;
// sessions are small and the serialized-access wrapper already guarantees a
// single writer per session, so partial updates buy nothing.
type SessionStore interface {
	Create(ctx context.Context, session *models.QuizSession) error
	Get(ctx context.Context, id string) (*models.QuizSession, error)
	Put(ctx context.Context, session *models.QuizSession) error
}

type MongoSessionStore struct {
	Col *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{Col: db.Collection("sessions")}
}

func (s *MongoSessionStore) Create(ctx context.Context, session *models.QuizSession) error {
	_, err := s.Col.InsertOne(ctx, session)
	return err
}

func (s *MongoSessionStore) Get(ctx context.Context, id string) (*models.QuizSession, error) {
	var session models.QuizSession
	err := s.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MongoSessionStore) Put(ctx context.Context, session *models.QuizSession) error {
	_, err := s.Col.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, options.Replace().SetUpsert(true))
	return err
}
