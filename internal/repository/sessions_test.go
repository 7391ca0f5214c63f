package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"assessment-service/internal/models"
)

func TestMemoryStoreSnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	session := &models.QuizSession{ID: "s1", Status: models.SessionNotStarted, Score: 0}
	if err := store.Create(ctx, session); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	loaded.Score = 99

	reloaded, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Score != 0 {
		t.Errorf("Mutating a loaded session must not change the stored copy, got score %d", reloaded.Score)
	}
}

func TestMemoryStoreRoundTripKeepsHiddenFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	session := &models.QuizSession{
		ID:           "s1",
		EpisodeID:    "ep1",
		DocumentText: "the source document",
		Status:       models.SessionNotStarted,
	}
	if err := store.Create(ctx, session); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	// DocumentText is hidden from API responses but must persist: the hint
	// and checkpoint generators receive it on every call.
	if loaded.DocumentText != "the source document" {
		t.Errorf("DocumentText lost in round-trip: got %q", loaded.DocumentText)
	}
	if loaded.EpisodeID != "ep1" || loaded.Status != models.SessionNotStarted {
		t.Errorf("Unexpected round-trip result: %+v", loaded)
	}
}

func TestGetMissingSession(t *testing.T) {
	store := NewMemorySessionStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMutateSerializesConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(NewMemorySessionStore())

	if err := sessions.Create(ctx, &models.QuizSession{ID: "s1"}); err != nil {
		t.Fatal(err)
	}

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sessions.Mutate(ctx, "s1", func(s *models.QuizSession) error {
				s.Score++
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	session, err := sessions.View(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if session.Score != writers {
		t.Errorf("Expected %d serialized increments, got %d", writers, session.Score)
	}
}

func TestMutateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(NewMemorySessionStore())

	if err := sessions.Create(ctx, &models.QuizSession{ID: "s1"}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("rejected")
	_, err := sessions.Mutate(ctx, "s1", func(s *models.QuizSession) error {
		s.Score = 42
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the callback error, got %v", err)
	}

	session, err := sessions.View(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if session.Score != 0 {
		t.Errorf("Failed mutation must not persist, got score %d", session.Score)
	}
}
