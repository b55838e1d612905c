package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/repository"
)

type harness struct {
	store    *repository.Memory
	forms    *FormRegistry
	pipeline *Pipeline
	importer *Importer
	summary  *Aggregator
	users    *UserService
	sessions *MemorySessions
}

func newHarness(t *testing.T, classifier Classifier) *harness {
	t.Helper()
	if classifier == nil {
		classifier = NewLexiconClassifier()
	}
	store := repository.NewMemory()
	forms := NewFormRegistry(store)
	pipeline := NewPipeline(store, forms, classifier)
	sessions := NewMemorySessions(time.Hour)
	return &harness{
		store:    store,
		forms:    forms,
		pipeline: pipeline,
		importer: NewImporter(pipeline, ImportOptions{Concurrency: 4}),
		summary:  NewAggregator(store, forms),
		users:    NewUserService(store, sessions),
		sessions: sessions,
	}
}

func (h *harness) user(t *testing.T, email string, role models.Role) Identity {
	t.Helper()
	u, err := h.users.create(context.Background(), NewUser{Email: email, Password: "password123", Role: role})
	require.NoError(t, err)
	return Identity{UserID: u.ID, Role: u.Role}
}

// fixedClassifier returns the same verdict for everything.
func fixedClassifier(label models.Sentiment, score float64) Classifier {
	return ClassifierFunc(func(ctx context.Context, text string) (Judgment, error) {
		return Judgment{Label: label, Score: score}, nil
	})
}

func strPtr(s string) *string { return &s }
