package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemoryInsertRejectsInvalidReview(t *testing.T) {
	m := NewMemory()
	u := seedUser(t, m, "invalid@example.com")

	r := &models.Review{Content: "x", Sentiment: models.SentimentPositive, SentimentScore: 0.9, Source: models.SourcePublic, Owner: models.UserOwner(u.ID)}
	assert.ErrorIs(t, m.InsertReview(context.Background(), r), models.ErrReviewSource)
	assert.Zero(t, r.ID)
}
