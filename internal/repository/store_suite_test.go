package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

// runStoreSuite checks the behaviour every Store implementation shares.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, &models.User{Email: "dup@example.com", PasswordHash: "x", Role: models.RoleUser, IsActive: true}))

		err := s.CreateUser(ctx, &models.User{Email: "DUP@example.com", PasswordHash: "x", Role: models.RoleUser, IsActive: true})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("duplicate public id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		owner := seedUser(t, s, "forms@example.com")
		id := uuid.NewString()

		require.NoError(t, s.CreateForm(ctx, &models.FeedbackForm{UUID: id, Name: "a", Question: models.DefaultQuestion, OwnerID: owner.ID}))
		err := s.CreateForm(ctx, &models.FeedbackForm{UUID: id, Name: "b", Question: models.DefaultQuestion, OwnerID: owner.ID})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("account scope covers direct and form reviews", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		alice := seedUser(t, s, "alice@example.com")
		bob := seedUser(t, s, "bob@example.com")
		form := seedForm(t, s, alice.ID)
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		seedReview(t, s, models.UserOwner(alice.ID), models.SourceManual, models.SentimentPositive, base)
		seedReview(t, s, models.FormOwner(form.ID), models.SourcePublic, models.SentimentNegative, base.Add(time.Minute))
		seedReview(t, s, models.UserOwner(bob.ID), models.SourceImport, models.SentimentNeutral, base.Add(2*time.Minute))

		counts, recent, err := s.Summarize(ctx, models.AccountScope(alice.ID), 5)
		require.NoError(t, err)
		assert.Equal(t, models.SentimentCounts{Positive: 1, Negative: 1}, counts)
		require.Len(t, recent, 2)
		assert.Equal(t, models.FormOwner(form.ID), recent[0].Owner)

		counts, recent, err = s.Summarize(ctx, models.FormScope(form.ID), 5)
		require.NoError(t, err)
		assert.Equal(t, 1, counts.Total())
		assert.Len(t, recent, 1)
	})

	t.Run("recent order breaks ties by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := seedUser(t, s, "ties@example.com")
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		first := seedReview(t, s, models.UserOwner(u.ID), models.SourceManual, models.SentimentNeutral, at)
		second := seedReview(t, s, models.UserOwner(u.ID), models.SourceManual, models.SentimentNeutral, at)
		older := seedReview(t, s, models.UserOwner(u.ID), models.SourceManual, models.SentimentNeutral, at.Add(-time.Hour))

		_, recent, err := s.Summarize(ctx, models.AccountScope(u.ID), 5)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, []int64{second.ID, first.ID, older.ID}, []int64{recent[0].ID, recent[1].ID, recent[2].ID})

		page, err := s.ListReviews(ctx, models.AccountScope(u.ID), 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, first.ID, page[0].ID)
	})

	t.Run("empty scope", func(t *testing.T) {
		s := newStore(t)
		u := seedUser(t, s, "empty@example.com")

		counts, recent, err := s.Summarize(context.Background(), models.AccountScope(u.ID), 5)
		require.NoError(t, err)
		assert.Zero(t, counts.Total())
		assert.NotNil(t, recent)
		assert.Empty(t, recent)
	})

	t.Run("delete form cascades", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := seedUser(t, s, "cascade@example.com")
		form := seedForm(t, s, u.ID)
		seedReview(t, s, models.FormOwner(form.ID), models.SourcePublic, models.SentimentPositive, time.Now().UTC())
		seedReview(t, s, models.UserOwner(u.ID), models.SourceManual, models.SentimentPositive, time.Now().UTC())

		require.NoError(t, s.DeleteForm(ctx, form.ID))

		_, err := s.GetForm(ctx, form.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		counts, _, err := s.Summarize(ctx, models.AccountScope(u.ID), 5)
		require.NoError(t, err)
		assert.Equal(t, 1, counts.Total())

		assert.ErrorIs(t, s.DeleteForm(ctx, form.ID), ErrNotFound)
	})

	t.Run("delete user cascades", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := seedUser(t, s, "gone@example.com")
		form := seedForm(t, s, u.ID)
		seedReview(t, s, models.FormOwner(form.ID), models.SourcePublic, models.SentimentPositive, time.Now().UTC())

		require.NoError(t, s.DeleteUser(ctx, u.ID))

		_, err := s.GetFormByUUID(ctx, form.UUID)
		assert.ErrorIs(t, err, ErrNotFound)
		counts, _, err := s.Summarize(ctx, models.FormScope(form.ID), 5)
		require.NoError(t, err)
		assert.Zero(t, counts.Total())
	})

	t.Run("insert on deleted form", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := seedUser(t, s, "late@example.com")
		form := seedForm(t, s, u.ID)
		require.NoError(t, s.DeleteForm(ctx, form.ID))

		r := &models.Review{Content: "late", Sentiment: models.SentimentNeutral, SentimentScore: 0.5, Source: models.SourcePublic, Owner: models.FormOwner(form.ID), CreatedAt: time.Now().UTC()}
		assert.ErrorIs(t, s.InsertReview(ctx, r), ErrNotFound)
	})

	t.Run("unknown public id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetFormByUUID(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetFormByUUID(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

var seedCounter int

func seedUser(t *testing.T, s Store, email string) *models.User {
	t.Helper()
	seedCounter++
	u := &models.User{Email: fmt.Sprintf("%d.%s", seedCounter, email), PasswordHash: "hash", Role: models.RoleUser, IsActive: true}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedForm(t *testing.T, s Store, ownerID int64) *models.FeedbackForm {
	t.Helper()
	f := &models.FeedbackForm{UUID: uuid.NewString(), Name: "Front desk", Question: models.DefaultQuestion, OwnerID: ownerID}
	require.NoError(t, s.CreateForm(context.Background(), f))
	return f
}

func seedReview(t *testing.T, s Store, owner models.Owner, source models.Source, label models.Sentiment, at time.Time) *models.Review {
	t.Helper()
	r := &models.Review{Content: "text", Sentiment: label, SentimentScore: 0.8, Source: source, Owner: owner, CreatedAt: at}
	require.NoError(t, s.InsertReview(context.Background(), r))
	return r
}
