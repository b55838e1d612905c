package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []FeedEvent
}

func (p *recordingPublisher) PublishReview(ctx context.Context, accountID int64, review models.Review) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, FeedEvent{AccountID: accountID, Review: review})
}

func TestSubmitManualStoresClassifiedReview(t *testing.T) {
	h := newHarness(t, nil)
	pub := &recordingPublisher{}
	h.pipeline.WithPublisher(pub)
	user := h.user(t, "ana@example.com", models.RoleUser)

	review, err := h.pipeline.SubmitManual(context.Background(), user, "  The staff were great  ")
	require.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.Equal(t, "The staff were great", review.Content)
	assert.Equal(t, models.SourceManual, review.Source)
	assert.Equal(t, models.UserOwner(user.UserID), review.Owner)
	assert.Equal(t, models.SentimentPositive, review.Sentiment)
	assert.Nil(t, review.Author)
	assert.False(t, review.CreatedAt.IsZero())

	require.Len(t, pub.events, 1)
	assert.Equal(t, user.UserID, pub.events[0].AccountID)
	assert.Equal(t, review.ID, pub.events[0].Review.ID)
}

func TestSubmitRejectsInvalidContent(t *testing.T) {
	h := newHarness(t, nil)
	user := h.user(t, "ana@example.com", models.RoleUser)

	for _, content := range []string{"", "   \n\t", strings.Repeat("a", MaxContentRunes+1)} {
		_, err := h.pipeline.SubmitManual(context.Background(), user, content)
		assert.ErrorIs(t, err, ErrValidation)
	}

	counts, _, err := h.store.Summarize(context.Background(), models.AccountScope(user.UserID), 5)
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}

func TestSubmitAcceptsContentAtLimit(t *testing.T) {
	h := newHarness(t, fixedClassifier(models.SentimentNeutral, 0.5))
	user := h.user(t, "ana@example.com", models.RoleUser)

	_, err := h.pipeline.SubmitManual(context.Background(), user, strings.Repeat("é", MaxContentRunes))
	assert.NoError(t, err)
}

func TestClassificationFailureStoresNothing(t *testing.T) {
	failing := ClassifierFunc(func(ctx context.Context, text string) (Judgment, error) {
		return Judgment{}, errors.New("model unavailable")
	})
	h := newHarness(t, failing)
	user := h.user(t, "ana@example.com", models.RoleUser)

	_, err := h.pipeline.SubmitManual(context.Background(), user, "Great service")
	assert.ErrorIs(t, err, ErrClassification)

	counts, _, err := h.store.Summarize(context.Background(), models.AccountScope(user.UserID), 5)
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}

func TestOutOfContractJudgmentIsAClassificationFailure(t *testing.T) {
	for _, j := range []Judgment{{Label: "mixed", Score: 0.5}, {Label: models.SentimentPositive, Score: 1.5}} {
		bad := j
		h := newHarness(t, ClassifierFunc(func(ctx context.Context, text string) (Judgment, error) { return bad, nil }))
		user := h.user(t, "ana@example.com", models.RoleUser)

		_, err := h.pipeline.SubmitManual(context.Background(), user, "text")
		assert.ErrorIs(t, err, ErrClassification)
	}
}

func TestSubmitPublicLandsInFormScope(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	pub := &recordingPublisher{}
	h.pipeline.WithPublisher(pub)
	owner := h.user(t, "owner@example.com", models.RoleUser)
	form, err := h.forms.CreateForm(ctx, owner, "Lobby", nil)
	require.NoError(t, err)

	review, err := h.pipeline.SubmitPublic(ctx, form.UUID, "Terrible wait time", nil)
	require.NoError(t, err)
	assert.Equal(t, models.SourcePublic, review.Source)
	assert.Equal(t, models.FormOwner(form.ID), review.Owner)
	assert.Nil(t, review.Author)
	assert.Equal(t, models.SentimentNegative, review.Sentiment)

	stats, err := h.summary.FormStats(ctx, owner, form.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalReviews)
	assert.Equal(t, 1, stats.Negative)
	require.Len(t, stats.LatestReviews, 1)
	assert.Equal(t, review.ID, stats.LatestReviews[0].ID)

	dash, err := h.summary.Dashboard(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.TotalReviews)

	require.Len(t, pub.events, 1)
	assert.Equal(t, owner.UserID, pub.events[0].AccountID)
}

func TestSubmitPublicAuthor(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	owner := h.user(t, "owner@example.com", models.RoleUser)
	form, err := h.forms.CreateForm(ctx, owner, "Lobby", nil)
	require.NoError(t, err)

	review, err := h.pipeline.SubmitPublic(ctx, form.UUID, "Lovely", strPtr("  Ana  "))
	require.NoError(t, err)
	require.NotNil(t, review.Author)
	assert.Equal(t, "Ana", *review.Author)

	review, err = h.pipeline.SubmitPublic(ctx, form.UUID, "Lovely", strPtr("   "))
	require.NoError(t, err)
	assert.Nil(t, review.Author)

	_, err = h.pipeline.SubmitPublic(ctx, form.UUID, "Lovely", strPtr(strings.Repeat("x", MaxAuthorRunes+1)))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.pipeline.SubmitPublic(ctx, form.UUID, "Lovely", strPtr("An\xffa"))
	assert.ErrorIs(t, err, ErrValidation)

	counts, _, err := h.store.Summarize(ctx, models.FormScope(form.ID), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total())
}

func TestSubmitPublicUnknownFormIsNotFound(t *testing.T) {
	classified := false
	h := newHarness(t, ClassifierFunc(func(ctx context.Context, text string) (Judgment, error) {
		classified = true
		return Judgment{Label: models.SentimentNeutral, Score: 0.5}, nil
	}))

	_, err := h.pipeline.SubmitPublic(context.Background(), uuid.NewString(), "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, classified)
}

func TestFormDeletedDuringClassification(t *testing.T) {
	var h *harness
	var owner Identity
	var formID int64
	h = newHarness(t, ClassifierFunc(func(ctx context.Context, text string) (Judgment, error) {
		require.NoError(t, h.forms.DeleteForm(ctx, owner, formID))
		return Judgment{Label: models.SentimentPositive, Score: 0.9}, nil
	}))
	owner = h.user(t, "owner@example.com", models.RoleUser)
	form, err := h.forms.CreateForm(context.Background(), owner, "Doomed", nil)
	require.NoError(t, err)
	formID = form.ID

	_, err = h.pipeline.SubmitPublic(context.Background(), form.UUID, "Nice", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	counts, _, err := h.store.Summarize(context.Background(), models.FormScope(form.ID), 5)
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}

func TestSubmitManualRequiresIdentity(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.pipeline.SubmitManual(context.Background(), Identity{}, "hello")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
