package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/observability"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/repository"
)

const (
	MaxContentRunes = 5000
	MaxAuthorRunes  = 120
)

// ReviewPublisher is notified after a review is stored. accountID is the
// user whose account scope now includes the review.
type ReviewPublisher interface {
	PublishReview(ctx context.Context, accountID int64, review models.Review)
}

// Pipeline is the single path every review takes into storage: validate,
// classify, persist. Nothing is persisted before classification succeeds.
type Pipeline struct {
	reviews    repository.Reviews
	forms      *FormRegistry
	classifier Classifier
	publisher  ReviewPublisher
	now        func() time.Time
}

func NewPipeline(reviews repository.Reviews, forms *FormRegistry, classifier Classifier) *Pipeline {
	return &Pipeline{
		reviews:    reviews,
		forms:      forms,
		classifier: classifier,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// WithPublisher sets the live feed notified after each stored review.
func (p *Pipeline) WithPublisher(pub ReviewPublisher) *Pipeline {
	p.publisher = pub
	return p
}

// target describes where an ingested review lands.
type target struct {
	owner     models.Owner
	source    models.Source
	accountID int64
}

// SubmitManual stores a review typed in by the authenticated caller.
func (p *Pipeline) SubmitManual(ctx context.Context, id Identity, content string) (*models.Review, error) {
	if id.UserID == 0 {
		return nil, ErrUnauthorized
	}
	return p.ingest(ctx, content, nil, target{
		owner:     models.UserOwner(id.UserID),
		source:    models.SourceManual,
		accountID: id.UserID,
	})
}

// SubmitPublic stores an anonymous submission against the form behind
// publicID. The form is resolved before anything else happens.
func (p *Pipeline) SubmitPublic(ctx context.Context, publicID, content string, author *string) (*models.Review, error) {
	form, err := p.forms.ResolvePublic(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return p.ingest(ctx, content, author, target{
		owner:     models.FormOwner(form.ID),
		source:    models.SourcePublic,
		accountID: form.OwnerID,
	})
}

func (p *Pipeline) ingest(ctx context.Context, content string, author *string, t target) (*models.Review, error) {
	source := string(t.source)

	text, err := normalizeContent(content)
	if err != nil {
		observability.RecordIngest(source, "invalid")
		return nil, err
	}
	name, err := normalizeAuthor(author)
	if err != nil {
		observability.RecordIngest(source, "invalid")
		return nil, err
	}

	judgment, err := p.classify(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			observability.RecordIngest(source, "canceled")
			return nil, ctxErr
		}
		observability.RecordIngest(source, "unclassifiable")
		return nil, ClassificationError(err)
	}

	review := &models.Review{
		Content:        text,
		Author:         name,
		Sentiment:      judgment.Label,
		SentimentScore: judgment.Score,
		Source:         t.source,
		Owner:          t.owner,
		CreatedAt:      p.now(),
	}
	if err := p.reviews.InsertReview(ctx, review); err != nil {
		observability.RecordIngest(source, "error")
		if errors.Is(err, repository.ErrNotFound) {
			if t.owner.Kind() == models.OwnerForm {
				return nil, notFoundError("form not found")
			}
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("store review: %w", err)
	}
	observability.RecordIngest(source, "stored")

	if p.publisher != nil {
		p.publisher.PublishReview(ctx, t.accountID, *review)
	}
	log.Debug().
		Int64("review_id", review.ID).
		Str("source", source).
		Str("sentiment", string(review.Sentiment)).
		Msg("review ingested")
	return review, nil
}

// classify runs the classifier and rejects verdicts outside the contract.
func (p *Pipeline) classify(ctx context.Context, text string) (Judgment, error) {
	start := time.Now()
	j, err := p.classifier.Classify(ctx, text)
	if err == nil {
		err = checkJudgment(j)
	}
	observability.RecordClassification(time.Since(start), err == nil)
	return j, err
}

func normalizeContent(content string) (string, error) {
	if !utf8.ValidString(content) {
		return "", validationError("content must be valid UTF-8 text")
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return "", validationError("content must not be empty")
	}
	if utf8.RuneCountInString(text) > MaxContentRunes {
		return "", validationError(fmt.Sprintf("content must be at most %d characters", MaxContentRunes))
	}
	return text, nil
}

func normalizeAuthor(author *string) (*string, error) {
	if author == nil {
		return nil, nil
	}
	if !utf8.ValidString(*author) {
		return nil, validationError("author must be valid UTF-8 text")
	}
	name := strings.TrimSpace(*author)
	if name == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(name) > MaxAuthorRunes {
		return nil, validationError(fmt.Sprintf("author must be at most %d characters", MaxAuthorRunes))
	}
	return &name, nil
}
