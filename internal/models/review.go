package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentiment is the label produced by the classifier.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists every label in display order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// Valid reports whether s is one of the three known labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Source records how a review entered the system.
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
	SourcePublic Source = "public"
)

// Valid reports whether s is a known source tag.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceImport, SourcePublic:
		return true
	}
	return false
}

// OwnerKind discriminates the Owner union.
type OwnerKind uint8

const (
	OwnerUser OwnerKind = iota + 1
	OwnerForm
)

// Owner is the ownership scope of a review: exactly one of a user or a form.
// The zero value owns nothing and is rejected by Review.Validate.
type Owner struct {
	kind OwnerKind
	id   int64
}

// UserOwner binds a review directly to a user account.
func UserOwner(userID int64) Owner { return Owner{kind: OwnerUser, id: userID} }

// FormOwner binds a review to a form. The form's owner owns it implicitly.
func FormOwner(formID int64) Owner { return Owner{kind: OwnerForm, id: formID} }

func (o Owner) Kind() OwnerKind { return o.kind }

// UserID returns the owning user when the review is bound to a user.
func (o Owner) UserID() (int64, bool) {
	if o.kind != OwnerUser {
		return 0, false
	}
	return o.id, true
}

// FormID returns the owning form when the review is bound to a form.
func (o Owner) FormID() (int64, bool) {
	if o.kind != OwnerForm {
		return 0, false
	}
	return o.id, true
}

func (o Owner) IsZero() bool { return o.kind == 0 || o.id <= 0 }

// Review is a classified piece of feedback. It is immutable once stored.
type Review struct {
	ID             int64
	Content        string
	Author         *string
	Sentiment      Sentiment
	SentimentScore float64
	Source         Source
	Owner          Owner
	CreatedAt      time.Time
}

var (
	ErrReviewOwner  = errors.New("review must be owned by exactly one user or form")
	ErrReviewSource = errors.New("review source does not match its owner")
)

// Validate checks the invariants every stored review satisfies.
func (r Review) Validate() error {
	if r.Owner.IsZero() {
		return ErrReviewOwner
	}
	if !r.Source.Valid() {
		return fmt.Errorf("unknown review source %q", r.Source)
	}
	formScoped := r.Owner.Kind() == OwnerForm
	if formScoped != (r.Source == SourcePublic) {
		return ErrReviewSource
	}
	if !r.Sentiment.Valid() {
		return fmt.Errorf("unknown sentiment %q", r.Sentiment)
	}
	if r.SentimentScore < 0 || r.SentimentScore > 1 || r.SentimentScore != r.SentimentScore {
		return fmt.Errorf("sentiment score %v out of range", r.SentimentScore)
	}
	return nil
}

type reviewJSON struct {
	ID             int64     `json:"id"`
	Source         Source    `json:"source"`
	Author         *string   `json:"author"`
	Content        string    `json:"content"`
	Sentiment      Sentiment `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	OwnerID        *int64    `json:"owner_id,omitempty"`
	FormID         *int64    `json:"form_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r Review) MarshalJSON() ([]byte, error) {
	out := reviewJSON{
		ID:             r.ID,
		Source:         r.Source,
		Author:         r.Author,
		Content:        r.Content,
		Sentiment:      r.Sentiment,
		SentimentScore: r.SentimentScore,
		CreatedAt:      r.CreatedAt,
	}
	if id, ok := r.Owner.UserID(); ok {
		out.OwnerID = &id
	}
	if id, ok := r.Owner.FormID(); ok {
		out.FormID = &id
	}
	return json.Marshal(out)
}

func (r *Review) UnmarshalJSON(data []byte) error {
	var in reviewJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Review{
		ID:             in.ID,
		Source:         in.Source,
		Author:         in.Author,
		Content:        in.Content,
		Sentiment:      in.Sentiment,
		SentimentScore: in.SentimentScore,
		CreatedAt:      in.CreatedAt,
	}
	switch {
	case in.OwnerID != nil && in.FormID != nil:
		return ErrReviewOwner
	case in.OwnerID != nil:
		r.Owner = UserOwner(*in.OwnerID)
	case in.FormID != nil:
		r.Owner = FormOwner(*in.FormID)
	}
	return nil
}
