package models

// ScopeKind discriminates the Scope union.
type ScopeKind uint8

const (
	ScopeAccount ScopeKind = iota + 1
	ScopeForm
)

// Scope selects the reviews an aggregation or listing runs over.
// An account scope covers the user's direct reviews and the reviews on every
// form the user owns.
type Scope struct {
	kind ScopeKind
	id   int64
}

func AccountScope(userID int64) Scope { return Scope{kind: ScopeAccount, id: userID} }

func FormScope(formID int64) Scope { return Scope{kind: ScopeForm, id: formID} }

func (s Scope) Kind() ScopeKind { return s.kind }

func (s Scope) ID() int64 { return s.id }

// Includes reports whether a review owned by owner falls in the scope.
// formOwner is the owning user of the review's form, if any.
func (s Scope) Includes(owner Owner, formOwner int64) bool {
	switch s.kind {
	case ScopeAccount:
		if id, ok := owner.UserID(); ok {
			return id == s.id
		}
		return formOwner == s.id
	case ScopeForm:
		id, ok := owner.FormID()
		return ok && id == s.id
	}
	return false
}

// SentimentCounts holds the number of reviews per label.
type SentimentCounts struct {
	Positive int
	Neutral  int
	Negative int
}

func (c SentimentCounts) Total() int { return c.Positive + c.Neutral + c.Negative }

// Add increments the counter for label.
func (c *SentimentCounts) Add(label Sentiment, n int) {
	switch label {
	case SentimentPositive:
		c.Positive += n
	case SentimentNeutral:
		c.Neutral += n
	case SentimentNegative:
		c.Negative += n
	}
}

// DashboardSummary is computed fresh on every read and never stored.
type DashboardSummary struct {
	TotalReviews  int      `json:"total_reviews"`
	Positive      int      `json:"positive"`
	Neutral       int      `json:"neutral"`
	Negative      int      `json:"negative"`
	LatestReviews []Review `json:"latest_reviews"`
}

// ImportRowError describes why one row of a bulk import was skipped.
// Row numbers start at 1 for the first data row after the header.
type ImportRowError struct {
	Row    int    `json:"row" bson:"row"`
	Reason string `json:"reason" bson:"reason"`
}

// ImportReport is returned by every bulk import, even when all rows failed.
type ImportReport struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors"`
}
