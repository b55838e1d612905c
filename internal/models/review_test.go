package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewValidateSourceOwnerPairing(t *testing.T) {
	base := Review{Content: "ok", Sentiment: SentimentNeutral, SentimentScore: 0.5}

	tests := []struct {
		name    string
		source  Source
		owner   Owner
		wantErr error
	}{
		{name: "manual on user", source: SourceManual, owner: UserOwner(1)},
		{name: "import on user", source: SourceImport, owner: UserOwner(1)},
		{name: "public on form", source: SourcePublic, owner: FormOwner(7)},
		{name: "public on user", source: SourcePublic, owner: UserOwner(1), wantErr: ErrReviewSource},
		{name: "manual on form", source: SourceManual, owner: FormOwner(7), wantErr: ErrReviewSource},
		{name: "import on form", source: SourceImport, owner: FormOwner(7), wantErr: ErrReviewSource},
		{name: "no owner", source: SourceManual, wantErr: ErrReviewOwner},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			r.Source = tc.source
			r.Owner = tc.owner
			err := r.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestReviewValidateRejectsBadJudgment(t *testing.T) {
	r := Review{Content: "x", Source: SourceManual, Owner: UserOwner(1), Sentiment: "angry", SentimentScore: 0.4}
	assert.Error(t, r.Validate())

	r.Sentiment = SentimentNegative
	r.SentimentScore = 1.2
	assert.Error(t, r.Validate())
}

func TestReviewJSONCarriesExactlyOneOwner(t *testing.T) {
	author := "Ana"
	r := Review{
		ID:             3,
		Content:        "Great staff",
		Author:         &author,
		Sentiment:      SentimentPositive,
		SentimentScore: 0.91,
		Source:         SourcePublic,
		Owner:          FormOwner(12),
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 12, raw["form_id"])
	assert.NotContains(t, raw, "owner_id")
	assert.Equal(t, "public", raw["source"])

	var back Review
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestScopeIncludes(t *testing.T) {
	account := AccountScope(5)
	assert.True(t, account.Includes(UserOwner(5), 0))
	assert.True(t, account.Includes(FormOwner(9), 5))
	assert.False(t, account.Includes(FormOwner(9), 6))
	assert.False(t, account.Includes(UserOwner(6), 0))

	form := FormScope(9)
	assert.True(t, form.Includes(FormOwner(9), 5))
	assert.False(t, form.Includes(UserOwner(9), 0))
}
