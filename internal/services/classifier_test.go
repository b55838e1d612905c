package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

func TestLexiconClassifierLabels(t *testing.T) {
	c := NewLexiconClassifier()

	tests := []struct {
		text string
		want models.Sentiment
	}{
		{"Terrible wait time", models.SentimentNegative},
		{"The staff were great and really friendly", models.SentimentPositive},
		{"Service très rapide, merci !", models.SentimentPositive},
		{"Ce n'est pas bon du tout", models.SentimentNegative},
		{"Not bad at all", models.SentimentPositive},
		{"I don't like it", models.SentimentNegative},
		{"The parcel arrived on Tuesday", models.SentimentNeutral},
		{"Great food but rude staff", models.SentimentNeutral},
		{"No problem with the delivery", models.SentimentPositive},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			j, err := c.Classify(context.Background(), tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, j.Label)
			assert.NoError(t, checkJudgment(j))
		})
	}
}

func TestLexiconClassifierIsDeterministic(t *testing.T) {
	c := NewLexiconClassifier()
	first, err := c.Classify(context.Background(), "Terrible wait time")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := c.Classify(context.Background(), "Terrible wait time")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, Judgment{Label: models.SentimentNegative, Score: 0.8182}, first)
}

func TestLexiconClassifierFailures(t *testing.T) {
	c := NewLexiconClassifier()

	_, err := c.Classify(context.Background(), "!!! 123 ???")
	assert.ErrorIs(t, err, errNoWords)

	_, err = c.Classify(context.Background(), string([]byte{0xff, 0xfe, 'o', 'k'}))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Classify(ctx, "good")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJudgeNeutralWithoutEvidence(t *testing.T) {
	assert.Equal(t, Judgment{Label: models.SentimentNeutral, Score: 0.5}, judge(0, 0))
}

func TestCheckJudgment(t *testing.T) {
	assert.NoError(t, checkJudgment(Judgment{Label: models.SentimentPositive, Score: 1}))
	assert.Error(t, checkJudgment(Judgment{Label: "mixed", Score: 0.5}))
	assert.Error(t, checkJudgment(Judgment{Label: models.SentimentNeutral, Score: -0.1}))
	assert.Error(t, checkJudgment(Judgment{Label: models.SentimentNeutral, Score: 1.01}))
}

type fakeGenerator struct {
	reply  string
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestGeminiClassifierDecodesVerdict(t *testing.T) {
	gen := &fakeGenerator{reply: `{"label":"negative","score":0.93}`}
	c := newGeminiClassifier(gen, "", time.Second)

	j, err := c.Classify(context.Background(), "Terrible wait time")
	require.NoError(t, err)
	assert.Equal(t, Judgment{Label: models.SentimentNegative, Score: 0.93}, j)
	assert.Equal(t, DefaultGeminiModel, gen.model)
	require.NotNil(t, gen.config.Temperature)
	assert.Zero(t, *gen.config.Temperature)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
}

func TestGeminiClassifierErrors(t *testing.T) {
	_, err := newGeminiClassifier(&fakeGenerator{err: errors.New("quota")}, "m", time.Second).Classify(context.Background(), "x")
	assert.Error(t, err)

	_, err = newGeminiClassifier(&fakeGenerator{reply: "not json"}, "m", time.Second).Classify(context.Background(), "x")
	assert.Error(t, err)

	_, err = newGeminiClassifier(&fakeGenerator{reply: ""}, "m", time.Second).Classify(context.Background(), "x")
	assert.Error(t, err)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "déj", truncateRunes("déjà vu", 3))
	assert.Equal(t, "short", truncateRunes("short", 10))
}

func TestSentimentCacheKeyIsStable(t *testing.T) {
	a := sentimentCacheKey("Terrible wait time")
	assert.Equal(t, a, sentimentCacheKey("Terrible wait time"))
	assert.NotEqual(t, a, sentimentCacheKey("terrible wait time"))
	assert.Len(t, a, len(SentimentCacheKeyPrefix)+64)
}
