package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel      = "gemini-2.0-flash"
	geminiMaxInputRunes     = 2000
	defaultClassifyTimeout  = 10 * time.Second
	geminiSystemInstruction = "You label customer feedback. Reply with the overall sentiment of the text " +
		"as positive, neutral or negative, and your confidence in that label between 0 and 1. " +
		"The feedback may be in English or French."
)

// contentGenerator is the part of *genai.Models the classifier uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClassifier asks a Gemini model for a structured verdict.
type GeminiClassifier struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewGeminiClassifier creates a Gemini API client for apiKey.
func NewGeminiClassifier(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiClassifier(client.Models, model, timeout), nil
}

func newGeminiClassifier(models contentGenerator, model string, timeout time.Duration) *GeminiClassifier {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	return &GeminiClassifier{models: models, model: model, timeout: timeout}
}

var judgmentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"label": {Type: genai.TypeString, Enum: []string{"positive", "neutral", "negative"}},
		"score": {Type: genai.TypeNumber},
	},
	Required: []string{"label", "score"},
}

func (g *GeminiClassifier) Classify(ctx context.Context, text string) (Judgment, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(geminiSystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    judgmentSchema,
	}
	contents := []*genai.Content{genai.NewContentFromText(truncateRunes(text, geminiMaxInputRunes), genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Judgment{}, fmt.Errorf("gemini generate: %w", err)
	}

	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return Judgment{}, errors.New("gemini returned an empty response")
	}
	var j Judgment
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return Judgment{}, fmt.Errorf("decode gemini verdict: %w", err)
	}
	j.Score = round4(j.Score)
	return j, nil
}

func truncateRunes(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
