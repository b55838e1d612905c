package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

// Judgment is a classifier verdict. Score is the confidence in Label.
type Judgment struct {
	Label models.Sentiment `json:"label"`
	Score float64          `json:"score"`
}

// Classifier maps text to a sentiment judgment. Implementations must be
// deterministic for identical input within a deployment and safe for
// concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (Judgment, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Judgment, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (Judgment, error) {
	return f(ctx, text)
}

var errNoWords = errors.New("text contains no words")

// checkJudgment rejects verdicts outside the label set or the [0,1] range.
func checkJudgment(j Judgment) error {
	if !j.Label.Valid() {
		return fmt.Errorf("unknown label %q", j.Label)
	}
	if math.IsNaN(j.Score) || j.Score < 0 || j.Score > 1 {
		return fmt.Errorf("score %v outside [0,1]", j.Score)
	}
	return nil
}

const (
	neutralBand      = 0.15
	negationWindow   = 3
	negatedWeight    = -0.5
	intensifierBoost = 1.5
	diminisherDamp   = 0.5
)

// LexiconClassifier scores text against an English and French polarity
// lexicon with negation and intensifier handling.
type LexiconClassifier struct{}

func NewLexiconClassifier() *LexiconClassifier { return &LexiconClassifier{} }

func (LexiconClassifier) Classify(ctx context.Context, text string) (Judgment, error) {
	if err := ctx.Err(); err != nil {
		return Judgment{}, err
	}
	if !utf8.ValidString(text) {
		return Judgment{}, errors.New("text is not valid UTF-8")
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Judgment{}, errNoWords
	}

	var net, mass float64
	negatedFor := 0
	modifier := 1.0
	for _, tok := range tokens {
		if negators[tok] {
			negatedFor = negationWindow
			continue
		}
		if m, ok := modifiers[tok]; ok {
			modifier = m
			continue
		}

		w, ok := lexicon[tok]
		if ok {
			w *= modifier
			if negatedFor > 0 {
				w *= negatedWeight
			}
			net += w
			mass += math.Abs(w)
		}
		modifier = 1.0
		if negatedFor > 0 {
			negatedFor--
		}
	}

	return judge(net, mass), nil
}

// judge turns the accumulated evidence into a label and confidence.
func judge(net, mass float64) Judgment {
	if mass == 0 {
		return Judgment{Label: models.SentimentNeutral, Score: 0.5}
	}
	polarity := net / (mass + 1)
	abs := math.Abs(polarity)
	switch {
	case polarity > neutralBand:
		return Judgment{Label: models.SentimentPositive, Score: round4(0.5 + abs/2)}
	case polarity < -neutralBand:
		return Judgment{Label: models.SentimentNegative, Score: round4(0.5 + abs/2)}
	}
	evidence := mass / (mass + 1)
	return Judgment{Label: models.SentimentNeutral, Score: round4(0.5 + 0.5*(1-abs/neutralBand)*evidence)}
}

func round4(f float64) float64 { return math.Round(f*10000) / 10000 }

var accentFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"œ", "oe",
	"n’t", " not",
	"n't", " not",
	"’", "'",
)

// tokenize lower-cases, folds accents and splits on anything that is not a
// letter. Apostrophes split too, so "n'est" yields "n" and "est".
func tokenize(text string) []string {
	folded := accentFolder.Replace(strings.ToLower(text))
	return strings.FieldsFunc(folded, func(r rune) bool { return !unicode.IsLetter(r) })
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true, "nobody": true, "without": true, "hardly": true,
	"ne": true, "n": true, "pas": true, "jamais": true, "aucun": true, "aucune": true, "sans": true, "rien": true,
}

var modifiers = map[string]float64{
	"very": intensifierBoost, "really": intensifierBoost, "so": intensifierBoost, "extremely": intensifierBoost,
	"super": intensifierBoost, "absolutely": intensifierBoost, "totally": intensifierBoost, "incredibly": intensifierBoost,
	"tres": intensifierBoost, "vraiment": intensifierBoost, "trop": intensifierBoost, "tellement": intensifierBoost,
	"extremement": intensifierBoost, "totalement": intensifierBoost, "hyper": intensifierBoost,
	"slightly": diminisherDamp, "somewhat": diminisherDamp, "fairly": diminisherDamp, "kinda": diminisherDamp,
	"peu": diminisherDamp, "plutot": diminisherDamp, "moyennement": diminisherDamp,
}

var lexicon = map[string]float64{
	// English, positive
	"good": 1, "great": 1.5, "excellent": 2, "amazing": 2, "awesome": 2, "fantastic": 2, "wonderful": 2,
	"perfect": 2, "love": 1.5, "loved": 1.5, "like": 0.5, "liked": 0.5, "nice": 1, "happy": 1, "pleased": 1,
	"friendly": 1, "helpful": 1, "fast": 0.5, "quick": 0.5, "clean": 0.5, "easy": 0.5, "recommend": 1,
	"satisfied": 1, "best": 1.5, "polite": 1, "delicious": 1.5, "efficient": 1, "enjoyed": 1, "thanks": 0.5,
	"thank": 0.5, "impressive": 1.5, "comfortable": 1, "smooth": 0.5, "reliable": 1, "fine": 0.5,
	// English, negative
	"bad": -1, "terrible": -1.5, "awful": -2, "horrible": -2, "worst": -2, "poor": -1, "hate": -1.5,
	"hated": -1.5, "slow": -0.5, "dirty": -1, "rude": -1.5, "broken": -1, "disappointed": -1.5,
	"disappointing": -1.5, "unhappy": -1, "angry": -1.5, "late": -0.5, "expensive": -0.5, "wait": -0.25,
	"waiting": -0.25, "problem": -0.5, "issue": -0.5, "refund": -0.5, "useless": -1.5,
	"annoying": -1, "cold": -0.5, "noisy": -0.5, "mediocre": -1, "unacceptable": -2, "complaint": -1,
	"disgusting": -2, "overpriced": -1, "confusing": -0.5, "lost": -0.5, "fail": -1, "failed": -1,
	// French, positive
	"bon": 1, "bonne": 1, "bien": 1, "genial": 1.5, "parfait": 2, "parfaite": 2,
	"excellente": 2, "merci": 0.5, "aime": 1, "adore": 1.5, "sympa": 1, "agreable": 1, "rapide": 0.5,
	"propre": 0.5, "satisfait": 1, "satisfaite": 1, "recommande": 1, "top": 1, "meilleur": 1.5,
	"meilleure": 1.5, "accueillant": 1, "accueillante": 1, "efficace": 1, "delicieux": 1.5, "formidable": 2,
	"content": 1, "contente": 1, "magnifique": 2, "impeccable": 1.5, "chaleureux": 1,
	// French, negative
	"mauvais": -1, "mauvaise": -1, "nul": -1.5, "nulle": -1.5, "lent": -0.5,
	"lente": -0.5, "sale": -1, "decu": -1.5, "decue": -1.5, "decevant": -1.5, "decevante": -1.5,
	"impoli": -1.5, "impolie": -1.5, "cher": -0.5, "chere": -0.5, "attente": -0.25, "probleme": -0.5,
	"pire": -2, "inacceptable": -2, "deteste": -1.5, "catastrophe": -2, "froid": -0.5, "bruyant": -0.5,
	"desagreable": -1, "retard": -0.5, "mecontent": -1.5, "mecontente": -1.5, "arnaque": -2,
}
