package shadow

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/perceptlab/study-engine/internal/quality"
	"github.com/perceptlab/study-engine/pkg/models"
)

// divergenceLogThreshold is the absolute score delta past which a single
// comparison is worth a log line on its own.
const divergenceLogThreshold = 0.2

// ScoreFunc maps a description and its word count to a quality score in [0,1].
type ScoreFunc func(description string, wordCount int) float64

// ResultStore persists shadow comparisons and serves their aggregates.
type ResultStore interface {
	SaveShadowScore(ctx context.Context, score *models.ShadowScore) error
	ShadowDrift(ctx context.Context, snapshotID int) (*models.ShadowDrift, error)
}

// Scorer runs a candidate quality formula next to the live one on accepted
// submissions. Candidate scores are recorded for offline review and never
// replace the live score; a candidate graduates only after its drift report
// has been watched over a full observation window.
type Scorer struct {
	store      ResultStore
	snapshotID int
	live       ScoreFunc
	candidate  ScoreFunc
}

// NewScorer compares the production formula against the current candidate.
// snapshotID tags every row so successive candidates can be told apart.
func NewScorer(store ResultStore, snapshotID int) *Scorer {
	return &Scorer{
		store:      store,
		snapshotID: snapshotID,
		live:       quality.QualityScore,
		candidate:  candidateScore,
	}
}

// Compare scores the description with both formulas and persists the diff.
// The returned row is populated even when persistence fails.
func (s *Scorer) Compare(ctx context.Context, submissionFK int64, description string, wordCount int) (*models.ShadowScore, error) {
	liveScore := s.live(description, wordCount)
	candScore := s.candidate(description, wordCount)

	row := &models.ShadowScore{
		SubmissionFK:   submissionFK,
		LiveScore:      liveScore,
		CandidateScore: candScore,
		Delta:          candScore - liveScore,
		AIFlip:         quality.AISuspected(liveScore, description) != quality.AISuspected(candScore, description),
		SnapshotID:     s.snapshotID,
		CreatedAt:      time.Now().UTC(),
	}

	if row.AIFlip || math.Abs(row.Delta) > divergenceLogThreshold {
		log.Printf("[Shadow] DIVERGENCE on submission %d: live=%.3f candidate=%.3f ai_flip=%v",
			submissionFK, liveScore, candScore, row.AIFlip)
	}

	if s.store != nil {
		if err := s.store.SaveShadowScore(ctx, row); err != nil {
			return row, err
		}
	}
	return row, nil
}

// Drift reports the aggregate divergence for this scorer's snapshot.
func (s *Scorer) Drift(ctx context.Context) (*models.ShadowDrift, error) {
	return s.store.ShadowDrift(ctx, s.snapshotID)
}

// candidateScore is the formula under evaluation. It swaps the character
// diversity term for word-level diversity, which separates careful prose from
// letter-shuffled filler much better in pilot data, and keeps the remaining
// terms identical to the live formula so deltas isolate the one change.
func candidateScore(description string, wordCount int) float64 {
	if description == "" {
		return 0
	}

	wordFactor := float64(wordCount) / 500
	if wordFactor > 1 {
		wordFactor = 1
	}

	diversity := wordDiversity(description)

	punctuation := 0.0
	if strings.ContainsAny(description, ".,!?;:") {
		punctuation = 1.0
	}

	sentenceFactor := float64(quality.CountSentences(description)) / 5
	if sentenceFactor > 1 {
		sentenceFactor = 1
	}

	score := 0.4*wordFactor + 0.2*diversity + 0.2*punctuation + 0.2*sentenceFactor
	if score > 1 {
		score = 1
	}
	return score
}

// wordDiversity is unique lowercase tokens over total tokens, in (0,1].
func wordDiversity(s string) float64 {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[strings.ToLower(t)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(tokens))
}
