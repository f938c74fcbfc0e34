package shadow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/perceptlab/study-engine/internal/quality"
	"github.com/perceptlab/study-engine/pkg/models"
)

// captureStore records saved comparisons in memory.
type captureStore struct {
	saved   []*models.ShadowScore
	saveErr error
	drift   *models.ShadowDrift
}

func (c *captureStore) SaveShadowScore(ctx context.Context, s *models.ShadowScore) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.saved = append(c.saved, s)
	return nil
}

func (c *captureStore) ShadowDrift(ctx context.Context, snapshotID int) (*models.ShadowDrift, error) {
	return c.drift, nil
}

func TestCompareRecordsDiff(t *testing.T) {
	store := &captureStore{}
	scorer := NewScorer(store, 3)

	desc := "tree tree tree tree tree."
	words := quality.CountWords(desc)
	row, err := scorer.Compare(context.Background(), 42, desc, words)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if row.SubmissionFK != 42 {
		t.Errorf("Expected submission fk 42. Got: %d", row.SubmissionFK)
	}
	if row.SnapshotID != 3 {
		t.Errorf("Expected snapshot id 3. Got: %d", row.SnapshotID)
	}
	if row.LiveScore != quality.QualityScore(desc, words) {
		t.Errorf("Expected live score to match production formula. Got: %f", row.LiveScore)
	}
	if math.Abs(row.Delta-(row.CandidateScore-row.LiveScore)) > 1e-9 {
		t.Errorf("Expected delta = candidate - live. Got: %f", row.Delta)
	}
	if len(store.saved) != 1 {
		t.Fatalf("Expected 1 persisted comparison. Got: %d", len(store.saved))
	}
	if store.saved[0] != row {
		t.Error("Expected the returned row to be the persisted row")
	}
}

func TestCandidateRewardsVariedVocabulary(t *testing.T) {
	repeated := "blue blue blue blue blue blue blue blue."
	varied := "small blue boat drifting past weathered wooden docks."

	repScore := candidateScore(repeated, quality.CountWords(repeated))
	varScore := candidateScore(varied, quality.CountWords(varied))
	if varScore <= repScore {
		t.Errorf("Expected varied text to outscore repeated text. Got: %f vs %f", varScore, repScore)
	}

	// The live formula barely separates the two; that gap is the experiment.
	liveGap := quality.QualityScore(varied, quality.CountWords(varied)) - quality.QualityScore(repeated, quality.CountWords(repeated))
	if varScore-repScore <= liveGap {
		t.Errorf("Expected candidate gap to exceed live gap %f. Got: %f", liveGap, varScore-repScore)
	}
}

func TestCompareFlagsAIFlip(t *testing.T) {
	// 520 distinct tokens with semicolons and periods: near-perfect candidate
	// score with structural markers, while rune-level diversity keeps the
	// live score well under the AI threshold.
	var b strings.Builder
	for i := 0; i < 520; i++ {
		fmt.Fprintf(&b, "detail%03d", i)
		switch {
		case i%130 == 129:
			b.WriteString("; ")
		case i%65 == 64:
			b.WriteString(". ")
		default:
			b.WriteString(" ")
		}
	}
	desc := b.String()
	words := quality.CountWords(desc)

	store := &captureStore{}
	row, err := NewScorer(store, 1).Compare(context.Background(), 7, desc, words)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !row.AIFlip {
		t.Errorf("Expected an AI flip. Got: live=%f candidate=%f", row.LiveScore, row.CandidateScore)
	}
}

func TestCompareEmptyDescription(t *testing.T) {
	row, err := NewScorer(&captureStore{}, 1).Compare(context.Background(), 1, "", 0)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if row.LiveScore != 0 || row.CandidateScore != 0 || row.Delta != 0 {
		t.Errorf("Expected all-zero comparison for empty description. Got: %+v", row)
	}
}

func TestCompareWithoutStore(t *testing.T) {
	row, err := NewScorer(nil, 1).Compare(context.Background(), 9, "a quiet street.", 3)
	if err != nil {
		t.Fatalf("Expected store-less compare to succeed. Got: %v", err)
	}
	if row == nil {
		t.Fatal("Expected a comparison row")
	}
}

func TestCompareReturnsRowOnSaveError(t *testing.T) {
	store := &captureStore{saveErr: errors.New("connection reset")}
	row, err := NewScorer(store, 1).Compare(context.Background(), 5, "a quiet street.", 3)
	if err == nil {
		t.Fatal("Expected save error to propagate")
	}
	if row == nil {
		t.Fatal("Expected the comparison row despite the save error")
	}
}

func TestDriftDelegatesToStore(t *testing.T) {
	store := &captureStore{drift: &models.ShadowDrift{SnapshotID: 2, TotalRuns: 10, AIFlips: 1, AvgDelta: 0.03}}
	drift, err := NewScorer(store, 2).Drift(context.Background())
	if err != nil {
		t.Fatalf("Drift failed: %v", err)
	}
	if drift.TotalRuns != 10 || drift.AIFlips != 1 {
		t.Errorf("Expected the store aggregate verbatim. Got: %+v", drift)
	}
}

func TestWordDiversity(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
	}{
		{"empty", "", 0},
		{"all distinct", "red boat on water", 1.0},
		{"all same", "go go go go", 0.25},
		{"case folded", "Rain rain RAIN", 1.0 / 3.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wordDiversity(tc.in)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Expected %f. Got: %f", tc.want, got)
			}
		})
	}
}
