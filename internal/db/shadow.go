package db

import (
	"context"
	"fmt"

	"github.com/perceptlab/study-engine/pkg/models"
)

// SaveShadowScore writes one live-vs-candidate comparison row. Unlike the
// audit appends this returns the error; the shadow scorer reports its own
// failures.
func (s *PostgresStore) SaveShadowScore(ctx context.Context, sc *models.ShadowScore) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO shadow_scores (submission_fk, live_score, candidate_score, delta, ai_flip, snapshot_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, sc.SubmissionFK, sc.LiveScore, sc.CandidateScore, sc.Delta, sc.AIFlip, sc.SnapshotID, sc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save shadow score: %v", err)
	}
	return nil
}

// ShadowDrift aggregates all comparisons recorded for one candidate snapshot.
// An untouched snapshot reports zero runs rather than an error.
func (s *PostgresStore) ShadowDrift(ctx context.Context, snapshotID int) (*models.ShadowDrift, error) {
	drift := &models.ShadowDrift{SnapshotID: snapshotID}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE ai_flip),
		       COALESCE(AVG(delta), 0),
		       COALESCE(MAX(ABS(delta)), 0)
		FROM shadow_scores
		WHERE snapshot_id = $1;
	`, snapshotID).Scan(&drift.TotalRuns, &drift.AIFlips, &drift.AvgDelta, &drift.MaxDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to compute shadow drift: %v", err)
	}
	return drift, nil
}
