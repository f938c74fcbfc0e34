package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/perceptlab/study-engine/pkg/models"
)

// GetRewardStatus loads the reward projection for one participant.
func (s *PostgresStore) GetRewardStatus(ctx context.Context, participantID string) (*models.RewardStatus, error) {
	sql := `
		SELECT ps.total_words, ps.survey_rounds, ps.priority_eligible, ps.last_reward_attempt_at,
		       rw.amount, rw.status
		FROM participants p
		LEFT JOIN participant_stats ps ON ps.participant_fk = p.id
		LEFT JOIN reward_winners rw ON rw.participant_fk = p.id
		WHERE p.participant_id = $1;
	`
	var (
		totalWords   *int
		surveyRounds *int
		priority     *bool
		status       models.RewardStatus
	)
	err := s.pool.QueryRow(ctx, sql, participantID).Scan(
		&totalWords, &surveyRounds, &priority, &status.LastRewardAttemptAt,
		&status.RewardAmount, &status.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reward status: %v", err)
	}
	if totalWords != nil {
		status.TotalWords = *totalWords
	}
	if surveyRounds != nil {
		status.SurveyRounds = *surveyRounds
	}
	if priority != nil {
		status.PriorityEligible = *priority
	}
	status.IsWinner = status.Status != nil
	return &status, nil
}

// SelectReward runs one selection attempt. The caller supplies the uniform
// draw in [0,1) so the procedure stays deterministic under test; amount,
// probabilities and cooldown come from configuration.
//
// The participant_stats row lock serializes attempts per participant, and the
// UNIQUE constraint on reward_winners(participant_fk) is the final arbiter
// across anything the lock cannot see. All outcomes commit: a failed draw
// must persist last_reward_attempt_at.
func (s *PostgresStore) SelectReward(ctx context.Context, participantID string, amount int, draw, baseProb, priorityBonus float64, cooldown time.Duration) (*models.RewardDecision, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reward tx: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var participantFK int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM participants WHERE participant_id = $1`, participantID,
	).Scan(&participantFK)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participant: %v", err)
	}

	// No stats row means the participant never submitted anything.
	stats := models.ParticipantStats{ParticipantFK: participantFK}
	err = tx.QueryRow(ctx, `
		SELECT priority_eligible, last_reward_attempt_at
		FROM participant_stats
		WHERE participant_fk = $1
		FOR UPDATE;
	`, participantFK).Scan(&stats.PriorityEligible, &stats.LastRewardAttemptAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if cerr := tx.Commit(ctx); cerr != nil {
			return nil, fmt.Errorf("failed to commit reward decision: %v", cerr)
		}
		return &models.RewardDecision{Selected: false, Reason: "no_activity"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock participant stats: %v", err)
	}

	decided, err := existingDecision(ctx, tx, participantFK)
	if err != nil {
		return nil, err
	}
	if decided != nil {
		if cerr := tx.Commit(ctx); cerr != nil {
			return nil, fmt.Errorf("failed to commit reward decision: %v", cerr)
		}
		return decided, nil
	}

	if stats.LastRewardAttemptAt != nil && time.Since(*stats.LastRewardAttemptAt) < cooldown {
		if cerr := tx.Commit(ctx); cerr != nil {
			return nil, fmt.Errorf("failed to commit reward decision: %v", cerr)
		}
		return &models.RewardDecision{Selected: false, Reason: "cooldown"}, nil
	}

	p := baseProb
	if stats.PriorityEligible {
		p += priorityBonus
	}

	if draw < p {
		tag, err := tx.Exec(ctx, `
			INSERT INTO reward_winners (participant_fk, amount, status)
			VALUES ($1, $2, 'pending')
			ON CONFLICT (participant_fk) DO NOTHING;
		`, participantFK, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to insert reward winner: %v", err)
		}
		if tag.RowsAffected() == 0 {
			// Lost the race to a concurrent winner insert.
			decided, err := existingDecision(ctx, tx, participantFK)
			if err != nil {
				return nil, err
			}
			if decided == nil {
				return nil, fmt.Errorf("reward row vanished after conflict for %s", participantID)
			}
			if cerr := tx.Commit(ctx); cerr != nil {
				return nil, fmt.Errorf("failed to commit reward decision: %v", cerr)
			}
			return decided, nil
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			return nil, fmt.Errorf("failed to commit reward decision: %v", cerr)
		}
		return &models.RewardDecision{Selected: true, RewardAmount: amount, Status: "pending"}, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE participant_stats SET last_reward_attempt_at = NOW(), updated_at = NOW() WHERE participant_fk = $1`,
		participantFK)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp reward attempt: %v", err)
	}
	if cerr := tx.Commit(ctx); cerr != nil {
		return nil, fmt.Errorf("failed to commit reward decision: %v", cerr)
	}
	return &models.RewardDecision{Selected: false, Reason: "not_selected"}, nil
}

func existingDecision(ctx context.Context, q queryRower, participantFK int64) (*models.RewardDecision, error) {
	winner := models.RewardWinner{ParticipantFK: participantFK}
	err := q.QueryRow(ctx,
		`SELECT id, amount, status, selected_at, paid_at FROM reward_winners WHERE participant_fk = $1`,
		participantFK,
	).Scan(&winner.ID, &winner.Amount, &winner.Status, &winner.SelectedAt, &winner.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reward row: %v", err)
	}
	return &models.RewardDecision{
		Selected:     false,
		Reason:       "already_decided",
		RewardAmount: winner.Amount,
		Status:       winner.Status,
	}, nil
}

// MarkRewardPaid transitions pending to paid. Not exposed over HTTP; invoked
// by payout tooling against the same database.
func (s *PostgresStore) MarkRewardPaid(ctx context.Context, participantID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE reward_winners rw
		SET status = 'paid', paid_at = NOW()
		FROM participants p
		WHERE p.id = rw.participant_fk AND p.participant_id = $1 AND rw.status = 'pending';
	`, participantID)
	if err != nil {
		return fmt.Errorf("failed to mark reward paid: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelReward transitions pending to cancelled.
func (s *PostgresStore) CancelReward(ctx context.Context, participantID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE reward_winners rw
		SET status = 'cancelled'
		FROM participants p
		WHERE p.id = rw.participant_fk AND p.participant_id = $1 AND rw.status = 'pending';
	`, participantID)
	if err != nil {
		return fmt.Errorf("failed to cancel reward: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
