package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/perceptlab/study-engine/pkg/models"
)

// SubmissionResult carries the stored submission plus the participant's
// current flag state for the response body.
type SubmissionResult struct {
	Submission   *models.Submission
	IsFlaggedNow bool
	Replayed     bool
}

// RecordSubmission runs the whole submission write in one transaction: image
// ensure, replay detection, survey-index assignment under the participant row
// lock, the insert itself, and both stats upserts. The submission_created
// audit row is written by trigger on the insert.
//
// A replayed request (same participant, session and image with an identical
// description hash) returns the stored row with Replayed set. The same tuple
// with a different description hash returns ErrConflict.
func (s *PostgresStore) RecordSubmission(ctx context.Context, sub *models.Submission, imageURL string) (*SubmissionResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin submission tx: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// 1. Lock the participant row. Survey-index assignment and the stats
	// upserts stay serialized per participant until commit.
	var locked int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM participants WHERE id = $1 FOR UPDATE`, sub.ParticipantFK,
	).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock participant: %v", err)
	}

	// 2. Ensure the catalog row exists.
	imageFK, err := ensureImage(ctx, tx, sub.ImageID, imageURL)
	if err != nil {
		return nil, err
	}
	sub.ImageFK = imageFK

	// 3. Replay detection on (participant, image, session).
	prior := models.Submission{
		ParticipantFK: sub.ParticipantFK,
		ParticipantID: sub.ParticipantID,
		ImageFK:       imageFK,
		ImageID:       sub.ImageID,
		SessionID:     sub.SessionID,
	}
	err = tx.QueryRow(ctx, `
		SELECT id, survey_index, word_count, attention_passed, too_fast_flag,
		       attention_score, quality_score, ai_suspected, description_hash, created_at
		FROM submissions
		WHERE participant_fk = $1 AND image_fk = $2 AND session_id = $3
		ORDER BY id DESC
		LIMIT 1;
	`, sub.ParticipantFK, imageFK, sub.SessionID).Scan(
		&prior.ID, &prior.SurveyIndex, &prior.WordCount, &prior.AttentionPassed, &prior.TooFastFlag,
		&prior.AttentionScore, &prior.QualityScore, &prior.AISuspected, &prior.DescriptionHash, &prior.CreatedAt,
	)
	switch {
	case err == nil:
		if prior.DescriptionHash != sub.DescriptionHash {
			return nil, ErrConflict
		}
		flagged, ferr := currentFlagState(ctx, tx, sub.ParticipantFK)
		if ferr != nil {
			return nil, ferr
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			return nil, fmt.Errorf("failed to commit replay read: %v", cerr)
		}
		return &SubmissionResult{Submission: &prior, IsFlaggedNow: flagged, Replayed: true}, nil
	case errors.Is(err, pgx.ErrNoRows):
		// First submission for this tuple; continue.
	default:
		return nil, fmt.Errorf("failed to check for replay: %v", err)
	}

	// 4. Next dense survey index for this participant.
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(survey_index) + 1, 0) FROM submissions WHERE participant_fk = $1`,
		sub.ParticipantFK,
	).Scan(&sub.SurveyIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to assign survey index: %v", err)
	}

	// 5. Attention score as of submission time (before this trial counts).
	err = tx.QueryRow(ctx,
		`SELECT attention_score FROM attention_stats WHERE participant_fk = $1`,
		sub.ParticipantFK,
	).Scan(&sub.AttentionScore)
	if errors.Is(err, pgx.ErrNoRows) {
		sub.AttentionScore = 0
	} else if err != nil {
		return nil, fmt.Errorf("failed to read attention snapshot: %v", err)
	}

	// 6. Insert the submission. The trigger writes the audit row.
	err = tx.QueryRow(ctx, `
		INSERT INTO submissions
			(participant_fk, image_fk, session_id, survey_index, description, description_hash,
			 word_count, rating, feedback, time_spent_seconds, is_survey, is_attention,
			 attention_passed, too_fast_flag, attention_score, quality_score, ai_suspected,
			 ip_hash, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at;
	`,
		sub.ParticipantFK, imageFK, sub.SessionID, sub.SurveyIndex, sub.Description, sub.DescriptionHash,
		sub.WordCount, sub.Rating, sub.Feedback, sub.TimeSpentSeconds, sub.IsSurvey, sub.IsAttention,
		sub.AttentionPassed, sub.TooFastFlag, sub.AttentionScore, sub.QualityScore, sub.AISuspected,
		sub.IPHash, sub.UserAgent,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to insert submission: %v", err)
	}

	// 7. Attention stats: counters plus the derived score and flag.
	checkDelta, passDelta, failDelta := 0, 0, 0
	if sub.IsAttention {
		checkDelta = 1
		if sub.AttentionPassed != nil && *sub.AttentionPassed {
			passDelta = 1
		} else {
			failDelta = 1
		}
	}
	attn := models.AttentionStats{ParticipantFK: sub.ParticipantFK}
	err = tx.QueryRow(ctx, `
		INSERT INTO attention_stats
			(participant_fk, total_checks, passed_checks, failed_checks, attention_score, is_flagged)
		VALUES ($1, $2, $3, $4,
		        CASE WHEN $2 > 0 THEN $3::double precision / $2 ELSE 0 END,
		        $2 > 0 AND ($3::double precision / GREATEST($2, 1)) < $5)
		ON CONFLICT (participant_fk) DO UPDATE SET
			total_checks = attention_stats.total_checks + $2,
			passed_checks = attention_stats.passed_checks + $3,
			failed_checks = attention_stats.failed_checks + $4,
			attention_score = CASE WHEN attention_stats.total_checks + $2 > 0
				THEN (attention_stats.passed_checks + $3)::double precision / (attention_stats.total_checks + $2)
				ELSE 0 END,
			is_flagged = (attention_stats.total_checks + $2) > 0
				AND ((attention_stats.passed_checks + $3)::double precision / GREATEST(attention_stats.total_checks + $2, 1)) < $5,
			updated_at = NOW()
		RETURNING total_checks, passed_checks, failed_checks, attention_score, is_flagged;
	`, sub.ParticipantFK, checkDelta, passDelta, failDelta, attentionFlagThreshold).Scan(
		&attn.TotalChecks, &attn.PassedChecks, &attn.FailedChecks, &attn.AttentionScore, &attn.IsFlagged,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update attention stats: %v", err)
	}

	// 8. Participant stats: volume counters and the sticky priority flag.
	surveyDelta := 0
	if sub.IsSurvey {
		surveyDelta = 1
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO participant_stats
			(participant_fk, total_words, total_submissions, survey_rounds, attention_score, priority_eligible)
		VALUES ($1, $2, 1, $3, $4, $2 >= $5 OR $3 >= $6)
		ON CONFLICT (participant_fk) DO UPDATE SET
			total_words = participant_stats.total_words + $2,
			total_submissions = participant_stats.total_submissions + 1,
			survey_rounds = participant_stats.survey_rounds + $3,
			attention_score = $4,
			priority_eligible = participant_stats.priority_eligible
				OR (participant_stats.total_words + $2) >= $5
				OR (participant_stats.survey_rounds + $3) >= $6,
			updated_at = NOW();
	`, sub.ParticipantFK, sub.WordCount, surveyDelta, attn.AttentionScore,
		priorityWordThreshold, priorityRoundThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to update participant stats: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %v", err)
	}
	return &SubmissionResult{Submission: sub, IsFlaggedNow: attn.IsFlagged}, nil
}

func currentFlagState(ctx context.Context, q queryRower, participantFK int64) (bool, error) {
	var flagged bool
	err := q.QueryRow(ctx,
		`SELECT is_flagged FROM attention_stats WHERE participant_fk = $1`, participantFK,
	).Scan(&flagged)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read flag state: %v", err)
	}
	return flagged, nil
}

// GetSubmission loads the read-only projection for one submission id.
func (s *PostgresStore) GetSubmission(ctx context.Context, submissionID int64) (*models.Submission, error) {
	sql := `
		SELECT s.id, s.participant_fk, s.image_fk, s.session_id, s.survey_index, s.description,
		       s.word_count, s.rating, s.feedback, s.time_spent_seconds, s.is_survey, s.is_attention,
		       s.attention_passed, s.too_fast_flag, s.attention_score, s.quality_score, s.ai_suspected,
		       s.created_at, p.participant_id, i.image_id
		FROM submissions s
		JOIN participants p ON p.id = s.participant_fk
		JOIN images i ON i.id = s.image_fk
		WHERE s.id = $1;
	`
	var sub models.Submission
	err := s.pool.QueryRow(ctx, sql, submissionID).Scan(
		&sub.ID, &sub.ParticipantFK, &sub.ImageFK, &sub.SessionID, &sub.SurveyIndex, &sub.Description,
		&sub.WordCount, &sub.Rating, &sub.Feedback, &sub.TimeSpentSeconds, &sub.IsSurvey, &sub.IsAttention,
		&sub.AttentionPassed, &sub.TooFastFlag, &sub.AttentionScore, &sub.QualityScore, &sub.AISuspected,
		&sub.CreatedAt, &sub.ParticipantID, &sub.ImageID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %v", err)
	}
	return &sub, nil
}
