package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/perceptlab/study-engine/pkg/models"
)

// RecordConsent appends a consent history row and mirrors the latest state
// onto the participant, both in one transaction. The consent_recorded audit
// row is written by trigger. Returns the consent timestamp.
func (s *PostgresStore) RecordConsent(ctx context.Context, businessID string, consentGiven bool, ipHash, userAgent string) (time.Time, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to begin consent tx: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the participant row so concurrent consent writes mirror in order.
	var participantFK int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM participants WHERE participant_id = $1 FOR UPDATE`, businessID,
	).Scan(&participantFK)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to lock participant: %v", err)
	}

	var ts time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO consent_records (participant_fk, consent_given, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING consent_timestamp;
	`, participantFK, consentGiven, ipHash, userAgent).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to insert consent record: %v", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE participants SET consent_given = $1, consent_timestamp = $2 WHERE id = $3;
	`, consentGiven, ts, participantFK)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to mirror consent: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, fmt.Errorf("failed to commit consent: %v", err)
	}
	return ts, nil
}

// GetConsent returns the latest consent state from the participant mirror.
// A participant who never answered the consent form yields ErrNotFound.
func (s *PostgresStore) GetConsent(ctx context.Context, businessID string) (*models.ConsentRecord, error) {
	var (
		participantFK int64
		given         *bool
		ts            *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, consent_given, consent_timestamp FROM participants WHERE participant_id = $1`,
		businessID,
	).Scan(&participantFK, &given, &ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load consent: %v", err)
	}
	if given == nil || ts == nil {
		return nil, ErrNotFound
	}
	return &models.ConsentRecord{
		ParticipantFK:    participantFK,
		ConsentGiven:     *given,
		ConsentTimestamp: *ts,
	}, nil
}
