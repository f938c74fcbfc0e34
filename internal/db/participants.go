package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/perceptlab/study-engine/pkg/models"
)

// CreateParticipant inserts a new participant row. The audit trail row is
// written by the participant_created trigger inside the same statement's
// transaction. Returns ErrAlreadyExists when the business id is taken.
func (s *PostgresStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	sql := `
		INSERT INTO participants
			(participant_id, session_id, username, email, phone, gender, age,
			 place, native_language, prior_experience, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (participant_id) DO NOTHING
		RETURNING id, payment_status, created_at;
	`
	err := s.pool.QueryRow(ctx, sql,
		p.ParticipantID, p.SessionID, p.Username, p.Email, p.Phone, p.Gender, p.Age,
		p.Place, p.NativeLanguage, p.PriorExperience, p.IPHash, p.UserAgent,
	).Scan(&p.ID, &p.PaymentStatus, &p.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %v", err)
	}
	return nil
}

// GetParticipant loads a participant by business id.
func (s *PostgresStore) GetParticipant(ctx context.Context, businessID string) (*models.Participant, error) {
	sql := `
		SELECT id, participant_id, session_id, username, email, phone, gender, age,
		       place, native_language, prior_experience, payment_status,
		       consent_given, consent_timestamp, ip_hash, user_agent, created_at
		FROM participants
		WHERE participant_id = $1;
	`
	var p models.Participant
	err := s.pool.QueryRow(ctx, sql, businessID).Scan(
		&p.ID, &p.ParticipantID, &p.SessionID, &p.Username, &p.Email, &p.Phone, &p.Gender, &p.Age,
		&p.Place, &p.NativeLanguage, &p.PriorExperience, &p.PaymentStatus,
		&p.ConsentGiven, &p.ConsentTimestamp, &p.IPHash, &p.UserAgent, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %v", err)
	}
	return &p, nil
}
