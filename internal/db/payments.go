package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/perceptlab/study-engine/pkg/models"
)

// CreatePaymentOrder opens a simulated gateway order for a participant.
func (s *PostgresStore) CreatePaymentOrder(ctx context.Context, businessID string, amount int, currency string) (*models.Payment, error) {
	var participantFK int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM participants WHERE participant_id = $1`, businessID,
	).Scan(&participantFK)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participant: %v", err)
	}

	orderID := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	var payment models.Payment
	payment.ParticipantFK = participantFK
	err = s.pool.QueryRow(ctx, `
		INSERT INTO payments (participant_fk, order_id, amount, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_id, amount, currency, status, created_at;
	`, participantFK, orderID, amount, currency).Scan(
		&payment.ID, &payment.OrderID, &payment.Amount, &payment.Currency,
		&payment.Status, &payment.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %v", err)
	}
	return &payment, nil
}

// ConfirmPayment marks an order paid and flips the participant's payment
// status, in one transaction. Confirmation is idempotent for an identical
// payment id; a different payment id on an already-paid order is refused.
func (s *PostgresStore) ConfirmPayment(ctx context.Context, orderID, paymentID, signature string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin payment tx: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id, participantFK int64
	var status string
	var storedPaymentID *string
	err = tx.QueryRow(ctx, `
		SELECT id, participant_fk, status, payment_id
		FROM payments WHERE order_id = $1 FOR UPDATE;
	`, orderID).Scan(&id, &participantFK, &status, &storedPaymentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock payment order: %v", err)
	}

	if status == "paid" {
		if storedPaymentID != nil && *storedPaymentID == paymentID {
			return tx.Commit(ctx)
		}
		return ErrAlreadyConfirmed
	}

	_, err = tx.Exec(ctx, `
		UPDATE payments
		SET payment_id = $1, signature = $2, status = 'paid', paid_at = NOW()
		WHERE id = $3;
	`, paymentID, signature, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyConfirmed
		}
		return fmt.Errorf("failed to mark payment paid: %v", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE participants SET payment_status = 'paid' WHERE id = $1`, participantFK,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant payment status: %v", err)
	}

	return tx.Commit(ctx)
}

// HasPaidPayment reports whether at least one paid payment exists for the
// participant surrogate id.
func (s *PostgresStore) HasPaidPayment(ctx context.Context, participantFK int64) (bool, error) {
	var paid bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE participant_fk = $1 AND status = 'paid')`,
		participantFK,
	).Scan(&paid)
	if err != nil {
		return false, fmt.Errorf("failed to check payments: %v", err)
	}
	return paid, nil
}
