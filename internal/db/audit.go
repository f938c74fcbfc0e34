package db

import (
	"context"
	"log"

	"github.com/perceptlab/study-engine/pkg/models"
)

// AppendAudit writes one application-emitted audit row. Best effort: a failed
// write is logged and dropped so request handling never depends on it. Rows
// for participant_created, consent_recorded and submission_created are
// written by triggers instead, inside the parent transaction.
func (s *PostgresStore) AppendAudit(ctx context.Context, ev *models.AuditEvent) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (event_type, participant_fk, endpoint, method, status_code, ip_hash, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, ev.EventType, ev.ParticipantFK, ev.Endpoint, ev.Method, ev.StatusCode, ev.IPHash, ev.UserAgent, ev.Details)
	if err != nil {
		log.Printf("[Audit] Failed to append %s event: %v", ev.EventType, err)
	}
}

// AppendMetric writes one per-request timing row. Best effort like AppendAudit.
func (s *PostgresStore) AppendMetric(ctx context.Context, m *models.PerformanceMetric) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO performance_metrics (endpoint, response_time_ms, status_code, request_size, response_size)
		VALUES ($1, $2, $3, $4, $5);
	`, m.Endpoint, m.ResponseTimeMs, m.StatusCode, m.RequestSize, m.ResponseSize)
	if err != nil {
		log.Printf("[Audit] Failed to append metric for %s: %v", m.Endpoint, err)
	}
}
