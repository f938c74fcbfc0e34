package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/pkg/models"
)

// auditTrail records one audit event and one performance metric per request,
// enqueued on the trail recorder after the response is formed. Trigger-written
// events (participant_created, consent_recorded, submission_created) are
// separate and transactional; this row is the best-effort request trail.
//
// The metrics scrape and the live event stream are excluded: the first would
// audit the monitoring system, the second holds its connection open for the
// life of the client.
func (h *APIHandler) auditTrail() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "/metrics" || endpoint == "/api/events/live" {
			return
		}
		if endpoint == "" {
			// Unmatched route; keep the raw path so probes show up in the trail.
			endpoint = c.Request.URL.Path
		}

		elapsed := time.Since(start)
		status := c.Writer.Status()
		h.metrics.RecordRequest(endpoint, c.Request.Method, status, elapsed.Seconds())

		h.trail.Event(&models.AuditEvent{
			EventType:  "api_request",
			Endpoint:   endpoint,
			Method:     c.Request.Method,
			StatusCode: status,
			IPHash:     h.clientHash(c),
			UserAgent:  clientUA(c),
		})
		h.trail.Metric(&models.PerformanceMetric{
			Endpoint:       endpoint,
			ResponseTimeMs: float64(elapsed.Microseconds()) / 1000.0,
			StatusCode:     status,
			RequestSize:    max(c.Request.ContentLength, 0),
			ResponseSize:   max(c.Writer.Size(), 0),
		})
	}
}
