package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/internal/shadow"
	"github.com/perceptlab/study-engine/pkg/models"
)

// driftStore serves a fixed aggregate.
type driftStore struct {
	drift *models.ShadowDrift
}

func (d *driftStore) SaveShadowScore(ctx context.Context, s *models.ShadowScore) error { return nil }

func (d *driftStore) ShadowDrift(ctx context.Context, snapshotID int) (*models.ShadowDrift, error) {
	return d.drift, nil
}

func TestShadowDriftDisabled(t *testing.T) {
	h := &APIHandler{}
	r := gin.New()
	r.GET("/api/shadow/drift", h.handleShadowDrift)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/shadow/drift", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when shadow scoring is disabled. Got: %d", w.Code)
	}
}

func TestShadowDriftReportsAggregate(t *testing.T) {
	store := &driftStore{drift: &models.ShadowDrift{SnapshotID: 2, TotalRuns: 40, AIFlips: 3, AvgDelta: 0.01, MaxDelta: 0.3}}
	h := &APIHandler{shadow: shadow.NewScorer(store, 2)}
	r := gin.New()
	r.GET("/api/shadow/drift", h.handleShadowDrift)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/shadow/drift", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200. Got: %d", w.Code)
	}
	var drift models.ShadowDrift
	if err := json.Unmarshal(w.Body.Bytes(), &drift); err != nil {
		t.Fatalf("Failed to decode drift body: %v", err)
	}
	if drift.TotalRuns != 40 || drift.AIFlips != 3 {
		t.Errorf("Expected the stored aggregate. Got: %+v", drift)
	}
}
