package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/internal/db"
	"github.com/perceptlab/study-engine/internal/quality"
	"github.com/perceptlab/study-engine/pkg/models"
)

// handleRegisterParticipant creates a participant row. Re-posting the same
// participant_id with identical demographics is idempotent and returns the
// existing row; a mismatch is a conflict. The participant_created audit
// event is written by trigger.
func (h *APIHandler) handleRegisterParticipant(c *gin.Context) {
	var req struct {
		ParticipantID   string `json:"participant_id"`
		SessionID       string `json:"session_id"`
		Username        string `json:"username"`
		Email           string `json:"email"`
		Phone           string `json:"phone"`
		Gender          string `json:"gender"`
		Age             int    `json:"age"`
		Place           string `json:"place"`
		NativeLanguage  string `json:"native_language"`
		PriorExperience string `json:"prior_experience"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	p := &models.Participant{
		ParticipantID:   strings.TrimSpace(req.ParticipantID),
		SessionID:       strings.TrimSpace(req.SessionID),
		Username:        strings.TrimSpace(req.Username),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		Gender:          strings.TrimSpace(req.Gender),
		Age:             req.Age,
		Place:           strings.TrimSpace(req.Place),
		NativeLanguage:  strings.TrimSpace(req.NativeLanguage),
		PriorExperience: strings.TrimSpace(req.PriorExperience),
		IPHash:          h.clientHash(c),
		UserAgent:       clientUA(c),
	}
	if err := validateParticipant(p); err != nil {
		h.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	err := h.store.CreateParticipant(ctx, p)
	if errors.Is(err, db.ErrAlreadyExists) {
		existing, gerr := h.store.GetParticipant(ctx, p.ParticipantID)
		if gerr != nil {
			h.writeError(c, gerr)
			return
		}
		if existing.Demographics() != p.Demographics() {
			h.writeError(c, newError(errConflict, "Participant already registered with different details"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "participant_id": existing.ParticipantID})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "participant_id": p.ParticipantID})
}

func validateParticipant(p *models.Participant) error {
	for _, err := range []error{
		quality.ValidateBusinessID(p.ParticipantID),
		quality.ValidateUsername(p.Username),
		quality.ValidateEmail(p.Email),
		quality.ValidatePhone(p.Phone),
		quality.ValidateAge(p.Age),
	} {
		if err != nil {
			return newError(errValidation, "%v", err)
		}
	}

	// Free-text caps match the schema columns.
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"session_id", p.SessionID, 100},
		{"gender", p.Gender, 50},
		{"place", p.Place, 200},
		{"native_language", p.NativeLanguage, 100},
	} {
		if len(f.value) > f.max {
			return newError(errValidation, "%s must be at most %d characters", f.name, f.max)
		}
	}
	return nil
}

// handleGetParticipant returns the public projection; ip hash and user agent
// never serialize.
func (h *APIHandler) handleGetParticipant(c *gin.Context) {
	p, err := h.store.GetParticipant(c.Request.Context(), c.Param("participant_id"))
	if err != nil {
		h.writeError(c, fromStorage(err, "Participant not found"))
		return
	}
	c.JSON(http.StatusOK, p)
}
