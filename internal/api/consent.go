package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/internal/quality"
)

// handleRecordConsent appends a consent history row and mirrors it onto the
// participant in one transaction. Withdrawal (consent_given=false) is a
// normal history row; later submissions are refused until consent is granted
// again.
func (h *APIHandler) handleRecordConsent(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id"`
		ConsentGiven  *bool  `json:"consent_given"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	participantID := strings.TrimSpace(req.ParticipantID)
	if err := quality.ValidateBusinessID(participantID); err != nil {
		h.writeError(c, newError(errValidation, "%v", err))
		return
	}
	if req.ConsentGiven == nil {
		h.writeError(c, newError(errValidation, "consent_given is required"))
		return
	}

	_, err := h.store.RecordConsent(c.Request.Context(), participantID, *req.ConsentGiven, h.clientHash(c), clientUA(c))
	if err != nil {
		h.writeError(c, fromStorage(err, "Participant not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// handleGetConsent returns the participant's latest consent state.
func (h *APIHandler) handleGetConsent(c *gin.Context) {
	state, err := h.store.GetConsent(c.Request.Context(), c.Param("participant_id"))
	if err != nil {
		h.writeError(c, fromStorage(err, "Consent record not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"consent_given":     state.ConsentGiven,
		"consent_timestamp": state.ConsentTimestamp,
	})
}
