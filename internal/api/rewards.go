package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/pkg/models"
)

// Selection probabilities: 5% standard, 15% once priority eligible.
const (
	rewardBaseProbability = 0.05
	rewardPriorityBonus   = 0.10
)

// handleGetReward returns the reward projection for one participant.
func (h *APIHandler) handleGetReward(c *gin.Context) {
	status, err := h.store.GetRewardStatus(c.Request.Context(), c.Param("participant_id"))
	if err != nil {
		h.writeError(c, fromStorage(err, "Participant not found"))
		return
	}
	c.JSON(http.StatusOK, status)
}

// handleSelectReward runs one probabilistic selection attempt. The storage
// layer owns the race safety; this handler contributes the draw and emits
// the reward_selected / reward_skipped audit events.
func (h *APIHandler) handleSelectReward(c *gin.Context) {
	participantID := c.Param("participant_id")

	decision, err := h.store.SelectReward(c.Request.Context(), participantID,
		h.cfg.RewardAmount, h.draw(), rewardBaseProbability, rewardPriorityBonus, h.cfg.RewardCooldown)
	if err != nil {
		h.writeError(c, fromStorage(err, "Participant not found"))
		return
	}

	outcome := decision.Reason
	eventType := "reward_skipped"
	if decision.Selected {
		outcome = "selected"
		eventType = "reward_selected"
		h.hub.BroadcastEvent("reward_selected", gin.H{
			"participant_id": participantID,
			"reward_amount":  decision.RewardAmount,
		})
	}
	h.metrics.RecordRewardDecision(outcome)

	ev := &models.AuditEvent{
		EventType:  eventType,
		Endpoint:   "/api/reward/select/" + participantID,
		Method:     http.MethodPost,
		StatusCode: http.StatusOK,
		IPHash:     h.clientHash(c),
		UserAgent:  clientUA(c),
		Details:    "outcome " + outcome,
	}
	h.trail.Event(ev)

	c.JSON(http.StatusOK, decision)
}
