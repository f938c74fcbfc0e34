package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/internal/quality"
	"github.com/perceptlab/study-engine/pkg/models"
)

// handleSubmit records one trial. Preconditions run in order with the first
// failure winning: participant exists, consent is active, payment is settled
// for non-survey trials, then field validation. Scoring happens here; the
// storage layer persists everything in one transaction and assigns the
// survey index.
func (h *APIHandler) handleSubmit(c *gin.Context) {
	var req struct {
		ParticipantID     string `json:"participant_id"`
		SessionID         string `json:"session_id"`
		ImageID           string `json:"image_id"`
		ImageURL          string `json:"image_url"`
		Description       string `json:"description"`
		Rating            int    `json:"rating"`
		Feedback          string `json:"feedback"`
		TimeSpentSeconds  int    `json:"time_spent_seconds"`
		IsSurvey          bool   `json:"is_survey"`
		IsAttention       bool   `json:"is_attention"`
		AttentionExpected string `json:"attention_expected"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.rejectSubmit(c, err)
		return
	}

	participantID := strings.TrimSpace(req.ParticipantID)
	sessionID := strings.TrimSpace(req.SessionID)
	imageID := strings.TrimSpace(req.ImageID)
	imageURL := strings.TrimSpace(req.ImageURL)
	description := strings.TrimSpace(req.Description)
	feedback := strings.TrimSpace(req.Feedback)
	attentionExpected := strings.TrimSpace(req.AttentionExpected)

	ctx := c.Request.Context()

	// Precondition 1: the participant must exist.
	participant, err := h.store.GetParticipant(ctx, participantID)
	if err != nil {
		h.rejectSubmit(c, fromStorage(err, "Participant not found"))
		return
	}

	// Precondition 2: latest consent must be a grant.
	if participant.ConsentGiven == nil || !*participant.ConsentGiven {
		h.rejectSubmit(c, newError(errConsentRequired, "Consent required before submitting"))
		return
	}

	// Precondition 3: non-survey trials need a settled payment unless the
	// deployment runs with payment disabled.
	if h.cfg.PaymentRequired && !req.IsSurvey {
		paid, perr := h.store.HasPaidPayment(ctx, participant.ID)
		if perr != nil {
			h.rejectSubmit(c, fromStorage(perr, "Participant not found"))
			return
		}
		if !paid {
			h.rejectSubmit(c, newError(errPaymentRequired, "Payment required before submitting"))
			return
		}
	}

	// Precondition 4: field validation, first offending field wins.
	if err := validateSubmission(sessionID, imageID, description, feedback, req.Rating, req.TimeSpentSeconds, req.IsAttention, attentionExpected); err != nil {
		h.rejectSubmit(c, err)
		return
	}
	if reason, suspicious := quality.CheckSuspicious(description); suspicious {
		h.auditSecurityViolation(c, participant.ID, reason)
		h.rejectSubmit(c, newError(errValidation, "Description rejected: %s", reason))
		return
	}

	wordCount := quality.CountWords(description)
	if wordCount < h.cfg.MinWordCount {
		h.rejectSubmit(c, newError(errValidation, "Minimum %d words required", h.cfg.MinWordCount))
		return
	}

	var attentionPassed *bool
	if req.IsAttention {
		passed := quality.AttentionPassed(description, attentionExpected)
		attentionPassed = &passed
	}
	score := quality.QualityScore(description, wordCount)
	digest := sha256.Sum256([]byte(description))

	sub := &models.Submission{
		ParticipantFK:    participant.ID,
		ParticipantID:    participantID,
		ImageID:          imageID,
		SessionID:        sessionID,
		Description:      description,
		DescriptionHash:  hex.EncodeToString(digest[:]),
		WordCount:        wordCount,
		Rating:           req.Rating,
		Feedback:         feedback,
		TimeSpentSeconds: req.TimeSpentSeconds,
		IsSurvey:         req.IsSurvey,
		IsAttention:      req.IsAttention,
		AttentionPassed:  attentionPassed,
		TooFastFlag:      req.TimeSpentSeconds < h.cfg.TooFastSeconds,
		QualityScore:     &score,
		AISuspected:      quality.AISuspected(score, description),
		IPHash:           h.clientHash(c),
		UserAgent:        clientUA(c),
	}
	if imageURL == "" {
		imageURL = "/api/images/" + imageID
	}

	res, err := h.store.RecordSubmission(ctx, sub, imageURL)
	if err != nil {
		h.rejectSubmit(c, fromStorage(err, "Participant not found"))
		return
	}

	stored := res.Submission
	if res.Replayed {
		h.metrics.RecordSubmission("replayed")
	} else {
		h.metrics.RecordSubmission("accepted")
		h.hub.BroadcastEvent("submission_created", gin.H{
			"participant_id": stored.ParticipantID,
			"image_id":       stored.ImageID,
			"survey_index":   stored.SurveyIndex,
			"word_count":     stored.WordCount,
			"is_attention":   stored.IsAttention,
		})
		if h.shadow != nil {
			go h.runShadowScore(stored.ID, description, wordCount)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"word_count":       stored.WordCount,
		"attention_passed": stored.AttentionPassed,
		"submission_id":    stored.ID,
		"survey_index":     stored.SurveyIndex,
		"is_flagged_now":   res.IsFlaggedNow,
	})
}

func validateSubmission(sessionID, imageID, description, feedback string, rating, timeSpent int, isAttention bool, attentionExpected string) error {
	if sessionID == "" {
		return newError(errValidation, "session_id is required")
	}
	for _, err := range []error{
		quality.ValidateImageID(imageID),
		quality.ValidateDescription(description),
		quality.ValidateRating(rating),
		quality.ValidateFeedback(feedback),
	} {
		if err != nil {
			return newError(errValidation, "%v", err)
		}
	}
	if timeSpent < 0 {
		return newError(errValidation, "time_spent_seconds must not be negative")
	}
	if isAttention && attentionExpected == "" {
		return newError(errValidation, "attention_expected is required for attention trials")
	}
	return nil
}

func (h *APIHandler) rejectSubmit(c *gin.Context, err error) {
	h.metrics.RecordSubmission("rejected")
	h.writeError(c, err)
}

// auditSecurityViolation emits the application-level audit event for a
// rejected suspicious description.
func (h *APIHandler) auditSecurityViolation(c *gin.Context, participantFK int64, reason string) {
	h.metrics.RecordSecurityViolation()
	ev := &models.AuditEvent{
		EventType:     "security_violation",
		ParticipantFK: &participantFK,
		Endpoint:      "/api/submit",
		Method:        http.MethodPost,
		StatusCode:    http.StatusBadRequest,
		IPHash:        h.clientHash(c),
		UserAgent:     clientUA(c),
		Details:       reason,
	}
	h.trail.Event(ev)
}

// runShadowScore feeds an accepted submission to the shadow scorer off the
// request path. Shadow failures never surface to participants.
func (h *APIHandler) runShadowScore(submissionID int64, description string, wordCount int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.shadow.Compare(ctx, submissionID, description, wordCount); err != nil {
		log.Printf("[Shadow] Failed to record comparison for submission %d: %v", submissionID, err)
	}
}

// handleGetSubmission returns the read-only projection for one submission.
func (h *APIHandler) handleGetSubmission(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("submission_id"), 10, 64)
	if err != nil {
		h.writeError(c, newError(errValidation, "submission id must be an integer"))
		return
	}
	sub, err := h.store.GetSubmission(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, fromStorage(err, "Submission not found"))
		return
	}
	c.JSON(http.StatusOK, sub)
}
