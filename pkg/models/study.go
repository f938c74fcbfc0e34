package models

import (
	"strconv"
	"time"
)

// Participant is a registered study participant. The integer ID is the
// surrogate key used for joins; ParticipantID is the opaque business key the
// client carries in URLs. IPHash and UserAgent never leave the server.
type Participant struct {
	ID               int64      `json:"-"`
	ParticipantID    string     `json:"participant_id"`
	SessionID        string     `json:"session_id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	Gender           string     `json:"gender"`
	Age              int        `json:"age"`
	Place            string     `json:"place"`
	NativeLanguage   string     `json:"native_language"`
	PriorExperience  string     `json:"prior_experience"`
	PaymentStatus    string     `json:"payment_status"` // pending/paid/refunded/failed
	ConsentGiven     *bool      `json:"consent_given,omitempty"`
	ConsentTimestamp *time.Time `json:"consent_timestamp,omitempty"`
	IPHash           string     `json:"-"`
	UserAgent        string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Demographics returns the immutable registration fields used to decide
// whether a repeated registration is an identical replay or a conflict.
func (p *Participant) Demographics() [8]string {
	return [8]string{
		p.Username, p.Email, p.Phone, p.Gender,
		strconv.Itoa(p.Age), p.Place, p.NativeLanguage, p.PriorExperience,
	}
}

// ConsentRecord is one row of consent history. Multiple rows per participant
// are kept; the participant row mirrors the latest.
type ConsentRecord struct {
	ID               int64     `json:"-"`
	ParticipantFK    int64     `json:"-"`
	ConsentGiven     bool      `json:"consent_given"`
	ConsentTimestamp time.Time `json:"consent_timestamp"`
	IPHash           string    `json:"-"`
	UserAgent        string    `json:"-"`
}

// Payment is one simulated gateway order. Amount is in integer
// minor-currency units.
type Payment struct {
	ID            int64      `json:"-"`
	ParticipantFK int64      `json:"-"`
	OrderID       string     `json:"order_id"`
	PaymentID     *string    `json:"payment_id,omitempty"`
	Signature     string     `json:"-"`
	Amount        int        `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"` // created/paid/failed/refunded
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// Image is one catalog row. Rows are appended when an asset is first seen and
// never mutated afterwards.
type Image struct {
	ID          int64   `json:"-"`
	ImageID     string  `json:"image_id"`
	ImageURL    string  `json:"image_url"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	ObjectCount *int    `json:"object_count,omitempty"`
	Difficulty  *string `json:"difficulty,omitempty"`
}

// AttentionCheck marks an image as an attention trial: the participant's
// description must contain ExpectedKeyword as a whole word.
type AttentionCheck struct {
	ID              int64  `json:"-"`
	ImageFK         int64  `json:"-"`
	ExpectedKeyword string `json:"expected_keyword"`
	Strict          bool   `json:"strict"`
	Active          bool   `json:"active"`
}

// Submission is one completed trial. Immutable after write.
type Submission struct {
	ID               int64     `json:"submission_id"`
	ParticipantFK    int64     `json:"-"`
	ImageFK          int64     `json:"-"`
	ParticipantID    string    `json:"participant_id"`
	ImageID          string    `json:"image_id"`
	SessionID        string    `json:"session_id"`
	SurveyIndex      int       `json:"survey_index"` // dense 0..N-1 per participant
	Description      string    `json:"description,omitempty"`
	WordCount        int       `json:"word_count"`
	Rating           int       `json:"rating"`
	Feedback         string    `json:"feedback,omitempty"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	IsSurvey         bool      `json:"is_survey"`
	IsAttention      bool      `json:"is_attention"`
	AttentionPassed  *bool     `json:"attention_passed"` // null unless IsAttention
	TooFastFlag      bool      `json:"too_fast_flag"`
	AttentionScore   float64   `json:"attention_score"` // participant score at submit time
	QualityScore     *float64  `json:"quality_score,omitempty"`
	AISuspected      bool      `json:"ai_suspected"`
	DescriptionHash  string    `json:"-"`
	IPHash           string    `json:"-"`
	UserAgent        string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// AttentionStats aggregates attention-check outcomes per participant.
// TotalChecks == PassedChecks + FailedChecks always holds.
type AttentionStats struct {
	ParticipantFK  int64     `json:"-"`
	TotalChecks    int       `json:"total_checks"`
	PassedChecks   int       `json:"passed_checks"`
	FailedChecks   int       `json:"failed_checks"`
	AttentionScore float64   `json:"attention_score"` // passed / max(1, total)
	IsFlagged      bool      `json:"is_flagged"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ParticipantStats aggregates submission volume per participant and drives
// reward prioritization. PriorityEligible is sticky once set.
type ParticipantStats struct {
	ParticipantFK       int64      `json:"-"`
	TotalWords          int        `json:"total_words"`
	TotalSubmissions    int        `json:"total_submissions"`
	SurveyRounds        int        `json:"survey_rounds"`
	AttentionScore      float64    `json:"attention_score"`
	PriorityEligible    bool       `json:"priority_eligible"`
	LastRewardAttemptAt *time.Time `json:"last_reward_attempt_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// RewardWinner is the at-most-one reward row per participant.
type RewardWinner struct {
	ID            int64      `json:"-"`
	ParticipantFK int64      `json:"-"`
	Amount        int        `json:"reward_amount"`
	Status        string     `json:"status"` // pending/paid/cancelled
	SelectedAt    time.Time  `json:"selected_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// RewardStatus is the read projection for GET /api/reward/{id}.
type RewardStatus struct {
	IsWinner            bool       `json:"is_winner"`
	RewardAmount        *int       `json:"reward_amount,omitempty"`
	Status              *string    `json:"status,omitempty"`
	TotalWords          int        `json:"total_words"`
	SurveyRounds        int        `json:"survey_rounds"`
	PriorityEligible    bool       `json:"priority_eligible"`
	LastRewardAttemptAt *time.Time `json:"last_reward_attempt_at,omitempty"`
}

// RewardDecision is the outcome of one selection attempt.
type RewardDecision struct {
	Selected     bool   `json:"selected"`
	Reason       string `json:"reason,omitempty"` // no_activity/already_decided/cooldown/not_selected
	RewardAmount int    `json:"reward_amount,omitempty"`
	Status       string `json:"status,omitempty"`
}

// AuditEvent is one append-only audit row. Rows for participant_created,
// consent_recorded and submission_created are written by database triggers
// in the same transaction as the parent insert; everything else is
// application-emitted and best-effort.
type AuditEvent struct {
	ID            int64     `json:"-"`
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	ParticipantFK *int64    `json:"-"`
	Endpoint      string    `json:"endpoint"`
	Method        string    `json:"method"`
	StatusCode    int       `json:"status_code"`
	IPHash        string    `json:"-"`
	UserAgent     string    `json:"-"`
	Details       string    `json:"details,omitempty"`
}

// PerformanceMetric is one append-only per-request timing row.
type PerformanceMetric struct {
	ID             int64     `json:"-"`
	Timestamp      time.Time `json:"timestamp"`
	Endpoint       string    `json:"endpoint"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	StatusCode     int       `json:"status_code"`
	RequestSize    int64     `json:"request_size"`
	ResponseSize   int       `json:"response_size"`
}

// ShadowScore captures the diff between the live quality formula and the
// candidate formula on one accepted submission. Shadow rows never feed back
// into production scores.
type ShadowScore struct {
	ID             int64     `json:"-"`
	SubmissionFK   int64     `json:"submission_id"`
	LiveScore      float64   `json:"live_score"`
	CandidateScore float64   `json:"candidate_score"`
	Delta          float64   `json:"delta"`
	AIFlip         bool      `json:"ai_flip"`
	SnapshotID     int       `json:"snapshot_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ShadowDrift aggregates shadow comparisons for one candidate snapshot.
type ShadowDrift struct {
	SnapshotID int     `json:"snapshot_id"`
	TotalRuns  int     `json:"total_runs"`
	AIFlips    int     `json:"ai_flips"`
	AvgDelta   float64 `json:"avg_delta"`
	MaxDelta   float64 `json:"max_delta"`
}
