package models

import (
	"regexp"
	"strings"
	"time"
)

type Status string

const (
	StatusActive          Status = "active"
	StatusCompleted       Status = "completed"
	StatusQuotaFull       Status = "quota_full"
	StatusExpired         Status = "expired"
	StatusAttentionFailed Status = "attention_failed"
)

// Terminal reports whether the status admits no further transitions.
// Active is the only non-terminal state.
func (s Status) Terminal() bool {
	return s != StatusActive
}

// Completion reasons accepted by the complete endpoint.
const (
	ReasonCompleted       = "completed"
	ReasonAttentionFailed = "attention_check_failed"
	ReasonTimeExpired     = "time_expired"
)

type Region string

const (
	RegionNorth   Region = "north"
	RegionSouth   Region = "south"
	RegionEast    Region = "east"
	RegionWest    Region = "west"
	RegionCentral Region = "central"
)

// Regions lists the fixed region enum in a stable order.
func Regions() []Region {
	return []Region{RegionNorth, RegionSouth, RegionEast, RegionWest, RegionCentral}
}

// ParseRegion normalizes and validates a client-supplied region name.
func ParseRegion(s string) (Region, bool) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RegionNorth, RegionSouth, RegionEast, RegionWest, RegionCentral:
		return r, true
	}
	return "", false
}

var participantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{24}$`)

// ValidParticipantID reports whether id matches the 24-character
// alphanumeric identity format.
func ValidParticipantID(id string) bool {
	return participantIDPattern.MatchString(id)
}

// Progress tracks a session's position in the catalogue and its counters.
// CompletedQuestions counts real questions only; attention checks are
// excluded from every question count.
type Progress struct {
	Position              QuestionPosition `bson:"position" json:"position"`
	CompletedQuestions    int              `bson:"completed_questions" json:"completedQuestions"`
	TotalQuestions        int              `bson:"total_questions" json:"totalQuestions"`
	AttentionChecksPassed int              `bson:"attention_checks_passed" json:"attentionChecksPassed"`
	AttentionChecksFailed int              `bson:"attention_checks_failed" json:"attentionChecksFailed"`
	// LastCheckAt is the answered-question count at which a check last fired.
	// -1 means no check has fired yet.
	LastCheckAt int `bson:"last_check_at" json:"lastCheckAt"`
}

// Timing records wall-clock bookkeeping for a session.
type Timing struct {
	StartedAt          time.Time  `bson:"started_at" json:"startedAt"`
	CompletedAt        *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	TotalTimeSeconds   *int       `bson:"total_time_seconds,omitempty" json:"totalTimeSeconds,omitempty"`
	TotalTimeFormatted string     `bson:"total_time_formatted,omitempty" json:"totalTimeFormatted,omitempty"`
}

// Session is one participant's survey run. A session row exists only after a
// quota slot was reserved for it, except rejected rows which carry a terminal
// status and a rejection reason.
type Session struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	SessionID        string    `bson:"session_id" json:"sessionId"`
	ParticipantID    string    `bson:"participant_id" json:"participantId"`
	Region           Region    `bson:"region" json:"region"`
	Age              int       `bson:"age,omitempty" json:"age,omitempty"`
	YearsInRegion    int       `bson:"years_in_region" json:"yearsInRegion"`
	Status           Status    `bson:"status" json:"status"`
	RejectionReason  string    `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`
	CompletionReason string    `bson:"completion_reason,omitempty" json:"completionReason,omitempty"`
	Progress         Progress  `bson:"progress" json:"progress"`
	Timing           Timing    `bson:"timing" json:"timing"`
	LastActiveAt     time.Time `bson:"last_active_at" json:"lastActiveAt"`
}

// RegionQuota is the per-region admission counter. The invariant
// 0 <= CurrentCount <= MaxQuota holds at all times and is enforced by
// conditional atomic updates, never by read-then-write.
type RegionQuota struct {
	Region       Region    `bson:"region" json:"region"`
	CurrentCount int       `bson:"current_count" json:"currentCount"`
	MaxQuota     int       `bson:"max_quota" json:"maxQuota"`
	LastUpdated  time.Time `bson:"last_updated" json:"lastUpdated"`
}
