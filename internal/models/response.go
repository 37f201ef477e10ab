package models

import (
	"fmt"
	"time"
)

const (
	MinAnswerLength = 4
	MaxAnswerLength = 5000
)

// Response is one saved answer, keyed uniquely by (SessionID, QuestionID).
// Category/subcategory/topic/question text is snapshotted at write time so
// catalogue drift is detectable afterwards.
type Response struct {
	ID         string           `bson:"_id,omitempty" json:"id"`
	SessionID  string           `bson:"session_id" json:"sessionId"`
	QuestionID string           `bson:"question_id" json:"questionId"`
	Position   QuestionPosition `bson:"position" json:"position"`

	Category    string `bson:"category" json:"category"`
	Subcategory string `bson:"subcategory" json:"subcategory"`
	Topic       string `bson:"topic" json:"topic"`
	Question    string `bson:"question" json:"question"`

	Answer    string `bson:"answer" json:"answer"`
	TimeSpent int    `bson:"time_spent" json:"timeSpent"`

	IsAttentionCheck   bool   `bson:"is_attention_check" json:"isAttentionCheck"`
	AttentionCheckKind string `bson:"attention_check_kind,omitempty" json:"attentionCheckKind,omitempty"`
	ExpectedAnswer     string `bson:"expected_answer,omitempty" json:"expectedAnswer,omitempty"`

	QualityScore *int      `bson:"quality_score,omitempty" json:"qualityScore,omitempty"`
	SubmittedAt  time.Time `bson:"submitted_at" json:"submittedAt"`
}

// Validate rejects malformed responses before anything touches the store.
func (r *Response) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if r.QuestionID == "" {
		return fmt.Errorf("question id is required")
	}
	if n := len(r.Answer); n < MinAnswerLength || n > MaxAnswerLength {
		return fmt.Errorf("answer must be between %d and %d characters, got %d",
			MinAnswerLength, MaxAnswerLength, n)
	}
	if r.TimeSpent < 0 {
		return fmt.Errorf("time spent must not be negative")
	}
	return nil
}
