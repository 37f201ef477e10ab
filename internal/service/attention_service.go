package service

import (
	"context"
	"log"
	"time"

	"survey-service/internal/attention"
	"survey-service/internal/flow"
	"survey-service/internal/models"
)

// NextAttentionCheck consults the cadence scheduler for a session. When a
// check is due it is generated from the pool and the watermark persisted, so
// re-rendering or navigating back to the same answered count cannot trigger
// the same check twice.
func (s *SessionService) NextAttentionCheck(ctx context.Context, sessionID string) (*attention.Check, bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if session.Status.Terminal() {
		return nil, false, ErrSessionTerminal
	}

	machine := flow.NewMachine(attention.NewScheduler(s.CheckInterval, session.Progress.LastCheckAt, s.rng))
	category, _, topic, _ := s.Tree.Labels(session.Progress.Position)
	check, due := machine.MaybeInjectCheck(session.Progress.CompletedQuestions, attention.Context{
		Category: category,
		Topic:    topic,
		Region:   string(session.Region),
	})
	if !due {
		return nil, false, nil
	}
	if err := s.Sessions.SetCheckWatermark(ctx, sessionID, machine.Watermark()); err != nil {
		return nil, false, err
	}
	return check, true, nil
}

// AttentionAnswer is a submitted attention-check result, echoing the check
// that was shown plus the participant's raw answer. The in-flight draft
// rides along so a failed check can still persist the partial answer.
type AttentionAnswer struct {
	Question        string       `json:"question"`
	AcceptedAnswers []string     `json:"acceptedAnswers"`
	Kind            string       `json:"kind"`
	Answer          string       `json:"answer"`
	TimeSpent       int          `json:"timeSpent"`
	Draft           *DraftAnswer `json:"draft,omitempty"`
}

// DraftAnswer is the unsaved regular answer that was interrupted by the check.
type DraftAnswer struct {
	Position  models.QuestionPosition `json:"position"`
	Answer    string                  `json:"answer"`
	TimeSpent int                     `json:"timeSpent"`
}

// SubmitAttentionCheck validates the answer, records the outcome under the
// synthetic ID namespace and, on failure, saves the interrupted draft as-is
// and terminates the session. On a pass the caller resumes the interrupted
// question untouched; nothing about the saved tree positions changes.
func (s *SessionService) SubmitAttentionCheck(ctx context.Context, sessionID string, submission AttentionAnswer) (bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session.Status.Terminal() {
		return false, ErrSessionTerminal
	}
	if len(submission.AcceptedAnswers) == 0 {
		return false, invalid("acceptedAnswers", "must not be empty")
	}

	machine := flow.NewMachine(attention.NewScheduler(s.CheckInterval, session.Progress.LastCheckAt, s.rng))
	machine.SetPendingCheck(attention.Check{
		Question:        submission.Question,
		AcceptedAnswers: submission.AcceptedAnswers,
		Kind:            attention.Kind(submission.Kind),
	})
	passed, err := machine.ResolveCheck(submission.Answer)
	if err != nil {
		return false, err
	}

	// Check answers live outside the regular length bounds: a one-word reply
	// can be a legitimate pass, and a wrong reply of any length must still
	// resolve the check rather than bounce as a validation error.
	answer := submission.Answer
	if len(answer) > models.MaxAnswerLength {
		answer = answer[:models.MaxAnswerLength]
	}
	timeSpent := submission.TimeSpent
	if timeSpent < 0 {
		timeSpent = 0
	}
	category, subcategory, topic, _ := s.Tree.Labels(session.Progress.Position)
	checkResponse := &models.Response{
		SessionID:          sessionID,
		QuestionID:         models.AttentionCheckID(session.Progress.CompletedQuestions, session.Progress.Position.QuestionID()),
		Position:           session.Progress.Position,
		Category:           category,
		Subcategory:        subcategory,
		Topic:              topic,
		Question:           submission.Question,
		Answer:             answer,
		TimeSpent:          timeSpent,
		IsAttentionCheck:   true,
		AttentionCheckKind: submission.Kind,
		ExpectedAnswer:     submission.AcceptedAnswers[0],
		SubmittedAt:        time.Now().UTC(),
	}
	if _, err := s.Responses.Upsert(ctx, checkResponse); err != nil {
		return false, err
	}
	if err := s.Sessions.RecordAttentionCheck(ctx, sessionID, passed, session.Progress.LastCheckAt); err != nil {
		return false, err
	}
	if passed {
		return true, nil
	}

	// Preserve partial data: flush the interrupted draft before terminating.
	// The stored draft obeys the regular answer bounds, so over-long text is
	// truncated rather than dropped.
	if d := submission.Draft; d != nil && len(d.Answer) >= models.MinAnswerLength && s.Tree.IsValidPosition(d.Position) {
		draftAnswer := d.Answer
		if len(draftAnswer) > models.MaxAnswerLength {
			draftAnswer = draftAnswer[:models.MaxAnswerLength]
		}
		question, _ := s.Tree.QuestionAt(d.Position)
		dc, ds, dt, _ := s.Tree.Labels(d.Position)
		draftResponse := &models.Response{
			SessionID:   sessionID,
			QuestionID:  d.Position.QuestionID(),
			Position:    d.Position,
			Category:    dc,
			Subcategory: ds,
			Topic:       dt,
			Question:    question,
			Answer:      draftAnswer,
			TimeSpent:   d.TimeSpent,
			SubmittedAt: time.Now().UTC(),
		}
		if created, err := s.Responses.Upsert(ctx, draftResponse); err != nil {
			log.Printf("failed to save interrupted draft for session %s: %v", sessionID, err)
		} else if created {
			if err := s.Sessions.IncrementCompleted(ctx, sessionID, 1); err != nil {
				log.Printf("failed to bump completed count for session %s: %v", sessionID, err)
			}
		}
	}
	if _, err := s.Complete(ctx, sessionID, models.ReasonAttentionFailed); err != nil {
		return false, err
	}
	return false, nil
}
