package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"survey-service/internal/flow"
	"survey-service/internal/models"
	"survey-service/internal/progress"
	"survey-service/internal/questions"
	"survey-service/internal/repository"

	"github.com/google/uuid"
)

// SessionService orchestrates the admission pipeline and session lifecycle:
// identity uniqueness check, quota reservation, session creation, progress,
// attention-check cadence and completion bookkeeping.
type SessionService struct {
	Sessions      SessionStore
	Responses     ResponseStore
	Quotas        QuotaStore
	Reservations  ReservationStore
	Tree          *questions.Tree
	Cursor        *progress.Cursor
	CheckInterval int
	rng           *rand.Rand
}

func NewSessionService(
	sessions SessionStore,
	responses ResponseStore,
	quotas QuotaStore,
	reservations ReservationStore,
	tree *questions.Tree,
	checkInterval int,
) *SessionService {
	return &SessionService{
		Sessions:      sessions,
		Responses:     responses,
		Quotas:        quotas,
		Reservations:  reservations,
		Tree:          tree,
		Cursor:        progress.NewCursor(tree),
		CheckInterval: checkInterval,
	}
}

type CreateSessionRequest struct {
	ParticipantID string `json:"participantId"`
	Region        string `json:"region"`
	Age           int    `json:"age"`
	YearsInRegion int    `json:"yearsInRegion"`
}

func (r *CreateSessionRequest) validate() (models.Region, error) {
	if !models.ValidParticipantID(r.ParticipantID) {
		return "", invalid("participantId", "must be exactly 24 alphanumeric characters")
	}
	region, ok := models.ParseRegion(r.Region)
	if !ok {
		return "", invalid("region", "must be one of north, south, east, west, central")
	}
	if r.Age < 18 || r.Age > 100 {
		return "", invalid("age", "must be between 18 and 100")
	}
	if r.YearsInRegion < 0 {
		return "", invalid("yearsInRegion", "must not be negative")
	}
	return region, nil
}

// CreateSession runs the admission state machine: identity check first so a
// duplicate never consumes a slot, then quota reservation, then the session
// row. A slot pre-reserved through ReserveRegion is consumed instead of
// reserving a second one.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	region, err := req.validate()
	if err != nil {
		return nil, err
	}

	if _, err := s.Sessions.FindByParticipantID(ctx, req.ParticipantID); err == nil {
		return nil, ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	held, err := s.Reservations.Take(ctx, req.ParticipantID, region)
	if err != nil {
		return nil, err
	}
	if !held {
		reserved, err := s.Quotas.Reserve(ctx, region)
		if err != nil {
			return nil, err
		}
		if !reserved {
			if err := s.recordRejection(ctx, req.ParticipantID, region, "Region quota full"); err != nil {
				log.Printf("failed to record quota rejection for %s: %v", req.ParticipantID, err)
			}
			return nil, ErrQuotaFull
		}
	}

	now := time.Now().UTC()
	session := &models.Session{
		SessionID:     uuid.NewString(),
		ParticipantID: req.ParticipantID,
		Region:        region,
		Age:           req.Age,
		YearsInRegion: req.YearsInRegion,
		Status:        models.StatusActive,
		Progress: models.Progress{
			TotalQuestions: s.Tree.TotalQuestions(),
			LastCheckAt:    -1,
		},
		Timing:       models.Timing{StartedAt: now},
		LastActiveAt: now,
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		// Lost a race on the identity index: hand the slot back.
		if errors.Is(err, repository.ErrDuplicate) {
			if relErr := s.Quotas.Release(ctx, region); relErr != nil {
				log.Printf("failed to release slot after duplicate identity race: %v", relErr)
			}
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	return session, nil
}

// recordRejection persists an auditable row for a refused admission.
func (s *SessionService) recordRejection(ctx context.Context, participantID string, region models.Region, reason string) error {
	now := time.Now().UTC()
	return s.Sessions.Create(ctx, &models.Session{
		SessionID:       fmt.Sprintf("rejected-%s-%d", participantID, now.UnixMilli()),
		ParticipantID:   participantID,
		Region:          region,
		Status:          models.StatusQuotaFull,
		RejectionReason: reason,
		Timing:          models.Timing{StartedAt: now},
		LastActiveAt:    now,
	})
}

// GetSession returns the session with its total-question count refreshed
// against the current catalogue. Existing question IDs are unaffected by a
// reload; only the bookkeeping moves.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.Sessions.FindBySessionID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if total := s.Tree.TotalQuestions(); session.Status == models.StatusActive && session.Progress.TotalQuestions != total {
		if err := s.Sessions.SetTotalQuestions(ctx, sessionID, total); err != nil {
			return nil, err
		}
		session.Progress.TotalQuestions = total
	}
	return session, nil
}

// CheckIdentity reports whether the participant identity is already taken.
func (s *SessionService) CheckIdentity(ctx context.Context, participantID string) (bool, error) {
	if !models.ValidParticipantID(participantID) {
		return false, invalid("participantId", "must be exactly 24 alphanumeric characters")
	}
	_, err := s.Sessions.FindByParticipantID(ctx, participantID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdatePosition validates and persists the cursor position. Replays of the
// same position are harmless.
func (s *SessionService) UpdatePosition(ctx context.Context, sessionID string, pos models.QuestionPosition) error {
	if !s.Tree.IsValidPosition(pos) {
		return invalid("position", fmt.Sprintf("question at %s does not exist", pos.QuestionID()))
	}
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status.Terminal() {
		return ErrSessionTerminal
	}
	return s.Sessions.UpdatePosition(ctx, sessionID, pos)
}

// Resume returns the position of the first unanswered question, or the last
// question when everything is answered.
func (s *SessionService) Resume(ctx context.Context, sessionID string) (models.QuestionPosition, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return models.QuestionPosition{}, err
	}
	responses, err := s.Responses.ListBySession(ctx, sessionID)
	if err != nil {
		return models.QuestionPosition{}, err
	}
	return s.Cursor.ResumeFrom(progress.AnsweredSet(responses)), nil
}

// CompletionResult reports the finalized timing back to the caller.
type CompletionResult struct {
	Reason             string `json:"completionReason"`
	TotalTimeSeconds   int    `json:"totalTimeSeconds"`
	TotalTimeFormatted string `json:"totalTimeFormatted"`
}

// Complete finalizes a session. The transition table makes terminal states
// sticky; retrying with the same reason returns the stored result so the
// call stays safe to repeat after a lost acknowledgment.
func (s *SessionService) Complete(ctx context.Context, sessionID, reason string) (*CompletionResult, error) {
	switch reason {
	case models.ReasonCompleted, models.ReasonAttentionFailed, models.ReasonTimeExpired:
	case "":
		reason = models.ReasonCompleted
	default:
		return nil, invalid("reason", "unknown completion reason")
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	target := statusForReason(reason)
	if session.Status.Terminal() {
		if session.CompletionReason == reason && session.Timing.TotalTimeSeconds != nil {
			return &CompletionResult{
				Reason:             reason,
				TotalTimeSeconds:   *session.Timing.TotalTimeSeconds,
				TotalTimeFormatted: session.Timing.TotalTimeFormatted,
			}, nil
		}
		return nil, ErrSessionTerminal
	}
	if err := flow.Transition(session.Status, target); err != nil {
		return nil, ErrSessionTerminal
	}

	now := time.Now().UTC()
	seconds := int(now.Sub(session.Timing.StartedAt).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	timing := models.Timing{
		StartedAt:          session.Timing.StartedAt,
		CompletedAt:        &now,
		TotalTimeSeconds:   &seconds,
		TotalTimeFormatted: FormatDuration(seconds),
	}
	if err := s.Sessions.Complete(ctx, sessionID, target, reason, timing); err != nil {
		return nil, err
	}
	// The participant is done with their slot either way.
	if err := s.Quotas.Release(ctx, session.Region); err != nil {
		log.Printf("failed to release quota slot for region %s: %v", session.Region, err)
	}
	return &CompletionResult{
		Reason:             reason,
		TotalTimeSeconds:   seconds,
		TotalTimeFormatted: FormatDuration(seconds),
	}, nil
}

func statusForReason(reason string) models.Status {
	switch reason {
	case models.ReasonAttentionFailed:
		return models.StatusAttentionFailed
	case models.ReasonTimeExpired:
		return models.StatusExpired
	default:
		return models.StatusCompleted
	}
}

// FormatDuration renders seconds as "1h 2m 3s", omitting zero parts.
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	remaining := seconds % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if remaining > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", remaining))
	}
	return strings.Join(parts, " ")
}
