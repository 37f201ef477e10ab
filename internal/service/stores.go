package service

import (
	"context"

	"survey-service/internal/models"
)

// Store contracts the services depend on. The Mongo repositories implement
// them for multi-instance deployments; the in-memory stores implement the
// same contracts for single-instance use and tests.

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	FindByParticipantID(ctx context.Context, participantID string) (*models.Session, error)
	UpdatePosition(ctx context.Context, sessionID string, pos models.QuestionPosition) error
	SetTotalQuestions(ctx context.Context, sessionID string, total int) error
	IncrementCompleted(ctx context.Context, sessionID string, delta int) error
	SetCheckWatermark(ctx context.Context, sessionID string, watermark int) error
	RecordAttentionCheck(ctx context.Context, sessionID string, passed bool, watermark int) error
	Complete(ctx context.Context, sessionID string, status models.Status, reason string, timing models.Timing) error
}

type ResponseStore interface {
	Upsert(ctx context.Context, resp *models.Response) (created bool, err error)
	// BulkUpsert reports created-ness per item, index-aligned with the input.
	BulkUpsert(ctx context.Context, responses []models.Response) (created []bool, err error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Response, error)
}

// QuotaStore exposes the atomic admission counter. Reserve must be a single
// compare-and-increment; Available is advisory only.
type QuotaStore interface {
	Init(ctx context.Context, limits map[models.Region]int) error
	Available(ctx context.Context, region models.Region) (bool, error)
	Reserve(ctx context.Context, region models.Region) (bool, error)
	Release(ctx context.Context, region models.Region) error
	Snapshot(ctx context.Context) ([]models.RegionQuota, error)
}

// ReservationStore remembers which participant holds a pre-reserved slot so
// session creation consumes that slot instead of reserving a second one.
type ReservationStore interface {
	Put(ctx context.Context, participantID string, region models.Region) error
	// Take consumes the participant's reservation for region if one exists.
	Take(ctx context.Context, participantID string, region models.Region) (bool, error)
}
