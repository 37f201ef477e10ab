package repository

import (
	"context"
	"errors"
	"time"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique index rejects an insert.
var ErrDuplicate = errors.New("duplicate key")

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("sessions")}
}

// EnsureIndexes creates the unique participant index: one session per
// identity, ever.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	res, err := r.Col.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

func (r *SessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := r.Col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) FindByParticipantID(ctx context.Context, participantID string) (*models.Session, error) {
	var session models.Session
	err := r.Col.FindOne(ctx, bson.M{"participant_id": participantID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// update applies a $set patch to one session, bumping last_active_at.
func (r *SessionRepository) update(ctx context.Context, sessionID string, patch bson.M) error {
	patch["last_active_at"] = time.Now().UTC()
	res, err := r.Col.UpdateOne(ctx, bson.M{"session_id": sessionID}, bson.M{"$set": patch})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePosition is idempotent: writing the same position twice is a no-op.
func (r *SessionRepository) UpdatePosition(ctx context.Context, sessionID string, pos models.QuestionPosition) error {
	return r.update(ctx, sessionID, bson.M{"progress.position": pos})
}

func (r *SessionRepository) SetTotalQuestions(ctx context.Context, sessionID string, total int) error {
	return r.update(ctx, sessionID, bson.M{"progress.total_questions": total})
}

// SetCheckWatermark persists the attention cadence watermark on its own,
// used when a check is generated but not yet answered.
func (r *SessionRepository) SetCheckWatermark(ctx context.Context, sessionID string, watermark int) error {
	return r.update(ctx, sessionID, bson.M{"progress.last_check_at": watermark})
}

// RecordAttentionCheck bumps the passed/failed counter and persists the
// cadence watermark so resumption keeps the same rhythm.
func (r *SessionRepository) RecordAttentionCheck(ctx context.Context, sessionID string, passed bool, watermark int) error {
	counter := "progress.attention_checks_passed"
	if !passed {
		counter = "progress.attention_checks_failed"
	}
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$inc": bson.M{counter: 1},
			"$set": bson.M{
				"progress.last_check_at": watermark,
				"last_active_at":         time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete finalizes a session into a terminal status with its timing.
func (r *SessionRepository) Complete(ctx context.Context, sessionID string, status models.Status, reason string, timing models.Timing) error {
	return r.update(ctx, sessionID, bson.M{
		"status":            status,
		"completion_reason": reason,
		"timing":            timing,
	})
}

// IncrementCompleted bumps the non-attention answered counter by delta.
func (r *SessionRepository) IncrementCompleted(ctx context.Context, sessionID string, delta int) error {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$inc": bson.M{"progress.completed_questions": delta},
			"$set": bson.M{"last_active_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
