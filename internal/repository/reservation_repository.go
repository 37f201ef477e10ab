package repository

import (
	"context"
	"errors"
	"time"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReservationRepository tracks slots reserved ahead of session creation, so
// the create step consumes the held slot instead of incrementing the region
// counter a second time. An orphaned reservation (client never came back) is
// recoverable by out-of-band reconciliation.
type ReservationRepository struct {
	Col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{Col: db.Collection("region_reservations")}
}

func (r *ReservationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "participant_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ReservationRepository) Put(ctx context.Context, participantID string, region models.Region) error {
	_, err := r.Col.UpdateOne(ctx,
		bson.M{"participant_id": participantID},
		bson.M{"$set": bson.M{"region": region, "reserved_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Take atomically removes and reports the participant's reservation.
func (r *ReservationRepository) Take(ctx context.Context, participantID string, region models.Region) (bool, error) {
	err := r.Col.FindOneAndDelete(ctx,
		bson.M{"participant_id": participantID, "region": region},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
