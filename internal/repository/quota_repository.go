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

// QuotaRepository holds the per-region admission counters. All mutations are
// single conditional atomic updates; correctness rests on the database
// primitive, not on any in-process lock.
type QuotaRepository struct {
	Col *mongo.Collection
}

func NewQuotaRepository(db *mongo.Database) *QuotaRepository {
	return &QuotaRepository{Col: db.Collection("region_quotas")}
}

// Init upserts one quota row per region. current_count is only written on
// insert so a redeploy never resets a live counter; max_quota follows the
// configured limit.
func (r *QuotaRepository) Init(ctx context.Context, limits map[models.Region]int) error {
	for region, max := range limits {
		_, err := r.Col.UpdateOne(ctx,
			bson.M{"region": region},
			bson.M{
				"$setOnInsert": bson.M{"current_count": 0},
				"$set":         bson.M{"max_quota": max, "last_updated": time.Now().UTC()},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Available is a read-only advisory check. A true result does not hold a
// slot; only Reserve is authoritative.
func (r *QuotaRepository) Available(ctx context.Context, region models.Region) (bool, error) {
	var quota models.RegionQuota
	err := r.Col.FindOne(ctx, bson.M{"region": region}).Decode(&quota)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return quota.CurrentCount < quota.MaxQuota, nil
}

// Reserve atomically increments the counter only while it is below the
// ceiling. A false return means the region filled up, possibly between an
// advisory check and this call; that is an expected outcome.
func (r *QuotaRepository) Reserve(ctx context.Context, region models.Region) (bool, error) {
	err := r.Col.FindOneAndUpdate(ctx,
		bson.M{
			"region": region,
			"$expr":  bson.M{"$lt": bson.A{"$current_count", "$max_quota"}},
		},
		bson.M{
			"$inc": bson.M{"current_count": 1},
			"$set": bson.M{"last_updated": time.Now().UTC()},
		},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release atomically decrements the counter, guarded so a double release can
// never drive it negative.
func (r *QuotaRepository) Release(ctx context.Context, region models.Region) error {
	err := r.Col.FindOneAndUpdate(ctx,
		bson.M{
			"region":        region,
			"current_count": bson.M{"$gt": 0},
		},
		bson.M{
			"$inc": bson.M{"current_count": -1},
			"$set": bson.M{"last_updated": time.Now().UTC()},
		},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

// Snapshot returns all quota rows, for the availability endpoint.
func (r *QuotaRepository) Snapshot(ctx context.Context) ([]models.RegionQuota, error) {
	cursor, err := r.Col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var quotas []models.RegionQuota
	if err := cursor.All(ctx, &quotas); err != nil {
		return nil, err
	}
	return quotas, nil
}
