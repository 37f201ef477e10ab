package repository

import (
	"context"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResponseRepository struct {
	Col *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) *ResponseRepository {
	return &ResponseRepository{Col: db.Collection("responses")}
}

// EnsureIndexes enforces the (session_id, question_id) uniqueness the upsert
// contract rests on, plus the position index used for ordered listing.
func (r *ResponseRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "question_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "position.category_index", Value: 1},
				{Key: "position.subcategory_index", Value: 1},
				{Key: "position.topic_index", Value: 1},
				{Key: "position.question_index", Value: 1},
			},
		},
	})
	return err
}

// upsertDoc builds the $set patch for a response, excluding _id.
func upsertDoc(resp *models.Response) bson.M {
	return bson.M{
		"session_id":           resp.SessionID,
		"question_id":          resp.QuestionID,
		"position":             resp.Position,
		"category":             resp.Category,
		"subcategory":          resp.Subcategory,
		"topic":                resp.Topic,
		"question":             resp.Question,
		"answer":               resp.Answer,
		"time_spent":           resp.TimeSpent,
		"is_attention_check":   resp.IsAttentionCheck,
		"attention_check_kind": resp.AttentionCheckKind,
		"expected_answer":      resp.ExpectedAnswer,
		"quality_score":        resp.QualityScore,
		"submitted_at":         resp.SubmittedAt,
	}
}

// Upsert inserts or replaces the response keyed by (session, question).
// Last write wins; created reports whether a new document was inserted.
func (r *ResponseRepository) Upsert(ctx context.Context, resp *models.Response) (created bool, err error) {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"session_id": resp.SessionID, "question_id": resp.QuestionID},
		bson.M{"$set": upsertDoc(resp)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// BulkUpsert applies the same upsert semantics to a batch in one round trip.
// The returned slice reports per item, index-aligned with the input, whether
// a new document was inserted; callers that count progress need to know which
// items were new, not just how many.
func (r *ResponseRepository) BulkUpsert(ctx context.Context, responses []models.Response) (created []bool, err error) {
	if len(responses) == 0 {
		return nil, nil
	}
	ops := make([]mongo.WriteModel, 0, len(responses))
	for i := range responses {
		resp := &responses[i]
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"session_id": resp.SessionID, "question_id": resp.QuestionID}).
			SetUpdate(bson.M{"$set": upsertDoc(resp)}).
			SetUpsert(true))
	}
	res, err := r.Col.BulkWrite(ctx, ops)
	if err != nil {
		return nil, err
	}
	created = make([]bool, len(responses))
	for idx := range res.UpsertedIDs {
		created[idx] = true
	}
	return created, nil
}

// ListBySession returns all responses of a session sorted by tree position.
func (r *ResponseRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Response, error) {
	cursor, err := r.Col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{
			{Key: "position.category_index", Value: 1},
			{Key: "position.subcategory_index", Value: 1},
			{Key: "position.topic_index", Value: 1},
			{Key: "position.question_index", Value: 1},
		}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var responses []models.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}
