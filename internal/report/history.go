package report

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trackcheck/internal/logger"
	"trackcheck/pkg/errors"
)

const runsCollection = "runs"

// History stores run records in MongoDB for the inspector. Optional: the
// runner works without it when no mongo URI is configured.
type History struct {
	collection *mongo.Collection
	logger     logger.Logger
}

func NewHistory(client *mongo.Client, database string, log logger.Logger) *History {
	return &History{
		collection: client.Database(database).Collection(runsCollection),
		logger:     log,
	}
}

func (h *History) Insert(ctx context.Context, record RunRecord) error {
	if _, err := h.collection.InsertOne(ctx, record); err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}

	h.logger.InfowCtx(ctx, "Run recorded",
		"run_id", record.ID,
		"module", record.Module,
		"passed", record.Passed,
	)
	return nil
}

// List returns the most recent runs, newest first.
func (h *History) List(ctx context.Context, limit int64) ([]RunRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := h.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	defer cursor.Close(ctx)

	var records []RunRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	return records, nil
}

func (h *History) Get(ctx context.Context, id string) (*RunRecord, error) {
	var record RunRecord
	err := h.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrNotFound.WithDetail("run_id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	return &record, nil
}
