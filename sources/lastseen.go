package sources

import (
	"context"
	"errors"
	"time"

	"micmap/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LastSeen reports when a detail URL was last successfully processed for a
// source, by consulting the sighting ledger. nil means never seen.
func LastSeen(ctx context.Context, sourceID, detailURL string) (*time.Time, error) {
	var row struct {
		LastSeenAt time.Time `bson:"last_seen_at"`
	}
	err := db.EventSourcesCollection.FindOne(ctx,
		bson.M{"sourceid": sourceID, "source_url": detailURL},
	).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.LastSeenAt, nil
}
