package performers

import (
	"context"
	"errors"
	"log"
	"time"

	"micmap/db"
	"micmap/filemgr"
	"micmap/models"
	"micmap/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ensure find-or-creates a performer keyed by (name, source). Two sources
// naming the same person stay separate rows until a human says otherwise.
func Ensure(ctx context.Context, name, sourceID string) (models.Performer, error) {
	filter := bson.M{"name": name, "sourceid": sourceID}

	var p models.Performer
	err := db.PerformersCollection.FindOne(ctx, filter).Decode(&p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Performer{}, err
	}

	now := time.Now()
	p = models.Performer{
		PerformerID: utils.GetUUID(),
		Name:        name,
		SourceID:    sourceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = db.PerformersCollection.InsertOne(ctx, p)
	if db.IsDup(err) {
		if err := db.PerformersCollection.FindOne(ctx, filter).Decode(&p); err != nil {
			return models.Performer{}, err
		}
		return p, nil
	}
	if err != nil {
		return models.Performer{}, err
	}
	log.Printf("[Performers] created %q for source %s", name, sourceID)
	return p, nil
}

// SetProfileImage downloads and stores a profile image for the performer.
// Failures are logged, not returned; a missing headshot never fails a run.
func SetProfileImage(ctx context.Context, assets *filemgr.Store, p models.Performer, imageURL string) {
	if imageURL == "" || p.ProfileImage != "" {
		return
	}
	slug := utils.Slugify(p.Name)
	asset, err := assets.SaveFromURL(ctx, filemgr.EntityPerformer, slug, imageURL, 0)
	if err != nil {
		log.Printf("[Performers] profile image for %q: %v", p.Name, err)
		return
	}
	_, err = db.PerformersCollection.UpdateOne(ctx,
		bson.M{"performerid": p.PerformerID},
		bson.M{"$set": bson.M{"profile_image": asset.FileName, "updated_at": time.Now()}},
	)
	if err != nil {
		log.Printf("[Performers] record profile image for %q: %v", p.Name, err)
	}
}
