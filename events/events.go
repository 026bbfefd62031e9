package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"micmap/db"
	"micmap/models"
	"micmap/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// insertEvent and findEvent are indirection points so the duplicate-key
// recovery in Upsert can be exercised without a live database.
var (
	insertEvent = func(ctx context.Context, ev models.Event) error {
		_, err := db.EventsCollection.InsertOne(ctx, ev)
		return err
	}
	findEvent = locate
)

// Upsert locates the venue's event and applies the incoming fields when they
// materially differ. Weekly events are identified by (venue, weekday);
// irregular ones by the source URL that announced them, via the sighting
// ledger. Returns the stored event and whether a write happened.
func Upsert(ctx context.Context, venueID, sourceID string, in models.IncomingEvent) (models.Event, bool, error) {
	if in.Frequency == "" {
		in.Frequency = models.FrequencyWeekly
	}

	existing, err := findEvent(ctx, venueID, sourceID, in)
	if err != nil {
		return models.Event{}, false, err
	}

	now := time.Now()
	if existing == nil {
		ev := models.Event{
			EventID:     utils.GetUUID(),
			VenueID:     venueID,
			DayOfWeek:   in.DayOfWeek,
			StartTime:   in.StartTime,
			Frequency:   in.Frequency,
			EntryFee:    in.EntryFee,
			Description: in.Description,
			PerformerID: in.PerformerID,
			HeroImage:   in.HeroImage,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err := insertEvent(ctx, ev)
		if err == nil {
			log.Printf("[Events] created event at venue %s (day %d)", venueID, in.DayOfWeek)
			return ev, true, nil
		}
		if !db.IsDup(err) {
			return models.Event{}, false, err
		}
		// a concurrent delivery of the same candidate won the insert; its
		// row is the canonical one, so re-read and fall through to the merge
		existing, err = findEvent(ctx, venueID, sourceID, in)
		if err != nil {
			return models.Event{}, false, err
		}
		if existing == nil {
			return models.Event{}, false, fmt.Errorf("event for venue %s not readable after duplicate insert", venueID)
		}
	}

	if !materiallyDifferent(*existing, in) {
		return *existing, false, nil
	}

	updated := apply(*existing, in)
	updated.UpdatedAt = now
	_, err = db.EventsCollection.ReplaceOne(ctx, bson.M{"eventid": updated.EventID}, updated)
	if err != nil {
		return models.Event{}, false, err
	}
	log.Printf("[Events] updated event %s at venue %s", updated.EventID, venueID)
	return updated, true, nil
}

func locate(ctx context.Context, venueID, sourceID string, in models.IncomingEvent) (*models.Event, error) {
	if in.Frequency == models.FrequencyIrregular {
		return locateBySourceURL(ctx, venueID, sourceID, in.SourceURL)
	}

	var ev models.Event
	err := db.EventsCollection.FindOne(ctx, bson.M{
		"venueid":     venueID,
		"day_of_week": in.DayOfWeek,
		"frequency":   models.FrequencyWeekly,
	}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// locateBySourceURL resolves an irregular event through its ledger row, since
// day-of-week is not a stable identity for one-off nights.
func locateBySourceURL(ctx context.Context, venueID, sourceID, sourceURL string) (*models.Event, error) {
	var row models.EventSource
	err := db.EventSourcesCollection.FindOne(ctx, bson.M{
		"sourceid":   sourceID,
		"source_url": sourceURL,
	}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ev models.Event
	err = db.EventsCollection.FindOne(ctx, bson.M{"eventid": row.EventID, "venueid": venueID}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// materiallyDifferent is the change-detection gate. The comparison set is
// exactly start time, frequency, entry fee, description, and the hero image
// reference; a hero swap alone is a real update and must not be dropped.
func materiallyDifferent(existing models.Event, in models.IncomingEvent) bool {
	if existing.StartTime != in.StartTime {
		return true
	}
	if existing.Frequency != in.Frequency {
		return true
	}
	if existing.EntryFee != in.EntryFee {
		return true
	}
	if in.Description != "" && existing.Description != in.Description {
		return true
	}
	if in.HeroImage != "" && existing.HeroImage != in.HeroImage {
		return true
	}
	return false
}

func apply(existing models.Event, in models.IncomingEvent) models.Event {
	out := existing
	out.StartTime = in.StartTime
	out.Frequency = in.Frequency
	out.EntryFee = in.EntryFee
	if in.Description != "" {
		out.Description = in.Description
	}
	if in.PerformerID != "" {
		out.PerformerID = in.PerformerID
	}
	if in.HeroImage != "" {
		out.HeroImage = in.HeroImage
	}
	return out
}

// RecordSighting upserts the (event, source) ledger row. This runs on every
// successful detail pass whether or not the event changed; last_seen_at is
// what the freshness gate reads. Metadata keys merge, never replace.
func RecordSighting(ctx context.Context, eventID, sourceID, sourceURL string, metadata map[string]string) error {
	now := time.Now()
	set := bson.M{
		"source_url":   sourceURL,
		"last_seen_at": now,
	}
	for k, v := range metadata {
		set["metadata."+k] = v
	}
	_, err := db.EventSourcesCollection.UpdateOne(ctx,
		bson.M{"eventid": eventID, "sourceid": sourceID},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"eventsourceid": utils.GetUUID(),
				"created_at":    now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if db.IsDup(err) {
		// concurrent first sighting; retry as a plain update
		_, err = db.EventSourcesCollection.UpdateOne(ctx,
			bson.M{"eventid": eventID, "sourceid": sourceID},
			bson.M{"$set": set},
		)
	}
	return err
}
