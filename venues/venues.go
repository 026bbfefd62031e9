package venues

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"micmap/db"
	"micmap/filemgr"
	"micmap/models"
	"micmap/rdx"
	"micmap/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store owns venue identity resolution and the non-destructive merge. It
// needs the asset store because a slug change must relocate the owner's
// image directory before the venue row is allowed to move.
type Store struct {
	Assets *filemgr.Store
}

func NewStore(assets *filemgr.Store) *Store {
	return &Store{Assets: assets}
}

// Upsert resolves the incoming record to an existing venue or creates one.
// Resolution order: external place id, then exact normalized (name, postcode).
// Fuzzy name similarity never merges automatically; it only feeds the
// advisory report. Returns the stored venue and whether it was created.
func (s *Store) Upsert(ctx context.Context, raw models.RawVenue) (models.Venue, bool, error) {
	incoming := build(raw)

	if raw.City != nil {
		country := "Unknown"
		if raw.Country != nil {
			country = *raw.Country
		}
		cityID, err := EnsureCity(ctx, *raw.City, country)
		if err != nil {
			// geography is enrichment, not identity; keep going without it
			log.Printf("[Venues] ensure city %q: %v", *raw.City, err)
		} else {
			incoming.CityID = cityID
		}
	}

	existing, err := s.resolve(ctx, incoming)
	if err != nil {
		return models.Venue{}, false, err
	}

	if existing == nil {
		created, err := s.create(ctx, incoming)
		if err == nil {
			invalidateCache()
			return created, true, nil
		}
		if !db.IsDup(err) {
			return models.Venue{}, false, err
		}
		// another worker created it between resolve and insert; re-read and merge
		existing, err = s.resolve(ctx, incoming)
		if err != nil {
			return models.Venue{}, false, err
		}
		if existing == nil {
			return models.Venue{}, false, fmt.Errorf("venue %q: duplicate key but no match on re-read", incoming.Name)
		}
	}

	merged, changed := merge(*existing, incoming)
	if !changed {
		return *existing, false, nil
	}

	// a rename regenerates the slug, which moves the asset directory; the
	// venue row must not change unless the files made it over
	if merged.Slug != existing.Slug {
		if err := s.Assets.Relocate(filemgr.EntityVenue, existing.Slug, merged.Slug); err != nil {
			return models.Venue{}, false, fmt.Errorf("relocate assets for %q: %w", merged.Slug, err)
		}
		log.Printf("[Venues] relocated assets %s -> %s", existing.Slug, merged.Slug)
	}

	merged.UpdatedAt = time.Now()
	_, err = db.VenuesCollection.ReplaceOne(ctx, bson.M{"venueid": merged.VenueID}, merged)
	if err != nil {
		return models.Venue{}, false, err
	}
	invalidateCache()
	return merged, false, nil
}

func (s *Store) resolve(ctx context.Context, incoming models.Venue) (*models.Venue, error) {
	if incoming.PlaceID != "" {
		v, err := findOne(ctx, bson.M{"placeid": incoming.PlaceID})
		if err != nil || v != nil {
			return v, err
		}
	}
	return findOne(ctx, bson.M{
		"name_key": incoming.NameKey,
		"postcode": incoming.Postcode,
	})
}

func (s *Store) create(ctx context.Context, incoming models.Venue) (models.Venue, error) {
	now := time.Now()
	incoming.VenueID = utils.GetUUID()
	incoming.CreatedAt = now
	incoming.UpdatedAt = now
	_, err := db.VenuesCollection.InsertOne(ctx, incoming)
	if err != nil {
		return models.Venue{}, err
	}
	log.Printf("[Venues] created %q (%s)", incoming.Name, incoming.Slug)
	return incoming, nil
}

// SetHero records a newly stored hero image, but only when it improves on
// what the venue already has.
func (s *Store) SetHero(ctx context.Context, venueID string, asset filemgr.Asset) error {
	var v models.Venue
	err := db.VenuesCollection.FindOne(ctx, bson.M{"venueid": venueID}).Decode(&v)
	if err != nil {
		return err
	}
	if v.HeroImage != "" && asset.Width <= v.HeroWidth {
		return nil
	}
	_, err = db.VenuesCollection.UpdateOne(ctx,
		bson.M{"venueid": venueID},
		bson.M{"$set": bson.M{
			"hero_image": asset.FileName,
			"hero_width": asset.Width,
			"updated_at": time.Now(),
		}},
	)
	if err == nil {
		invalidateCache()
	}
	return err
}

func findOne(ctx context.Context, filter bson.M) (*models.Venue, error) {
	var v models.Venue
	err := db.VenuesCollection.FindOne(ctx, filter).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func invalidateCache() {
	if _, err := rdx.RdxDel("venues"); err != nil {
		log.Printf("[Venues] cache invalidation failed: %v", err)
	}
}

// build maps a validated raw record to the stored shape. Identity fields are
// normalized here once so every comparison downstream sees canonical values.
func build(raw models.RawVenue) models.Venue {
	v := models.Venue{
		Name:     raw.Name,
		NameKey:  utils.NormalizeName(raw.Name),
		Slug:     utils.Slugify(raw.Name),
		Address:  raw.Address,
		Postcode: utils.NormalizePostcode(raw.Postcode),
	}
	if raw.Phone != nil {
		v.Phone = *raw.Phone
	}
	if raw.Website != nil {
		v.Website = *raw.Website
	}
	if raw.PlaceID != nil {
		v.PlaceID = *raw.PlaceID
	}
	if raw.Latitude != nil && raw.Longitude != nil {
		v.Location = models.Coordinates{Latitude: *raw.Latitude, Longitude: *raw.Longitude}
	}
	return v
}

// merge folds the incoming record into the existing one without destroying
// information: populated fields are never replaced by empty ones, and the
// hero image only moves forward in fidelity. A changed name regenerates the
// slug. The second return reports whether anything differs.
func merge(existing, incoming models.Venue) (models.Venue, bool) {
	out := existing
	changed := false

	set := func(dst *string, src string) {
		if src != "" && src != *dst {
			*dst = src
			changed = true
		}
	}

	if incoming.Name != "" && incoming.Name != existing.Name {
		out.Name = incoming.Name
		out.NameKey = utils.NormalizeName(incoming.Name)
		out.Slug = utils.Slugify(incoming.Name)
		changed = true
	}
	set(&out.Address, incoming.Address)
	set(&out.Postcode, incoming.Postcode)
	set(&out.Phone, incoming.Phone)
	set(&out.Website, incoming.Website)
	set(&out.PlaceID, incoming.PlaceID)
	set(&out.CityID, incoming.CityID)

	if incoming.Location.Latitude != 0 || incoming.Location.Longitude != 0 {
		if incoming.Location != existing.Location {
			out.Location = incoming.Location
			changed = true
		}
	}
	if incoming.HeroImage != "" && incoming.HeroWidth > existing.HeroWidth {
		out.HeroImage = incoming.HeroImage
		out.HeroWidth = incoming.HeroWidth
		changed = true
	}

	return out, changed
}
