package venues

import (
	"context"
	"strings"

	"micmap/db"
	"micmap/models"
	"micmap/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// similarity scores how likely two venues are the same place, as token
// overlap on the folded names with a postcode tie-breaker. Scores feed the
// advisory report only; nothing ever merges on a fuzzy match.
func similarity(a, b models.Venue) (float64, string) {
	aTokens := tokens(utils.NormalizeName(a.Name))
	bTokens := tokens(utils.NormalizeName(b.Name))
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0, ""
	}

	shared := 0
	for tok := range aTokens {
		if bTokens[tok] {
			shared++
		}
	}
	union := len(aTokens) + len(bTokens) - shared
	score := float64(shared) / float64(union)

	reason := "name overlap"
	if a.Postcode != "" && a.Postcode == b.Postcode {
		score = score + (1-score)*0.5
		reason = "name overlap, same postcode"
	}
	return score, reason
}

func tokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		// articles carry no identity signal
		if tok == "the" || tok == "a" || tok == "an" {
			continue
		}
		out[tok] = true
	}
	return out
}

const duplicateThreshold = 0.6

// DuplicateReport scans venues pairwise within each postcode district and
// returns candidate pairs above the threshold for human review.
func DuplicateReport(ctx context.Context) ([]models.DuplicatePair, error) {
	cursor, err := db.VenuesCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var all []models.Venue
	if err := cursor.All(ctx, &all); err != nil {
		return nil, err
	}

	// bucket by postcode district to keep the pairwise scan bounded
	buckets := make(map[string][]models.Venue)
	for _, v := range all {
		buckets[district(v.Postcode)] = append(buckets[district(v.Postcode)], v)
	}

	pairs := []models.DuplicatePair{}
	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if a.VenueID == b.VenueID {
					continue
				}
				score, reason := similarity(a, b)
				if score < duplicateThreshold {
					continue
				}
				pairs = append(pairs, models.DuplicatePair{
					VenueID:      a.VenueID,
					OtherVenueID: b.VenueID,
					VenueName:    a.Name,
					OtherName:    b.Name,
					Confidence:   score,
					Reason:       reason,
				})
			}
		}
	}
	return pairs, nil
}

// district is the leading alpha-numeric prefix of a postcode, e.g. "LS1"
// from "LS14HT". Venues with unparseable postcodes share one bucket.
func district(postcode string) string {
	if len(postcode) < 3 {
		return postcode
	}
	return postcode[:3]
}
