package venues

import (
	"testing"

	"micmap/models"
)

func strPtr(s string) *string { return &s }

func TestBuildNormalizesIdentityFields(t *testing.T) {
	raw := models.RawVenue{
		Name:     "Café Höfn",
		Address:  "1 Main St",
		Postcode: "ls1 4ht",
		Phone:    strPtr("0113 000000"),
	}
	v := build(raw)

	if v.NameKey != "cafe hofn" {
		t.Errorf("name key = %q", v.NameKey)
	}
	if v.Slug != "cafe-hofn" {
		t.Errorf("slug = %q", v.Slug)
	}
	if v.Postcode != "LS14HT" {
		t.Errorf("postcode = %q", v.Postcode)
	}
	if v.Phone != "0113 000000" {
		t.Errorf("phone = %q", v.Phone)
	}
}

func TestMergeNeverEmptiesPopulatedFields(t *testing.T) {
	existing := models.Venue{
		VenueID:  "v1",
		Name:     "The Anchor",
		NameKey:  "anchor",
		Slug:     "the-anchor",
		Address:  "2 Dock Rd",
		Postcode: "LS14HT",
		Phone:    "0113 111111",
		Website:  "https://anchor.example.com",
	}
	incoming := models.Venue{
		Name:     "The Anchor",
		NameKey:  "anchor",
		Slug:     "the-anchor",
		Address:  "2 Dock Rd",
		Postcode: "LS14HT",
		// phone and website absent from this source
	}

	merged, changed := merge(existing, incoming)
	if changed {
		t.Error("identical incoming record should not report a change")
	}
	if merged.Phone != existing.Phone || merged.Website != existing.Website {
		t.Errorf("populated fields were emptied: %+v", merged)
	}
}

func TestMergeAdoptsNewOptionalFields(t *testing.T) {
	existing := models.Venue{VenueID: "v1", Name: "The Anchor", NameKey: "anchor", Slug: "the-anchor"}
	incoming := models.Venue{
		Name:     "The Anchor",
		NameKey:  "anchor",
		Phone:    "0113 222222",
		Location: models.Coordinates{Latitude: 53.79, Longitude: -1.54},
	}

	merged, changed := merge(existing, incoming)
	if !changed {
		t.Fatal("new fields should report a change")
	}
	if merged.Phone != "0113 222222" {
		t.Errorf("phone = %q", merged.Phone)
	}
	if merged.Location.Latitude != 53.79 {
		t.Errorf("location = %+v", merged.Location)
	}
}

func TestMergeRenameRegeneratesSlug(t *testing.T) {
	existing := models.Venue{VenueID: "v1", Name: "The Anchor", NameKey: "anchor", Slug: "the-anchor"}
	incoming := models.Venue{Name: "The Anchor Tap", NameKey: "anchor tap"}

	merged, changed := merge(existing, incoming)
	if !changed {
		t.Fatal("rename should report a change")
	}
	if merged.Slug != "the-anchor-tap" {
		t.Errorf("slug = %q, want regenerated", merged.Slug)
	}
	if merged.NameKey != "the anchor tap" {
		t.Errorf("name key = %q", merged.NameKey)
	}
}

func TestMergeHeroOnlyMovesForwardInFidelity(t *testing.T) {
	existing := models.Venue{VenueID: "v1", Name: "X", HeroImage: "hero.jpg", HeroWidth: 1200}

	lower := models.Venue{Name: "X", HeroImage: "small.jpg", HeroWidth: 640}
	merged, changed := merge(existing, lower)
	if changed || merged.HeroImage != "hero.jpg" {
		t.Errorf("lower-resolution hero should not replace: %+v", merged)
	}

	higher := models.Venue{Name: "X", HeroImage: "big.jpg", HeroWidth: 2000}
	merged, changed = merge(existing, higher)
	if !changed || merged.HeroImage != "big.jpg" || merged.HeroWidth != 2000 {
		t.Errorf("higher-resolution hero should replace: %+v", merged)
	}
}

func TestSimilarity(t *testing.T) {
	a := models.Venue{Name: "The Crooked Billet", Postcode: "LS14HT"}
	b := models.Venue{Name: "Crooked Billet Pub", Postcode: "LS14HT"}
	score, reason := similarity(a, b)
	if score < duplicateThreshold {
		t.Errorf("near-identical names same postcode scored %f", score)
	}
	if reason != "name overlap, same postcode" {
		t.Errorf("reason = %q", reason)
	}

	c := models.Venue{Name: "Blue Note Jazz Bar", Postcode: "M11AA"}
	score, _ = similarity(a, c)
	if score >= duplicateThreshold {
		t.Errorf("unrelated venues scored %f", score)
	}
}
