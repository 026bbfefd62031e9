package extractor

import (
	"encoding/json"
	"strings"

	"micmap/models"
)

// jsonVenueDoc is the wire shape JSON API sources share. Sources differ in
// which optional keys they populate; presence is validated here once so
// downstream code never re-checks.
type jsonVenueDoc struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Postcode    string  `json:"postcode"`
	Schedule    string  `json:"schedule"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Phone       string  `json:"phone"`
	Website     string  `json:"website"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PlaceID     string  `json:"place_id"`
	HeroImage   string  `json:"hero_image_url"`
	Performer   string  `json:"performer"`
	PerfImage   string  `json:"performer_image_url"`
	FeeText     string  `json:"fee"`
	Description string  `json:"description"`
	Frequency   string  `json:"frequency"`
}

type jsonIndexDoc struct {
	Venues []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"venues"`
}

// ExtractVenueJSON maps one JSON API response to a RawVenue.
func ExtractVenueJSON(doc []byte, sc SourceContext) (models.RawVenue, error) {
	var jv jsonVenueDoc
	if err := json.Unmarshal(doc, &jv); err != nil {
		return models.RawVenue{}, &ExtractionError{Field: "document", Reason: err.Error()}
	}

	if strings.TrimSpace(jv.Name) == "" {
		return models.RawVenue{}, &ExtractionError{Field: "name", Reason: "missing"}
	}
	if strings.TrimSpace(jv.Address) == "" {
		return models.RawVenue{}, &ExtractionError{Field: "address", Reason: "missing"}
	}
	if strings.TrimSpace(jv.Schedule) == "" {
		return models.RawVenue{}, &ExtractionError{Field: "schedule", Reason: "missing"}
	}

	raw := models.RawVenue{
		Name:         strings.TrimSpace(jv.Name),
		Address:      strings.TrimSpace(jv.Address),
		Postcode:     strings.TrimSpace(jv.Postcode),
		ScheduleText: strings.TrimSpace(jv.Schedule),
	}
	if raw.Postcode == "" {
		raw.Postcode = extractPostcode(raw.Address)
	}

	setIf(&raw.City, jv.City)
	setIf(&raw.Country, jv.Country)
	setIf(&raw.Phone, jv.Phone)
	setIf(&raw.Website, jv.Website)
	setIf(&raw.PlaceID, jv.PlaceID)
	setIf(&raw.HeroImageURL, jv.HeroImage)
	setIf(&raw.PerformerName, jv.Performer)
	setIf(&raw.PerformerImageURL, jv.PerfImage)
	setIf(&raw.Description, jv.Description)
	setIf(&raw.Frequency, jv.Frequency)

	if jv.Latitude != 0 || jv.Longitude != 0 {
		lat, lng := jv.Latitude, jv.Longitude
		raw.Latitude, raw.Longitude = &lat, &lng
	}
	if jv.FeeText != "" {
		fee := jv.FeeText
		raw.FeeText = &fee
		if cents, ok := ParseFee(fee); ok {
			raw.EntryFeeCents = &cents
		}
	}
	return raw, nil
}

// ExtractCandidatesJSON pulls the candidate list off a JSON index response.
func ExtractCandidatesJSON(doc []byte, sc SourceContext) ([]models.VenueCandidate, error) {
	var idx jsonIndexDoc
	if err := json.Unmarshal(doc, &idx); err != nil {
		return nil, &ExtractionError{Field: "document", Reason: err.Error()}
	}
	var out []models.VenueCandidate
	for _, v := range idx.Venues {
		if strings.TrimSpace(v.URL) == "" {
			continue
		}
		out = append(out, models.VenueCandidate{
			Name:      strings.TrimSpace(v.Name),
			DetailURL: strings.TrimSuffix(strings.TrimSpace(v.URL), "/"),
			SourceID:  sc.SourceID,
		})
	}
	return out, nil
}

func setIf(dst **string, v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		*dst = &v
	}
}
