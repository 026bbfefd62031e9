package models

// RawVenue is the closed record an extractor produces from one fetched
// document. Required fields are validated at the extractor boundary so
// downstream code never re-checks presence; optional fields are pointers.
type RawVenue struct {
	Name         string
	Address      string
	Postcode     string
	ScheduleText string // free text, e.g. "Tuesdays, 6:30pm"

	City              *string
	Country           *string
	Phone             *string
	Website           *string
	Latitude          *float64
	Longitude         *float64
	PlaceID           *string
	HeroImageURL      *string
	PerformerName     *string
	PerformerImageURL *string
	FeeText           *string
	EntryFeeCents     *int
	Description       *string
	Frequency         *string // defaults to weekly when nil
}

// Schedule is the parsed form of a time phrase.
type Schedule struct {
	DayOfWeek int    // 1=Monday .. 7=Sunday
	StartTime string // 24h "HH:MM"
}
