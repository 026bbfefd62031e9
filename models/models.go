package models

import "time"

type Source struct {
	SourceID      string `json:"sourceid" bson:"sourceid" yaml:"sourceid"`
	Name          string `json:"name" bson:"name" yaml:"name"`
	BaseURL       string `json:"base_url" bson:"base_url" yaml:"base_url"`
	Version       string `json:"version" bson:"version" yaml:"version"`
	Kind          string `json:"kind" bson:"kind" yaml:"kind"` // "html", "json", "rss"
	Enabled       bool   `json:"enabled" bson:"enabled" yaml:"enabled"`
	IntervalHours int    `json:"interval_hours,omitempty" bson:"interval_hours,omitempty" yaml:"interval_hours"`
	// SkipWindowDays overrides the global freshness window when > 0.
	SkipWindowDays int `json:"skip_window_days,omitempty" bson:"skip_window_days,omitempty" yaml:"skip_window_days"`
}

type Country struct {
	CountryID string    `json:"countryid" bson:"countryid"`
	Name      string    `json:"name" bson:"name"`
	Slug      string    `json:"slug" bson:"slug"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type City struct {
	CityID    string    `json:"cityid" bson:"cityid"`
	Name      string    `json:"name" bson:"name"`
	Slug      string    `json:"slug" bson:"slug"`
	CountryID string    `json:"countryid" bson:"countryid"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

type Venue struct {
	VenueID string `json:"venueid" bson:"venueid"`
	Name    string `json:"name" bson:"name"`
	// NameKey is the folded form of Name used for identity matching, so
	// casing and accent differences between sources do not fork venues.
	NameKey   string      `json:"-" bson:"name_key"`
	Slug      string      `json:"slug" bson:"slug"`
	Address   string      `json:"address" bson:"address"`
	Postcode  string      `json:"postcode" bson:"postcode"`
	Location  Coordinates `json:"location,omitempty" bson:"location,omitempty"`
	PlaceID   string      `json:"placeid,omitempty" bson:"placeid,omitempty"` // external geocoder identity
	CityID    string      `json:"cityid,omitempty" bson:"cityid,omitempty"`
	HeroImage string      `json:"hero_image,omitempty" bson:"hero_image,omitempty"`
	// HeroWidth records the pixel width of the stored hero so a higher
	// resolution incoming image can supersede it.
	HeroWidth int       `json:"hero_width,omitempty" bson:"hero_width,omitempty"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Website   string    `json:"website,omitempty" bson:"website,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type Performer struct {
	PerformerID  string    `json:"performerid" bson:"performerid"`
	Name         string    `json:"name" bson:"name"`
	SourceID     string    `json:"sourceid" bson:"sourceid"`
	ProfileImage string    `json:"profile_image,omitempty" bson:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// VenueCandidate is an identity discovered by an index job, not yet fetched
// in detail.
type VenueCandidate struct {
	Name      string `json:"name" bson:"name"`
	DetailURL string `json:"detail_url" bson:"detail_url"`
	SourceID  string `json:"sourceid" bson:"sourceid"`
}

// DuplicatePair is a read-only advisory row for the human review queue.
// The upsert path never acts on these.
type DuplicatePair struct {
	VenueID      string  `json:"venueid" bson:"venueid"`
	OtherVenueID string  `json:"other_venueid" bson:"other_venueid"`
	VenueName    string  `json:"venue_name" bson:"venue_name"`
	OtherName    string  `json:"other_name" bson:"other_name"`
	Confidence   float64 `json:"confidence" bson:"confidence"`
	Reason       string  `json:"reason" bson:"reason"`
}
