package models

import "time"

const (
	FrequencyWeekly    = "weekly"
	FrequencyIrregular = "irregular"
)

type Event struct {
	EventID     string `json:"eventid" bson:"eventid"`
	VenueID     string `json:"venueid" bson:"venueid"`
	DayOfWeek   int    `json:"day_of_week" bson:"day_of_week"` // 1=Monday .. 7=Sunday
	StartTime   string `json:"start_time" bson:"start_time"`   // 24h "HH:MM"
	Frequency   string `json:"frequency" bson:"frequency"`
	EntryFee    int    `json:"entry_fee_cents" bson:"entry_fee_cents"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	PerformerID string `json:"performerid,omitempty" bson:"performerid,omitempty"`
	// HeroImage is part of the change-detection comparison set; leaving it out
	// silently drops legitimate image updates.
	HeroImage string    `json:"hero_image,omitempty" bson:"hero_image,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// EventSource is the reconciliation ledger: one row per (event, source),
// updated on every successful detail run whether or not the event changed.
// Rows are never hard-deleted.
type EventSource struct {
	EventSourceID string            `json:"eventsourceid" bson:"eventsourceid"`
	EventID       string            `json:"eventid" bson:"eventid"`
	SourceID      string            `json:"sourceid" bson:"sourceid"`
	SourceURL     string            `json:"source_url" bson:"source_url"`
	LastSeenAt    time.Time         `json:"last_seen_at" bson:"last_seen_at"`
	Metadata      map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
}

// IncomingEvent carries the extracted event fields into the event upsert.
type IncomingEvent struct {
	DayOfWeek   int
	StartTime   string
	Frequency   string
	EntryFee    int
	Description string
	PerformerID string
	HeroImage   string
	SourceURL   string
	Metadata    map[string]string
}
