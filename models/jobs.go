package models

import "time"

const (
	JobKindIndex  = "index"
	JobKindDetail = "detail"

	JobStateQueued    = "queued"
	JobStateRunning   = "running"
	JobStateCompleted = "completed"
	JobStateDiscarded = "discarded"
)

type IndexJobArgs struct {
	SourceID    string `json:"sourceid" bson:"sourceid"`
	Limit       int    `json:"limit,omitempty" bson:"limit,omitempty"`
	ForceUpdate bool   `json:"force_update,omitempty" bson:"force_update,omitempty"`
}

type DetailJobArgs struct {
	Candidate   VenueCandidate `json:"candidate" bson:"candidate"`
	SourceID    string         `json:"sourceid" bson:"sourceid"`
	ForceUpdate bool           `json:"force_update,omitempty" bson:"force_update,omitempty"`
	Attempt     int            `json:"attempt" bson:"attempt"`
	// ParentID links back to the index run so per-venue outcomes roll up.
	ParentID string `json:"parent_jobid,omitempty" bson:"parent_jobid,omitempty"`
}

// Job is the queued envelope plus the persisted record of one run. Per-venue
// outcomes live in Meta rather than a separate audit table.
type Job struct {
	JobID     string            `json:"jobid" bson:"jobid"`
	Kind      string            `json:"kind" bson:"kind"`
	State     string            `json:"state" bson:"state"`
	Index     *IndexJobArgs     `json:"index,omitempty" bson:"index,omitempty"`
	Detail    *DetailJobArgs    `json:"detail,omitempty" bson:"detail,omitempty"`
	Meta      map[string]string `json:"meta,omitempty" bson:"meta,omitempty"`
	Summary   *RunSummary       `json:"summary,omitempty" bson:"summary,omitempty"`
	LastError string            `json:"last_error,omitempty" bson:"last_error,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// RunSummary is what an index run reports once its fan-out is enqueued and
// previously-enqueued detail jobs have resolved.
type RunSummary struct {
	SourceID      string `json:"sourceid" bson:"sourceid"`
	Candidates    int    `json:"candidates" bson:"candidates"`
	Skipped       int    `json:"skipped" bson:"skipped"`
	Enqueued      int    `json:"enqueued" bson:"enqueued"`
	SuccessVenues int    `json:"success_venues" bson:"success_venues"`
	FailedVenues  int    `json:"failed_venues" bson:"failed_venues"`
}

// CleanupReport is returned by the duplicate-asset maintenance pass.
type CleanupReport struct {
	DirectoriesChecked        int      `json:"directories_checked"`
	DirectoriesWithDuplicates int      `json:"directories_with_duplicates"`
	FilesRemoved              int      `json:"files_removed"`
	DryRun                    bool     `json:"dry_run"`
	Removed                   []string `json:"removed,omitempty"`
}
