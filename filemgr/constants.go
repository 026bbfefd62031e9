package filemgr

import "errors"

type EntityType string
type Version string

const (
	EntityVenue     EntityType = "venue"
	EntityPerformer EntityType = "performer"
	EntityEvent     EntityType = "event"

	VersionOriginal Version = "original"
	VersionThumb    Version = "thumb"

	// ThumbSize is the side of the square center-crop thumbnail.
	ThumbSize = 400

	UploadsPrefix = "uploads"
)

var (
	ErrNotFound = errors.New("asset not found")

	// PlaceholderImage is the owner-level default served when neither the
	// current nor the legacy naming pattern resolves.
	PlaceholderImage = "/static/placeholder.jpg"
)

// AssetError wraps a failed asset operation. Download failures are retryable;
// a failed relocation is fatal for the owner update but isolated to it.
type AssetError struct {
	Op   string // "download", "store", "relocate", "delete"
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return "asset " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *AssetError) Unwrap() error { return e.Err }

func (e *AssetError) Retryable() bool { return e.Op == "download" }
