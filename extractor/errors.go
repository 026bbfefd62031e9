package extractor

import "fmt"

// ExtractionError means the source document did not have the shape we expect.
// Retrying will not help; the content has to change first.
type ExtractionError struct {
	Field  string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Field, e.Reason)
}

// ValidationError means a field was present but its value fails a domain
// constraint, e.g. an unparsable time phrase. Not retryable.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
