package jobs

import (
	"errors"
	"time"

	"micmap/extractor"
	"micmap/fetch"
	"micmap/filemgr"
)

const (
	maxAttempts = 4
	baseBackoff = 30 * time.Second
	maxBackoff  = 10 * time.Minute
)

// retryable sorts failures into the two buckets the orchestrator knows:
// transient transport trouble (retry with backoff) and everything else
// (discard and record). Extraction and validation failures can only be fixed
// by the source changing, so retrying them wastes the crawl budget.
func retryable(err error) bool {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	var ae *filemgr.AssetError
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	var ee *extractor.ExtractionError
	if errors.As(err, &ee) {
		return false
	}
	var ve *extractor.ValidationError
	if errors.As(err, &ve) {
		return false
	}
	return false
}

// backoffDelay doubles per attempt from the base, capped.
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
