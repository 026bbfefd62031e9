package jobs

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"micmap/models"
	"micmap/ratelim"
)

// interEnqueueDelay spaces the fan-out so a burst of detail jobs does not
// land on the source all at once even before the per-host limiter kicks in.
const interEnqueueDelay = 250 * time.Millisecond

// maxIndexPages bounds the discovery walk. Some sites ignore the page
// parameter and serve the same listing for every value, so the walk also
// stops as soon as a page contributes nothing new.
const maxIndexPages = 50

// RunIndex discovers candidates from a source's listing and fans out detail
// jobs for the ones that cleared the freshness gate.
func (p *Pipeline) RunIndex(ctx context.Context, parentID string, args models.IndexJobArgs) (models.RunSummary, error) {
	summary := models.RunSummary{SourceID: args.SourceID}

	src, ok := p.Registry.Get(args.SourceID)
	if !ok {
		return summary, fmt.Errorf("unknown source %q", args.SourceID)
	}
	sc, _ := p.Registry.Context(args.SourceID)

	indexURL := src.IndexURL
	if indexURL == "" {
		indexURL = src.BaseURL
	}

	seen := make(map[string]bool)
	var candidates []models.VenueCandidate
	for page := 1; page <= maxIndexPages; page++ {
		pageURL := indexPageURL(indexURL, page)

		p.waitForHost(pageURL)
		doc, err := p.FetchPage(ctx, pageURL)
		if err != nil {
			return summary, err
		}

		batch, err := p.extractCandidates(doc, src, sc)
		if err != nil {
			return summary, err
		}
		added := 0
		for _, cand := range batch {
			if seen[cand.DetailURL] {
				continue
			}
			seen[cand.DetailURL] = true
			candidates = append(candidates, cand)
			added++
		}
		// a page with nothing new means the site is done, or repeating itself
		if added == 0 {
			break
		}

		if args.Limit > 0 && len(candidates) >= args.Limit {
			candidates = candidates[:args.Limit]
			break
		}
		if src.Kind != "html" {
			// JSON and RSS listings return everything in one response
			break
		}
	}
	summary.Candidates = len(candidates)

	window := p.Registry.SkipWindowDays(args.SourceID)
	now := time.Now()

	for _, cand := range candidates {
		lastSeen, err := p.LastSeen(ctx, args.SourceID, cand.DetailURL)
		if err != nil {
			log.Printf("[IndexJob] last-seen lookup for %s failed: %v", cand.DetailURL, err)
			// unknown history must not silently starve a record
			lastSeen = nil
		}
		if !ratelim.ShouldProcess(lastSeen, now, window, args.ForceUpdate) {
			summary.Skipped++
			continue
		}

		job := NewDetailJob(models.DetailJobArgs{
			Candidate:   cand,
			SourceID:    args.SourceID,
			ForceUpdate: args.ForceUpdate,
			ParentID:    parentID,
		})
		if err := p.Dispatch(ctx, job); err != nil {
			return summary, fmt.Errorf("enqueue detail for %s: %w", cand.DetailURL, err)
		}
		summary.Enqueued++
		p.Sleep(interEnqueueDelay)
	}

	log.Printf("[IndexJob] %s: %d candidates, %d skipped, %d enqueued",
		args.SourceID, summary.Candidates, summary.Skipped, summary.Enqueued)
	return summary, nil
}

// indexPageURL appends the page parameter, preserving any query string the
// catalog's index URL already carries.
func indexPageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
