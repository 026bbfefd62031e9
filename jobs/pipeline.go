package jobs

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"micmap/events"
	"micmap/extractor"
	"micmap/fetch"
	"micmap/filemgr"
	"micmap/models"
	"micmap/performers"
	"micmap/ratelim"
	"micmap/sources"
	"micmap/venues"
)

// Pipeline carries the collaborators of one job run. The function fields
// default to the real implementations; tests swap in fakes to drive failure
// paths without a network or a database.
type Pipeline struct {
	Registry *sources.Registry
	Assets   *filemgr.Store
	Venues   *venues.Store
	Limiter  *ratelim.CrawlLimiter

	FetchPage   func(ctx context.Context, url string) ([]byte, error)
	UpsertVenue func(ctx context.Context, raw models.RawVenue) (models.Venue, bool, error)
	SaveHero    func(ctx context.Context, slug, imageURL string) (filemgr.Asset, error)
	SetHero     func(ctx context.Context, venueID string, asset filemgr.Asset) error
	EnsurePerf  func(ctx context.Context, name, sourceID string) (models.Performer, error)
	UpsertEvent func(ctx context.Context, venueID, sourceID string, in models.IncomingEvent) (models.Event, bool, error)
	RecordSeen  func(ctx context.Context, eventID, sourceID, sourceURL string, md map[string]string) error
	LastSeen    func(ctx context.Context, sourceID, detailURL string) (*time.Time, error)
	Dispatch    func(ctx context.Context, job models.Job) error
	Sleep       func(d time.Duration)
}

func NewPipeline(reg *sources.Registry, assets *filemgr.Store, limiter *ratelim.CrawlLimiter) *Pipeline {
	vs := venues.NewStore(assets)
	p := &Pipeline{
		Registry: reg,
		Assets:   assets,
		Venues:   vs,
		Limiter:  limiter,

		FetchPage:   fetch.Page,
		UpsertVenue: vs.Upsert,
		SaveHero: func(ctx context.Context, slug, imageURL string) (filemgr.Asset, error) {
			return assets.SaveFromURL(ctx, filemgr.EntityVenue, slug, imageURL, 0)
		},
		SetHero:     vs.SetHero,
		EnsurePerf:  performers.Ensure,
		UpsertEvent: events.Upsert,
		RecordSeen:  events.RecordSighting,
		LastSeen:    sources.LastSeen,
		Dispatch:    Enqueue,
		Sleep:       time.Sleep,
	}
	return p
}

// RunDetail executes the per-venue pipeline: polite fetch, extract, venue
// upsert, hero image, event upsert, ledger. Any error aborts this candidate
// only; the caller classifies it for retry or discard.
func (p *Pipeline) RunDetail(ctx context.Context, args models.DetailJobArgs) error {
	sc, ok := p.Registry.Context(args.SourceID)
	if !ok {
		return fmt.Errorf("unknown source %q", args.SourceID)
	}
	src, _ := p.Registry.Get(args.SourceID)

	// the freshness gate runs before any network call; a directly-enqueued
	// job gets the same treatment an index fan-out does
	if !args.ForceUpdate {
		lastSeen, err := p.LastSeen(ctx, args.SourceID, args.Candidate.DetailURL)
		if err != nil {
			log.Printf("[DetailJob] last-seen lookup for %s failed: %v", args.Candidate.DetailURL, err)
			lastSeen = nil
		}
		if !ratelim.ShouldProcess(lastSeen, time.Now(), p.Registry.SkipWindowDays(args.SourceID), false) {
			log.Printf("[DetailJob] %s seen within the freshness window, skipping", args.Candidate.DetailURL)
			return nil
		}
	}

	p.waitForHost(args.Candidate.DetailURL)
	doc, err := p.FetchPage(ctx, args.Candidate.DetailURL)
	if err != nil {
		return err
	}

	raw, err := p.extractVenue(doc, src, sc)
	if err != nil {
		return err
	}

	schedule, err := extractor.ParseTimePhrase(raw.ScheduleText)
	if err != nil {
		return err
	}

	// optional enrichment before identity resolution
	if raw.PlaceID == nil {
		if loc, placeID := venues.Geocode(ctx, raw.Address, raw.Postcode); placeID != "" {
			raw.PlaceID = &placeID
			raw.Latitude = &loc.Latitude
			raw.Longitude = &loc.Longitude
		}
	}

	venue, created, err := p.UpsertVenue(ctx, raw)
	if err != nil {
		return err
	}
	if created {
		log.Printf("[DetailJob] new venue %q from %s", venue.Name, args.SourceID)
	}

	heroFile := venue.HeroImage
	if raw.HeroImageURL != nil {
		asset, err := p.SaveHero(ctx, venue.Slug, *raw.HeroImageURL)
		if err != nil {
			return err
		}
		if err := p.SetHero(ctx, venue.VenueID, asset); err != nil {
			return err
		}
		if asset.Width >= venue.HeroWidth {
			heroFile = asset.FileName
		}
	}

	incoming := models.IncomingEvent{
		DayOfWeek: schedule.DayOfWeek,
		StartTime: schedule.StartTime,
		Frequency: models.FrequencyWeekly,
		HeroImage: heroFile,
		SourceURL: args.Candidate.DetailURL,
		Metadata:  map[string]string{"source_version": src.Version},
	}
	if raw.Frequency != nil {
		incoming.Frequency = *raw.Frequency
	}
	if raw.EntryFeeCents != nil {
		incoming.EntryFee = *raw.EntryFeeCents
	}
	if raw.Description != nil {
		incoming.Description = *raw.Description
	}
	if raw.PerformerName != nil {
		perf, err := p.EnsurePerf(ctx, *raw.PerformerName, args.SourceID)
		if err != nil {
			return err
		}
		incoming.PerformerID = perf.PerformerID
		if raw.PerformerImageURL != nil && p.Assets != nil {
			performers.SetProfileImage(ctx, p.Assets, perf, *raw.PerformerImageURL)
		}
	}

	event, changed, err := p.UpsertEvent(ctx, venue.VenueID, args.SourceID, incoming)
	if err != nil {
		return err
	}
	if changed {
		log.Printf("[DetailJob] event %s changed at %q", event.EventID, venue.Name)
	}

	// the ledger row moves on every successful pass, changed or not; it is
	// what the freshness gate reads next run
	return p.RecordSeen(ctx, event.EventID, args.SourceID, args.Candidate.DetailURL, incoming.Metadata)
}

func (p *Pipeline) extractVenue(doc []byte, src sources.CatalogSource, sc extractor.SourceContext) (models.RawVenue, error) {
	if src.Kind == "json" {
		return extractor.ExtractVenueJSON(doc, sc)
	}
	return extractor.ExtractVenue(doc, sc)
}

func (p *Pipeline) extractCandidates(doc []byte, src sources.CatalogSource, sc extractor.SourceContext) ([]models.VenueCandidate, error) {
	switch src.Kind {
	case "json":
		return extractor.ExtractCandidatesJSON(doc, sc)
	case "rss":
		return extractor.ExtractCandidatesRSS(doc, sc)
	default:
		return extractor.ExtractCandidates(doc, sc)
	}
}

func (p *Pipeline) waitForHost(rawURL string) {
	if p.Limiter == nil {
		return
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	if d := p.Limiter.Reserve(u.Host); d > 0 {
		p.Sleep(d)
	}
}
