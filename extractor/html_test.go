package extractor

import (
	"errors"
	"testing"
)

const venuePage = `
<html><body>
<h1>The Crooked Billet</h1>
<div class="hero"><img src="/images/billet.jpg"></div>
<ul class="details">
  <li><i class="icon-clock"></i> Tuesdays, 6.30pm</li>
  <li><i class="icon-location"></i> 12 High Street, Leeds LS1 4HT</li>
  <li>Entry: £3</li>
  <li>Host: Sam Field</li>
</ul>
<div class="description">Long running open mic night.</div>
</body></html>`

// same fields, different order and markup; markers must still find them
const reorderedPage = `
<html><body>
<table>
  <tr><th>Where</th><td>12 High Street, Leeds LS1 4HT</td></tr>
  <tr><th>When</th><td>Tuesdays, 6.30pm</td></tr>
</table>
<h1>The Crooked Billet</h1>
</body></html>`

func TestExtractVenueFromHTML(t *testing.T) {
	sc := SourceContext{SourceID: "src1", BaseURL: "https://example.com/venues/billet"}
	raw, err := ExtractVenue([]byte(venuePage), sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.Name != "The Crooked Billet" {
		t.Errorf("name = %q", raw.Name)
	}
	if raw.Postcode != "LS14HT" {
		t.Errorf("postcode = %q", raw.Postcode)
	}
	if raw.ScheduleText == "" {
		t.Error("schedule text missing")
	}
	if raw.EntryFeeCents == nil || *raw.EntryFeeCents != 300 {
		t.Errorf("fee = %v", raw.EntryFeeCents)
	}
	if raw.PerformerName == nil || *raw.PerformerName != "Sam Field" {
		t.Errorf("performer = %v", raw.PerformerName)
	}
	if raw.HeroImageURL == nil || *raw.HeroImageURL != "https://example.com/images/billet.jpg" {
		t.Errorf("hero image = %v", raw.HeroImageURL)
	}
	if raw.Description == nil {
		t.Error("description missing")
	}

	sched, err := ParseTimePhrase(raw.ScheduleText)
	if err != nil {
		t.Fatalf("schedule text %q did not parse: %v", raw.ScheduleText, err)
	}
	if sched.DayOfWeek != 2 || sched.StartTime != "18:30" {
		t.Errorf("schedule = %+v", sched)
	}
}

func TestExtractVenueToleratesReordering(t *testing.T) {
	raw, err := ExtractVenue([]byte(reorderedPage), SourceContext{SourceID: "src1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Address == "" || raw.ScheduleText == "" {
		t.Fatalf("labelled rows not found: %+v", raw)
	}
}

func TestExtractVenueMissingRequiredField(t *testing.T) {
	page := `<html><body><h1>No Details Here</h1></body></html>`
	_, err := ExtractVenue([]byte(page), SourceContext{})
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if ee.Field != "address" {
		t.Errorf("failed field = %q, want address", ee.Field)
	}
}

func TestExtractCandidates(t *testing.T) {
	page := `
<html><body><ul class="venue-list">
  <li><a href="/venues/billet">The Crooked Billet</a></li>
  <li><a href="/venues/anchor/">The Anchor</a></li>
  <li><a href="/venues/billet">The Crooked Billet (dup)</a></li>
</ul></body></html>`

	sc := SourceContext{SourceID: "src1", BaseURL: "https://example.com/"}
	got, err := ExtractCandidates([]byte(page), sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2 (duplicate URL dropped)", len(got))
	}
	if got[0].DetailURL != "https://example.com/venues/billet" {
		t.Errorf("url = %q", got[0].DetailURL)
	}
	if got[1].DetailURL != "https://example.com/venues/anchor" {
		t.Errorf("trailing slash not normalized: %q", got[1].DetailURL)
	}
}

func TestExtractCandidatesEmptyPage(t *testing.T) {
	got, err := ExtractCandidates([]byte(`<html><body></body></html>`), SourceContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected end-of-data empty slice, got %d", len(got))
	}
}
