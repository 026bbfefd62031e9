package extractor

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"micmap/models"

	"github.com/PuerkitoBio/goquery"
)

// SourceContext carries the per-source configuration an extraction needs:
// nothing here performs I/O.
type SourceContext struct {
	SourceID  string
	BaseURL   string
	Selectors map[string]string // field -> CSS selector, overriding the marker scan
}

func (sc SourceContext) selector(field string) string {
	if sc.Selectors == nil {
		return ""
	}
	return sc.Selectors[field]
}

// Fields are located by structural markers rather than DOM position so a
// reordered page keeps extracting: an explicit selector from the source
// config wins, then an icon-class marker, then a labelled list item.
var iconMarkers = map[string][]string{
	"address":  {".icon-location", ".fa-map-marker", ".fa-map-marker-alt", ".venue-address"},
	"schedule": {".icon-clock", ".fa-clock", ".fa-clock-o", ".venue-schedule"},
	"fee":      {".icon-ticket", ".fa-ticket", ".venue-fee"},
	"phone":    {".icon-phone", ".fa-phone"},
}

var fieldLabels = map[string][]string{
	"address":   {"address", "where", "location"},
	"schedule":  {"when", "schedule", "time"},
	"fee":       {"entry", "fee", "cost", "price"},
	"phone":     {"phone", "tel"},
	"performer": {"host", "mc", "compere", "performer"},
}

var postcodeRe = regexp.MustCompile(`(?i)\b([A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}|\d{4,5})\b\s*$`)

// ExtractVenue parses one fetched venue detail document. Missing required
// fields (name, address, schedule text) yield an ExtractionError; missing
// optional fields yield nil, never a hard failure.
func ExtractVenue(doc []byte, sc SourceContext) (models.RawVenue, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return models.RawVenue{}, &ExtractionError{Field: "document", Reason: err.Error()}
	}

	name := firstText(d, sc.selector("name"), "h1", "")
	if name == "" {
		return models.RawVenue{}, &ExtractionError{Field: "name", Reason: "no h1 or configured selector matched"}
	}

	address := markedField(d, sc, "address")
	if address == "" {
		return models.RawVenue{}, &ExtractionError{Field: "address", Reason: "no address marker matched"}
	}

	schedule := markedField(d, sc, "schedule")
	if schedule == "" {
		return models.RawVenue{}, &ExtractionError{Field: "schedule", Reason: "no schedule marker matched"}
	}

	raw := models.RawVenue{
		Name:         strings.TrimSpace(name),
		Address:      address,
		Postcode:     extractPostcode(address),
		ScheduleText: schedule,
	}

	if fee := markedField(d, sc, "fee"); fee != "" {
		raw.FeeText = &fee
		if cents, ok := ParseFee(fee); ok {
			raw.EntryFeeCents = &cents
		}
	}
	if phone := markedField(d, sc, "phone"); phone != "" {
		raw.Phone = &phone
	}
	if performer := labelledField(d, "performer"); performer != "" {
		raw.PerformerName = &performer
	}
	if desc := firstText(d, sc.selector("description"), ".description, .venue-description, article p", ""); desc != "" {
		raw.Description = &desc
	}
	if img := heroImage(d, sc); img != "" {
		raw.HeroImageURL = &img
	}
	return raw, nil
}

// ExtractCandidates pulls venue links off an index/listing page. An empty
// result is the source's end-of-data signal, not an error.
func ExtractCandidates(doc []byte, sc SourceContext) ([]models.VenueCandidate, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, &ExtractionError{Field: "document", Reason: err.Error()}
	}

	sel := sc.selector("candidate_link")
	if sel == "" {
		sel = ".venue-list a, .listing a, li.venue a"
	}

	base, _ := url.Parse(sc.BaseURL)
	seen := make(map[string]bool)
	var out []models.VenueCandidate

	d.Find(sel).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := href
		if base != nil {
			resolved = base.ResolveReference(parsed).String()
		}
		resolved = strings.TrimSuffix(resolved, "/")

		name := strings.TrimSpace(s.Text())
		if name == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		out = append(out, models.VenueCandidate{
			Name:      name,
			DetailURL: resolved,
			SourceID:  sc.SourceID,
		})
	})
	return out, nil
}

func markedField(d *goquery.Document, sc SourceContext, field string) string {
	if sel := sc.selector(field); sel != "" {
		if t := strings.TrimSpace(d.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	for _, marker := range iconMarkers[field] {
		node := d.Find(marker).First()
		if node.Length() == 0 {
			continue
		}
		// the text lives on the marker's parent, next to the icon
		if t := strings.TrimSpace(node.Parent().Text()); t != "" {
			return t
		}
	}
	return labelledField(d, field)
}

// labelledField scans list items and definition pairs for "Label: value".
func labelledField(d *goquery.Document, field string) string {
	labels := fieldLabels[field]
	var found string
	d.Find("li, dt, th, p strong, p b").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		lower := strings.ToLower(text)
		for _, label := range labels {
			if !strings.HasPrefix(lower, label) {
				continue
			}
			if i := strings.Index(text, ":"); i >= 0 && i < len(text)-1 {
				found = strings.TrimSpace(text[i+1:])
				return false
			}
			// dt/th style: value is in the sibling
			if v := strings.TrimSpace(s.Next().Text()); v != "" {
				found = v
				return false
			}
		}
		return true
	})
	return found
}

func heroImage(d *goquery.Document, sc SourceContext) string {
	sel := sc.selector("image")
	if sel == "" {
		sel = ".hero img, .venue-photo img, img.hero"
	}
	src, _ := d.Find(sel).First().Attr("src")
	if src == "" {
		src, _ = d.Find(`meta[property="og:image"]`).Attr("content")
	}
	if src == "" {
		return ""
	}
	if base, err := url.Parse(sc.BaseURL); err == nil {
		if parsed, err := url.Parse(src); err == nil {
			return base.ResolveReference(parsed).String()
		}
	}
	return src
}

func firstText(d *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		if t := strings.TrimSpace(d.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func extractPostcode(address string) string {
	m := postcodeRe.FindString(strings.TrimSpace(address))
	return strings.ToUpper(strings.Join(strings.Fields(m), ""))
}
