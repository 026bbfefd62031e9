package extractor

import (
	"encoding/xml"
	"strings"

	"micmap/models"
)

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
			Link  string `xml:"link"`
		} `xml:"item"`
	} `xml:"channel"`
}

// ExtractCandidatesRSS maps RSS items to candidates; the item link is the
// detail URL and the title carries the venue name.
func ExtractCandidatesRSS(doc []byte, sc SourceContext) ([]models.VenueCandidate, error) {
	var feed rssFeed
	if err := xml.Unmarshal(doc, &feed); err != nil {
		return nil, &ExtractionError{Field: "document", Reason: err.Error()}
	}
	var out []models.VenueCandidate
	seen := make(map[string]bool)
	for _, item := range feed.Channel.Items {
		link := strings.TrimSuffix(strings.TrimSpace(item.Link), "/")
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, models.VenueCandidate{
			Name:      strings.TrimSpace(item.Title),
			DetailURL: link,
			SourceID:  sc.SourceID,
		})
	}
	return out, nil
}
