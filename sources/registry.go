package sources

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"micmap/db"
	"micmap/extractor"
	"micmap/globals"
	"micmap/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

// CatalogSource is one entry of the yaml catalog: the persisted Source row
// plus the scrape configuration that stays file-only (selectors change with
// site markup, not with operational state).
type CatalogSource struct {
	models.Source `yaml:",inline"`

	IndexURL  string            `yaml:"index_url"`
	Selectors map[string]string `yaml:"selectors"`
}

type catalogFile struct {
	Sources []CatalogSource `yaml:"sources"`
}

// LoadCatalog reads the yaml source catalog from path.
func LoadCatalog(path string) ([]CatalogSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source catalog: %w", err)
	}
	for i, s := range file.Sources {
		if s.SourceID == "" || s.BaseURL == "" {
			return nil, fmt.Errorf("source catalog entry %d: sourceid and base_url are required", i)
		}
		if s.Kind == "" {
			file.Sources[i].Kind = "html"
		}
	}
	return file.Sources, nil
}

// Registry holds the loaded catalog and answers lookups for the orchestrator.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]CatalogSource
}

func NewRegistry(entries []CatalogSource) *Registry {
	r := &Registry{byID: make(map[string]CatalogSource, len(entries))}
	for _, e := range entries {
		r.byID[e.SourceID] = e
	}
	return r
}

func (r *Registry) Get(sourceID string) (CatalogSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[sourceID]
	return s, ok
}

// Enabled returns the enabled sources in no particular order.
func (r *Registry) Enabled() []CatalogSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []CatalogSource
	for _, s := range r.byID {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Context builds the extractor context for a source.
func (r *Registry) Context(sourceID string) (extractor.SourceContext, bool) {
	s, ok := r.Get(sourceID)
	if !ok {
		return extractor.SourceContext{}, false
	}
	return extractor.SourceContext{
		SourceID:  s.SourceID,
		BaseURL:   s.BaseURL,
		Selectors: s.Selectors,
	}, true
}

// SkipWindowDays resolves the freshness window for a source: per-source
// override first, global default otherwise.
func (r *Registry) SkipWindowDays(sourceID string) int {
	if s, ok := r.Get(sourceID); ok && s.SkipWindowDays > 0 {
		return s.SkipWindowDays
	}
	return globals.SkipWindowDays()
}

// Interval is the scheduling cadence for a source, defaulting to daily.
func (r *Registry) Interval(sourceID string) time.Duration {
	if s, ok := r.Get(sourceID); ok && s.IntervalHours > 0 {
		return time.Duration(s.IntervalHours) * time.Hour
	}
	return 24 * time.Hour
}

// Seed upserts every catalog entry into mongo so operational tooling can see
// which sources exist and when they were last touched. The yaml stays the
// source of truth for scrape configuration.
func Seed(ctx context.Context, entries []CatalogSource) error {
	for _, e := range entries {
		_, err := db.SourcesCollection.UpdateOne(ctx,
			bson.M{"sourceid": e.SourceID},
			bson.M{"$set": e.Source},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed source %s: %w", e.SourceID, err)
		}
	}
	return nil
}
