// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup removes duplicate paper records gathered from several
// academic APIs. Matching runs in three stages: exact normalized DOI,
// composite key (normalized title, year, first author), and optionally
// fuzzy title similarity against papers already accepted.
//
// A Deduplicator holds the match state of one run. Successive calls on the
// same instance accumulate the seen DOIs and composite keys, so a seed batch
// followed by an expansion batch is deduplicated against everything seen so
// far. An instance must not be shared between goroutines.
package dedup

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/litsweep/pkg/types"
)

// DefaultFuzzyThreshold is the minimum title similarity for a fuzzy match.
const DefaultFuzzyThreshold = 0.85

// ErrInvalidThreshold is returned by New when the fuzzy threshold is outside [0, 1].
var ErrInvalidThreshold = eris.New("fuzzy threshold must be within [0, 1]")

// Stage names the matching stage that rejected a record.
type Stage string

const (
	StageDOI       Stage = "DOI"
	StageComposite Stage = "Composite"
	StageFuzzy     Stage = "Fuzzy"
)

// Stats summarizes the match state of a Deduplicator.
type Stats struct {
	UniqueDOIs          int `json:"unique_dois" yaml:"unique_dois"`
	UniqueCompositeKeys int `json:"unique_composite_keys" yaml:"unique_composite_keys"`
	DuplicatesFound     int `json:"duplicates_found" yaml:"duplicates_found"`
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithFuzzyThreshold sets the similarity a fuzzy match must reach.
func WithFuzzyThreshold(t float64) Option {
	return func(d *Deduplicator) { d.threshold = t }
}

// WithDOIStage enables or disables DOI matching.
func WithDOIStage(enabled bool) Option {
	return func(d *Deduplicator) { d.doiStage = enabled }
}

// WithCompositeStage enables or disables composite key matching.
func WithCompositeStage(enabled bool) Option {
	return func(d *Deduplicator) { d.compositeStage = enabled }
}

// WithLogger sets the logger used for match tracing.
func WithLogger(l *zap.Logger) Option {
	return func(d *Deduplicator) { d.log = l }
}

// Deduplicator decides which records of a run are unique.
type Deduplicator struct {
	threshold      float64
	doiStage       bool
	compositeStage bool
	log            *zap.Logger

	seenDOIs          map[string]struct{}
	seenCompositeKeys map[string]struct{}
	duplicateMap      map[string]string
}

// New returns a Deduplicator with empty state.
func New(opts ...Option) (*Deduplicator, error) {
	d := &Deduplicator{
		threshold:         DefaultFuzzyThreshold,
		doiStage:          true,
		compositeStage:    true,
		seenDOIs:          make(map[string]struct{}),
		seenCompositeKeys: make(map[string]struct{}),
		duplicateMap:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.threshold < 0 || d.threshold > 1 || d.threshold != d.threshold {
		return nil, eris.Wrapf(ErrInvalidThreshold, "got %v", d.threshold)
	}
	if d.log == nil {
		d.log = zap.L()
	}
	return d, nil
}

// DefaultConfig enables the exact stages with the default fuzzy threshold.
func DefaultConfig() types.DedupConfig {
	return types.DedupConfig{
		FuzzyThreshold: DefaultFuzzyThreshold,
		DOIStage:       true,
		CompositeStage: true,
	}
}

// FromConfig builds a Deduplicator from the dedup config section.
func FromConfig(cfg types.DedupConfig) (*Deduplicator, error) {
	return New(
		WithFuzzyThreshold(cfg.FuzzyThreshold),
		WithDOIStage(cfg.DOIStage),
		WithCompositeStage(cfg.CompositeStage),
	)
}

// Deduplicate filters records in input order, keeping the first copy of
// every paper. Fuzzy matching runs only when aggressive is set. It returns
// the kept records and the number rejected by this call.
func (d *Deduplicator) Deduplicate(records []types.Record, aggressive bool) ([]types.Record, int) {
	unique := make([]types.Record, 0, len(records))
	duplicates := 0

	for _, r := range records {
		if stage, key, ok := d.match(r, unique, aggressive); ok {
			duplicates++
			id := r.ID()
			d.duplicateMap[id] = string(stage) + ":" + key
			d.log.Debug("duplicate record",
				zap.String("id", id),
				zap.String("stage", string(stage)),
				zap.String("match", key),
			)
			continue
		}
		unique = append(unique, r)
	}

	d.log.Info("deduplication finished",
		zap.Int("input", len(records)),
		zap.Int("duplicates", duplicates),
		zap.Int("unique", len(unique)),
	)
	return unique, duplicates
}

// match runs the stages in order and reports the first one that finds an
// earlier copy. Exact stages register the record's identifiers as a side
// effect when they do not match. Fuzzy matching only looks at the records
// accepted so far by the current call.
func (d *Deduplicator) match(r types.Record, accepted []types.Record, aggressive bool) (Stage, string, bool) {
	if d.doiStage {
		if doi := RecordDOI(r); doi != "" {
			if _, seen := d.seenDOIs[doi]; seen {
				return StageDOI, doi, true
			}
			d.seenDOIs[doi] = struct{}{}
		}
	}

	if d.compositeStage {
		if key := CompositeKey(r); validCompositeKey(key) {
			if _, seen := d.seenCompositeKeys[key]; seen {
				return StageComposite, key, true
			}
			d.seenCompositeKeys[key] = struct{}{}
		}
	}

	if aggressive {
		if canonical := d.findFuzzy(r, accepted); canonical != nil {
			return StageFuzzy, canonical.ID(), true
		}
	}
	return "", "", false
}

// findFuzzy returns the first accepted record whose title reaches the
// threshold and whose year matches, or nil.
func (d *Deduplicator) findFuzzy(r types.Record, accepted []types.Record) types.Record {
	title := r.String(types.FieldTitle)
	if title == "" {
		return nil
	}
	year := r.Year()
	for _, existing := range accepted {
		existingTitle := existing.String(types.FieldTitle)
		if existingTitle == "" {
			continue
		}
		if TitleSimilarity(title, existingTitle) >= d.threshold && existing.Year() == year {
			return existing
		}
	}
	return nil
}

// DeduplicateCrossSource tags every record with its source (overwriting any
// previous tag), concatenates the sources in types.SourceOrder, deduplicates
// the sequence and counts the survivors per source. The sum of the counts
// always equals the number of unique records.
func (d *Deduplicator) DeduplicateCrossSource(bySource types.BySource, aggressive bool) ([]types.Record, map[types.Source]int) {
	var all []types.Record
	for _, src := range types.OrderedSources(bySource) {
		for _, r := range bySource[src] {
			if r == nil {
				r = types.Record{}
			}
			r[types.FieldSource] = string(src)
			all = append(all, r)
		}
	}

	unique, _ := d.Deduplicate(all, aggressive)

	counts := make(map[types.Source]int)
	for _, r := range unique {
		counts[r.Source()]++
	}
	return unique, counts
}

// Stats returns the current match state sizes.
func (d *Deduplicator) Stats() Stats {
	return Stats{
		UniqueDOIs:          len(d.seenDOIs),
		UniqueCompositeKeys: len(d.seenCompositeKeys),
		DuplicatesFound:     len(d.duplicateMap),
	}
}

// Duplicates returns a copy of the map from rejected record id to the match
// that rejected it ("DOI:<doi>", "Composite:<key>" or "Fuzzy:<canonical id>").
func (d *Deduplicator) Duplicates() map[string]string {
	out := make(map[string]string, len(d.duplicateMap))
	for k, v := range d.duplicateMap {
		out[k] = v
	}
	return out
}
