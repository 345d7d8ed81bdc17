// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litsweep/pkg/types"
)

// --- helpers ---

func newDedup(t *testing.T, opts ...Option) *Deduplicator {
	t.Helper()
	d, err := New(opts...)
	require.NoError(t, err)
	return d
}

func ids(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

// scenarioRecords is the four-record set used throughout the suite: one
// DOI-bearing paper, a DOI-less copy, a copy with a doubled space, and an
// unrelated paper.
func scenarioRecords() []types.Record {
	return []types.Record{
		{"id": 1, "title": "Deep Learning for Change Detection", "year": 2024, "doi": "10.1109/test.2024.1234567", "authors": []any{"John Smith", "Jane Doe"}},
		{"id": 2, "title": "Deep Learning for Change Detection", "year": 2024, "doi": "", "authors": []any{"John Smith", "Jane Doe"}},
		{"id": 3, "title": "Deep Learning for Change  Detection", "year": 2024, "doi": "", "authors": []any{"John Smith", "Jane Doe"}},
		{"id": 4, "title": "Different Paper Title", "year": 2023, "doi": "10.1234/different.5678", "authors": []any{"Alice Johnson"}},
	}
}

// --- construction ---

func TestNewRejectsInvalidThreshold(t *testing.T) {
	for _, th := range []float64{-0.01, 1.01, 2} {
		_, err := New(WithFuzzyThreshold(th))
		require.Error(t, err, "threshold %v", th)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	}
}

func TestNewAcceptsBoundaryThresholds(t *testing.T) {
	for _, th := range []float64{0, DefaultFuzzyThreshold, 1} {
		_, err := New(WithFuzzyThreshold(th))
		assert.NoError(t, err, "threshold %v", th)
	}
}

func TestFromConfig(t *testing.T) {
	d, err := FromConfig(types.DedupConfig{FuzzyThreshold: 0.9, DOIStage: true, CompositeStage: false})
	require.NoError(t, err)
	assert.Equal(t, 0.9, d.threshold)
	assert.True(t, d.doiStage)
	assert.False(t, d.compositeStage)

	_, err = FromConfig(types.DedupConfig{FuzzyThreshold: 3})
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

// --- scenario ---

func TestDeduplicateScenarioAggressive(t *testing.T) {
	d := newDedup(t)
	unique, dups := d.Deduplicate(scenarioRecords(), true)

	assert.Equal(t, []string{"1", "4"}, ids(unique))
	assert.Equal(t, 2, dups)
	assert.Equal(t, Stats{UniqueDOIs: 2, UniqueCompositeKeys: 2, DuplicatesFound: 2}, d.Stats())
}

// The doubled space in record 3 disappears under title normalization, so
// record 3 is already a composite duplicate without the fuzzy stage.
func TestDeduplicateScenarioNonAggressive(t *testing.T) {
	d := newDedup(t)
	unique, dups := d.Deduplicate(scenarioRecords(), false)

	assert.Equal(t, []string{"1", "4"}, ids(unique))
	assert.Equal(t, 2, dups)

	key := "deep learning for change detection|2024|john smith"
	assert.Equal(t, map[string]string{
		"2": "Composite:" + key,
		"3": "Composite:" + key,
	}, d.Duplicates())
}

// --- stages ---

func TestDOIPrecedence(t *testing.T) {
	for _, aggressive := range []bool{false, true} {
		t.Run(fmt.Sprintf("aggressive=%v", aggressive), func(t *testing.T) {
			d := newDedup(t)
			records := []types.Record{
				{"id": "a", "title": "First Title", "year": 2020, "doi": "https://doi.org/10.1/ABC"},
				{"id": "b", "title": "Completely Other", "year": 1999, "doi": "10.1/abc"},
			}
			unique, dups := d.Deduplicate(records, aggressive)
			assert.Equal(t, []string{"a"}, ids(unique))
			assert.Equal(t, 1, dups)
			assert.Equal(t, "DOI:10.1/abc", d.Duplicates()["b"])
		})
	}
}

func TestCompositeFallback(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "a", "title": "Graph Neural Networks", "year": 2021, "authors": []any{map[string]any{"name": "Ada Lovelace"}}},
		{"id": "b", "title": "graph neural networks.", "year": 2021, "authors": []any{"ADA LOVELACE"}},
	}
	unique, dups := d.Deduplicate(records, false)
	assert.Equal(t, []string{"a"}, ids(unique))
	assert.Equal(t, 1, dups)
	assert.Equal(t, "Composite:graph neural networks|2021|ada lovelace", d.Duplicates()["b"])
}

func TestDOIAcceptedRecordRegistersCompositeKey(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "a", "title": "Same Paper", "year": 2020, "doi": "10.1/x", "authors": []any{"A"}},
		{"id": "b", "title": "Same Paper", "year": 2020, "authors": []any{"A"}},
	}
	unique, _ := d.Deduplicate(records, false)
	assert.Equal(t, []string{"a"}, ids(unique))
}

func TestFuzzyGating(t *testing.T) {
	records := func() []types.Record {
		return []types.Record{
			{"id": "a", "title": "Deep Learning for Change Detection", "year": 2024, "authors": []any{"John Smith"}},
			{"id": "b", "title": "Deep Learning for Change Detections", "year": 2024, "authors": []any{"John Smith"}},
		}
	}

	d := newDedup(t)
	unique, dups := d.Deduplicate(records(), false)
	assert.Equal(t, []string{"a", "b"}, ids(unique))
	assert.Equal(t, 0, dups)

	d = newDedup(t)
	unique, dups = d.Deduplicate(records(), true)
	assert.Equal(t, []string{"a"}, ids(unique))
	assert.Equal(t, 1, dups)
	assert.Equal(t, "Fuzzy:a", d.Duplicates()["b"])
}

func TestFuzzyRequiresSameYear(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "a", "title": "Deep Learning for Change Detection", "year": 2024},
		{"id": "b", "title": "Deep Learning for Change Detections", "year": 2023},
	}
	unique, _ := d.Deduplicate(records, true)
	assert.Equal(t, []string{"a", "b"}, ids(unique))
}

func TestFuzzyMissingYearsMatch(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "a", "title": "Deep Learning for Change Detection"},
		{"id": "b", "title": "Deep Learning for Change Detections"},
	}
	unique, _ := d.Deduplicate(records, true)
	assert.Equal(t, []string{"a"}, ids(unique))
}

func TestFuzzyThresholdBoundaries(t *testing.T) {
	// Different first authors keep the composite stage out of the way.
	records := func() []types.Record {
		return []types.Record{
			{"id": "a", "title": "Deep Learning for Change Detection", "year": 2024, "authors": []any{"X"}},
			{"id": "b", "title": "Deep Learning for Change Detection", "year": 2024, "authors": []any{"Y"}},
			{"id": "c", "title": "Deep Learning for Change Detections", "year": 2024, "authors": []any{"Z"}},
			{"id": "d", "title": "Unrelated Quantum Topic", "year": 2024, "authors": []any{"W"}},
		}
	}

	d := newDedup(t, WithFuzzyThreshold(1.0))
	unique, _ := d.Deduplicate(records(), true)
	assert.Equal(t, []string{"a", "c", "d"}, ids(unique), "only identical titles match at 1.0")

	d = newDedup(t, WithFuzzyThreshold(DefaultFuzzyThreshold))
	unique, _ = d.Deduplicate(records(), true)
	assert.Equal(t, []string{"a", "d"}, ids(unique))

	d = newDedup(t, WithFuzzyThreshold(0))
	unique, _ = d.Deduplicate(records(), true)
	assert.Equal(t, []string{"a"}, ids(unique), "every titled paper of the same year matches at 0")
}

func TestFuzzyComparesOnlyAcceptedRecords(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "a", "title": "Alpha Paper", "year": 2020, "doi": "10.1/a", "authors": []any{"X"}},
		// Rejected by DOI; must not become a fuzzy canonical.
		{"id": "b", "title": "Deep Learning for Change Detection", "year": 2020, "doi": "10.1/a"},
		{"id": "c", "title": "Deep Learning for Change Detections", "year": 2020, "authors": []any{"Y"}},
	}
	unique, dups := d.Deduplicate(records, true)
	assert.Equal(t, []string{"a", "c"}, ids(unique))
	assert.Equal(t, 1, dups)
}

func TestStageToggles(t *testing.T) {
	records := func() []types.Record {
		return []types.Record{
			{"id": "a", "title": "One", "year": 2020, "doi": "10.1/x", "authors": []any{"A"}},
			{"id": "b", "title": "Two", "year": 2020, "doi": "10.1/x", "authors": []any{"B"}},
			{"id": "c", "title": "One", "year": 2020, "authors": []any{"A"}},
		}
	}

	d := newDedup(t, WithDOIStage(false))
	unique, _ := d.Deduplicate(records(), false)
	assert.Equal(t, []string{"a", "b"}, ids(unique))
	assert.Equal(t, 0, d.Stats().UniqueDOIs)

	d = newDedup(t, WithCompositeStage(false))
	unique, _ = d.Deduplicate(records(), false)
	assert.Equal(t, []string{"a", "c"}, ids(unique))
	assert.Equal(t, 0, d.Stats().UniqueCompositeKeys)
}

// --- edge cases ---

func TestEmptyInput(t *testing.T) {
	d := newDedup(t)
	unique, dups := d.Deduplicate(nil, true)
	assert.Empty(t, unique)
	assert.Equal(t, 0, dups)
	assert.Equal(t, Stats{}, d.Stats())
}

func TestDistinctRecordsRetained(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "a", "title": "Attention Is All You Need", "year": 2017, "doi": "10.1/a", "authors": []any{"Vaswani"}},
		{"id": "b", "title": "Graph Attention Networks", "year": 2018, "doi": "10.1/b", "authors": []any{"Velickovic"}},
	}
	unique, dups := d.Deduplicate(records, true)
	assert.Equal(t, []string{"a", "b"}, ids(unique))
	assert.Equal(t, 0, dups)
}

func TestWeakCompositeKeysNeverMatch(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "a", "title": "Same Title", "year": 2020},
		{"id": "b", "title": "Same Title", "year": 2020},
		{"id": "c", "year": 2020, "authors": []any{"A"}},
		{"id": "d", "year": 2020, "authors": []any{"A"}},
		{},
		{},
	}
	unique, dups := d.Deduplicate(records, false)
	assert.Len(t, unique, 6)
	assert.Equal(t, 0, dups)
	assert.Equal(t, 0, d.Stats().UniqueCompositeKeys)
}

func TestMissingIDUsesDefault(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"title": "T", "doi": "10.1/x"},
		{"title": "U", "doi": "10.1/x"},
	}
	d.Deduplicate(records, false)
	assert.Equal(t, "DOI:10.1/x", d.Duplicates()[types.DefaultID])
}

func TestDuplicateMapOverwritesSharedIDs(t *testing.T) {
	d := newDedup(t)
	records := []types.Record{
		{"id": "x", "doi": "10.1/a"},
		{"id": "dup", "doi": "10.1/a"},
		{"id": "y", "doi": "10.1/b"},
		{"id": "dup", "doi": "10.1/b"},
	}
	_, dups := d.Deduplicate(records, false)
	assert.Equal(t, 2, dups)
	assert.Equal(t, 1, d.Stats().DuplicatesFound)
	assert.Equal(t, "DOI:10.1/b", d.Duplicates()["dup"])
}

func TestStateAccumulatesAcrossCalls(t *testing.T) {
	d := newDedup(t)
	seeds := []types.Record{
		{"id": "s1", "title": "Seed Paper", "year": 2020, "doi": "10.1/seed", "authors": []any{"A"}},
	}
	expansion := []types.Record{
		{"id": "e1", "title": "Seed Paper", "year": 2020, "authors": []any{"A"}},
		{"id": "e2", "title": "Other", "doi": "10.1/SEED"},
		{"id": "e3", "title": "Brand New", "year": 2022, "authors": []any{"B"}},
	}

	unique, _ := d.Deduplicate(seeds, false)
	assert.Equal(t, []string{"s1"}, ids(unique))

	unique, dups := d.Deduplicate(expansion, false)
	assert.Equal(t, []string{"e3"}, ids(unique))
	assert.Equal(t, 2, dups)
	assert.Equal(t, 2, d.Stats().DuplicatesFound)
}

func TestStatsIsPure(t *testing.T) {
	d := newDedup(t)
	d.Deduplicate(scenarioRecords(), true)
	first := d.Stats()
	assert.Equal(t, first, d.Stats())
}

func TestOrderPreserved(t *testing.T) {
	var records []types.Record
	for i := 0; i < 60; i++ {
		records = append(records, types.Record{
			"id":      i,
			"title":   fmt.Sprintf("Paper number %d", i%17),
			"year":    2000 + i%3,
			"doi":     fmt.Sprintf("10.1/%d", i%11),
			"authors": []any{fmt.Sprintf("Author %d", i%5)},
		})
	}

	for _, aggressive := range []bool{false, true} {
		d := newDedup(t)
		unique, dups := d.Deduplicate(records, aggressive)
		assert.Equal(t, len(records), len(unique)+dups)

		// unique must be a subsequence of records.
		j := 0
		for _, r := range records {
			if j < len(unique) && r.ID() == unique[j].ID() {
				j++
			}
		}
		assert.Equal(t, len(unique), j, "aggressive=%v", aggressive)
	}
}

// --- cross-source ---

func TestDeduplicateCrossSource(t *testing.T) {
	bySource := types.BySource{
		types.SourceArxiv: {
			{"id": "arxiv:2401.00001", "title": "Shared Work", "year": 2024, "authors": []any{"A"}},
			{"id": "arxiv:2401.00002", "title": "Arxiv Only", "year": 2024, "authors": []any{"B"}},
		},
		types.SourceSemanticScholar: {
			{"id": "s2-1", "title": "Shared Work", "year": 2024, "doi": "10.1/shared", "authors": []any{map[string]any{"name": "A"}}},
			{"id": "s2-2", "title": "Another", "year": 2020, "doi": "10.1/another", "_source": "bogus"},
		},
		types.SourceOpenAlex: {
			{"id": "https://openalex.org/W1", "title": "Shared Work", "year": 2024, "doi": "https://doi.org/10.1/SHARED", "authors": []any{"A"}},
		},
	}

	d := newDedup(t)
	unique, counts := d.DeduplicateCrossSource(bySource, false)

	assert.Equal(t, []string{"https://openalex.org/W1", "s2-2", "arxiv:2401.00002"}, ids(unique))
	assert.Equal(t, map[types.Source]int{
		types.SourceOpenAlex:        1,
		types.SourceSemanticScholar: 1,
		types.SourceArxiv:           1,
	}, counts)

	sum := 0
	for _, n := range counts {
		sum += n
	}
	assert.Equal(t, len(unique), sum)
	assert.Equal(t, len(unique)+d.Stats().DuplicatesFound, bySource.Total())

	// Source tags overwrite whatever the record carried.
	assert.Equal(t, types.SourceSemanticScholar, unique[1].Source())
}

func TestDeduplicateCrossSourceEmpty(t *testing.T) {
	d := newDedup(t)
	unique, counts := d.DeduplicateCrossSource(types.BySource{}, true)
	assert.Empty(t, unique)
	assert.Empty(t, counts)
}

func TestDeduplicateCrossSourceUnknownSourcesLast(t *testing.T) {
	bySource := types.BySource{
		"zenodo":          {{"id": "z", "title": "Shared", "year": 2020, "authors": []any{"A"}}},
		types.SourceArxiv: {{"id": "x", "title": "Shared", "year": 2020, "authors": []any{"A"}}},
	}
	d := newDedup(t)
	unique, counts := d.DeduplicateCrossSource(bySource, false)
	assert.Equal(t, []string{"x"}, ids(unique))
	assert.Equal(t, map[types.Source]int{types.SourceArxiv: 1}, counts)
}
