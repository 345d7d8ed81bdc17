// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// Source identifies the academic API a record came from.
type Source string

const (
	SourceOpenAlex        Source = "openalex"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceArxiv           Source = "arxiv"
)

// SourceOrder is the declared concatenation order for cross-source
// deduplication. Earlier sources win when the same paper appears twice.
var SourceOrder = []Source{SourceOpenAlex, SourceSemanticScholar, SourceArxiv}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	for _, known := range SourceOrder {
		if s == known {
			return true
		}
	}
	return false
}

// OrderedSources returns the keys of bySource with known sources first in
// SourceOrder and any others after them in lexical order.
func OrderedSources[T any](bySource map[Source]T) []Source {
	out := make([]Source, 0, len(bySource))
	for _, s := range SourceOrder {
		if _, ok := bySource[s]; ok {
			out = append(out, s)
		}
	}
	var extra []Source
	for s := range bySource {
		if !s.Valid() {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// BySource groups records by origin.
type BySource map[Source][]Record

// Total returns the number of records across all sources.
func (b BySource) Total() int {
	n := 0
	for _, recs := range b {
		n += len(recs)
	}
	return n
}
