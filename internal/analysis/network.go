// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"github.com/pdiddy/litsweep/internal/dedup"
	"github.com/pdiddy/litsweep/pkg/types"
)

// PageRank parameters.
const (
	Damping         = 0.85
	PageRankRounds  = 100
	nodeAuthorLimit = 5
)

// Node is one paper in the citation network.
type Node struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Year      any      `json:"year"`
	Citations float64  `json:"citations"`
	Authors   []string `json:"authors"`
	Venue     string   `json:"venue"`

	// InDegree counts papers in the collection that cite this one.
	InDegree int     `json:"in_degree"`
	PageRank float64 `json:"pagerank"`
}

// Edge points from a citing paper to a cited paper.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// YearRange bounds the publication years present.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// NetworkStats summarizes the collection behind a network.
type NetworkStats struct {
	TotalPapers    int        `json:"total_papers"`
	TotalCitations float64    `json:"total_citations"`
	AvgCitations   float64    `json:"avg_citations"`
	YearRange      *YearRange `json:"year_range,omitempty"`
	Edges          int        `json:"edges"`
}

// Network is the citation graph of a collection.
type Network struct {
	Nodes []Node       `json:"nodes"`
	Edges []Edge       `json:"edges"`
	Stats NetworkStats `json:"stats"`
}

// NodeID is the identity of a record in the network: its id, else its
// DOI, else its title.
func NodeID(r types.Record) string {
	for _, f := range []string{types.FieldID, types.FieldDOI, types.FieldTitle} {
		if s := r.String(f); s != "" {
			return s
		}
	}
	return types.DefaultID
}

// BuildNetwork builds the citation graph. Edges come from each record's
// references list and are kept only when the cited id is in the
// collection. Self-citations and repeated edges are dropped; a repeated
// node id keeps its first record.
func BuildNetwork(records []types.Record) Network {
	net := Network{Nodes: make([]Node, 0, len(records)), Edges: []Edge{}}
	index := make(map[string]int, len(records))
	var sources []types.Record

	for _, r := range records {
		id := NodeID(r)
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(net.Nodes)
		sources = append(sources, r)

		authors := dedup.AuthorNames(r)
		if len(authors) > nodeAuthorLimit {
			authors = authors[:nodeAuthorLimit]
		}
		venue := r.String(types.FieldVenue)
		if venue == "" {
			venue = r.String(types.FieldSource)
		}
		net.Nodes = append(net.Nodes, Node{
			ID:        id,
			Title:     r.String(types.FieldTitle),
			Year:      r[types.FieldYear],
			Citations: r.Citations(),
			Authors:   authors,
			Venue:     venue,
		})
	}

	out := make([][]int, len(net.Nodes))
	for i, r := range sources {
		seen := make(map[int]bool)
		for _, ref := range r.Strings(types.FieldReferences) {
			j, ok := index[ref]
			if !ok || j == i || seen[j] {
				continue
			}
			seen[j] = true
			out[i] = append(out[i], j)
			net.Edges = append(net.Edges, Edge{Source: net.Nodes[i].ID, Target: net.Nodes[j].ID})
			net.Nodes[j].InDegree++
		}
	}

	for i, pr := range PageRank(out, Damping, PageRankRounds) {
		net.Nodes[i].PageRank = pr
	}
	net.Stats = networkStats(net)
	return net
}

// PageRank runs the power iteration over adjacency lists (out[i] lists the
// nodes i points to). Rank held by nodes without out-links is spread
// evenly, so the scores always sum to one.
func PageRank(out [][]int, damping float64, rounds int) []float64 {
	n := len(out)
	if n == 0 {
		return nil
	}
	pr := make([]float64, n)
	for i := range pr {
		pr[i] = 1 / float64(n)
	}
	next := make([]float64, n)
	for range rounds {
		dangling := 0.0
		for i, links := range out {
			if len(links) == 0 {
				dangling += pr[i]
			}
		}
		base := (1-damping)/float64(n) + damping*dangling/float64(n)
		for i := range next {
			next[i] = base
		}
		for i, links := range out {
			if len(links) == 0 {
				continue
			}
			share := damping * pr[i] / float64(len(links))
			for _, j := range links {
				next[j] += share
			}
		}
		pr, next = next, pr
	}
	return pr
}

func networkStats(net Network) NetworkStats {
	s := NetworkStats{TotalPapers: len(net.Nodes), Edges: len(net.Edges)}
	for _, n := range net.Nodes {
		s.TotalCitations += n.Citations
		y, ok := types.Record{types.FieldYear: n.Year}.YearInt()
		if !ok {
			continue
		}
		if s.YearRange == nil {
			s.YearRange = &YearRange{Min: y, Max: y}
			continue
		}
		s.YearRange.Min = min(s.YearRange.Min, y)
		s.YearRange.Max = max(s.YearRange.Max, y)
	}
	if s.TotalPapers > 0 {
		s.AvgCitations = s.TotalCitations / float64(s.TotalPapers)
	}
	return s
}
