// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries OpenAlex, Semantic Scholar and arXiv and returns
// their papers grouped by source. Records keep each API's own identifiers;
// cross-source duplicates are left for the dedup stage.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litsweep/internal/httputil"
	"github.com/pdiddy/litsweep/pkg/types"
)

var (
	// ErrEmptyQuery is returned when the query has no search text.
	ErrEmptyQuery = eris.New("query is empty: provide search text")

	// ErrNoBackends is returned when no backend is configured.
	ErrNoBackends = eris.New("no search backends configured")
)

// Backend searches a single academic API.
type Backend interface {
	Name() types.Source
	Search(ctx context.Context, query Query) ([]types.Record, error)
}

// Query holds the search parameters shared by every backend. Backends ignore
// filters their API cannot express.
type Query struct {
	Text         string
	YearFrom     int
	YearTo       int
	MaxResults   int
	MinCitations int

	// Categories are arXiv categories (e.g. cs.CV), OR-ed together.
	Categories []string

	// FieldsOfStudy and Venue are Semantic Scholar filters.
	FieldsOfStudy []string
	Venue         string
}

// IsEmpty reports whether the query contains no searchable text.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// limit returns MaxResults or the default when unset.
func (q Query) limit() int {
	if q.MaxResults <= 0 {
		return defaultMaxResults
	}
	return q.MaxResults
}

// inYearRange reports whether year (0 when unknown) passes the query's year
// bounds. Unknown years pass.
func (q Query) inYearRange(year int) bool {
	if year == 0 {
		return true
	}
	if q.YearFrom > 0 && year < q.YearFrom {
		return false
	}
	if q.YearTo > 0 && year > q.YearTo {
		return false
	}
	return true
}

const defaultMaxResults = 500

// SearchOutput holds the per-source results of a fan-out search.
type SearchOutput struct {
	BySource types.BySource

	// BackendErrors maps a failed source to its error message. A failed
	// source still appears in BySource with an empty list.
	BackendErrors map[types.Source]string
}

// Total returns the number of records across all sources.
func (o SearchOutput) Total() int { return o.BySource.Total() }

// SearchAll fans the query out to all backends concurrently. A failing
// backend does not fail the search: its error is logged and recorded in
// BackendErrors. Only an empty query, no backends, or a cancelled context
// return an error.
func SearchAll(ctx context.Context, query Query, backends []Backend) (SearchOutput, error) {
	if query.IsEmpty() {
		return SearchOutput{}, ErrEmptyQuery
	}
	if len(backends) == 0 {
		return SearchOutput{}, ErrNoBackends
	}

	out := SearchOutput{
		BySource:      make(types.BySource, len(backends)),
		BackendErrors: make(map[types.Source]string),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range backends {
		g.Go(func() error {
			name := b.Name()
			zap.L().Info("searching", zap.String("source", string(name)), zap.String("query", query.Text))

			records, err := b.Search(gctx, query)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("backend failed", zap.String("source", string(name)), zap.Error(err))
				out.BackendErrors[name] = err.Error()
				out.BySource[name] = []types.Record{}
				return nil
			}
			if records == nil {
				records = []types.Record{}
			}
			zap.L().Info("backend finished", zap.String("source", string(name)), zap.Int("papers", len(records)))
			out.BySource[name] = records
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, eris.Wrap(err, "search cancelled")
	}
	return out, nil
}

// NewBackends builds the configured backends, one rate-limited client per
// API. Unknown source names are rejected.
func NewBackends(cfg types.SearchConfig) ([]Backend, error) {
	sources := cfg.Sources
	if len(sources) == 0 {
		sources = types.SourceOrder
	}

	var backends []Backend
	for _, src := range sources {
		client := httputil.NewClient(cfg.HTTPConfig, cfg.RateLimits[src])
		switch src {
		case types.SourceOpenAlex:
			backends = append(backends, &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
		case types.SourceSemanticScholar:
			backends = append(backends, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
		case types.SourceArxiv:
			backends = append(backends, &ArxivBackend{Client: client})
		default:
			return nil, eris.Errorf("unknown source %q", src)
		}
	}
	return backends, nil
}

// FilterTopN keeps the best n records of each source: arXiv by year (it has
// no citation counts), the others by citations. Ties keep input order. The
// input is not modified.
func FilterTopN(bySource types.BySource, n int) types.BySource {
	out := make(types.BySource, len(bySource))
	for src, records := range bySource {
		sorted := make([]types.Record, len(records))
		copy(sorted, records)

		if src == types.SourceArxiv {
			sort.SliceStable(sorted, func(i, j int) bool {
				yi, _ := sorted[i].YearInt()
				yj, _ := sorted[j].YearInt()
				return yi > yj
			})
		} else {
			sort.SliceStable(sorted, func(i, j int) bool {
				return sorted[i].Citations() > sorted[j].Citations()
			})
		}

		if n >= 0 && len(sorted) > n {
			sorted = sorted[:n]
		}
		out[src] = sorted
	}
	return out
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.Record, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-9s  %s\n",
		"#", "Title", "Authors", "Year", "Citations", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 116))

	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-9.0f  %s\n",
			i+1, truncate(r.String(types.FieldTitle), 60), formatAuthors(r.Strings(types.FieldAuthors)),
			r.Year(), r.Citations(), r.Source())
	}

	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(records []types.Record, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// PrintSummary writes per-source counts and backend failures to w.
func PrintSummary(out SearchOutput, w io.Writer) {
	fmt.Fprintf(w, "Total papers found: %d\n", out.Total())
	for _, src := range types.OrderedSources(out.BySource) {
		line := fmt.Sprintf("  %s: %d", src, len(out.BySource[src]))
		if msg, failed := out.BackendErrors[src]; failed {
			line += " (error: " + msg + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
