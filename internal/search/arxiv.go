// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/litsweep/internal/httputil"
	"github.com/pdiddy/litsweep/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	arxivPageSize = 200

	// ArxivIDPrefix marks record ids minted from arXiv identifiers.
	ArxivIDPrefix = "arxiv:"
)

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Client *httputil.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() types.Source { return types.SourceArxiv }

// Search pages through the Atom feed sorted by relevance. The year range is
// sent as a submittedDate filter and enforced again on the parsed entries.
func (b *ArxivBackend) Search(ctx context.Context, query Query) ([]types.Record, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	limit := query.limit()
	var records []types.Record
	for start := 0; len(records) < limit; {
		pageSize := arxivPageSize
		if remaining := limit - len(records); remaining < pageSize {
			pageSize = remaining
		}
		params := url.Values{
			"search_query": {q},
			"start":        {strconv.Itoa(start)},
			"max_results":  {strconv.Itoa(pageSize)},
			"sortBy":       {"relevance"},
			"sortOrder":    {"descending"},
		}

		body, err := b.Client.GetBody(ctx, arxivAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return records, eris.Wrap(err, "arXiv API request")
		}
		var feed arxivFeed
		if err := xml.Unmarshal(body, &feed); err != nil {
			return records, eris.Wrap(err, "parsing arXiv response")
		}

		for _, entry := range feed.Entries {
			r, ok := entry.toRecord()
			if !ok {
				continue
			}
			year, _ := r.YearInt()
			if !query.inYearRange(year) {
				continue
			}
			records = append(records, r)
		}
		zap.L().Debug("arxiv page", zap.Int("start", start), zap.Int("papers", len(records)))

		if len(feed.Entries) < pageSize {
			break
		}
		start += len(feed.Entries)
	}

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// buildArxivQuery constructs the search_query parameter: the free text over
// all fields, AND-ed with OR-ed categories and a submission date range.
func buildArxivQuery(q Query) string {
	if q.IsEmpty() {
		return ""
	}
	parts := []string{"all:" + strings.Join(strings.Fields(q.Text), " ")}

	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			cats[i] = "cat:" + c
		}
		parts = append(parts, "("+strings.Join(cats, " OR ")+")")
	}

	if q.YearFrom > 0 || q.YearTo > 0 {
		from, to := "*", "*"
		if q.YearFrom > 0 {
			from = fmt.Sprintf("%d01010000", q.YearFrom)
		}
		if q.YearTo > 0 {
			to = fmt.Sprintf("%d12312359", q.YearTo)
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]", from, to))
	}

	return strings.Join(parts, " AND ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Updated         string          `xml:"updated"`
	Authors         []arxivAuthor   `xml:"author"`
	DOI             string          `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef      string          `xml:"http://arxiv.org/schemas/atom journal_ref"`
	Comment         string          `xml:"http://arxiv.org/schemas/atom comment"`
	PrimaryCategory arxivCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
	Categories      []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// toRecord flattens an entry into the shared record shape. Entries without
// a parseable arXiv id are dropped.
func (e arxivEntry) toRecord() (types.Record, bool) {
	arxivID := extractArxivID(e.ID)
	if arxivID == "" {
		return nil, false
	}

	authors := []any{}
	for _, a := range e.Authors {
		if len(authors) == maxAuthors {
			break
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	categories := []any{}
	for _, c := range e.Categories {
		if c.Term != "" {
			categories = append(categories, c.Term)
		}
	}
	concepts := categories
	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}

	r := types.Record{
		types.FieldID:        ArxivIDPrefix + arxivID,
		types.FieldTitle:     collapseSpace(e.Title),
		types.FieldAbstract:  collapseSpace(e.Summary),
		types.FieldYear:      nil,
		types.FieldDOI:       strings.TrimSpace(e.DOI),
		types.FieldAuthors:   authors,
		types.FieldCitations: 0,
		types.FieldVenue:     "arXiv",
		types.FieldURL:       strings.TrimSpace(e.ID),
		"type":               "article",
		"is_oa":              true,
		"oa_status":          "green",
		"arxiv_id":           arxivID,
		"categories":         categories,
		"primary_category":   e.PrimaryCategory.Term,
		"concepts":           concepts,
		"journal_ref":        strings.TrimSpace(e.JournalRef),
		"comment":            strings.TrimSpace(e.Comment),
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		r[types.FieldYear] = t.Year()
		r["published_date"] = t.Format("2006-01-02")
	}
	return r, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
