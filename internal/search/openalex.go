// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/litsweep/internal/httputil"
	"github.com/pdiddy/litsweep/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

const (
	openAlexPerPage   = 200
	openAlexIDPrefix  = "https://openalex.org/"
	openAlexSelect    = "id,title,publication_year,type,cited_by_count,primary_location,authorships,concepts,open_access,doi,abstract_inverted_index,referenced_works"
	maxAuthors        = 10
	maxConcepts       = 5
	openAlexMaxPages  = 100
	openAlexSortOrder = "cited_by_count:desc"
)

// OpenAlexBackend queries the OpenAlex API.
type OpenAlexBackend struct {
	Client *httputil.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() types.Source { return types.SourceOpenAlex }

// Search returns up to query.MaxResults works, most cited first, following
// cursor pagination.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query) ([]types.Record, error) {
	if query.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	params := url.Values{
		"search": {query.Text},
		"sort":   {openAlexSortOrder},
	}
	if f := openAlexFilter(query); f != "" {
		params.Set("filter", f)
	}
	return b.fetch(ctx, params, query.limit())
}

// CitedBy returns up to limit works that cite workID. workID may be a full
// OpenAlex URL or the bare W-identifier.
func (b *OpenAlexBackend) CitedBy(ctx context.Context, workID string, limit int) ([]types.Record, error) {
	short := strings.TrimPrefix(workID, openAlexIDPrefix)
	if short == "" {
		return nil, eris.New("empty OpenAlex work id")
	}
	params := url.Values{
		"filter": {"cites:" + short},
		"sort":   {openAlexSortOrder},
	}
	return b.fetch(ctx, params, limit)
}

// Accepts reports whether the record carries an OpenAlex work id.
func (b *OpenAlexBackend) Accepts(r types.Record) (string, bool) {
	id := r.String(types.FieldID)
	if strings.Contains(id, "openalex.org") {
		return id, true
	}
	return "", false
}

func (b *OpenAlexBackend) fetch(ctx context.Context, params url.Values, limit int) ([]types.Record, error) {
	params.Set("select", openAlexSelect)
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var records []types.Record
	cursor := "*"
	for page := 0; page < openAlexMaxPages && cursor != "" && len(records) < limit; page++ {
		perPage := openAlexPerPage
		if remaining := limit - len(records); remaining < perPage {
			perPage = remaining
		}
		params.Set("per-page", strconv.Itoa(perPage))
		params.Set("cursor", cursor)

		var resp openAlexResponse
		if err := b.Client.GetJSON(ctx, openAlexWorksBase+"?"+params.Encode(), nil, &resp); err != nil {
			return records, eris.Wrap(err, "OpenAlex works request")
		}
		if len(resp.Results) == 0 {
			break
		}
		for _, work := range resp.Results {
			records = append(records, work.toRecord())
		}
		cursor = resp.Meta.NextCursor
		zap.L().Debug("openalex page",
			zap.Int("page", page+1),
			zap.Int("papers", len(records)),
			zap.Int("total", resp.Meta.Count),
		)
	}

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// openAlexFilter builds the comma-joined filter parameter from the query.
func openAlexFilter(q Query) string {
	var filters []string
	if q.YearFrom > 0 {
		filters = append(filters, "from_publication_date:"+strconv.Itoa(q.YearFrom)+"-01-01")
	}
	if q.YearTo > 0 {
		filters = append(filters, "to_publication_date:"+strconv.Itoa(q.YearTo)+"-12-31")
	}
	if q.MinCitations > 0 {
		filters = append(filters, "cited_by_count:>"+strconv.Itoa(q.MinCitations-1))
	}
	return strings.Join(filters, ",")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count      int    `json:"count"`
	NextCursor string `json:"next_cursor"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	Type                  string               `json:"type"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	Concepts              []openAlexConcept    `json:"concepts"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	ReferencedWorks       []string             `json:"referenced_works"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type openAlexLocation struct {
	LandingPageURL string          `json:"landing_page_url"`
	Source         *openAlexSource `json:"source"`
}

type openAlexSource struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// toRecord flattens a work into the shared record shape.
func (w openAlexWork) toRecord() types.Record {
	authors := []any{}
	for _, a := range w.Authorships {
		if len(authors) == maxAuthors {
			break
		}
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}

	concepts := []any{}
	for _, c := range w.Concepts {
		if len(concepts) == maxConcepts {
			break
		}
		concepts = append(concepts, c.DisplayName)
	}

	refs := make([]any, len(w.ReferencedWorks))
	for i, ref := range w.ReferencedWorks {
		refs[i] = ref
	}

	r := types.Record{
		types.FieldID:         w.ID,
		types.FieldTitle:      w.Title,
		types.FieldAbstract:   reconstructAbstract(w.AbstractInvertedIndex),
		types.FieldYear:       nil,
		types.FieldDOI:        w.DOI,
		types.FieldAuthors:    authors,
		types.FieldCitations:  w.CitedByCount,
		types.FieldVenue:      "",
		types.FieldURL:        w.ID,
		types.FieldReferences: refs,
		"type":                w.Type,
		"is_oa":               w.OpenAccess.IsOA,
		"oa_status":           w.OpenAccess.OAStatus,
		"concepts":            concepts,
	}
	if w.PublicationYear > 0 {
		r[types.FieldYear] = w.PublicationYear
	}
	if loc := w.PrimaryLocation; loc != nil {
		if loc.LandingPageURL != "" {
			r[types.FieldURL] = loc.LandingPageURL
		}
		if loc.Source != nil {
			r[types.FieldVenue] = loc.Source.DisplayName
			r["venue_id"] = loc.Source.ID
		}
	}
	return r
}
