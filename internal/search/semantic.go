// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/litsweep/internal/httputil"
	"github.com/pdiddy/litsweep/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API root. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const (
	semanticFields = "paperId,title,year,url,externalIds,isOpenAccess,s2FieldsOfStudy,publicationTypes,publicationDate,abstract,authors,citationCount,influentialCitationCount,referenceCount,venue,publicationVenue"

	// semanticPageSize is the API's per-request maximum.
	semanticPageSize = 100

	// semanticMaxOffset bounds relevance search pagination.
	semanticMaxOffset = 1000
)

// SemanticScholarBackend queries the Semantic Scholar Graph API.
type SemanticScholarBackend struct {
	Client *httputil.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() types.Source { return types.SourceSemanticScholar }

// Search pages through /paper/search with offset/limit until MaxResults
// papers are collected or the result set is exhausted.
func (b *SemanticScholarBackend) Search(ctx context.Context, query Query) ([]types.Record, error) {
	if query.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	params := url.Values{
		"query":  {query.Text},
		"fields": {semanticFields},
	}
	if yr := buildYearRange(query.YearFrom, query.YearTo); yr != "" {
		params.Set("year", yr)
	}
	if query.MinCitations > 0 {
		params.Set("minCitationCount", strconv.Itoa(query.MinCitations))
	}
	if query.Venue != "" {
		params.Set("venue", query.Venue)
	}
	if len(query.FieldsOfStudy) > 0 {
		params.Set("fieldsOfStudy", strings.Join(query.FieldsOfStudy, ","))
	}

	limit := query.limit()
	var records []types.Record
	for offset := 0; len(records) < limit && offset < semanticMaxOffset; {
		pageSize := semanticPageSize
		if remaining := limit - len(records); remaining < pageSize {
			pageSize = remaining
		}
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(pageSize))

		var resp semanticSearchResponse
		if err := b.Client.GetJSON(ctx, semanticAPIBase+"/paper/search?"+params.Encode(), b.headers(), &resp); err != nil {
			return records, eris.Wrap(err, "Semantic Scholar search request")
		}
		if len(resp.Data) == 0 {
			break
		}
		for _, p := range resp.Data {
			records = append(records, p.toRecord())
		}
		zap.L().Debug("semantic scholar page",
			zap.Int("offset", offset),
			zap.Int("papers", len(records)),
			zap.Int("total", resp.Total),
		)

		offset += len(resp.Data)
		if offset >= resp.Total {
			break
		}
	}

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// CitedBy returns up to limit papers that cite paperID.
func (b *SemanticScholarBackend) CitedBy(ctx context.Context, paperID string, limit int) ([]types.Record, error) {
	if paperID == "" {
		return nil, eris.New("empty Semantic Scholar paper id")
	}
	if limit <= 0 || limit > semanticPageSize {
		limit = semanticPageSize
	}
	params := url.Values{
		"fields": {semanticFields},
		"limit":  {strconv.Itoa(limit)},
	}
	reqURL := fmt.Sprintf("%s/paper/%s/citations?%s", semanticAPIBase, url.PathEscape(paperID), params.Encode())

	var resp semanticCitationsResponse
	if err := b.Client.GetJSON(ctx, reqURL, b.headers(), &resp); err != nil {
		return nil, eris.Wrapf(err, "Semantic Scholar citations for %s", paperID)
	}

	records := make([]types.Record, 0, len(resp.Data))
	for _, c := range resp.Data {
		if c.CitingPaper.PaperID == "" {
			continue
		}
		records = append(records, c.CitingPaper.toRecord())
	}
	return records, nil
}

// Accepts reports whether the record id looks like a Semantic Scholar paper
// id: non-empty, not a URL, not an arXiv id.
func (b *SemanticScholarBackend) Accepts(r types.Record) (string, bool) {
	id := r.String(types.FieldID)
	if id == "" || strings.HasPrefix(id, "http") || strings.Contains(strings.ToLower(id), "arxiv") {
		return "", false
	}
	return id, true
}

func (b *SemanticScholarBackend) headers() map[string]string {
	if b.APIKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": b.APIKey}
}

// buildYearRange returns a Semantic Scholar year filter string (e.g. "2020-2023").
func buildYearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures.
type semanticSearchResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticCitationsResponse struct {
	Data []struct {
		CitingPaper semanticPaper `json:"citingPaper"`
	} `json:"data"`
}

type semanticPaper struct {
	PaperID                  string              `json:"paperId"`
	Title                    string              `json:"title"`
	Abstract                 string              `json:"abstract"`
	Year                     int                 `json:"year"`
	URL                      string              `json:"url"`
	Venue                    string              `json:"venue"`
	PublicationVenue         *semanticVenue      `json:"publicationVenue"`
	PublicationTypes         []string            `json:"publicationTypes"`
	CitationCount            int                 `json:"citationCount"`
	InfluentialCitationCount int                 `json:"influentialCitationCount"`
	IsOpenAccess             bool                `json:"isOpenAccess"`
	Authors                  []semanticAuthor    `json:"authors"`
	ExternalIDs              semanticExternalIDs `json:"externalIds"`
	FieldsOfStudy            []semanticFieldOf   `json:"s2FieldsOfStudy"`
}

type semanticVenue struct {
	Name string `json:"name"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticFieldOf struct {
	Category string `json:"category"`
}

// toRecord flattens a paper into the shared record shape.
func (p semanticPaper) toRecord() types.Record {
	authors := []any{}
	for _, a := range p.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	concepts := []any{}
	for _, f := range p.FieldsOfStudy {
		if len(concepts) == maxConcepts {
			break
		}
		if f.Category != "" {
			concepts = append(concepts, f.Category)
		}
	}

	venue := p.Venue
	if venue == "" && p.PublicationVenue != nil {
		venue = p.PublicationVenue.Name
	}

	pubType := "Unknown"
	if len(p.PublicationTypes) > 0 {
		pubType = p.PublicationTypes[0]
	}

	oaStatus := "closed"
	if p.IsOpenAccess {
		oaStatus = "open"
	}

	r := types.Record{
		types.FieldID:              p.PaperID,
		types.FieldTitle:           p.Title,
		types.FieldAbstract:        p.Abstract,
		types.FieldYear:            nil,
		types.FieldDOI:             p.ExternalIDs.DOI,
		types.FieldAuthors:         authors,
		types.FieldCitations:       p.CitationCount,
		types.FieldVenue:           venue,
		types.FieldURL:             p.URL,
		"type":                     pubType,
		"influentialCitationCount": p.InfluentialCitationCount,
		"is_oa":                    p.IsOpenAccess,
		"oa_status":                oaStatus,
		"arxiv_id":                 p.ExternalIDs.ArXiv,
		"concepts":                 concepts,
	}
	if p.Year > 0 {
		r[types.FieldYear] = p.Year
	}
	return r
}
