// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litsweep/pkg/types"
)

const sampleSemanticPaper = `{
  "paperId": "649def34f8be52c8b66281af98ae884c09aef38b",
  "title": "Deep Learning for Change Detection",
  "abstract": "A survey.",
  "year": 2024,
  "url": "https://www.semanticscholar.org/paper/649def34",
  "venue": "",
  "publicationVenue": {"name": "Remote Sensing"},
  "publicationTypes": ["JournalArticle"],
  "citationCount": 12,
  "influentialCitationCount": 2,
  "isOpenAccess": true,
  "authors": [{"authorId": "1", "name": "John Smith"}, {"authorId": "2", "name": ""}],
  "externalIds": {"DOI": "10.1109/test.2024.1234567", "ArXiv": "2401.00001"},
  "s2FieldsOfStudy": [{"category": "Computer Science"}]
}`

func useSemantic(t *testing.T, ts *httptest.Server) {
	t.Helper()
	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() { semanticAPIBase = old })
}

func TestSemanticSearchRequestParams(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprintf(w, `{"total":1,"offset":0,"data":[%s]}`, sampleSemanticPaper)
	}))
	defer ts.Close()
	useSemantic(t, ts)

	b := &SemanticScholarBackend{Client: testClient(), APIKey: "s2-key"}
	records, err := b.Search(context.Background(), Query{
		Text:          "change detection",
		YearFrom:      2020,
		YearTo:        2024,
		MinCitations:  5,
		Venue:         "CVPR",
		FieldsOfStudy: []string{"Computer Science", "Engineering"},
		MaxResults:    30,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NotNil(t, got)
	assert.Equal(t, "/paper/search", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "change detection", q.Get("query"))
	assert.Equal(t, "2020-2024", q.Get("year"))
	assert.Equal(t, "5", q.Get("minCitationCount"))
	assert.Equal(t, "CVPR", q.Get("venue"))
	assert.Equal(t, "Computer Science,Engineering", q.Get("fieldsOfStudy"))
	assert.Equal(t, "0", q.Get("offset"))
	assert.Equal(t, "30", q.Get("limit"))
	assert.Equal(t, "s2-key", got.Header.Get("x-api-key"))
}

func TestSemanticSearchRecordShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"total":1,"data":[%s]}`, sampleSemanticPaper)
	}))
	defer ts.Close()
	useSemantic(t, ts)

	b := &SemanticScholarBackend{Client: testClient()}
	records, err := b.Search(context.Background(), Query{Text: "x"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "649def34f8be52c8b66281af98ae884c09aef38b", r.ID())
	assert.Equal(t, "10.1109/test.2024.1234567", r.String(types.FieldDOI))
	assert.Equal(t, "2024", r.Year())
	assert.Equal(t, float64(12), r.Citations())
	assert.Equal(t, []string{"John Smith"}, r.Strings(types.FieldAuthors))
	assert.Equal(t, "Remote Sensing", r.String(types.FieldVenue), "falls back to publicationVenue")
	assert.Equal(t, "JournalArticle", r.String("type"))
	assert.Equal(t, "open", r.String("oa_status"))
	assert.Equal(t, "2401.00001", r.String("arxiv_id"))
	assert.Equal(t, []string{"Computer Science"}, r.Strings("concepts"))
}

func TestSemanticSearchNoAPIKeyHeader(t *testing.T) {
	var header string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	}))
	defer ts.Close()
	useSemantic(t, ts)

	b := &SemanticScholarBackend{Client: testClient()}
	_, err := b.Search(context.Background(), Query{Text: "x"})
	require.NoError(t, err)
	assert.Empty(t, header)
}

func TestSemanticSearchOffsetPagination(t *testing.T) {
	const total = 250
	var offsets []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offsets = append(offsets, r.URL.Query().Get("offset"))

		var papers []string
		for i := offset; i < offset+limit && i < total; i++ {
			papers = append(papers, fmt.Sprintf(`{"paperId":"p%d","title":"Paper %d"}`, i, i))
		}
		fmt.Fprintf(w, `{"total":%d,"offset":%d,"data":[%s]}`, total, offset, strings.Join(papers, ","))
	}))
	defer ts.Close()
	useSemantic(t, ts)

	b := &SemanticScholarBackend{Client: testClient()}
	records, err := b.Search(context.Background(), Query{Text: "x", MaxResults: 500})
	require.NoError(t, err)
	assert.Len(t, records, total)
	assert.Equal(t, []string{"0", "100", "200"}, offsets)
	assert.Equal(t, "p249", records[total-1].ID())
}

func TestSemanticSearchRespectsMaxResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var papers []string
		for i := 0; i < limit; i++ {
			papers = append(papers, fmt.Sprintf(`{"paperId":"p%d"}`, i))
		}
		fmt.Fprintf(w, `{"total":10000,"data":[%s]}`, strings.Join(papers, ","))
	}))
	defer ts.Close()
	useSemantic(t, ts)

	b := &SemanticScholarBackend{Client: testClient()}
	records, err := b.Search(context.Background(), Query{Text: "x", MaxResults: 150})
	require.NoError(t, err)
	assert.Len(t, records, 150)
}

func TestSemanticSearchHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	useSemantic(t, ts)

	b := &SemanticScholarBackend{Client: testClient()}
	_, err := b.Search(context.Background(), Query{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Semantic Scholar")
}

func TestSemanticSearchEmptyQuery(t *testing.T) {
	b := &SemanticScholarBackend{Client: testClient()}
	_, err := b.Search(context.Background(), Query{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSemanticCitedBy(t *testing.T) {
	var path, limit string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		limit = r.URL.Query().Get("limit")
		fmt.Fprintf(w, `{"data":[{"citingPaper":%s},{"citingPaper":{"paperId":null}}]}`, sampleSemanticPaper)
	}))
	defer ts.Close()
	useSemantic(t, ts)

	b := &SemanticScholarBackend{Client: testClient()}
	records, err := b.CitedBy(context.Background(), "abc123", 20)
	require.NoError(t, err)
	assert.Equal(t, "/paper/abc123/citations", path)
	assert.Equal(t, "20", limit)
	require.Len(t, records, 1, "citing papers without ids are skipped")
	assert.Equal(t, "649def34f8be52c8b66281af98ae884c09aef38b", records[0].ID())
}

func TestSemanticAccepts(t *testing.T) {
	b := &SemanticScholarBackend{}
	tests := []struct {
		id   any
		want bool
	}{
		{"649def34f8be52c8b66281af98ae884c09aef38b", true},
		{"https://openalex.org/W1", false},
		{"arxiv:2401.00001", false},
		{"ArXiv-2401", false},
		{nil, false},
	}
	for _, tt := range tests {
		_, ok := b.Accepts(types.Record{"id": tt.id})
		assert.Equal(t, tt.want, ok, "id %v", tt.id)
	}
}

func TestBuildYearRange(t *testing.T) {
	assert.Equal(t, "2020-2023", buildYearRange(2020, 2023))
	assert.Equal(t, "2020-", buildYearRange(2020, 0))
	assert.Equal(t, "-2023", buildYearRange(0, 2023))
	assert.Equal(t, "", buildYearRange(0, 0))
}

func TestSemanticScholarBackendName(t *testing.T) {
	assert.Equal(t, types.SourceSemanticScholar, (&SemanticScholarBackend{}).Name())
}
