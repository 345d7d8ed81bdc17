// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/litsweep/internal/dedup"
	"github.com/pdiddy/litsweep/pkg/types"
)

const (
	temporalAbstractLen = 500
	temporalAuthors     = 3
)

// TemporalPaper is the trimmed view of a paper listed under its year.
type TemporalPaper struct {
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Citations float64  `json:"citations"`
	Authors   []string `json:"authors"`
	URL       string   `json:"url"`
}

// Growth is the change in paper count between two consecutive years present.
type Growth struct {
	From      int     `json:"from"`
	To        int     `json:"to"`
	PrevCount int     `json:"prev_count"`
	CurrCount int     `json:"curr_count"`
	Rate      float64 `json:"growth_rate"`
}

// Temporal groups papers by publication year.
type Temporal struct {
	ByYear     map[int][]TemporalPaper `json:"by_year"`
	Years      []int                   `json:"years"`
	TotalYears int                     `json:"total_years"`
	YearRange  string                  `json:"year_range"`
	Growth     []Growth                `json:"growth"`

	// Undated counts papers without a usable year.
	Undated int `json:"undated"`
}

// NewTemporal groups records by year and computes year-over-year growth as
// a percentage rounded to one decimal.
func NewTemporal(records []types.Record) Temporal {
	t := Temporal{ByYear: make(map[int][]TemporalPaper), Years: []int{}, Growth: []Growth{}, YearRange: "N/A"}
	for _, r := range records {
		year, ok := r.YearInt()
		if !ok {
			t.Undated++
			continue
		}
		authors := dedup.AuthorNames(r)
		if len(authors) > temporalAuthors {
			authors = authors[:temporalAuthors]
		}
		t.ByYear[year] = append(t.ByYear[year], TemporalPaper{
			Title:     r.String(types.FieldTitle),
			Abstract:  truncateRunes(r.String(types.FieldAbstract), temporalAbstractLen),
			Citations: r.Citations(),
			Authors:   authors,
			URL:       r.String(types.FieldURL),
		})
	}

	for y := range t.ByYear {
		t.Years = append(t.Years, y)
	}
	sort.Ints(t.Years)
	t.TotalYears = len(t.Years)
	if t.TotalYears > 0 {
		t.YearRange = fmt.Sprintf("%d-%d", t.Years[0], t.Years[t.TotalYears-1])
	}

	for i := 1; i < len(t.Years); i++ {
		prev, curr := t.Years[i-1], t.Years[i]
		pc, cc := len(t.ByYear[prev]), len(t.ByYear[curr])
		rate := float64(cc-pc) / float64(pc) * 100
		t.Growth = append(t.Growth, Growth{
			From:      prev,
			To:        curr,
			PrevCount: pc,
			CurrCount: cc,
			Rate:      math.Round(rate*10) / 10,
		})
	}
	return t
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
