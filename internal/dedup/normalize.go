// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/pdiddy/litsweep/pkg/types"
)

// KeySeparator joins the composite key segments. Normalized titles never
// contain it.
const KeySeparator = "|"

// doiURLPrefixes are stripped from the front of a DOI, longest first.
var doiURLPrefixes = []string{
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"https://doi.org/",
	"http://doi.org/",
}

// NormalizeTitle lowercases title, replaces every rune that is not a
// letter, number, underscore, whitespace or hyphen with a space, and
// collapses whitespace runs.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	lower := strings.ToLower(title)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeDOI strips a doi.org URL prefix and lowercases the remainder.
// It does not validate DOI syntax.
func NormalizeDOI(doi string) string {
	if doi == "" {
		return ""
	}
	for _, p := range doiURLPrefixes {
		if strings.HasPrefix(doi, p) {
			doi = doi[len(p):]
			break
		}
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// RecordDOI returns the normalized DOI of r.
func RecordDOI(r types.Record) string {
	return NormalizeDOI(r.String(types.FieldDOI))
}

// FirstAuthor returns the lowercased, trimmed name of the first author of r.
func FirstAuthor(r types.Record) string {
	authors := r.List(types.FieldAuthors)
	if len(authors) == 0 {
		return ""
	}
	return ParseAuthor(authors[0]).Normalized()
}

// CompositeKey builds "title|year|first author" from the normalized fields.
func CompositeKey(r types.Record) string {
	return strings.Join([]string{
		NormalizeTitle(r.String(types.FieldTitle)),
		r.Year(),
		FirstAuthor(r),
	}, KeySeparator)
}

// validCompositeKey reports whether key can identify a paper. Keys with an
// empty title or empty first author are too weak to match on.
func validCompositeKey(key string) bool {
	return key != "" && !strings.HasPrefix(key, KeySeparator) && !strings.HasSuffix(key, KeySeparator)
}

// TitleSimilarity returns the Ratcliff/Obershelp ratio of the normalized
// titles, in [0, 1]. Either title normalizing to empty yields 0. The
// operands are ordered before matching so the result is symmetric.
func TitleSimilarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if nb < na {
		na, nb = nb, na
	}
	return difflib.NewMatcher(runes(na), runes(nb)).Ratio()
}

// runes splits s into one-rune strings so the matcher compares characters.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
