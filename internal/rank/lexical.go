// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// stopwords are dropped before building term vectors.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "we": true, "with": true,
}

// LexicalScorer compares term-frequency vectors. It needs no network and
// is the default scorer.
type LexicalScorer struct{}

// Score implements Scorer.
func (LexicalScorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	q := termFreq(query)
	out := make([]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = cosineTF(q, termFreq(text))
	}
	return out, nil
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func termFreq(s string) map[string]float64 {
	tf := make(map[string]float64)
	for _, tok := range tokenize(s) {
		tf[tok]++
	}
	return tf
}

func cosineTF(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for term, x := range a {
		na += x * x
		dot += x * b[term]
	}
	for _, y := range b {
		nb += y * y
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
