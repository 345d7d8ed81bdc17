// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders papers by a blend of semantic similarity to the
// research query and citation impact. Ranking within each source before
// merging keeps one source's writing style from dominating the result.
package rank

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/litsweep/pkg/types"
)

// Fields written onto ranked records.
const (
	FieldSemanticScore = "semantic_score"
	FieldImpactScore   = "impact_score"
	FieldScore         = "score"
)

// DefaultSemanticWeight is the share of the final score taken by semantic similarity.
const DefaultSemanticWeight = 0.7

// minAbstractLen is the abstract length below which only the title is scored.
const minAbstractLen = 50

// ErrInvalidWeight is returned when the semantic weight is outside [0, 1].
var ErrInvalidWeight = eris.New("semantic weight must be within [0, 1]")

// Scorer returns a similarity between query and each text, in text order.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Options controls a ranking run.
type Options struct {
	// SemanticWeight blends similarity (w) with impact (1-w).
	SemanticWeight float64

	// TopK keeps the best K records. Zero keeps all.
	TopK int
}

// OptionsFromConfig maps the rank configuration to Options.
func OptionsFromConfig(cfg types.RankConfig) Options {
	return Options{SemanticWeight: cfg.SemanticWeight, TopK: cfg.TopKPerSource}
}

// NewScorer builds the scorer selected in the configuration.
func NewScorer(cfg types.RankConfig) (Scorer, error) {
	switch cfg.Scorer {
	case "", types.ScorerLexical:
		return LexicalScorer{}, nil
	case types.ScorerOllama:
		return NewOllamaScorer(WithBaseURL(cfg.OllamaURL), WithModel(cfg.OllamaModel)), nil
	default:
		return nil, eris.Errorf("unknown scorer %q", cfg.Scorer)
	}
}

// PaperText is the text scored for a record: the title, followed by the
// abstract when the abstract is long enough to carry meaning.
func PaperText(r types.Record) string {
	title := r.String(types.FieldTitle)
	abstract := r.String(types.FieldAbstract)
	if len(abstract) > minAbstractLen {
		return title + ". " + abstract
	}
	return title
}

// Rank scores records against query and returns copies sorted by score,
// highest first. Records with equal scores keep their input order.
func Rank(ctx context.Context, records []types.Record, query string, scorer Scorer, opts Options) ([]types.Record, error) {
	if opts.SemanticWeight < 0 || opts.SemanticWeight > 1 {
		return nil, ErrInvalidWeight
	}
	if strings.TrimSpace(query) == "" {
		return nil, eris.New("rank query is empty")
	}
	if len(records) == 0 {
		return []types.Record{}, nil
	}

	texts := make([]string, len(records))
	maxCitations := 0.0
	for i, r := range records {
		texts[i] = PaperText(r)
		maxCitations = math.Max(maxCitations, r.Citations())
	}

	sims, err := scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, eris.Wrap(err, "scoring papers")
	}
	if len(sims) != len(records) {
		return nil, eris.Errorf("scorer returned %d scores for %d papers", len(sims), len(records))
	}

	out := make([]types.Record, len(records))
	for i, r := range records {
		impact := ImpactScore(r.Citations(), maxCitations)
		c := r.Clone()
		c[FieldSemanticScore] = sims[i]
		c[FieldImpactScore] = impact
		c[FieldScore] = opts.SemanticWeight*sims[i] + (1-opts.SemanticWeight)*impact
		out[i] = c
	}

	sort.SliceStable(out, func(i, j int) bool {
		return score(out[i]) > score(out[j])
	})
	if opts.TopK > 0 && len(out) > opts.TopK {
		out = out[:opts.TopK]
	}
	return out, nil
}

// RankPerSource ranks each source independently and keeps opts.TopK per source.
func RankPerSource(ctx context.Context, bySource types.BySource, query string, scorer Scorer, opts Options) (types.BySource, error) {
	out := make(types.BySource, len(bySource))
	for _, src := range types.OrderedSources(bySource) {
		ranked, err := Rank(ctx, bySource[src], query, scorer, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "ranking %s", src)
		}
		zap.L().Debug("ranked source",
			zap.String("source", string(src)),
			zap.Int("in", len(bySource[src])),
			zap.Int("kept", len(ranked)))
		out[src] = ranked
	}
	return out, nil
}

// ImpactScore normalizes a citation count to [0, 1] on a log scale.
func ImpactScore(citations, maxCitations float64) float64 {
	if maxCitations <= 0 || citations <= 0 {
		return 0
	}
	return math.Log1p(citations) / math.Log1p(maxCitations)
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// and zero vectors yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func score(r types.Record) float64 {
	f, _ := types.Float(r[FieldScore])
	return f
}
