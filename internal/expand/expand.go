// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package expand grows a seed collection with the papers that cite it.
// Citing papers are deduplicated against the seeds with one Deduplicator,
// so a citing paper that is already a seed is never added twice.
package expand

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litsweep/internal/dedup"
	"github.com/pdiddy/litsweep/pkg/types"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxTotal      = 100
	DefaultPerPaperLimit = 20
	DefaultMaxSeeds      = 20
)

// Citer fetches the papers citing a seed paper.
type Citer interface {
	Name() types.Source

	// CitedBy returns up to limit papers citing the paper with the given id.
	CitedBy(ctx context.Context, id string, limit int) ([]types.Record, error)

	// Accepts reports whether the record is a seed this citer can expand,
	// returning the id to pass to CitedBy.
	Accepts(r types.Record) (string, bool)
}

// Options controls an expansion run.
type Options struct {
	// MaxTotal caps seeds plus new papers. Seeds are kept first.
	MaxTotal int

	// PerPaperLimit caps citing papers fetched per seed.
	PerPaperLimit int

	// MaxSeeds caps the seeds expanded by each citer.
	MaxSeeds int

	// Dedup configures the deduplicator run over seeds and citing papers.
	// The zero value selects the exact stages with the default threshold.
	Dedup types.DedupConfig
}

// OptionsFromConfig maps the expand and dedup configuration to Options.
func OptionsFromConfig(cfg types.ExpandConfig, dc types.DedupConfig) Options {
	return Options{
		MaxTotal:      cfg.MaxTotal,
		PerPaperLimit: cfg.PerPaperLimit,
		MaxSeeds:      cfg.MaxSeeds,
		Dedup:         dc,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxTotal <= 0 {
		o.MaxTotal = DefaultMaxTotal
	}
	if o.PerPaperLimit <= 0 {
		o.PerPaperLimit = DefaultPerPaperLimit
	}
	if o.MaxSeeds <= 0 {
		o.MaxSeeds = DefaultMaxSeeds
	}
	if o.Dedup == (types.DedupConfig{}) {
		o.Dedup = dedup.DefaultConfig()
	}
	return o
}

// Result is the outcome of an expansion.
type Result struct {
	// Records holds the unique seeds followed by the new citing papers.
	Records []types.Record `json:"records"`

	Seeds     int `json:"seeds"`
	Fetched   int `json:"fetched"`
	NewPapers int `json:"new_papers"`

	// PerCiter counts the citing papers each citer contributed before dedup.
	PerCiter map[types.Source]int `json:"per_citer"`

	Dedup dedup.Stats `json:"dedup"`
}

// Expand fetches citing papers for the seeds each citer accepts. A failure
// on one seed is logged and skipped; only context cancellation aborts.
func Expand(ctx context.Context, seeds []types.Record, citers []Citer, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if len(citers) == 0 {
		return Result{}, eris.New("no citers configured")
	}
	d, err := dedup.FromConfig(opts.Dedup)
	if err != nil {
		return Result{}, eris.Wrap(err, "creating deduplicator")
	}
	budget := opts.MaxTotal / len(citers)

	fetched := make([][]types.Record, len(citers))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range citers {
		g.Go(func() error {
			recs, err := expandOne(gctx, c, seeds, opts, budget)
			fetched[i] = recs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{PerCiter: make(map[types.Source]int, len(citers))}
	var expanded []types.Record
	for i, c := range citers {
		res.PerCiter[c.Name()] += len(fetched[i])
		expanded = append(expanded, fetched[i]...)
	}
	res.Fetched = len(expanded)

	aggressive := opts.Dedup.Aggressive
	uniqueSeeds, _ := d.Deduplicate(seeds, aggressive)
	newPapers, _ := d.Deduplicate(expanded, aggressive)

	records := make([]types.Record, 0, len(uniqueSeeds)+len(newPapers))
	records = append(records, uniqueSeeds...)
	records = append(records, newPapers...)
	if len(records) > opts.MaxTotal {
		records = records[:opts.MaxTotal]
	}

	res.Records = records
	res.Seeds = len(uniqueSeeds)
	res.NewPapers = len(records) - min(len(uniqueSeeds), len(records))
	res.Dedup = d.Stats()

	zap.L().Info("citation expansion finished",
		zap.Int("seeds", res.Seeds),
		zap.Int("fetched", res.Fetched),
		zap.Int("new", res.NewPapers),
		zap.Int("total", len(records)))
	return res, nil
}

// expandOne returns up to budget distinct citing papers for one citer.
func expandOne(ctx context.Context, c Citer, seeds []types.Record, opts Options, budget int) ([]types.Record, error) {
	var ids []string
	for _, s := range seeds {
		if id, ok := c.Accepts(s); ok {
			ids = append(ids, id)
		}
		if len(ids) == opts.MaxSeeds {
			break
		}
	}
	log := zap.L().With(zap.String("citer", string(c.Name())))
	log.Info("expanding seeds", zap.Int("seeds", len(ids)))

	var out []types.Record
	seen := make(map[string]struct{})
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "expansion cancelled")
		}
		citing, err := c.CitedBy(ctx, id, opts.PerPaperLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "expansion cancelled")
			}
			log.Warn("cited-by lookup failed", zap.String("seed", id), zap.Error(err))
			continue
		}
		for _, r := range citing {
			rid, ok := citingID(r)
			if !ok {
				log.Debug("citing paper without id skipped", zap.String("seed", id))
				continue
			}
			if _, dup := seen[rid]; dup {
				continue
			}
			seen[rid] = struct{}{}
			r = r.Clone()
			r[types.FieldSeedSource] = string(c.Name())
			out = append(out, r)
		}
	}
	log.Info("citing papers found", zap.Int("count", len(out)), zap.Int("budget", budget))
	if len(out) > budget {
		out = out[:budget]
	}
	return out, nil
}

// citingID returns the id of a citing paper. Papers without one cannot be
// told apart and are skipped.
func citingID(r types.Record) (string, bool) {
	if v, ok := r[types.FieldID]; !ok || v == nil {
		return "", false
	}
	id := strings.TrimSpace(r.ID())
	return id, id != ""
}
