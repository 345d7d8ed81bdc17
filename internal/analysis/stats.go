// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis computes descriptive statistics over a paper collection:
// distributions of numeric fields, value frequencies, correlations, group
// comparisons, publication trends, and the citation network. Results are
// plain structs meant to be written as JSON for later interpretation.
package analysis

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/litsweep/internal/dedup"
	"github.com/pdiddy/litsweep/pkg/types"
)

const (
	histogramBins = 10
	maxOutliers   = 20

	// maxAllValues bounds the full value table returned by Frequency.
	maxAllValues = 100

	// UnknownGroup labels records without a group value.
	UnknownGroup = "Unknown"
)

var (
	// ErrNoValues is returned when no record carries a numeric value for the field.
	ErrNoValues = eris.New("no numeric values for field")

	// ErrNotEnoughData is returned when fewer than two pairs are available.
	ErrNotEnoughData = eris.New("not enough data points for correlation")
)

// Bin is one histogram bucket covering [Range[0], Range[1]).
type Bin struct {
	Bin   int        `json:"bin"`
	Range [2]float64 `json:"range"`
	Count int        `json:"count"`
}

// Outliers lists values outside 1.5 IQR of the quartiles.
type Outliers struct {
	Count  int       `json:"count"`
	Values []float64 `json:"values"`
}

// Distribution summarizes a numeric field.
type Distribution struct {
	Field     string   `json:"field"`
	Count     int      `json:"count"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	Mean      float64  `json:"mean"`
	Median    float64  `json:"median"`
	Std       float64  `json:"std"`
	Q1        float64  `json:"q1"`
	Q3        float64  `json:"q3"`
	Histogram []Bin    `json:"histogram"`
	Outliers  Outliers `json:"outliers"`
}

// NewDistribution computes the distribution of field across records.
// Non-numeric values are ignored. Std is the sample standard deviation
// and is zero for a single value.
func NewDistribution(records []types.Record, field string) (Distribution, error) {
	values := numericValues(records, field)
	if len(values) == 0 {
		return Distribution{}, eris.Wrapf(ErrNoValues, "field %q", field)
	}
	sort.Float64s(values)
	n := len(values)

	d := Distribution{
		Field:  field,
		Count:  n,
		Min:    values[0],
		Max:    values[n-1],
		Mean:   mean(values),
		Median: values[n/2],
		Q1:     values[n/4],
		Q3:     values[3*n/4],
	}
	if n > 1 {
		var ss float64
		for _, v := range values {
			ss += (v - d.Mean) * (v - d.Mean)
		}
		d.Std = math.Sqrt(ss / float64(n-1))
	}
	d.Histogram = histogram(values, d.Min, d.Max)

	iqr := d.Q3 - d.Q1
	lower, upper := d.Q1-1.5*iqr, d.Q3+1.5*iqr
	d.Outliers.Values = []float64{}
	for _, v := range values {
		if v < lower || v > upper {
			d.Outliers.Count++
			if len(d.Outliers.Values) < maxOutliers {
				d.Outliers.Values = append(d.Outliers.Values, v)
			}
		}
	}
	return d, nil
}

// histogram buckets sorted values into equal-width bins. The maximum falls
// into the last bin; when all values are equal they share the first.
func histogram(values []float64, lo, hi float64) []Bin {
	width := (hi - lo) / histogramBins
	bins := make([]Bin, histogramBins)
	for i := range bins {
		bins[i] = Bin{Bin: i, Range: [2]float64{lo + float64(i)*width, lo + float64(i+1)*width}}
	}
	for _, v := range values {
		i := 0
		if width > 0 {
			i = min(int((v-lo)/width), histogramBins-1)
		}
		bins[i].Count++
	}
	return bins
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Frequency is the value table of a categorical field.
type Frequency struct {
	Field       string         `json:"field"`
	TotalUnique int            `json:"total_unique"`
	TopValues   []ValueCount   `json:"top_values"`
	AllValues   map[string]int `json:"all_values,omitempty"`
	Truncated   bool           `json:"truncated,omitempty"`
}

// NewFrequency counts the values of field. List-valued fields count each
// element; author mappings count by name. Ties keep first-seen order.
func NewFrequency(records []types.Record, field string, topN int) Frequency {
	counts := make(map[string]int)
	var order []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	for _, r := range records {
		if list := r.List(field); list != nil {
			for _, item := range list {
				add(dedup.ParseAuthor(item).Name())
			}
			continue
		}
		add(r.String(field))
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if topN <= 0 || topN > len(order) {
		topN = len(order)
	}
	f := Frequency{Field: field, TotalUnique: len(order), TopValues: make([]ValueCount, 0, topN)}
	for _, v := range order[:topN] {
		f.TopValues = append(f.TopValues, ValueCount{Value: v, Count: counts[v]})
	}
	if len(counts) <= maxAllValues {
		f.AllValues = counts
	} else {
		f.Truncated = true
	}
	return f
}

// Correlation is a Pearson correlation between two numeric fields.
type Correlation struct {
	Field1         string  `json:"field1"`
	Field2         string  `json:"field2"`
	R              float64 `json:"correlation"`
	N              int     `json:"n"`
	Interpretation string  `json:"interpretation"`
}

// NewCorrelation computes Pearson's r over records where both fields are
// numeric. r is rounded to three decimals; zero variance yields 0.
func NewCorrelation(records []types.Record, field1, field2 string) (Correlation, error) {
	var xs, ys []float64
	for _, r := range records {
		x, ok1 := r.Number(field1)
		y, ok2 := r.Number(field2)
		if ok1 && ok2 {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return Correlation{}, eris.Wrapf(ErrNotEnoughData, "%s vs %s", field1, field2)
	}

	mx, my := mean(xs), mean(ys)
	var num, dx, dy float64
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
		dx += (xs[i] - mx) * (xs[i] - mx)
		dy += (ys[i] - my) * (ys[i] - my)
	}
	r := 0.0
	if den := math.Sqrt(dx) * math.Sqrt(dy); den > 0 {
		r = num / den
	}
	return Correlation{
		Field1:         field1,
		Field2:         field2,
		R:              math.Round(r*1000) / 1000,
		N:              len(xs),
		Interpretation: InterpretCorrelation(r),
	}, nil
}

// InterpretCorrelation describes the strength and direction of r.
func InterpretCorrelation(r float64) string {
	var strength string
	switch a := math.Abs(r); {
	case a >= 0.7:
		strength = "strong"
	case a >= 0.4:
		strength = "moderate"
	case a >= 0.2:
		strength = "weak"
	default:
		strength = "very weak"
	}
	direction := "negative"
	if r > 0 {
		direction = "positive"
	}
	return strength + " " + direction + " correlation"
}

// GroupStats summarizes a metric within one group.
type GroupStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Comparison is a metric broken down by a grouping field.
type Comparison struct {
	GroupField  string                `json:"group_field"`
	MetricField string                `json:"metric_field"`
	Groups      map[string]GroupStats `json:"groups"`
	TotalGroups int                   `json:"total_groups"`
}

// CompareGroups summarizes metricField per value of groupField. A missing
// metric counts as zero; a present non-numeric metric is skipped.
func CompareGroups(records []types.Record, groupField, metricField string) Comparison {
	values := make(map[string][]float64)
	for _, r := range records {
		group := r.String(groupField)
		if group == "" {
			group = UnknownGroup
		}
		raw, present := r[metricField]
		if !present || raw == nil {
			values[group] = append(values[group], 0)
			continue
		}
		if v, ok := types.Float(raw); ok {
			values[group] = append(values[group], v)
		}
	}

	c := Comparison{GroupField: groupField, MetricField: metricField, Groups: make(map[string]GroupStats)}
	for group, vs := range values {
		if len(vs) == 0 {
			continue
		}
		sort.Float64s(vs)
		c.Groups[group] = GroupStats{
			Count:  len(vs),
			Mean:   mean(vs),
			Median: vs[len(vs)/2],
			Min:    vs[0],
			Max:    vs[len(vs)-1],
		}
	}
	c.TotalGroups = len(c.Groups)
	return c
}

func numericValues(records []types.Record, field string) []float64 {
	var out []float64
	for _, r := range records {
		if v, ok := r.Number(field); ok {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
