package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/respiratools/bars/internal/dataset"
	"github.com/respiratools/bars/internal/types"
)

// GroupMeansByTreatment computes the per-treatment baseline and follow-up
// means of one variable. Rows where either side of the pair is missing are
// dropped, and groups are sorted by baseline mean ascending.
func GroupMeansByTreatment(records []dataset.Record, v dataset.Variable) []types.GroupMean {
	type pair struct{ bl, fu []float64 }
	groups := make(map[string]*pair)

	for _, r := range records {
		bl, fu := v.Values(r)
		if math.IsNaN(bl) || math.IsNaN(fu) {
			continue
		}
		g, ok := groups[r.Treatment]
		if !ok {
			g = &pair{}
			groups[r.Treatment] = g
		}
		g.bl = append(g.bl, bl)
		g.fu = append(g.fu, fu)
	}

	means := make([]types.GroupMean, 0, len(groups))
	for treatment, g := range groups {
		blMean := stat.Mean(g.bl, nil)
		fuMean := stat.Mean(g.fu, nil)
		means = append(means, types.GroupMean{
			Treatment: treatment,
			Baseline:  blMean,
			FollowUp:  fuMean,
			Delta:     fuMean - blMean,
			N:         len(g.bl),
		})
	}

	sort.Slice(means, func(i, j int) bool {
		if means[i].Baseline != means[j].Baseline {
			return means[i].Baseline < means[j].Baseline
		}
		return means[i].Treatment < means[j].Treatment
	})

	return means
}

// AllGroupMeans computes group means for every variable.
func AllGroupMeans(records []dataset.Record) map[string][]types.GroupMean {
	out := make(map[string][]types.GroupMean, len(dataset.Variables))
	for _, v := range dataset.Variables {
		out[string(v)] = GroupMeansByTreatment(records, v)
	}
	return out
}

// Describe computes the descriptive statistics of a sample, ignoring NaN.
// An empty sample yields NaN statistics, which marshal as JSON null.
func Describe(values []float64) types.VariableStats {
	finite := Finite(values)
	if len(finite) == 0 {
		nan := types.Float(math.NaN())
		return types.VariableStats{Count: 0, Mean: nan, Median: nan, Q1: nan, Q3: nan, Min: nan, Max: nan}
	}

	sorted := make([]float64, len(finite))
	copy(sorted, finite)
	sort.Float64s(sorted)

	return types.VariableStats{
		Count:  len(sorted),
		Mean:   types.Float(stat.Mean(sorted, nil)),
		Median: types.Float(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
		Q1:     types.Float(stat.Quantile(0.25, stat.Empirical, sorted, nil)),
		Q3:     types.Float(stat.Quantile(0.75, stat.Empirical, sorted, nil)),
		Min:    types.Float(sorted[0]),
		Max:    types.Float(sorted[len(sorted)-1]),
	}
}

// AllStats computes descriptive statistics for every variable at both
// timepoints, keyed "<variable>.<BL|FU>".
func AllStats(records []dataset.Record) map[string]types.VariableStats {
	out := make(map[string]types.VariableStats, 2*len(dataset.Variables))
	for _, v := range dataset.Variables {
		bl := make([]float64, 0, len(records))
		fu := make([]float64, 0, len(records))
		for _, r := range records {
			b, f := v.Values(r)
			bl = append(bl, b)
			fu = append(fu, f)
		}
		out[string(v)+".BL"] = Describe(bl)
		out[string(v)+".FU"] = Describe(fu)
	}
	return out
}

// Finite filters out NaN and infinite values.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// VariableSamples collects the baseline and follow-up samples of one
// variable across all records, NaN preserved.
func VariableSamples(records []dataset.Record, v dataset.Variable) (bl, fu []float64) {
	bl = make([]float64, 0, len(records))
	fu = make([]float64, 0, len(records))
	for _, r := range records {
		b, f := v.Values(r)
		bl = append(bl, b)
		fu = append(fu, f)
	}
	return bl, fu
}
