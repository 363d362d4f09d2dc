package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/respiratools/bars/internal/dataset"
)

func TestGroupMeansByTreatment(t *testing.T) {
	records := []dataset.Record{
		{Treatment: "Dupilumab", OCSBaseline: 10, OCSFollowUp: 2},
		{Treatment: "Dupilumab", OCSBaseline: 20, OCSFollowUp: 4},
		{Treatment: "Mepolizumab", OCSBaseline: 5, OCSFollowUp: 5},
		// Incomplete pair, dropped from the group means.
		{Treatment: "Mepolizumab", OCSBaseline: math.NaN(), OCSFollowUp: 3},
	}

	means := GroupMeansByTreatment(records, dataset.VarOCS)
	assert.Len(t, means, 2)

	// Sorted by baseline mean ascending.
	assert.Equal(t, "Mepolizumab", means[0].Treatment)
	assert.Equal(t, 5.0, means[0].Baseline)
	assert.Equal(t, 5.0, means[0].FollowUp)
	assert.Equal(t, 0.0, means[0].Delta)
	assert.Equal(t, 1, means[0].N)

	assert.Equal(t, "Dupilumab", means[1].Treatment)
	assert.Equal(t, 15.0, means[1].Baseline)
	assert.Equal(t, 3.0, means[1].FollowUp)
	assert.Equal(t, -12.0, means[1].Delta)
	assert.Equal(t, 2, means[1].N)
}

func TestGroupMeansByTreatmentAllMissing(t *testing.T) {
	records := []dataset.Record{
		{Treatment: "Dupilumab", OCSBaseline: math.NaN(), OCSFollowUp: math.NaN()},
	}
	assert.Empty(t, GroupMeansByTreatment(records, dataset.VarOCS))
}

func TestAllGroupMeansCoversEveryVariable(t *testing.T) {
	records := []dataset.Record{
		{Treatment: "Dupilumab", OCSBaseline: 10, OCSFollowUp: 2, ACTBaseline: 12, ACTFollowUp: 20, ExacerbationBaseline: 3, ExacerbationFollowUp: 1},
	}

	all := AllGroupMeans(records)
	assert.Len(t, all, 3)
	for _, v := range dataset.Variables {
		assert.Contains(t, all, string(v))
		assert.Len(t, all[string(v)], 1)
	}
}

func TestDescribe(t *testing.T) {
	stats := Describe([]float64{4, 1, 3, 2, math.NaN()})

	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, 2.5, float64(stats.Mean))
	assert.Equal(t, 1.0, float64(stats.Min))
	assert.Equal(t, 4.0, float64(stats.Max))
	assert.GreaterOrEqual(t, float64(stats.Median), float64(stats.Q1))
	assert.GreaterOrEqual(t, float64(stats.Q3), float64(stats.Median))
}

func TestDescribeEmptySample(t *testing.T) {
	stats := Describe([]float64{math.NaN(), math.Inf(1)})

	assert.Zero(t, stats.Count)
	assert.True(t, math.IsNaN(float64(stats.Mean)))
	assert.True(t, math.IsNaN(float64(stats.Median)))
}

func TestAllStatsKeys(t *testing.T) {
	records := []dataset.Record{
		{OCSBaseline: 1, OCSFollowUp: 2, ACTBaseline: 3, ACTFollowUp: 4, ExacerbationBaseline: 5, ExacerbationFollowUp: 6},
	}

	stats := AllStats(records)
	for _, key := range []string{"OCS.BL", "OCS.FU", "ACT.BL", "ACT.FU", "Exacerbation.BL", "Exacerbation.FU"} {
		assert.Contains(t, stats, key)
		assert.Equal(t, 1, stats[key].Count)
	}
}

func TestFinite(t *testing.T) {
	out := Finite([]float64{1, math.NaN(), 2, math.Inf(1), math.Inf(-1), 3})
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestVariableSamplesPreservesNaN(t *testing.T) {
	records := []dataset.Record{
		{ACTBaseline: 10, ACTFollowUp: math.NaN()},
		{ACTBaseline: 12, ACTFollowUp: 20},
	}

	bl, fu := VariableSamples(records, dataset.VarACT)
	assert.Equal(t, []float64{10, 12}, bl)
	assert.Len(t, fu, 2)
	assert.True(t, math.IsNaN(fu[0]))
	assert.Equal(t, 20.0, fu[1])
}
