package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/respiratools/bars/internal/dataset"
)

var nan = math.NaN()

func TestReductionComponent(t *testing.T) {
	tests := []struct {
		name     string
		bl, fu   float64
		expected int
	}{
		{
			name:     "follow-up zero is good even from zero baseline",
			bl:       0,
			fu:       0,
			expected: ScoreGood,
		},
		{
			name:     "follow-up zero is good from positive baseline",
			bl:       10,
			fu:       0,
			expected: ScoreGood,
		},
		{
			name:     "reduction of 75 percent or more is good",
			bl:       10,
			fu:       2.5,
			expected: ScoreGood,
		},
		{
			name:     "reduction above 75 percent is good",
			bl:       8,
			fu:       1,
			expected: ScoreGood,
		},
		{
			name:     "reduction below 50 percent is insufficient",
			bl:       10,
			fu:       6,
			expected: ScoreInsufficient,
		},
		{
			name:     "worsening is insufficient",
			bl:       4,
			fu:       8,
			expected: ScoreInsufficient,
		},
		{
			name:     "reduction between 50 and 75 percent is partial",
			bl:       10,
			fu:       4,
			expected: ScorePartial,
		},
		{
			name:     "reduction of exactly 50 percent is partial",
			bl:       10,
			fu:       5,
			expected: ScorePartial,
		},
		{
			name:     "new use from zero baseline is insufficient",
			bl:       0,
			fu:       3,
			expected: ScoreInsufficient,
		},
		{
			name:     "missing both sides falls to partial",
			bl:       nan,
			fu:       nan,
			expected: ScorePartial,
		},
		{
			name:     "missing follow-up with positive baseline falls to partial",
			bl:       10,
			fu:       nan,
			expected: ScorePartial,
		},
		{
			name:     "missing follow-up with zero baseline is insufficient",
			bl:       0,
			fu:       nan,
			expected: ScoreInsufficient,
		},
		{
			name:     "missing baseline with zero follow-up is good",
			bl:       nan,
			fu:       0,
			expected: ScoreGood,
		},
		{
			name:     "missing baseline with positive follow-up falls to partial",
			bl:       nan,
			fu:       4,
			expected: ScorePartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reductionComponent(tt.bl, tt.fu))
		})
	}
}

func TestACTComponent(t *testing.T) {
	tests := []struct {
		name     string
		bl, fu   float64
		expected int
	}{
		{
			name:     "controlled follow-up is good regardless of change",
			bl:       19,
			fu:       20,
			expected: ScoreGood,
		},
		{
			name:     "controlled follow-up is good even when score dropped",
			bl:       25,
			fu:       21,
			expected: ScoreGood,
		},
		{
			name:     "improvement of six points is good",
			bl:       10,
			fu:       16,
			expected: ScoreGood,
		},
		{
			name:     "improvement under three points is insufficient",
			bl:       10,
			fu:       12,
			expected: ScoreInsufficient,
		},
		{
			name:     "decline is insufficient",
			bl:       15,
			fu:       12,
			expected: ScoreInsufficient,
		},
		{
			name:     "improvement of three points is partial",
			bl:       10,
			fu:       13,
			expected: ScorePartial,
		},
		{
			name:     "improvement of five points is partial",
			bl:       10,
			fu:       15,
			expected: ScorePartial,
		},
		{
			name:     "missing follow-up falls to partial",
			bl:       10,
			fu:       nan,
			expected: ScorePartial,
		},
		{
			name:     "missing baseline with controlled follow-up is good",
			bl:       nan,
			fu:       22,
			expected: ScoreGood,
		},
		{
			name:     "missing baseline with uncontrolled follow-up falls to partial",
			bl:       nan,
			fu:       15,
			expected: ScorePartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, actComponent(tt.bl, tt.fu))
		})
	}
}

func TestResponseScore(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		expected int
	}{
		{name: "mean of two is good", mean: 2, expected: ScoreGood},
		{name: "mean at good threshold is good", mean: 1.5, expected: ScoreGood},
		{name: "mean just below good threshold is partial", mean: 4.0 / 3.0, expected: ScorePartial},
		{name: "mean at insufficient threshold is partial", mean: 0.5, expected: ScorePartial},
		{name: "mean below insufficient threshold is insufficient", mean: 1.0 / 3.0, expected: ScoreInsufficient},
		{name: "mean of zero is insufficient", mean: 0, expected: ScoreInsufficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, responseScore(tt.mean))
		})
	}
}

func TestResponseLabel(t *testing.T) {
	assert.Equal(t, "good response", ResponseLabel(ScoreGood))
	assert.Equal(t, "partial response", ResponseLabel(ScorePartial))
	assert.Equal(t, "insufficient response", ResponseLabel(ScoreInsufficient))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		record       dataset.Record
		ocs, act, ex int
		mean         float64
		response     int
	}{
		{
			name: "good responder across all components",
			record: dataset.Record{
				PatientID:            "P001",
				Treatment:            "Dupilumab",
				OCSBaseline:          10,
				OCSFollowUp:          0,
				ACTBaseline:          14,
				ACTFollowUp:          22,
				ExacerbationBaseline: 4,
				ExacerbationFollowUp: 0,
			},
			ocs: 2, act: 2, ex: 2,
			mean:     2,
			response: ScoreGood,
		},
		{
			name: "weak components land on insufficient",
			record: dataset.Record{
				PatientID:            "P002",
				Treatment:            "Mepolizumab",
				OCSBaseline:          10,
				OCSFollowUp:          4,
				ACTBaseline:          12,
				ACTFollowUp:          13,
				ExacerbationBaseline: 2,
				ExacerbationFollowUp: 2,
			},
			ocs: 1, act: 0, ex: 0,
			mean:     1.0 / 3.0,
			response: ScoreInsufficient,
		},
		{
			name: "missing measurements default their components to partial",
			record: dataset.Record{
				PatientID:            "P003",
				Treatment:            "Benralizumab",
				OCSBaseline:          nan,
				OCSFollowUp:          nan,
				ACTBaseline:          nan,
				ACTFollowUp:          nan,
				ExacerbationBaseline: nan,
				ExacerbationFollowUp: nan,
			},
			ocs: 1, act: 1, ex: 1,
			mean:     1,
			response: ScorePartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := Score(tt.record)
			assert.Equal(t, tt.ocs, scored.OCSScore)
			assert.Equal(t, tt.act, scored.ACTScore)
			assert.Equal(t, tt.ex, scored.ExacerbationScore)
			assert.InDelta(t, tt.mean, scored.ResponseMean, 1e-12)
			assert.Equal(t, tt.response, scored.ResponseScore)
		})
	}
}

func TestScoreAllPreservesOrder(t *testing.T) {
	records := []dataset.Record{
		{PatientID: "A", OCSFollowUp: 0, ACTFollowUp: 22, ExacerbationFollowUp: 0},
		{PatientID: "B", OCSBaseline: 10, OCSFollowUp: 9, ACTBaseline: 15, ACTFollowUp: 10, ExacerbationBaseline: 2, ExacerbationFollowUp: 4},
	}

	scored := ScoreAll(records)
	assert.Len(t, scored, 2)
	assert.Equal(t, "A", scored[0].PatientID)
	assert.Equal(t, "B", scored[1].PatientID)
	assert.Equal(t, ScoreGood, scored[0].ResponseScore)
	assert.Equal(t, ScoreInsufficient, scored[1].ResponseScore)
}

func TestResponseCounts(t *testing.T) {
	records := []dataset.Record{
		{PatientID: "A", OCSFollowUp: 0, ACTFollowUp: 22, ExacerbationFollowUp: 0},
		{PatientID: "B", OCSFollowUp: 0, ACTFollowUp: 25, ExacerbationFollowUp: 0},
		{PatientID: "C", OCSBaseline: 10, OCSFollowUp: 9, ACTBaseline: 15, ACTFollowUp: 10, ExacerbationBaseline: 2, ExacerbationFollowUp: 4},
	}

	counts := ResponseCounts(ScoreAll(records))
	assert.Equal(t, 2, counts["good response"])
	assert.Equal(t, 1, counts["insufficient response"])
	assert.Zero(t, counts["partial response"])
}

func TestScoredRecordRow(t *testing.T) {
	scored := Score(dataset.Record{
		PatientID:            "P010",
		Treatment:            "Omalizumab",
		OCSBaseline:          8,
		OCSFollowUp:          0,
		ACTBaseline:          12,
		ACTFollowUp:          20,
		ExacerbationBaseline: 3,
		ExacerbationFollowUp: 0,
	})

	row := scored.Row()
	assert.Equal(t, "P010", row.PatientID)
	assert.Equal(t, "Omalizumab", row.Treatment)
	assert.Equal(t, 2, row.OCSScore)
	assert.Equal(t, 2, row.ACTScore)
	assert.Equal(t, 2, row.ExacerbationScore)
	assert.Equal(t, "good response", row.ResponseLabel)
}
