package scoring

import (
	"github.com/respiratools/bars/internal/dataset"
	"github.com/respiratools/bars/internal/types"
)

// Component score values. Each of the three components and the final
// response score take one of these values.
const (
	ScoreInsufficient = 0
	ScorePartial      = 1
	ScoreGood         = 2
)

// Response score thresholds on the component mean.
const (
	goodResponseMean         = 1.5
	insufficientResponseMean = 0.5
)

// ACT thresholds.
const (
	actControlledFollowUp = 20
	actMinImportantChange = 6
	actNoChangeCeiling    = 3
)

// Reduction thresholds shared by the OCS and exacerbation components.
const (
	strongReductionRatio = 0.75
	weakReductionRatio   = 0.5
)

// ScoredRecord is a record with its BARS components attached.
type ScoredRecord struct {
	dataset.Record

	OCSScore          int
	ACTScore          int
	ExacerbationScore int
	ResponseMean      float64
	ResponseScore     int
}

// reductionComponent scores a dose-like variable where lower follow-up is
// better. Rules fire in order, first match wins; NaN fails every comparison
// except fu != 0, so rows with missing cells fall to the default.
func reductionComponent(bl, fu float64) int {
	ratio := (bl - fu) / bl
	switch {
	case fu == 0:
		return ScoreGood
	case bl > 0 && ratio >= strongReductionRatio:
		return ScoreGood
	case bl > 0 && ratio < weakReductionRatio:
		return ScoreInsufficient
	case bl == 0 && fu != 0:
		return ScoreInsufficient
	default:
		return ScorePartial
	}
}

// actComponent scores asthma control, where higher follow-up is better.
func actComponent(bl, fu float64) int {
	delta := fu - bl
	switch {
	case fu >= actControlledFollowUp:
		return ScoreGood
	case delta >= actMinImportantChange:
		return ScoreGood
	case delta < actNoChangeCeiling:
		return ScoreInsufficient
	default:
		return ScorePartial
	}
}

// responseScore buckets the component mean into the final BARS value.
func responseScore(mean float64) int {
	switch {
	case mean >= goodResponseMean:
		return ScoreGood
	case mean < insufficientResponseMean:
		return ScoreInsufficient
	default:
		return ScorePartial
	}
}

// ResponseLabel names a final response score.
func ResponseLabel(score int) string {
	switch score {
	case ScoreGood:
		return "good response"
	case ScoreInsufficient:
		return "insufficient response"
	default:
		return "partial response"
	}
}

// Score computes the BARS components for one record.
func Score(r dataset.Record) ScoredRecord {
	ocs := reductionComponent(r.OCSBaseline, r.OCSFollowUp)
	act := actComponent(r.ACTBaseline, r.ACTFollowUp)
	exa := reductionComponent(r.ExacerbationBaseline, r.ExacerbationFollowUp)

	mean := float64(ocs+act+exa) / 3

	return ScoredRecord{
		Record:            r,
		OCSScore:          ocs,
		ACTScore:          act,
		ExacerbationScore: exa,
		ResponseMean:      mean,
		ResponseScore:     responseScore(mean),
	}
}

// ScoreAll scores every record. Rows are independent; order is preserved.
func ScoreAll(records []dataset.Record) []ScoredRecord {
	scored := make([]ScoredRecord, len(records))
	for i, r := range records {
		scored[i] = Score(r)
	}
	return scored
}

// Row converts a scored record to its wire representation.
func (s ScoredRecord) Row() types.ScoredRow {
	return types.ScoredRow{
		PatientID:            s.PatientID,
		Treatment:            s.Treatment,
		OCSBaseline:          types.Float(s.OCSBaseline),
		OCSFollowUp:          types.Float(s.OCSFollowUp),
		ACTBaseline:          types.Float(s.ACTBaseline),
		ACTFollowUp:          types.Float(s.ACTFollowUp),
		ExacerbationBaseline: types.Float(s.ExacerbationBaseline),
		ExacerbationFollowUp: types.Float(s.ExacerbationFollowUp),
		OCSScore:             s.OCSScore,
		ACTScore:             s.ACTScore,
		ExacerbationScore:    s.ExacerbationScore,
		ResponseMean:         s.ResponseMean,
		ResponseScore:        s.ResponseScore,
		ResponseLabel:        ResponseLabel(s.ResponseScore),
	}
}

// Rows converts scored records to their wire representation.
func Rows(scored []ScoredRecord) []types.ScoredRow {
	rows := make([]types.ScoredRow, len(scored))
	for i, s := range scored {
		rows[i] = s.Row()
	}
	return rows
}

// ResponseCounts tallies patients per response label.
func ResponseCounts(scored []ScoredRecord) map[string]int {
	counts := make(map[string]int, 3)
	for _, s := range scored {
		counts[ResponseLabel(s.ResponseScore)]++
	}
	return counts
}
