package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/respiratools/bars/internal/types"
)

// scoredHeader is the exported table header: the input columns followed by
// the computed score columns.
var scoredHeader = []string{
	"Patient ID",
	"OCS_BL", "ACT_BL", "Exacerbation_BL",
	"Treatment",
	"OCS_FU", "ACT_FU", "Exacerbation_FU",
	"OCS_score", "ACT_score", "Exacerbation_score",
	"Response_mean", "Response_score", "Response_label",
}

// WriteScoredCSV writes the scored table. Missing measurements are blank
// cells.
func WriteScoredCSV(w io.Writer, rows []types.ScoredRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scoredHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		record := []string{
			row.PatientID,
			num(float64(row.OCSBaseline)),
			num(float64(row.ACTBaseline)),
			num(float64(row.ExacerbationBaseline)),
			row.Treatment,
			num(float64(row.OCSFollowUp)),
			num(float64(row.ACTFollowUp)),
			num(float64(row.ExacerbationFollowUp)),
			strconv.Itoa(row.OCSScore),
			strconv.Itoa(row.ACTScore),
			strconv.Itoa(row.ExacerbationScore),
			strconv.FormatFloat(row.ResponseMean, 'f', 2, 64),
			strconv.Itoa(row.ResponseScore),
			row.ResponseLabel,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
