package dataset

// Required column headers, case-sensitive, in template order.
const (
	ColPatientID      = "Patient ID"
	ColOCSBaseline    = "OCS_BL"
	ColACTBaseline    = "ACT_BL"
	ColExaBaseline    = "Exacerbation_BL"
	ColTreatment      = "Treatment"
	ColOCSFollowUp    = "OCS_FU"
	ColACTFollowUp    = "ACT_FU"
	ColExaFollowUp    = "Exacerbation_FU"
)

// TemplateColumns is the header row of the blank input template.
var TemplateColumns = []string{
	ColPatientID,
	ColOCSBaseline,
	ColACTBaseline,
	ColExaBaseline,
	ColTreatment,
	ColOCSFollowUp,
	ColACTFollowUp,
	ColExaFollowUp,
}

// Variable identifies one of the three measurement pairs.
type Variable string

const (
	VarOCS          Variable = "OCS"
	VarACT          Variable = "ACT"
	VarExacerbation Variable = "Exacerbation"
)

// Variables lists the measurement pairs in chart order.
var Variables = []Variable{VarOCS, VarACT, VarExacerbation}

// Values returns the baseline and follow-up measurement of the variable
// for one record.
func (v Variable) Values(r Record) (bl, fu float64) {
	switch v {
	case VarOCS:
		return r.OCSBaseline, r.OCSFollowUp
	case VarACT:
		return r.ACTBaseline, r.ACTFollowUp
	case VarExacerbation:
		return r.ExacerbationBaseline, r.ExacerbationFollowUp
	}
	return 0, 0
}
