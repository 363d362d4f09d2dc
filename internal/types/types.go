package types

import (
	"encoding/json"
	"math"
)

// Float is a float64 that marshals NaN and infinities as JSON null, matching
// how missing measurements propagate through the scoring rules.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// ScoreRequest carries a pasted table as raw cells. Each row maps a column
// header to the cell text; coercion happens in the dataset package so the
// paste path and the file upload path behave identically.
type ScoreRequest struct {
	Rows []map[string]string `json:"rows" binding:"required"`

	// RenderCharts controls whether the response includes the chart set.
	RenderCharts bool `json:"render_charts"`
}

// ScoredRow echoes the input measurements together with the computed
// component scores. JSON keys match the input column names so the
// exported table round-trips.
type ScoredRow struct {
	PatientID string `json:"Patient ID"`
	Treatment string `json:"Treatment"`

	OCSBaseline          Float `json:"OCS_BL"`
	OCSFollowUp          Float `json:"OCS_FU"`
	ACTBaseline          Float `json:"ACT_BL"`
	ACTFollowUp          Float `json:"ACT_FU"`
	ExacerbationBaseline Float `json:"Exacerbation_BL"`
	ExacerbationFollowUp Float `json:"Exacerbation_FU"`

	OCSScore          int     `json:"OCS_score"`
	ACTScore          int     `json:"ACT_score"`
	ExacerbationScore int     `json:"Exacerbation_score"`
	ResponseMean      float64 `json:"Response_mean"`
	ResponseScore     int     `json:"Response_score"`
	ResponseLabel     string  `json:"Response_label"`
}

// GroupMean is the mean of one variable within a treatment group at
// baseline and follow-up. Feeds the slope charts.
type GroupMean struct {
	Treatment string  `json:"treatment"`
	Baseline  float64 `json:"baseline"`
	FollowUp  float64 `json:"follow_up"`
	Delta     float64 `json:"delta"`
	N         int     `json:"n"`
}

// VariableStats are the descriptive statistics behind a boxplot.
type VariableStats struct {
	Count  int   `json:"count"`
	Mean   Float `json:"mean"`
	Median Float `json:"median"`
	Q1     Float `json:"q1"`
	Q3     Float `json:"q3"`
	Min    Float `json:"min"`
	Max    Float `json:"max"`
}

// ScoreResponse is the full result of scoring one submitted table.
type ScoreResponse struct {
	Rows []ScoredRow `json:"rows"`

	// ResponseCounts maps the response label to patient count.
	ResponseCounts map[string]int `json:"response_counts"`

	// GroupMeans maps variable name (OCS, ACT, Exacerbation) to per-treatment
	// means sorted by baseline mean.
	GroupMeans map[string][]GroupMean `json:"group_means"`

	// Stats maps "<variable>.<BL|FU>" to descriptive statistics.
	Stats map[string]VariableStats `json:"stats"`

	// Charts maps chart name to a base64-encoded PNG when chart rendering
	// was requested.
	Charts map[string]string `json:"charts,omitempty"`
}
