package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Record is one patient observation with measurements coerced to float64.
// Missing or non-numeric cells are NaN; the scoring rules rely on IEEE
// comparison semantics to route such rows to the per-component default.
type Record struct {
	PatientID string
	Treatment string

	OCSBaseline          float64
	OCSFollowUp          float64
	ACTBaseline          float64
	ACTFollowUp          float64
	ExacerbationBaseline float64
	ExacerbationFollowUp float64
}

// Limits caps the accepted input size.
type Limits struct {
	MaxRows int
}

// DefaultLimits returns the default input caps.
func DefaultLimits() Limits {
	return Limits{MaxRows: 10000}
}

// MissingColumnsError reports required columns absent from the input header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// ParseCSV reads a comma-separated table with a header row.
func ParseCSV(r io.Reader, limits Limits) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
		if limits.MaxRows > 0 && len(rows) > limits.MaxRows {
			return nil, fmt.Errorf("too many rows: limit is %d", limits.MaxRows)
		}
	}

	return fromTable(header, rows)
}

// ParseXLSX reads the first sheet of an Excel workbook. The first row is
// the header.
func ParseXLSX(r io.Reader, limits Limits) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if limits.MaxRows > 0 && len(rows)-1 > limits.MaxRows {
		return nil, fmt.Errorf("too many rows: limit is %d", limits.MaxRows)
	}

	return fromTable(rows[0], rows[1:])
}

// ParseUpload dispatches on the uploaded filename extension.
func ParseUpload(filename string, r io.Reader, limits Limits) ([]Record, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return ParseXLSX(r, limits)
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return ParseCSV(r, limits)
	default:
		return nil, fmt.Errorf("unsupported file type %q: expected .csv or .xlsx", filename)
	}
}

// FromRows builds records from pasted cells, one map per row keyed by
// column header. Coercion matches the file paths.
func FromRows(rows []map[string]string, limits Limits) ([]Record, error) {
	if limits.MaxRows > 0 && len(rows) > limits.MaxRows {
		return nil, fmt.Errorf("too many rows: limit is %d", limits.MaxRows)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty input: no data rows")
	}

	// Treat the union of keys as the header so a column missing from every
	// row is reported the same way as in a file.
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	header := make([]string, 0, len(seen))
	for k := range seen {
		header = append(header, k)
	}
	sort.Strings(header)

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(header))
		for j, col := range header {
			cells[i][j] = row[col]
		}
	}

	return fromTable(header, cells)
}

// fromTable validates the header and coerces cells into records.
func fromTable(header []string, rows [][]string) ([]Record, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range TemplateColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty input: no data rows")
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		records = append(records, Record{
			PatientID:            cell(row, ColPatientID),
			Treatment:            cell(row, ColTreatment),
			OCSBaseline:          toFloat(cell(row, ColOCSBaseline)),
			OCSFollowUp:          toFloat(cell(row, ColOCSFollowUp)),
			ACTBaseline:          toFloat(cell(row, ColACTBaseline)),
			ACTFollowUp:          toFloat(cell(row, ColACTFollowUp)),
			ExacerbationBaseline: toFloat(cell(row, ColExaBaseline)),
			ExacerbationFollowUp: toFloat(cell(row, ColExaFollowUp)),
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty input: no data rows")
	}

	return records, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// toFloat coerces a cell to float64, NaN on failure.
func toFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// TemplateCSV returns a blank table containing only the required header.
func TemplateCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(TemplateColumns)
	w.Flush()
	return buf.Bytes()
}
