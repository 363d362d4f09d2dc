// Package report builds the exportable artifacts: the PDF report and the
// scored CSV table.
package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/respiratools/bars/internal/charts"
	"github.com/respiratools/bars/internal/types"
)

// Config controls report layout.
type Config struct {
	// MaxTableRows caps the summary table so large cohorts stay readable.
	MaxTableRows int
}

// DefaultConfig returns the default report layout.
func DefaultConfig() Config {
	return Config{MaxTableRows: 60}
}

// Builder assembles PDF reports.
type Builder struct {
	cfg Config
}

// NewBuilder creates a report builder.
func NewBuilder(cfg Config) *Builder {
	if cfg.MaxTableRows <= 0 {
		cfg.MaxTableRows = DefaultConfig().MaxTableRows
	}
	return &Builder{cfg: cfg}
}

// Summary table layout: column headers and widths in mm (A4, 10mm margins).
var tableColumns = []struct {
	header string
	width  float64
}{
	{"Patient ID", 28},
	{"Treatment", 30},
	{"OCS_BL", 18},
	{"OCS_FU", 18},
	{"ACT_BL", 18},
	{"ACT_FU", 18},
	{"Exac_BL", 18},
	{"Exac_FU", 18},
	{"Response", 24},
}

// Build writes the full PDF report: title, timestamp, privacy note, the
// summary table, and the chart set in report order.
func (b *Builder) Build(w io.Writer, rows []types.ScoredRow, chartPNGs map[string][]byte, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Biologic Response Report", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Biologic Response Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, generatedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Patient data is not stored. This report was generated for your session only.", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	b.writeTable(pdf, rows)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Charts", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	for _, name := range charts.ChartOrder() {
		png, ok := chartPNGs[name]
		if !ok {
			continue
		}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pdf.ImageOptions(name, 20, -1, 170, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	if pdf.Err() {
		return fmt.Errorf("build pdf: %w", pdf.Error())
	}
	return pdf.Output(w)
}

// writeTable renders the capped summary table with a repeated header row.
func (b *Builder) writeTable(pdf *fpdf.Fpdf, rows []types.ScoredRow) {
	truncated := false
	if len(rows) > b.cfg.MaxTableRows {
		rows = rows[:b.cfg.MaxTableRows]
		truncated = true
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(211, 211, 211)
		for _, col := range tableColumns {
			pdf.CellFormat(col.width, 6, col.header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	header()

	for _, row := range rows {
		// Repeat the header after an automatic page break.
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}
		cells := []string{
			row.PatientID,
			row.Treatment,
			num(float64(row.OCSBaseline)),
			num(float64(row.OCSFollowUp)),
			num(float64(row.ACTBaseline)),
			num(float64(row.ACTFollowUp)),
			num(float64(row.ExacerbationBaseline)),
			num(float64(row.ExacerbationFollowUp)),
			strconv.Itoa(row.ResponseScore),
		}
		for i, col := range tableColumns {
			pdf.CellFormat(col.width, 5, cells[i], "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if truncated {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Table truncated to the first %d rows.", b.cfg.MaxTableRows), "", 1, "L", false, 0, "")
	}
}

// num formats a measurement cell, blank for missing values.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
