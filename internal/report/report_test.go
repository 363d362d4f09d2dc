package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respiratools/bars/internal/types"
)

func sampleRows(n int) []types.ScoredRow {
	rows := make([]types.ScoredRow, n)
	for i := range rows {
		rows[i] = types.ScoredRow{
			PatientID:            fmt.Sprintf("P%03d", i+1),
			Treatment:            "Dupilumab",
			OCSBaseline:          10,
			OCSFollowUp:          0,
			ACTBaseline:          12,
			ACTFollowUp:          22,
			ExacerbationBaseline: 4,
			ExacerbationFollowUp: 0,
			OCSScore:             2,
			ACTScore:             2,
			ExacerbationScore:    2,
			ResponseMean:         2,
			ResponseScore:        2,
			ResponseLabel:        "good response",
		}
	}
	return rows
}

func TestBuildPDF(t *testing.T) {
	b := NewBuilder(DefaultConfig())

	var buf bytes.Buffer
	err := b.Build(&buf, sampleRows(3), nil, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}

func TestBuildPDFWithCharts(t *testing.T) {
	b := NewBuilder(DefaultConfig())

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	var buf bytes.Buffer
	err := b.Build(&buf, sampleRows(1), map[string][]byte{"OCS_slope.png": img.Bytes()}, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestBuildPDFTruncatesLargeTables(t *testing.T) {
	b := NewBuilder(Config{MaxTableRows: 10})

	var small, large bytes.Buffer
	require.NoError(t, b.Build(&small, sampleRows(10), nil, time.Now()))
	require.NoError(t, b.Build(&large, sampleRows(500), nil, time.Now()))

	// The capped table keeps the large report close to the small one.
	assert.Less(t, large.Len(), small.Len()*3)
}

func TestWriteScoredCSV(t *testing.T) {
	rows := sampleRows(2)
	rows[1].OCSBaseline = types.Float(math.NaN())

	var buf bytes.Buffer
	require.NoError(t, WriteScoredCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, strings.Join(scoredHeader, ","), lines[0])
	assert.Equal(t, "P001,10,12,4,Dupilumab,0,22,0,2,2,2,2.00,2,good response", lines[1])

	// The missing baseline is a blank cell.
	assert.True(t, strings.HasPrefix(lines[2], "P002,,12,"))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "2.5", num(2.5))
	assert.Equal(t, "10", num(10))
	assert.Equal(t, "", num(math.NaN()))
	assert.Equal(t, "", num(math.Inf(1)))
}
