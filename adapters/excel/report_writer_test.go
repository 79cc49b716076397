package excel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hybridtest/domain/hypotest"
)

func sampleResult() *hypotest.HypothesisTestResult {
	return &hypotest.HypothesisTestResult{
		Name:             "counting",
		RunID:            "run-1",
		Seed:             42,
		TestStat:         "bin_count",
		Orientation:      hypotest.GreaterIsMoreSignalLike,
		TestStatData:     150,
		NullToys:         4,
		AltToys:          3,
		RejectedNullToys: 0,
		RejectedAltToys:  2,
		NullDistribution: []float64{95, 102, 110, 98},
		AltDistribution:  []float64{148, 155, 160},
		NullPValue:       0.001,
		NullPValueErr:    0.0004,
		Significance:     3.1,
		CLb:              0.999,
		CLbErr:           0.0004,
		CLsb:             0.48,
		CLsbErr:          0.03,
		CLs:              0.4805,
		CLsErr:           0.03,
		CreatedAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	writer := NewReportWriter(path)

	require.NoError(t, writer.WriteResult(context.Background(), sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Contains(t, sheets, "Summary")
	require.Contains(t, sheets, "Null Toys")
	require.Contains(t, sheets, "Alt Toys")

	label, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	require.Equal(t, "Name", label)
	name, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	require.Equal(t, "counting", name)

	header, err := f.GetCellValue("Null Toys", "B1")
	require.NoError(t, err)
	require.Equal(t, "Statistic", header)
	first, err := f.GetCellValue("Null Toys", "B2")
	require.NoError(t, err)
	require.Equal(t, "95", first)
}

func TestWriteResultSkipsEmptyDistributions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	result := sampleResult()
	result.NullDistribution = nil
	result.AltDistribution = nil

	require.NoError(t, NewReportWriter(path).WriteResult(context.Background(), result))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Summary"}, f.GetSheetList())
}
