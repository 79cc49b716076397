package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"hybridtest/domain/hypotest"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

// ReportWriter renders a test result into an xlsx workbook with a summary
// sheet and one sheet per toy distribution
type ReportWriter struct {
	path string
}

// NewReportWriter creates a writer targeting the given xlsx path
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// WriteResult writes the workbook; an existing file at the path is replaced
func (w *ReportWriter) WriteResult(ctx context.Context, result *hypotest.HypothesisTestResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return errors.Wrap(err, "renaming summary sheet")
	}

	rows := [][]interface{}{
		{"Name", result.Name},
		{"Run ID", string(result.RunID)},
		{"Seed", result.Seed},
		{"Test statistic", result.TestStat},
		{"Orientation", result.Orientation.String()},
		{"Observed value", result.TestStatData},
		{"Null toys", result.NullToys},
		{"Alt toys", result.AltToys},
		{"Failed null toys", result.FailedNullToys},
		{"Failed alt toys", result.FailedAltToys},
		{"Null p-value", result.NullPValue},
		{"Null p-value err", result.NullPValueErr},
		{"Significance", result.Significance},
		{"Significance is lower bound", result.SignificanceIsLowerBound},
		{"CL_b", result.CLb},
		{"CL_b err", result.CLbErr},
		{"CL_s+b", result.CLsb},
		{"CL_s+b err", result.CLsbErr},
		{"CL_s", result.CLs},
		{"CL_s err", result.CLsErr},
		{"CL_s undefined", result.CLsUndefined},
		{"Created at", result.CreatedAt.Format("2006-01-02 15:04:05 MST")},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "addressing summary cell")
		}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return errors.Wrap(err, "writing summary row")
		}
	}

	if err := w.writeDistribution(f, "Null Toys", result.NullDistribution); err != nil {
		return err
	}
	if err := w.writeDistribution(f, "Alt Toys", result.AltDistribution); err != nil {
		return err
	}

	if err := f.SaveAs(w.path); err != nil {
		return errors.Wrap(err, fmt.Sprintf("saving report to %s", w.path))
	}
	return nil
}

func (w *ReportWriter) writeDistribution(f *excelize.File, sheet string, values []float64) error {
	if len(values) == 0 {
		return nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrap(err, "creating sheet "+sheet)
	}
	header := []interface{}{"Toy", "Statistic"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header of "+sheet)
	}
	for i, v := range values {
		row := []interface{}{i, v}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "addressing cell in "+sheet)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing row of "+sheet)
		}
	}
	return nil
}

var _ ports.ReportSink = (*ReportWriter)(nil)
