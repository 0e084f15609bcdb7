package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"call-qa-go/internal/types"
)

const scorecardSheet = "Scorecard"

// WriteWorkbook exports the report as an XLSX scorecard for reviewers:
// a totals header, then one row per file with its rubric scores. The
// criterion columns come from the first successful result, since every
// evaluation in a run shares the same ordered rubric.
func WriteWorkbook(report types.FolderReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), scorecardSheet)

	criteria := rubricCriteria(report.Results)

	// Totals header.
	setRow(f, 1, []interface{}{"Folder", report.Folder})
	setRow(f, 2, []interface{}{"Total Files", report.TotalFiles})
	setRow(f, 3, []interface{}{"Successful", report.SuccessfulFiles})
	setRow(f, 4, []interface{}{"Failed", report.FailedFiles})

	header := []interface{}{"File", "Status", "Call Summary", "Error"}
	for _, c := range criteria {
		header = append(header, c)
	}
	setRow(f, 6, header)

	row := 7
	for _, r := range report.Results {
		status := "OK"
		if !r.Success {
			status = "FAILED"
		}
		cells := []interface{}{r.FileName, status, r.CallSummary, r.Error}
		scores := scoresByCriterion(r)
		for _, c := range criteria {
			cells = append(cells, scores[c])
		}
		setRow(f, row, cells)
		row++
	}

	dest := filepath.Join(dir, report.Folder+".xlsx")
	if err := f.SaveAs(dest); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return dest, nil
}

func rubricCriteria(results []types.ItemResult) []string {
	for _, r := range results {
		if r.Success && len(r.Evaluation) > 0 {
			out := make([]string, 0, len(r.Evaluation))
			for _, c := range r.Evaluation {
				out = append(out, c.Criterion)
			}
			return out
		}
	}
	return nil
}

func scoresByCriterion(r types.ItemResult) map[string]string {
	out := make(map[string]string, len(r.Evaluation))
	for _, c := range r.Evaluation {
		out[c.Criterion] = c.Score
	}
	return out
}

func setRow(f *excelize.File, row int, values []interface{}) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(scorecardSheet, cell, &values)
}
