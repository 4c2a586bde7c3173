package evaluation

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WeeklySummaryPDF renders the ranked weekly summary as an A4 table.
func WeeklySummaryPDF(summary WeeklySummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Weekly Evaluation Summary")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Week %d, %s %d", summary.WeekNumber, time.Month(summary.Month), summary.Year))
	pdf.Ln(10)

	widths := []float64{10, 60, 35, 40, 45}
	headers := []string{"#", "Employee", "Total Score", "Weighted Rating", "Action"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	if len(summary.Rows) == 0 {
		pdf.CellFormat(190, 8, "No evaluations recorded for this week", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	for i, row := range summary.Rows {
		pdf.CellFormat(widths[0], 8, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 8, row.UserName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 8, fmt.Sprintf("%.2f", row.TotalScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, fmt.Sprintf("%.2f", row.TotalWeightedRating), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 8, string(row.Action), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
