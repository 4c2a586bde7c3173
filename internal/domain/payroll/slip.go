package payroll

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// SalarySlipPDF renders a single page slip for a stored setup.
func SalarySlipPDF(setup Setup, issued time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Salary Slip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", setup.UserName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", setup.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employment: %s, paid %s", setup.EmploymentType, setup.PayrollFrequency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Issued: %s", issued.Format("2006-01-02")))
	pdf.Ln(12)

	row := func(label string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(130, 8, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	row("Basic salary", setup.BasicSalary, false)
	for _, line := range setup.Allowances {
		row("Allowance: "+line.Name, line.Amount.Float(), false)
	}
	row("Gross salary", setup.GrossSalary, true)
	for _, line := range setup.Deductions {
		row("Deduction: "+line.Name, line.Amount.Float(), false)
	}
	row("Net amount", setup.NetAmount, true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
