package payroll

type Salary struct {
	BasicSalary     float64 `json:"basicSalary"`
	TotalAllowances float64 `json:"totalAllowances"`
	TotalDeductions float64 `json:"totalDeductions"`
	GrossSalary     float64 `json:"grossSalary"`
	NetAmount       float64 `json:"netAmount"`
}

func sumLines(lines []Line) float64 {
	var total float64
	for _, line := range lines {
		total += line.Amount.Float()
	}
	return total
}

// ComputeSalary adds allowances to the basic salary for gross and takes
// deductions off gross for net.
func ComputeSalary(basicSalary Amount, allowances, deductions []Line) Salary {
	totalAllowances := sumLines(allowances)
	totalDeductions := sumLines(deductions)
	gross := basicSalary.Float() + totalAllowances
	return Salary{
		BasicSalary:     basicSalary.Float(),
		TotalAllowances: totalAllowances,
		TotalDeductions: totalDeductions,
		GrossSalary:     gross,
		NetAmount:       gross - totalDeductions,
	}
}
