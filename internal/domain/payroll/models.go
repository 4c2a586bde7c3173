package payroll

import "time"

// PayItem is a catalog entry that setups pick allowances and deductions from.
type PayItem struct {
	ID          string    `json:"id"`
	Type        ItemType  `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PayItemInput struct {
	Type        ItemType `json:"type"`
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
}

type Line struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount Amount `json:"amount"`
}

type Setup struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName,omitempty"`
	Email            string    `json:"email,omitempty"`
	EmploymentType   string    `json:"employmentType"`
	PayrollFrequency string    `json:"payrollFrequency"`
	BasicSalary      float64   `json:"basicSalary"`
	Allowances       []Line    `json:"allowances"`
	Deductions       []Line    `json:"deductions"`
	GrossSalary      float64   `json:"grossSalary"`
	NetAmount        float64   `json:"netAmount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type SetupInput struct {
	EmploymentType   string `json:"employmentType" validate:"max=50"`
	PayrollFrequency string `json:"payrollFrequency" validate:"max=50"`
	BasicSalary      Amount `json:"basicSalary"`
	Allowances       []Line `json:"allowances"`
	Deductions       []Line `json:"deductions"`
}

// SetupSummary is one row of the payroll overview.
type SetupSummary struct {
	UserID           string  `json:"userId"`
	UserName         string  `json:"userName"`
	Email            string  `json:"email"`
	RoleName         string  `json:"roleName"`
	EmploymentType   string  `json:"employmentType"`
	PayrollFrequency string  `json:"payrollFrequency"`
	BasicSalary      float64 `json:"basicSalary"`
	GrossSalary      float64 `json:"grossSalary"`
	NetAmount        float64 `json:"netAmount"`
	Configured       bool    `json:"configured"`
}

type Totals struct {
	Employees   int     `json:"employees"`
	Configured  int     `json:"configured"`
	GrossSalary float64 `json:"grossSalary"`
	NetAmount   float64 `json:"netAmount"`
}

type Overview struct {
	Rows   []SetupSummary `json:"rows"`
	Totals Totals         `json:"totals"`
}
