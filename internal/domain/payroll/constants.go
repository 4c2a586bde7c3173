package payroll

type ItemType string

const (
	ItemAllowance ItemType = "ALLOWANCE"
	ItemDeduction ItemType = "DEDUCTION"
)

func ParseItemType(raw string) (ItemType, bool) {
	switch ItemType(raw) {
	case ItemAllowance, ItemDeduction:
		return ItemType(raw), true
	}
	return "", false
}

var (
	EmploymentTypes    = []string{"Full Time", "Part Time", "Contract", "Intern"}
	PayrollFrequencies = []string{"Monthly", "Bi-Weekly", "Weekly"}
)
