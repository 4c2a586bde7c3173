package access

const (
	FormDashboard          = "Dashboard"
	FormUsers              = "Users"
	FormRoles              = "Roles"
	FormAccessControl      = "Access Control"
	FormProfile            = "Profile"
	FormReports            = "Reports"
	FormEvaluationPrograms = "Evaluation Programs"
	FormWeeklyEvaluation   = "Weekly Evaluation"
	FormPayroll            = "Payroll"
	FormPayItems           = "Allowances & Deductions"
	FormFiles              = "Files"
	FormAssets             = "Assets"
	FormAudit              = "Audit Log"
)

// DefaultForms is the seeded form catalogue, in display order.
var DefaultForms = []Form{
	{Name: FormDashboard, Description: "Landing dashboard"},
	{Name: FormUsers, Description: "User management"},
	{Name: FormRoles, Description: "Role management"},
	{Name: FormAccessControl, Description: "Per-user form access"},
	{Name: FormProfile, Description: "Own profile"},
	{Name: FormReports, Description: "Evaluation reports"},
	{Name: FormEvaluationPrograms, Description: "KPI programs and weightage"},
	{Name: FormWeeklyEvaluation, Description: "Weekly KPI evaluations"},
	{Name: FormPayroll, Description: "Payroll setup and salary summaries"},
	{Name: FormPayItems, Description: "Allowance and deduction catalogue"},
	{Name: FormFiles, Description: "User attachments"},
	{Name: FormAssets, Description: "Company assets"},
	{Name: FormAudit, Description: "Audit trail"},
}

type Form struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type FormAccess struct {
	Record
	FormName    string `json:"formName"`
	AccessLevel Level  `json:"accessLevel"`
}

type UserFormAccess struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	RoleName string `json:"roleName"`
	FormAccess
}

type BulkResult struct {
	MatchedCount  int `json:"matchedCount"`
	ModifiedCount int `json:"modifiedCount"`
	FailedCount   int `json:"failedCount"`
}

func NewFormAccess(rec Record, formName string) FormAccess {
	return FormAccess{Record: rec, FormName: formName, AccessLevel: rec.Access().Level}
}

func Records(list []FormAccess) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		out = append(out, item.Record)
	}
	return out
}
