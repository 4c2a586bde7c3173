package evaluation

import "time"

type Program struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Weightage   float64   `json:"weightage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProgramInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=1000"`
	Weightage   float64 `json:"weightage" validate:"gte=0,lte=100"`
}

type ProgramOverview struct {
	Programs       []Program `json:"programs"`
	TotalWeightage float64   `json:"totalWeightage"`
	Remaining      float64   `json:"remaining"`
}

type RawScore struct {
	KPIID string  `json:"kpiId" validate:"required"`
	Score float64 `json:"score" validate:"gte=0"`
}

type Score struct {
	KPIID          string  `json:"kpiId"`
	KPIName        string  `json:"kpiName,omitempty"`
	Score          float64 `json:"score"`
	Weightage      float64 `json:"weightage"`
	WeightedRating float64 `json:"weightedRating"`
}

type Evaluation struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userId"`
	UserName            string    `json:"userName,omitempty"`
	EvaluatedBy         string    `json:"evaluatedBy"`
	WeekNumber          int       `json:"weekNumber"`
	WeekStart           time.Time `json:"weekStart"`
	WeekEnd             time.Time `json:"weekEnd"`
	Month               int       `json:"month"`
	Year                int       `json:"year"`
	Scores              []Score   `json:"scores"`
	Comments            string    `json:"comments"`
	TotalScore          float64   `json:"totalScore"`
	TotalWeightedRating float64   `json:"totalWeightedRating"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type EvaluationInput struct {
	UserID      string
	EvaluatedBy string
	WeekNumber  int
	WeekStart   time.Time
	WeekEnd     time.Time
	Scores      []RawScore
	Comments    string
}

type Filter struct {
	UserID     string
	WeekNumber int
	Month      int
	Year       int
	Limit      int
	Offset     int
}

// UserTotals is one user's summed evaluation values for a period.
type UserTotals struct {
	UserID              string
	UserName            string
	Email               string
	TotalScore          float64
	TotalWeightedRating float64
	Evaluations         int
}

type WeeklySummaryRow struct {
	UserID              string  `json:"userId"`
	UserName            string  `json:"userName"`
	Email               string  `json:"email"`
	TotalScore          float64 `json:"totalScore"`
	TotalWeightedRating float64 `json:"totalWeightedRating"`
	Action              Action  `json:"action"`
}

type WeeklySummary struct {
	WeekNumber int                `json:"weekNumber"`
	Month      int                `json:"month"`
	Year       int                `json:"year"`
	Rows       []WeeklySummaryRow `json:"rows"`
}

type MonthlyRating struct {
	Month  int     `json:"month"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

type MonthlySummaryRow struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Email    string  `json:"email"`
	Rating   float64 `json:"rating"`
	Action   Action  `json:"action"`
}
