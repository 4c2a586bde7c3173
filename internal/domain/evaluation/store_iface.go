package evaluation

import "context"

type StoreAPI interface {
	ListPrograms(ctx context.Context) ([]Program, error)
	GetProgram(ctx context.Context, id string) (Program, error)
	CreateProgram(ctx context.Context, p Program) error
	UpdateProgram(ctx context.Context, p Program) error
	DeleteProgram(ctx context.Context, id string) error

	UserExists(ctx context.Context, userID string) (bool, error)
	PeriodTaken(ctx context.Context, userID string, week, month, year int, excludeID string) (bool, error)
	LaterWeekExists(ctx context.Context, userID string, week, month, year int) (bool, error)
	CreateEvaluation(ctx context.Context, e Evaluation) error
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	ListEvaluations(ctx context.Context, filter Filter) ([]Evaluation, error)
	UpdateEvaluation(ctx context.Context, e Evaluation) error
	DeleteEvaluation(ctx context.Context, id string) error

	WeeklyTotals(ctx context.Context, week, month, year int) ([]UserTotals, error)
	MonthlyTotals(ctx context.Context, month, year int) ([]UserTotals, error)
	WeightedByMonth(ctx context.Context, userID string, year int) (map[int]float64, error)
}
