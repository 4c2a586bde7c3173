package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/logger"
)

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) Programs(ctx context.Context) (ProgramOverview, error) {
	programs, err := s.Store.ListPrograms(ctx)
	if err != nil {
		return ProgramOverview{}, apperr.Internal("failed to list programs", err)
	}
	if programs == nil {
		programs = []Program{}
	}
	var total float64
	for _, p := range programs {
		total += p.Weightage
	}
	return ProgramOverview{
		Programs:       programs,
		TotalWeightage: Round2(total),
		Remaining:      Round2(MaxTotalWeightage - total),
	}, nil
}

func (s *Service) Program(ctx context.Context, id string) (Program, error) {
	p, err := s.Store.GetProgram(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Program{}, programNotFound()
		}
		return Program{}, apperr.Internal("failed to load program", err)
	}
	return p, nil
}

func (s *Service) CreateProgram(ctx context.Context, in ProgramInput) (Program, error) {
	if err := validateProgram(in); err != nil {
		return Program{}, err
	}
	now := s.Now().UTC()
	p := Program{
		ID:          db.NewID(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Weightage:   in.Weightage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateProgram(ctx, p); err != nil {
		return Program{}, programWriteError("failed to create program", err)
	}
	logger.From(ctx).Info("evaluation program created", "programId", p.ID, "weightage", p.Weightage)
	return p, nil
}

// UpdateProgram replaces a program; its own previous weightage does not
// count against the new value.
func (s *Service) UpdateProgram(ctx context.Context, id string, in ProgramInput) (Program, error) {
	if err := validateProgram(in); err != nil {
		return Program{}, err
	}
	p, err := s.Program(ctx, id)
	if err != nil {
		return Program{}, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Weightage = in.Weightage
	p.UpdatedAt = s.Now().UTC()
	if err := s.Store.UpdateProgram(ctx, p); err != nil {
		return Program{}, programWriteError("failed to update program", err)
	}
	return p, nil
}

func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	if err := s.Store.DeleteProgram(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return programNotFound()
		}
		return apperr.Internal("failed to delete program", err)
	}
	return nil
}

func validateProgram(in ProgramInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("invalid_name", "name is required")
	}
	if in.Weightage < 0 || in.Weightage > MaxTotalWeightage {
		return apperr.Validation("invalid_weightage", "weightage must be between 0 and 100")
	}
	return nil
}

func programWriteError(msg string, err error) error {
	var exceeded *WeightageExceededError
	switch {
	case errors.As(err, &exceeded):
		return apperr.Conflict("weightage_exceeded", "total weightage cannot exceed 100").WithDetails(map[string]any{
			"currentTotal": Round2(exceeded.Current),
			"requested":    exceeded.Requested,
			"remaining":    Round2(MaxTotalWeightage - exceeded.Current),
		})
	case errors.Is(err, pgx.ErrNoRows):
		return programNotFound()
	default:
		return apperr.Internal(msg, err)
	}
}

func programNotFound() error {
	return apperr.NotFound("program_not_found", "evaluation program not found")
}

func (s *Service) CreateEvaluation(ctx context.Context, in EvaluationInput) (Evaluation, error) {
	if err := validateEvaluation(in); err != nil {
		return Evaluation{}, err
	}
	exists, err := s.Store.UserExists(ctx, in.UserID)
	if err != nil {
		return Evaluation{}, apperr.Internal("failed to load user", err)
	}
	if !exists {
		return Evaluation{}, apperr.NotFound("user_not_found", "user not found")
	}

	month, year := PeriodOf(in.WeekStart)
	if err := s.ensurePeriodFree(ctx, in.UserID, in.WeekNumber, month, year, ""); err != nil {
		return Evaluation{}, err
	}
	scores, totalScore, totalWeighted, err := s.price(ctx, in.Scores, nil)
	if err != nil {
		return Evaluation{}, err
	}

	now := s.Now().UTC()
	e := Evaluation{
		ID:                  db.NewID(),
		UserID:              in.UserID,
		EvaluatedBy:         in.EvaluatedBy,
		WeekNumber:          in.WeekNumber,
		WeekStart:           in.WeekStart,
		WeekEnd:             in.WeekEnd,
		Month:               month,
		Year:                year,
		Scores:              scores,
		Comments:            strings.TrimSpace(in.Comments),
		TotalScore:          totalScore,
		TotalWeightedRating: totalWeighted,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Store.CreateEvaluation(ctx, e); err != nil {
		if db.IsUniqueViolation(err, "weekly_evaluations_period_key") {
			return Evaluation{}, duplicatePeriod()
		}
		return Evaluation{}, apperr.Internal("failed to create evaluation", err)
	}
	return s.Evaluation(ctx, e.ID)
}

func (s *Service) UpdateEvaluation(ctx context.Context, id string, in EvaluationInput) (Evaluation, error) {
	current, err := s.Evaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	in.UserID = current.UserID
	if err := validateEvaluation(in); err != nil {
		return Evaluation{}, err
	}
	month, year := PeriodOf(in.WeekStart)
	if err := s.ensurePeriodFree(ctx, current.UserID, in.WeekNumber, month, year, id); err != nil {
		return Evaluation{}, err
	}
	scores, totalScore, totalWeighted, err := s.price(ctx, in.Scores, current.Scores)
	if err != nil {
		return Evaluation{}, err
	}

	current.WeekNumber = in.WeekNumber
	current.WeekStart = in.WeekStart
	current.WeekEnd = in.WeekEnd
	current.Month = month
	current.Year = year
	current.Scores = scores
	current.Comments = strings.TrimSpace(in.Comments)
	current.TotalScore = totalScore
	current.TotalWeightedRating = totalWeighted
	current.UpdatedAt = s.Now().UTC()
	if err := s.Store.UpdateEvaluation(ctx, current); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Evaluation{}, evaluationNotFound()
		case db.IsUniqueViolation(err, "weekly_evaluations_period_key"):
			return Evaluation{}, duplicatePeriod()
		}
		return Evaluation{}, apperr.Internal("failed to update evaluation", err)
	}
	return current, nil
}

// DeleteEvaluation only removes the latest evaluated week of a month.
func (s *Service) DeleteEvaluation(ctx context.Context, id string) error {
	e, err := s.Evaluation(ctx, id)
	if err != nil {
		return err
	}
	later, err := s.Store.LaterWeekExists(ctx, e.UserID, e.WeekNumber, e.Month, e.Year)
	if err != nil {
		return apperr.Internal("failed to check later weeks", err)
	}
	if later {
		return apperr.Conflict("not_last_week", "only the last evaluated week of the month can be deleted")
	}
	if err := s.Store.DeleteEvaluation(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return evaluationNotFound()
		}
		return apperr.Internal("failed to delete evaluation", err)
	}
	return nil
}

func (s *Service) Evaluation(ctx context.Context, id string) (Evaluation, error) {
	e, err := s.Store.GetEvaluation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Evaluation{}, evaluationNotFound()
		}
		return Evaluation{}, apperr.Internal("failed to load evaluation", err)
	}
	return e, nil
}

func (s *Service) Evaluations(ctx context.Context, filter Filter) ([]Evaluation, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	out, err := s.Store.ListEvaluations(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list evaluations", err)
	}
	if out == nil {
		out = []Evaluation{}
	}
	return out, nil
}

// WeeklySummary ranks KPI users for the week that starts on weekStart.
func (s *Service) WeeklySummary(ctx context.Context, weekNumber int, weekStart time.Time) (WeeklySummary, error) {
	if weekNumber < 1 || weekNumber > MaxWeekNumber {
		return WeeklySummary{}, invalidWeek()
	}
	if weekStart.IsZero() {
		return WeeklySummary{}, apperr.Validation("invalid_week_start", "weekStart is required")
	}
	month, year := PeriodOf(weekStart)
	totals, err := s.Store.WeeklyTotals(ctx, weekNumber, month, year)
	if err != nil {
		return WeeklySummary{}, apperr.Internal("failed to load weekly totals", err)
	}
	return WeeklySummary{
		WeekNumber: weekNumber,
		Month:      month,
		Year:       year,
		Rows:       BuildWeeklySummary(totals),
	}, nil
}

func (s *Service) MonthlyAverage(ctx context.Context, userID string, year int) ([]MonthlyRating, error) {
	if year < 1 {
		return nil, apperr.Validation("invalid_year", "year is required")
	}
	exists, err := s.Store.UserExists(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if !exists {
		return nil, apperr.NotFound("user_not_found", "user not found")
	}
	byMonth, err := s.Store.WeightedByMonth(ctx, userID, year)
	if err != nil {
		return nil, apperr.Internal("failed to load monthly ratings", err)
	}
	return MonthlyAverages(byMonth), nil
}

func (s *Service) MonthlySummary(ctx context.Context, month, year int) ([]MonthlySummaryRow, error) {
	if month < 1 || month > 12 {
		return nil, apperr.Validation("invalid_month", "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, apperr.Validation("invalid_year", "year is required")
	}
	totals, err := s.Store.MonthlyTotals(ctx, month, year)
	if err != nil {
		return nil, apperr.Internal("failed to load monthly totals", err)
	}
	return BuildMonthlySummary(totals), nil
}

func (s *Service) ensurePeriodFree(ctx context.Context, userID string, week, month, year int, excludeID string) error {
	taken, err := s.Store.PeriodTaken(ctx, userID, week, month, year, excludeID)
	if err != nil {
		return apperr.Internal("failed to check evaluation period", err)
	}
	if taken {
		return duplicatePeriod()
	}
	return nil
}

// price resolves KPI weightages from the current program list. KPIs already
// scored on the evaluation being edited may have lost their program since;
// they keep their name and weigh 0.
func (s *Service) price(ctx context.Context, raw []RawScore, previous []Score) ([]Score, float64, float64, error) {
	programs, err := s.Store.ListPrograms(ctx)
	if err != nil {
		return nil, 0, 0, apperr.Internal("failed to list programs", err)
	}
	weightage := make(map[string]float64, len(programs))
	names := make(map[string]string, len(programs)+len(previous))
	for _, p := range previous {
		names[p.KPIID] = p.KPIName
	}
	for _, p := range programs {
		weightage[p.ID] = p.Weightage
		names[p.ID] = p.Name
	}
	for _, item := range raw {
		if _, ok := names[item.KPIID]; !ok {
			return nil, 0, 0, apperr.Validation("unknown_kpi", fmt.Sprintf("unknown kpi %q", item.KPIID))
		}
	}
	scores, totalScore, totalWeighted := ComputeScores(raw, weightage)
	for i := range scores {
		scores[i].KPIName = names[scores[i].KPIID]
	}
	return scores, totalScore, totalWeighted, nil
}

func validateEvaluation(in EvaluationInput) error {
	if strings.TrimSpace(in.UserID) == "" {
		return apperr.Validation("invalid_user", "userId is required")
	}
	if in.WeekNumber < 1 || in.WeekNumber > MaxWeekNumber {
		return invalidWeek()
	}
	if in.WeekStart.IsZero() || in.WeekEnd.IsZero() {
		return apperr.Validation("invalid_week_range", "weekStart and weekEnd are required")
	}
	if in.WeekEnd.Before(in.WeekStart) {
		return apperr.Validation("invalid_week_range", "weekEnd must not be before weekStart")
	}
	if len(in.Scores) == 0 {
		return apperr.Validation("invalid_scores", "at least one score is required")
	}
	seen := make(map[string]struct{}, len(in.Scores))
	for _, item := range in.Scores {
		if item.KPIID == "" {
			return apperr.Validation("invalid_scores", "kpiId is required")
		}
		if _, dup := seen[item.KPIID]; dup {
			return apperr.Validation("invalid_scores", fmt.Sprintf("kpi %q is scored twice", item.KPIID))
		}
		seen[item.KPIID] = struct{}{}
		if item.Score < 0 || item.Score > MaxScore {
			return apperr.Validation("invalid_scores", "scores must be between 0 and 5")
		}
	}
	return nil
}

func invalidWeek() error {
	return apperr.Validation("invalid_week", "weekNumber must be between 1 and 5")
}

func duplicatePeriod() error {
	return apperr.Conflict("evaluation_exists", "an evaluation already exists for this user and week")
}

func evaluationNotFound() error {
	return apperr.NotFound("evaluation_not_found", "evaluation not found")
}
