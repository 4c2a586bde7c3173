package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// programsLockKey serialises weightage checks across connections.
const programsLockKey = 740211

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListPrograms(ctx context.Context) ([]Program, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, description, weightage, created_at, updated_at
    FROM evaluation_programs
    ORDER BY created_at, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Weightage, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProgram(ctx context.Context, id string) (Program, error) {
	var p Program
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, description, weightage, created_at, updated_at
    FROM evaluation_programs WHERE id = $1
  `, id).Scan(&p.ID, &p.Name, &p.Description, &p.Weightage, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProgram checks the weightage budget and inserts under one lock.
func (s *Store) CreateProgram(ctx context.Context, p Program) error {
	return s.withWeightageLock(ctx, "", p.Weightage, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
      INSERT INTO evaluation_programs (id, name, description, weightage, created_at, updated_at)
      VALUES ($1, $2, $3, $4, $5, $5)
    `, p.ID, p.Name, p.Description, p.Weightage, p.CreatedAt)
		return err
	})
}

// UpdateProgram leaves the program's own previous weightage out of the budget.
func (s *Store) UpdateProgram(ctx context.Context, p Program) error {
	return s.withWeightageLock(ctx, p.ID, p.Weightage, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE evaluation_programs
      SET name = $2, description = $3, weightage = $4, updated_at = $5
      WHERE id = $1
    `, p.ID, p.Name, p.Description, p.Weightage, p.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (s *Store) withWeightageLock(ctx context.Context, excludeID string, requested float64, write func(pgx.Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", programsLockKey); err != nil {
		return err
	}
	var others float64
	if err := tx.QueryRow(ctx, `
    SELECT COALESCE(SUM(weightage), 0) FROM evaluation_programs WHERE id <> $1
  `, excludeID).Scan(&others); err != nil {
		return err
	}
	if err := CheckWeightage(others, requested); err != nil {
		return err
	}
	if err := write(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteProgram(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM evaluation_programs WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists)
	return exists, err
}

func (s *Store) PeriodTaken(ctx context.Context, userID string, week, month, year int, excludeID string) (bool, error) {
	var taken bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM weekly_evaluations
      WHERE user_id = $1 AND week_number = $2 AND period_month = $3 AND period_year = $4 AND id <> $5
    )
  `, userID, week, month, year, excludeID).Scan(&taken)
	return taken, err
}

func (s *Store) LaterWeekExists(ctx context.Context, userID string, week, month, year int) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM weekly_evaluations
      WHERE user_id = $1 AND period_month = $3 AND period_year = $4 AND week_number > $2
    )
  `, userID, week, month, year).Scan(&exists)
	return exists, err
}

func (s *Store) CreateEvaluation(ctx context.Context, e Evaluation) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO weekly_evaluations (id, user_id, evaluated_by, week_number, week_start, week_end,
                                    period_month, period_year, scores, comments, total_score,
                                    total_weighted_rating, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
  `, e.ID, e.UserID, e.EvaluatedBy, e.WeekNumber, e.WeekStart, e.WeekEnd, e.Month, e.Year,
		e.Scores, e.Comments, e.TotalScore, e.TotalWeightedRating, e.CreatedAt)
	return err
}

const evaluationColumns = `
    e.id, e.user_id, u.name, e.evaluated_by, e.week_number, e.week_start, e.week_end,
    e.period_month, e.period_year, e.scores, e.comments, e.total_score, e.total_weighted_rating,
    e.created_at, e.updated_at`

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var e Evaluation
	err := row.Scan(&e.ID, &e.UserID, &e.UserName, &e.EvaluatedBy, &e.WeekNumber, &e.WeekStart, &e.WeekEnd,
		&e.Month, &e.Year, &e.Scores, &e.Comments, &e.TotalScore, &e.TotalWeightedRating,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	return scanEvaluation(s.DB.QueryRow(ctx, `
    SELECT`+evaluationColumns+`
    FROM weekly_evaluations e
    JOIN users u ON u.id = e.user_id
    WHERE e.id = $1
  `, id))
}

func (s *Store) ListEvaluations(ctx context.Context, filter Filter) ([]Evaluation, error) {
	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.UserID != "" {
		add("e.user_id = $%d", filter.UserID)
	}
	if filter.WeekNumber > 0 {
		add("e.week_number = $%d", filter.WeekNumber)
	}
	if filter.Month > 0 {
		add("e.period_month = $%d", filter.Month)
	}
	if filter.Year > 0 {
		add("e.period_year = $%d", filter.Year)
	}
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT`+evaluationColumns+`
    FROM weekly_evaluations e
    JOIN users u ON u.id = e.user_id
    WHERE %s
    ORDER BY e.period_year DESC, e.period_month DESC, e.week_number DESC, u.name
    LIMIT $%d OFFSET $%d
  `, strings.Join(where, " AND "), len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) UpdateEvaluation(ctx context.Context, e Evaluation) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE weekly_evaluations
    SET week_number = $2, week_start = $3, week_end = $4, period_month = $5, period_year = $6,
        scores = $7, comments = $8, total_score = $9, total_weighted_rating = $10, updated_at = $11
    WHERE id = $1
  `, e.ID, e.WeekNumber, e.WeekStart, e.WeekEnd, e.Month, e.Year, e.Scores, e.Comments,
		e.TotalScore, e.TotalWeightedRating, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteEvaluation(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM weekly_evaluations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// kpiUsersClause limits reports to users with applyKpi granted on some form.
const kpiUsersClause = `
    EXISTS (
      SELECT 1 FROM form_access fa
      WHERE fa.user_id = u.id AND COALESCE((fa.permissions->>'applyKpi')::boolean, false)
    )`

func (s *Store) WeeklyTotals(ctx context.Context, week, month, year int) ([]UserTotals, error) {
	return s.totals(ctx, `
    SELECT u.id, u.name, u.email,
           COALESCE(SUM(e.total_score), 0), COALESCE(SUM(e.total_weighted_rating), 0), COUNT(e.id)
    FROM users u
    LEFT JOIN weekly_evaluations e
      ON e.user_id = u.id AND e.week_number = $1 AND e.period_month = $2 AND e.period_year = $3
    WHERE`+kpiUsersClause+`
    GROUP BY u.id, u.name, u.email
  `, week, month, year)
}

func (s *Store) MonthlyTotals(ctx context.Context, month, year int) ([]UserTotals, error) {
	return s.totals(ctx, `
    SELECT u.id, u.name, u.email,
           COALESCE(SUM(e.total_score), 0), COALESCE(SUM(e.total_weighted_rating), 0), COUNT(e.id)
    FROM users u
    LEFT JOIN weekly_evaluations e
      ON e.user_id = u.id AND e.period_month = $1 AND e.period_year = $2
    WHERE`+kpiUsersClause+`
    GROUP BY u.id, u.name, u.email
  `, month, year)
}

func (s *Store) totals(ctx context.Context, sql string, args ...any) ([]UserTotals, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserTotals
	for rows.Next() {
		var t UserTotals
		if err := rows.Scan(&t.UserID, &t.UserName, &t.Email, &t.TotalScore, &t.TotalWeightedRating, &t.Evaluations); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) WeightedByMonth(ctx context.Context, userID string, year int) (map[int]float64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT period_month, SUM(total_weighted_rating)
    FROM weekly_evaluations
    WHERE user_id = $1 AND period_year = $2
    GROUP BY period_month
  `, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]float64, 12)
	for rows.Next() {
		var month int
		var sum float64
		if err := rows.Scan(&month, &sum); err != nil {
			return nil, err
		}
		out[month] = sum
	}
	return out, rows.Err()
}
