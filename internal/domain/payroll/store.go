package payroll

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListItems(ctx context.Context, itemType ItemType) ([]PayItem, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, name, description, created_at, updated_at
    FROM pay_items
    WHERE type = $1
    ORDER BY lower(name)
  `, string(itemType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PayItem
	for rows.Next() {
		var item PayItem
		if err := rows.Scan(&item.ID, &item.Type, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, id string) (PayItem, error) {
	var item PayItem
	err := s.DB.QueryRow(ctx, `
    SELECT id, type, name, description, created_at, updated_at
    FROM pay_items WHERE id = $1
  `, id).Scan(&item.ID, &item.Type, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *Store) ItemNameTaken(ctx context.Context, itemType ItemType, name, excludeID string) (bool, error) {
	var taken bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM pay_items WHERE type = $1 AND lower(name) = lower($2) AND id <> $3
    )
  `, string(itemType), name, excludeID).Scan(&taken)
	return taken, err
}

func (s *Store) CreateItem(ctx context.Context, item PayItem) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO pay_items (id, type, name, description, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $5)
  `, item.ID, string(item.Type), item.Name, item.Description, item.CreatedAt)
	return err
}

func (s *Store) UpdateItem(ctx context.Context, item PayItem) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE pay_items SET name = $2, description = $3, updated_at = $4 WHERE id = $1
  `, item.ID, item.Name, item.Description, item.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM pay_items WHERE id = $1", id)
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

func (s *Store) ListSetups(ctx context.Context) ([]SetupSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.name, u.email, r.name,
           COALESCE(p.employment_type, ''), COALESCE(p.payroll_frequency, ''),
           COALESCE(p.basic_salary, 0), COALESCE(p.gross_salary, 0), COALESCE(p.net_amount, 0),
           p.id IS NOT NULL
    FROM users u
    JOIN roles r ON r.id = u.role_id
    LEFT JOIN payroll_setups p ON p.user_id = u.id
    WHERE u.is_active
    ORDER BY lower(u.name)
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SetupSummary
	for rows.Next() {
		var row SetupSummary
		if err := rows.Scan(&row.UserID, &row.UserName, &row.Email, &row.RoleName,
			&row.EmploymentType, &row.PayrollFrequency,
			&row.BasicSalary, &row.GrossSalary, &row.NetAmount, &row.Configured); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) GetSetup(ctx context.Context, userID string) (Setup, error) {
	var setup Setup
	err := s.DB.QueryRow(ctx, `
    SELECT p.id, p.user_id, u.name, u.email, p.employment_type, p.payroll_frequency,
           p.basic_salary, p.allowances, p.deductions, p.gross_salary, p.net_amount,
           p.created_at, p.updated_at
    FROM payroll_setups p
    JOIN users u ON u.id = p.user_id
    WHERE p.user_id = $1
  `, userID).Scan(&setup.ID, &setup.UserID, &setup.UserName, &setup.Email,
		&setup.EmploymentType, &setup.PayrollFrequency, &setup.BasicSalary,
		&setup.Allowances, &setup.Deductions, &setup.GrossSalary, &setup.NetAmount,
		&setup.CreatedAt, &setup.UpdatedAt)
	return setup, err
}

// UpsertSetup keeps the first id and created_at of a user's setup.
func (s *Store) UpsertSetup(ctx context.Context, setup Setup) (Setup, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_setups (id, user_id, employment_type, payroll_frequency, basic_salary,
                                allowances, deductions, gross_salary, net_amount, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
    ON CONFLICT (user_id) DO UPDATE
    SET employment_type = EXCLUDED.employment_type,
        payroll_frequency = EXCLUDED.payroll_frequency,
        basic_salary = EXCLUDED.basic_salary,
        allowances = EXCLUDED.allowances,
        deductions = EXCLUDED.deductions,
        gross_salary = EXCLUDED.gross_salary,
        net_amount = EXCLUDED.net_amount,
        updated_at = EXCLUDED.updated_at
    RETURNING id, created_at, updated_at
  `, setup.ID, setup.UserID, setup.EmploymentType, setup.PayrollFrequency, setup.BasicSalary,
		setup.Allowances, setup.Deductions, setup.GrossSalary, setup.NetAmount, setup.UpdatedAt,
	).Scan(&setup.ID, &setup.CreatedAt, &setup.UpdatedAt)
	return setup, err
}
