package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/domain/access"
	"hradmin/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const userColumns = `
    u.id, u.name, u.email, u.phone, u.address, u.is_active, u.role_id, r.name,
    u.job_description, u.reset_password, u.profile_image, u.last_login, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.IsActive, &u.RoleID, &u.RoleName,
		&u.JobDescription, &u.ResetPassword, &u.ProfileImage, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where = append(where, fmt.Sprintf("(lower(u.name) LIKE $%d OR lower(u.email) LIKE $%d)", len(args), len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("u.is_active = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users u WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT`+userColumns+`
    FROM users u
    JOIN roles r ON r.id = u.role_id
    WHERE %s
    ORDER BY lower(u.name), u.id
    LIMIT $%d OFFSET $%d
  `, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `
    SELECT`+userColumns+`
    FROM users u
    JOIN roles r ON r.id = u.role_id
    WHERE u.id = $1
  `, id))
}

func (s *Store) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var taken bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)
  `, email, excludeID).Scan(&taken)
	return taken, err
}

func (s *Store) RoleExists(ctx context.Context, roleID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)", roleID).Scan(&exists)
	return exists, err
}

// CreateWithAccess inserts the user together with a no-access matrix
// covering every form.
func (s *Store) CreateWithAccess(ctx context.Context, user User, passwordHash string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO users (id, name, email, phone, address, password_hash, is_active, role_id,
                       job_description, reset_password, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
  `, user.ID, user.Name, user.Email, user.Phone, user.Address, passwordHash, user.IsActive, user.RoleID,
		user.JobDescription, user.ResetPassword, user.CreatedAt); err != nil {
		return err
	}

	accessControlID := db.NewID()
	if _, err := tx.Exec(ctx, `
    INSERT INTO user_access_controls (id, user_id, role_id) VALUES ($1, $2, $3)
  `, accessControlID, user.ID, user.RoleID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO form_access (access_control_id, user_id, form_id, no_access, permissions)
    SELECT $1, $2, f.id, true, $3 FROM access_forms f
  `, accessControlID, user.ID, access.DefaultPermissions()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, user User) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET name = $2, email = $3, phone = $4, address = $5, job_description = $6, updated_at = now()
    WHERE id = $1
  `, user.ID, user.Name, user.Email, user.Phone, user.Address, user.JobDescription)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) ChangeRole(ctx context.Context, userID, roleID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, "UPDATE users SET role_id = $2, updated_at = now() WHERE id = $1", userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if _, err := tx.Exec(ctx, `
    UPDATE user_access_controls SET role_id = $2, updated_at = now() WHERE user_id = $1
  `, userID, roleID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) SetActive(ctx context.Context, userID string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1", userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

