package roles

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

func (s *Store) List(ctx context.Context) ([]Role, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.name, r.description, COUNT(u.id), r.created_at, r.updated_at
    FROM roles r
    LEFT JOIN users u ON u.role_id = r.id
    GROUP BY r.id
    ORDER BY lower(r.name)
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.UserCount, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Role, error) {
	var r Role
	err := s.DB.QueryRow(ctx, `
    SELECT r.id, r.name, r.description,
           (SELECT COUNT(1) FROM users u WHERE u.role_id = r.id),
           r.created_at, r.updated_at
    FROM roles r
    WHERE r.id = $1
  `, id).Scan(&r.ID, &r.Name, &r.Description, &r.UserCount, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var taken bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM roles WHERE lower(name) = lower($1) AND id <> $2)
  `, name, excludeID).Scan(&taken)
	return taken, err
}

func (s *Store) Create(ctx context.Context, role Role) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO roles (id, name, description, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $4)
  `, role.ID, role.Name, role.Description, role.CreatedAt)
	return err
}

func (s *Store) Update(ctx context.Context, role Role) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE roles SET name = $2, description = $3, updated_at = $4 WHERE id = $1
  `, role.ID, role.Name, role.Description, role.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context, id string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE role_id = $1", id).Scan(&count)
	return count, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
