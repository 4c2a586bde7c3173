package assets

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

const assetColumns = `
    a.id, a.name, a.category, a.serial_number, a.assigned_to, COALESCE(u.name, ''),
    a.notes, a.created_at, a.updated_at`

func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
	err := row.Scan(&a.ID, &a.Name, &a.Category, &a.SerialNumber, &a.AssignedTo, &a.AssigneeName,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) List(ctx context.Context, assignedTo string) ([]Asset, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+assetColumns+`
    FROM assets a
    LEFT JOIN users u ON u.id = a.assigned_to
    WHERE $1 = '' OR a.assigned_to = $1
    ORDER BY lower(a.name), a.id
  `, assignedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Asset, error) {
	return scanAsset(s.DB.QueryRow(ctx, `
    SELECT`+assetColumns+`
    FROM assets a
    LEFT JOIN users u ON u.id = a.assigned_to
    WHERE a.id = $1
  `, id))
}

func (s *Store) Create(ctx context.Context, a Asset) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO assets (id, name, category, serial_number, assigned_to, notes, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
  `, a.ID, a.Name, a.Category, a.SerialNumber, a.AssignedTo, a.Notes, a.CreatedAt)
	return err
}

func (s *Store) Update(ctx context.Context, a Asset) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE assets
    SET name = $2, category = $3, serial_number = $4, assigned_to = $5, notes = $6, updated_at = $7
    WHERE id = $1
  `, a.ID, a.Name, a.Category, a.SerialNumber, a.AssignedTo, a.Notes, a.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM assets WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
