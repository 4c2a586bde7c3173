package files

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

func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists)
	return exists, err
}

func (s *Store) ProfileImage(ctx context.Context, userID string) (string, error) {
	var path string
	err := s.DB.QueryRow(ctx, "SELECT profile_image FROM users WHERE id = $1", userID).Scan(&path)
	return path, err
}

func (s *Store) SetProfileImage(ctx context.Context, userID, path string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET profile_image = $2, updated_at = now() WHERE id = $1", userID, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) Create(ctx context.Context, f File) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_files (id, user_id, file_name, original_name, path, content_type, size_bytes, uploaded_by, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
  `, f.ID, f.UserID, f.FileName, f.OriginalName, f.Path, f.ContentType, f.SizeBytes, f.UploadedBy, f.CreatedAt)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (File, error) {
	var f File
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, file_name, original_name, path, content_type, size_bytes, uploaded_by, created_at
    FROM user_files WHERE id = $1
  `, id).Scan(&f.ID, &f.UserID, &f.FileName, &f.OriginalName, &f.Path, &f.ContentType, &f.SizeBytes, &f.UploadedBy, &f.CreatedAt)
	return f, err
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]File, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, file_name, original_name, path, content_type, size_bytes, uploaded_by, created_at
    FROM user_files WHERE user_id = $1
    ORDER BY created_at DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.UserID, &f.FileName, &f.OriginalName, &f.Path, &f.ContentType, &f.SizeBytes, &f.UploadedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM user_files WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
