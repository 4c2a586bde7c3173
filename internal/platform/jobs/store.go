package jobs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) StartRun(ctx context.Context, jobType string) (string, error) {
	id := db.NewID()
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO job_runs (id, job_type, status) VALUES ($1, $2, $3)
  `, id, jobType, StatusRunning); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, details []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs SET status = $2, details_json = $3, completed_at = now() WHERE id = $1
  `, runID, status, details)
	return err
}
