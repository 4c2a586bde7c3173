package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/auth"
	"hradmin/internal/platform/config"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/logger"
)

// Run is idempotent: it fills the form catalogue, the Admin role, the
// configured admin account and any missing access matrices.
func Run(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	accessStore := access.NewStore(pool)
	if err := accessStore.EnsureForms(ctx, access.DefaultForms); err != nil {
		return fmt.Errorf("seed forms: %w", err)
	}

	roleID, err := ensureRole(ctx, pool, auth.RoleAdmin, "Full administrative access")
	if err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}

	adminID, created, err := ensureAdminUser(ctx, pool, roleID, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	if err := accessStore.EnsureMatrices(ctx); err != nil {
		return fmt.Errorf("seed access matrices: %w", err)
	}
	if created {
		if err := accessStore.GrantFullAccess(ctx, adminID); err != nil {
			return fmt.Errorf("grant admin access: %w", err)
		}
		logger.From(ctx).Info("seeded admin account", "userId", adminID, "email", cfg.SeedAdminEmail)
	}
	return nil
}

func ensureRole(ctx context.Context, pool *pgxpool.Pool, name, description string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE lower(name) = lower($1)", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	id = db.NewID()
	if _, err := pool.Exec(ctx, `
    INSERT INTO roles (id, name, description) VALUES ($1, $2, $3)
    ON CONFLICT ((lower(name))) DO NOTHING
  `, id, name, description); err != nil {
		return "", err
	}
	err = pool.QueryRow(ctx, "SELECT id FROM roles WHERE lower(name) = lower($1)", name).Scan(&id)
	return id, err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID, name, email, password string) (string, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return "", false, nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = $1", email).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	id = db.NewID()
	_, err = pool.Exec(ctx, `
    INSERT INTO users (id, name, email, password_hash, role_id, reset_password)
    VALUES ($1, $2, $3, $4, $5, true)
  `, id, name, email, hash, roleID)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
