package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrResetConsumed is returned when a reset token was used concurrently.
var ErrResetConsumed = errors.New("password reset already used")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const accountColumns = `
    u.id, u.name, u.email, u.password_hash, u.is_active, u.role_id, r.name,
    u.reset_password, u.profile_image`

func scanAccount(row pgx.Row) (Account, error) {
	var out Account
	err := row.Scan(&out.ID, &out.Name, &out.Email, &out.PasswordHash, &out.IsActive, &out.RoleID,
		&out.RoleName, &out.ResetPassword, &out.ProfileImage)
	return out, err
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(s.DB.QueryRow(ctx, `
    SELECT`+accountColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1)
  `, email))
}

func (s *Store) FindAccountByID(ctx context.Context, userID string) (Account, error) {
	return scanAccount(s.DB.QueryRow(ctx, `
    SELECT`+accountColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID))
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string, resetRequired bool) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET password_hash = $2, reset_password = $3, updated_at = now() WHERE id = $1
  `, userID, passwordHash, resetRequired)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) CreatePasswordReset(ctx context.Context, reset PasswordReset) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO password_resets (id, user_id, token_hash, expires_at, used, notified)
    VALUES ($1, $2, $3, $4, false, false)
  `, reset.ID, reset.UserID, reset.TokenHash, reset.ExpiresAt)
	return err
}

func (s *Store) FindPasswordReset(ctx context.Context, tokenHash string) (PasswordReset, error) {
	var out PasswordReset
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, token_hash, expires_at, used, notified
    FROM password_resets
    WHERE token_hash = $1
  `, tokenHash).Scan(&out.ID, &out.UserID, &out.TokenHash, &out.ExpiresAt, &out.Used, &out.Notified)
	return out, err
}

func (s *Store) MarkPasswordResetNotified(ctx context.Context, resetID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE password_resets SET notified = true WHERE id = $1", resetID)
	return err
}

// PurgePasswordResets removes tokens that are used or expired before cutoff.
func (s *Store) PurgePasswordResets(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM password_resets WHERE used = true OR expires_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ConsumePasswordReset flips the used flag and stores the new hash in one
// transaction, so a token can only ever change the password once.
func (s *Store) ConsumePasswordReset(ctx context.Context, resetID, userID, passwordHash string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, "UPDATE password_resets SET used = true WHERE id = $1 AND used = false", resetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResetConsumed
	}
	if _, err := tx.Exec(ctx, `
    UPDATE users SET password_hash = $2, reset_password = false, updated_at = now() WHERE id = $1
  `, userID, passwordHash); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
