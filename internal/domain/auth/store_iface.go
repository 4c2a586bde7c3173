package auth

import "context"

type StoreAPI interface {
	FindAccountByEmail(ctx context.Context, email string) (Account, error)
	FindAccountByID(ctx context.Context, userID string) (Account, error)
	TouchLastLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string, resetRequired bool) error
	CreatePasswordReset(ctx context.Context, reset PasswordReset) error
	FindPasswordReset(ctx context.Context, tokenHash string) (PasswordReset, error)
	MarkPasswordResetNotified(ctx context.Context, resetID string) error
	ConsumePasswordReset(ctx context.Context, resetID, userID, passwordHash string) error
}
