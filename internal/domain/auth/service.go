package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/access"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/logger"
)

const (
	DefaultTokenTTL      = time.Hour
	DefaultResetTokenTTL = 15 * time.Minute
	defaultBaseURL       = "http://localhost:8080"
)

type AccessChecker interface {
	UserMatrix(ctx context.Context, userID string) ([]access.FormAccess, error)
}

type ResetMailer interface {
	SendResetEmail(ctx context.Context, to, link string) error
}

type Options struct {
	Secret   string
	TokenTTL time.Duration
	ResetTTL time.Duration
	BaseURL  string
}

type Service struct {
	Store  StoreAPI
	Access AccessChecker
	Mailer ResetMailer
	Opts   Options
	Now    func() time.Time
}

func NewService(store StoreAPI, accessChecker AccessChecker, mailer ResetMailer, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = DefaultResetTokenTTL
	}
	return &Service{Store: store, Access: accessChecker, Mailer: mailer, Opts: opts, Now: time.Now}
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, apperr.Validation("invalid_payload", "email and password are required")
	}

	acct, err := s.Store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, apperr.Unauthorized("invalid_credentials", "invalid credentials")
		}
		return LoginResult{}, apperr.Internal("failed to load account", err)
	}
	if err := CheckPassword(acct.PasswordHash, password); err != nil {
		return LoginResult{}, apperr.Unauthorized("invalid_credentials", "invalid credentials")
	}
	if !acct.IsActive {
		return LoginResult{}, apperr.Forbidden("account_inactive", "account is inactive")
	}

	matrix, err := s.Access.UserMatrix(ctx, acct.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if !access.HasValidFormAccess(access.Records(matrix)) {
		return LoginResult{}, apperr.Forbidden("no_access", "no access has been granted to this account")
	}

	expires := s.Now().Add(s.Opts.TokenTTL)
	token, err := GenerateToken(s.Opts.Secret, Claims{
		UserID:   acct.ID,
		Email:    acct.Email,
		RoleID:   acct.RoleID,
		RoleName: acct.RoleName,
	}, s.Opts.TokenTTL)
	if err != nil {
		return LoginResult{}, apperr.Internal("failed to issue token", err)
	}

	if err := s.Store.TouchLastLogin(ctx, acct.ID); err != nil {
		logger.From(ctx).Warn("update last_login failed", "userId", acct.ID, "err", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expires,
		User: SessionUser{
			ID:           acct.ID,
			Name:         acct.Name,
			Email:        acct.Email,
			RoleID:       acct.RoleID,
			RoleName:     acct.RoleName,
			ProfileImage: acct.ProfileImage,
		},
		ResetPassword: acct.ResetPassword,
		Access:        matrix,
	}, nil
}

// RequestPasswordReset issues a reset token and mails the link. Unknown or
// inactive accounts get the same silent success.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("invalid_payload", "email is required")
	}

	acct, err := s.Store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperr.Internal("failed to load account", err)
	}
	if !acct.IsActive {
		return nil
	}

	token, err := GenerateResetToken()
	if err != nil {
		return apperr.Internal("failed to generate reset token", err)
	}
	reset := PasswordReset{
		ID:        db.NewID(),
		UserID:    acct.ID,
		TokenHash: HashToken(token),
		ExpiresAt: s.Now().Add(s.Opts.ResetTTL),
	}
	if err := s.Store.CreatePasswordReset(ctx, reset); err != nil {
		return apperr.Internal("failed to store reset token", err)
	}

	if err := s.Mailer.SendResetEmail(ctx, acct.Email, BuildResetLink(s.Opts.BaseURL, token)); err != nil {
		return apperr.Internal("failed to send reset email", err)
	}
	if err := s.Store.MarkPasswordResetNotified(ctx, reset.ID); err != nil {
		logger.From(ctx).Warn("mark reset notified failed", "resetId", reset.ID, "err", err)
	}
	return nil
}

// CheckResetToken validates a token without consuming it.
func (s *Service) CheckResetToken(ctx context.Context, token string) (PasswordReset, error) {
	if strings.TrimSpace(token) == "" {
		return PasswordReset{}, apperr.Validation("invalid_token", "invalid or expired token")
	}
	reset, err := s.Store.FindPasswordReset(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PasswordReset{}, apperr.Validation("invalid_token", "invalid or expired token")
		}
		return PasswordReset{}, apperr.Internal("failed to load reset token", err)
	}
	if reset.Used || !s.Now().Before(reset.ExpiresAt) {
		return PasswordReset{}, apperr.Validation("invalid_token", "invalid or expired token")
	}
	return reset, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return apperr.Validation("weak_password", err.Error())
	}
	reset, err := s.CheckResetToken(ctx, token)
	if err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("failed to update password", err)
	}
	if err := s.Store.ConsumePasswordReset(ctx, reset.ID, reset.UserID, hash); err != nil {
		if errors.Is(err, ErrResetConsumed) {
			return apperr.Validation("invalid_token", "invalid or expired token")
		}
		return apperr.Internal("failed to update password", err)
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	acct, err := s.Store.FindAccountByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("user_not_found", "user not found")
		}
		return apperr.Internal("failed to load account", err)
	}
	if err := CheckPassword(acct.PasswordHash, currentPassword); err != nil {
		return apperr.Unauthorized("invalid_credentials", "current password is incorrect")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return apperr.Validation("weak_password", err.Error())
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("failed to update password", err)
	}
	if err := s.Store.UpdatePassword(ctx, userID, hash, false); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	return nil
}

func BuildResetLink(baseURL, token string) string {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		parsed, _ = url.Parse(defaultBaseURL)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/reset-password"
	query := parsed.Query()
	query.Set("token", token)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
