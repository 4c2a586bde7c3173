package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/auth"
	"hradmin/internal/platform/db"
)

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	out, total, err := s.Store.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list users", err)
	}
	if out == nil {
		out = []User{}
	}
	return out, total, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, notFound()
		}
		return User{}, apperr.Internal("failed to load user", err)
	}
	return u, nil
}

// Create stores a new account that must change its password on first
// sign in. Its access matrix starts with no access on every form.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := auth.ValidatePassword(in.Password); err != nil {
		return User{}, apperr.Validation("weak_password", err.Error())
	}
	if err := s.ensureRole(ctx, in.RoleID); err != nil {
		return User{}, err
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, apperr.Internal("failed to hash password", err)
	}

	now := s.Now().UTC()
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	u := User{
		ID:             db.NewID(),
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		IsActive:       active,
		RoleID:         in.RoleID,
		JobDescription: strings.TrimSpace(in.JobDescription),
		ResetPassword:  true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Store.CreateWithAccess(ctx, u, hash); err != nil {
		if db.IsUniqueViolation(err, "users_email_lower_key") {
			return User{}, duplicateEmail()
		}
		return User{}, apperr.Internal("failed to create user", err)
	}
	return s.Get(ctx, u.ID)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.ensureEmailFree(ctx, email, id); err != nil {
		return User{}, err
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Email = email
	u.Phone = strings.TrimSpace(in.Phone)
	u.Address = strings.TrimSpace(in.Address)
	u.JobDescription = strings.TrimSpace(in.JobDescription)
	if err := s.save(ctx, u); err != nil {
		return User{}, err
	}
	return s.Get(ctx, id)
}

// UpdateProfile is the self-service edit; email and job fields stay put.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Address = strings.TrimSpace(in.Address)
	if err := s.save(ctx, u); err != nil {
		return User{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) ChangeRole(ctx context.Context, id, roleID string) (User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return User{}, err
	}
	if err := s.ensureRole(ctx, roleID); err != nil {
		return User{}, err
	}
	if err := s.Store.ChangeRole(ctx, id, roleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, notFound()
		}
		return User{}, apperr.Internal("failed to change role", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (User, error) {
	if err := s.Store.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, notFound()
		}
		return User{}, apperr.Internal("failed to update user status", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) save(ctx context.Context, u User) error {
	if err := s.Store.Update(ctx, u); err != nil {
		if db.IsUniqueViolation(err, "users_email_lower_key") {
			return duplicateEmail()
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound()
		}
		return apperr.Internal("failed to update user", err)
	}
	return nil
}

func (s *Service) ensureRole(ctx context.Context, roleID string) error {
	if !db.ValidID(roleID) {
		return apperr.Validation("invalid_role", "roleId must be a valid id")
	}
	ok, err := s.Store.RoleExists(ctx, roleID)
	if err != nil {
		return apperr.Internal("failed to check role", err)
	}
	if !ok {
		return apperr.NotFound("role_not_found", "role not found")
	}
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	if email == "" {
		return apperr.Validation("invalid_email", "email is required")
	}
	taken, err := s.Store.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return apperr.Internal("failed to check email", err)
	}
	if taken {
		return duplicateEmail()
	}
	return nil
}

func notFound() error {
	return apperr.NotFound("user_not_found", "user not found")
}

func duplicateEmail() error {
	return apperr.Conflict("email_exists", "a user with this email already exists")
}
