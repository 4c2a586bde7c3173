package roles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/platform/db"
)

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Role, error) {
	out, err := s.Store.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list roles", err)
	}
	if out == nil {
		out = []Role{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Role, error) {
	role, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, apperr.NotFound("role_not_found", "role not found")
		}
		return Role{}, apperr.Internal("failed to load role", err)
	}
	return role, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Role, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return Role{}, err
	}
	now := s.Now().UTC()
	role := Role{
		ID:          db.NewID(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Create(ctx, role); err != nil {
		if db.IsUniqueViolation(err, "") {
			return Role{}, duplicateName()
		}
		return Role{}, apperr.Internal("failed to create role", err)
	}
	return role, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	name := strings.TrimSpace(in.Name)
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return Role{}, err
	}
	role.Name = name
	role.Description = strings.TrimSpace(in.Description)
	role.UpdatedAt = s.Now().UTC()
	if err := s.Store.Update(ctx, role); err != nil {
		if db.IsUniqueViolation(err, "") {
			return Role{}, duplicateName()
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, apperr.NotFound("role_not_found", "role not found")
		}
		return Role{}, apperr.Internal("failed to update role", err)
	}
	return role, nil
}

// Delete refuses while any user still references the role.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.Store.CountUsers(ctx, id)
	if err != nil {
		return apperr.Internal("failed to count role users", err)
	}
	if count > 0 {
		return apperr.Conflict("role_in_use", "role is assigned to users and cannot be deleted")
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("role_in_use", "role is assigned to users and cannot be deleted")
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("role_not_found", "role not found")
		}
		return apperr.Internal("failed to delete role", err)
	}
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name, excludeID string) error {
	if name == "" {
		return apperr.Validation("invalid_name", "role name is required")
	}
	taken, err := s.Store.NameTaken(ctx, name, excludeID)
	if err != nil {
		return apperr.Internal("failed to check role name", err)
	}
	if taken {
		return duplicateName()
	}
	return nil
}

func duplicateName() error {
	return apperr.Conflict("role_exists", "a role with this name already exists")
}
