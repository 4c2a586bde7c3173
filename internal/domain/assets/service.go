package assets

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

func (s *Service) List(ctx context.Context, assignedTo string) ([]Asset, error) {
	out, err := s.Store.List(ctx, assignedTo)
	if err != nil {
		return nil, apperr.Internal("failed to list assets", err)
	}
	if out == nil {
		out = []Asset{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Asset, error) {
	a, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, notFound()
		}
		return Asset{}, apperr.Internal("failed to load asset", err)
	}
	return a, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Asset, error) {
	now := s.Now().UTC()
	a := Asset{ID: db.NewID(), CreatedAt: now, UpdatedAt: now}
	if err := apply(&a, in); err != nil {
		return Asset{}, err
	}
	if err := s.Store.Create(ctx, a); err != nil {
		return Asset{}, writeError("failed to create asset", err)
	}
	return s.Get(ctx, a.ID)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Asset, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	if err := apply(&a, in); err != nil {
		return Asset{}, err
	}
	a.UpdatedAt = s.Now().UTC()
	if err := s.Store.Update(ctx, a); err != nil {
		return Asset{}, writeError("failed to update asset", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound()
		}
		return apperr.Internal("failed to delete asset", err)
	}
	return nil
}

func apply(a *Asset, in Input) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Validation("invalid_name", "name is required")
	}
	a.Name = name
	a.Category = strings.TrimSpace(in.Category)
	a.SerialNumber = strings.TrimSpace(in.SerialNumber)
	a.Notes = strings.TrimSpace(in.Notes)
	a.AssignedTo = nil
	if in.AssignedTo != nil && strings.TrimSpace(*in.AssignedTo) != "" {
		assignee := strings.TrimSpace(*in.AssignedTo)
		a.AssignedTo = &assignee
	}
	return nil
}

func writeError(msg string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return notFound()
	case db.IsForeignKeyViolation(err):
		return apperr.Validation("invalid_assignee", "assigned user does not exist")
	}
	return apperr.Internal(msg, err)
}

func notFound() error {
	return apperr.NotFound("asset_not_found", "asset not found")
}
