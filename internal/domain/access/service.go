package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/platform/logger"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) Forms(ctx context.Context) ([]Form, error) {
	forms, err := s.Store.ListForms(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list forms", err)
	}
	return forms, nil
}

func (s *Service) UserMatrix(ctx context.Context, userID string) ([]FormAccess, error) {
	list, err := s.Store.ListUserAccess(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load access matrix", err)
	}
	if list == nil {
		list = []FormAccess{}
	}
	return list, nil
}

func (s *Service) FormUsers(ctx context.Context, formID string) ([]UserFormAccess, error) {
	if _, err := s.Store.GetForm(ctx, formID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("form_not_found", "form not found")
		}
		return nil, apperr.Internal("failed to load form", err)
	}
	list, err := s.Store.ListFormUsers(ctx, formID)
	if err != nil {
		return nil, apperr.Internal("failed to list form access", err)
	}
	if list == nil {
		list = []UserFormAccess{}
	}
	return list, nil
}

// HasValidAccess decides whether the user may sign in at all.
func (s *Service) HasValidAccess(ctx context.Context, userID string) (bool, error) {
	list, err := s.Store.ListUserAccess(ctx, userID)
	if err != nil {
		return false, apperr.Internal("failed to load access matrix", err)
	}
	return HasValidFormAccess(Records(list)), nil
}

// Allows checks one flag on one form by name. A missing row denies.
func (s *Service) Allows(ctx context.Context, userID, formName, flag string) (bool, error) {
	rec, err := s.Store.FindRecordByFormName(ctx, userID, formName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperr.Internal("failed to load form access", err)
	}
	return rec.Access().Allows(flag), nil
}

// SetBulkAccessLevel applies Full or No access to many users on one form.
// Each user is written independently: unknown users are skipped and a
// failed write is counted without stopping the rest.
func (s *Service) SetBulkAccessLevel(ctx context.Context, formID string, userIDs []string, level Level) (BulkResult, error) {
	grant, err := bulkGrant(level)
	if err != nil {
		return BulkResult{}, err
	}

	var result BulkResult
	seen := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup || userID == "" {
			continue
		}
		seen[userID] = struct{}{}

		current, err := s.Store.GetRecord(ctx, userID, formID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				result.FailedCount++
				logger.From(ctx).Warn("bulk access lookup failed", "userId", userID, "formId", formID, "err", err)
			}
			continue
		}
		result.MatchedCount++

		next := Encode(formID, grant)
		next.SelectedAccessLevel = string(level)
		if current.Equal(next) {
			continue
		}
		if err := s.Store.SaveRecord(ctx, userID, next); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				result.MatchedCount--
				continue
			}
			result.FailedCount++
			logger.From(ctx).Warn("bulk access update failed", "userId", userID, "formId", formID, "err", err)
			continue
		}
		result.ModifiedCount++
	}
	return result, nil
}

func bulkGrant(level Level) (Access, error) {
	switch level {
	case LevelFull:
		return Full(), nil
	case LevelNone:
		return None(), nil
	case LevelPartial:
		return Access{}, apperr.Validation("partial_not_allowed", "partial access must be set per user")
	default:
		return Access{}, apperr.Validation("invalid_access_level", fmt.Sprintf("access level must be %q or %q", LevelFull, LevelNone))
	}
}

// SetPartialAccess enables partial access with the given flags and clears
// full/no access and any selected level.
func (s *Service) SetPartialAccess(ctx context.Context, formID, userID string, value PartialValue) (Record, error) {
	current, err := s.Store.GetRecord(ctx, userID, formID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, apperr.NotFound("form_access_not_found", "no access record for this user and form")
		}
		return Record{}, apperr.Internal("failed to load form access", err)
	}

	next := Encode(formID, Partial(value.Permissions()))
	if current.Equal(next) {
		return next, nil
	}
	if err := s.Store.SaveRecord(ctx, userID, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, apperr.NotFound("form_access_not_found", "no access record for this user and form")
		}
		return Record{}, apperr.Internal("failed to update form access", err)
	}
	return next, nil
}

// SetAccessLevel is the single-target path that accepts all three levels.
func (s *Service) SetAccessLevel(ctx context.Context, formID, userID string, level Level, value PartialValue) (Record, error) {
	if level == LevelPartial {
		return s.SetPartialAccess(ctx, formID, userID, value)
	}
	result, err := s.SetBulkAccessLevel(ctx, formID, []string{userID}, level)
	if err != nil {
		return Record{}, err
	}
	if result.FailedCount > 0 {
		return Record{}, apperr.Internal("failed to update form access", nil)
	}
	if result.MatchedCount == 0 {
		return Record{}, apperr.NotFound("form_access_not_found", "no access record for this user and form")
	}
	rec, err := s.Store.GetRecord(ctx, userID, formID)
	if err != nil {
		return Record{}, apperr.Internal("failed to load form access", err)
	}
	return rec, nil
}
