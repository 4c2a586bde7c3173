package accesshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/access"
	"hradmin/internal/domain/audit"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	middleware.AccessChecker
	Forms(ctx context.Context) ([]access.Form, error)
	UserMatrix(ctx context.Context, userID string) ([]access.FormAccess, error)
	FormUsers(ctx context.Context, formID string) ([]access.UserFormAccess, error)
	SetBulkAccessLevel(ctx context.Context, formID string, userIDs []string, level access.Level) (access.BulkResult, error)
	SetPartialAccess(ctx context.Context, formID, userID string, value access.PartialValue) (access.Record, error)
	SetAccessLevel(ctx context.Context, formID, userID string, level access.Level, value access.PartialValue) (access.Record, error)
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
}

func NewHandler(service Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := func(flag string) func(http.Handler) http.Handler {
		return middleware.RequireFormAccess(h.Service, access.FormAccessControl, flag)
	}
	r.Route("/access", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/me", h.handleMyMatrix)
		r.With(guard(access.FlagView)).Get("/forms", h.handleForms)
		r.With(guard(access.FlagView)).Get("/users/{userID}", h.handleUserMatrix)
		r.With(guard(access.FlagView)).Get("/forms/{formID}/users", h.handleFormUsers)
		r.With(guard(access.FlagEdit)).Put("/forms/{formID}/bulk", h.handleBulk)
		r.With(guard(access.FlagEdit)).Put("/forms/{formID}/users/{userID}", h.handleSetLevel)
		r.With(guard(access.FlagEdit)).Put("/forms/{formID}/users/{userID}/partial", h.handlePartial)
	})
}

func (h *Handler) handleForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.Service.Forms(r.Context())
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, forms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyMatrix(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.writeMatrix(w, r, user.UserID)
}

func (h *Handler) handleUserMatrix(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	h.writeMatrix(w, r, userID)
}

func (h *Handler) writeMatrix(w http.ResponseWriter, r *http.Request, userID string) {
	matrix, err := h.Service.UserMatrix(r.Context(), userID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"userId":         userID,
		"forms":          matrix,
		"hasValidAccess": access.HasValidFormAccess(access.Records(matrix)),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFormUsers(w http.ResponseWriter, r *http.Request) {
	formID, err := shared.PathID(r, "formID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	list, err := h.Service.FormUsers(r.Context(), formID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

type bulkRequest struct {
	UserIDs     []string `json:"userIds"`
	AccessLevel string   `json:"accessLevel" validate:"required"`
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	formID, err := shared.PathID(r, "formID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload bulkRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}

	result, err := h.Service.SetBulkAccessLevel(r.Context(), formID, payload.UserIDs, level(payload.AccessLevel))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "access.bulk_update", "form", formID, nil, map[string]any{
		"userIds":     payload.UserIDs,
		"accessLevel": payload.AccessLevel,
		"result":      result,
	})
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

type setLevelRequest struct {
	AccessLevel string              `json:"accessLevel" validate:"required"`
	Permissions access.PartialValue `json:"permissions"`
}

func (h *Handler) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	formID, userID, ok := h.target(w, r)
	if !ok {
		return
	}
	var payload setLevelRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	lvl := level(payload.AccessLevel)
	if lvl == access.LevelPartial && payload.Permissions.IsZero() {
		api.Error(w, r, apperr.Validation("missing_permissions", "partial access needs permissions"))
		return
	}

	rec, err := h.Service.SetAccessLevel(r.Context(), formID, userID, lvl, payload.Permissions)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "access.update", "user", userID, nil, rec)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

type partialRequest struct {
	Access access.PartialValue `json:"access"`
}

func (h *Handler) handlePartial(w http.ResponseWriter, r *http.Request) {
	formID, userID, ok := h.target(w, r)
	if !ok {
		return
	}
	var payload partialRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	if payload.Access.IsZero() {
		api.Error(w, r, apperr.Validation("missing_access", "access must be a boolean or an object of boolean flags"))
		return
	}

	rec, err := h.Service.SetPartialAccess(r.Context(), formID, userID, payload.Access)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "access.partial_update", "user", userID, nil, rec)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	formID, err := shared.PathID(r, "formID")
	if err != nil {
		api.Error(w, r, err)
		return "", "", false
	}
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return "", "", false
	}
	return formID, userID, true
}

// level keeps unknown labels as-is so the service reports them.
func level(raw string) access.Level {
	if parsed, ok := access.ParseLevel(raw); ok {
		return parsed
	}
	return access.Level(raw)
}
