package roleshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/roles"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context) ([]roles.Role, error)
	Get(ctx context.Context, id string) (roles.Role, error)
	Create(ctx context.Context, in roles.Input) (roles.Role, error)
	Update(ctx context.Context, id string, in roles.Input) (roles.Role, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	Service Service
	Access  middleware.AccessChecker
	Audit   audit.Recorder
}

func NewHandler(service Service, checker middleware.AccessChecker, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Access: checker, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := func(flag string) func(http.Handler) http.Handler {
		return middleware.RequireFormAccess(h.Access, access.FormRoles, flag)
	}
	r.Route("/roles", func(r chi.Router) {
		r.With(guard(access.FlagView)).Get("/", h.handleList)
		r.With(guard(access.FlagAdd)).Post("/", h.handleCreate)
		r.With(guard(access.FlagView)).Get("/{roleID}", h.handleGet)
		r.With(guard(access.FlagEdit)).Put("/{roleID}", h.handleUpdate)
		r.With(guard(access.FlagDelete)).Delete("/{roleID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "roleID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	role, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload roles.Input
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	role, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "role.create", "role", role.ID, nil, role)
	api.Created(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "roleID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload roles.Input
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	role, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "role.update", "role", role.ID, before, role)
	api.Success(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "roleID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "role.delete", "role", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
