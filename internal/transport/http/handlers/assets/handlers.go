package assetshandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/assets"
	"hradmin/internal/domain/audit"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, assignedTo string) ([]assets.Asset, error)
	Get(ctx context.Context, id string) (assets.Asset, error)
	Create(ctx context.Context, in assets.Input) (assets.Asset, error)
	Update(ctx context.Context, id string, in assets.Input) (assets.Asset, error)
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
		return middleware.RequireFormAccess(h.Access, access.FormAssets, flag)
	}

	r.Route("/assets", func(r chi.Router) {
		r.With(guard(access.FlagView)).Get("/", h.handleList)
		r.With(guard(access.FlagAdd)).Post("/", h.handleCreate)
		r.With(guard(access.FlagView)).Get("/{assetID}", h.handleGet)
		r.With(guard(access.FlagEdit)).Put("/{assetID}", h.handleUpdate)
		r.With(guard(access.FlagDelete)).Delete("/{assetID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("assignedTo")))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "assetID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	a, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload assets.Input
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	a, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "asset.create", "asset", a.ID, nil, a)
	api.Created(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "assetID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload assets.Input
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	a, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	action := "asset.update"
	if assignee(before) != assignee(a) {
		action = "asset.assign"
	}
	shared.RecordAudit(r, h.Audit, action, "asset", a.ID, before, a)
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "assetID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "asset.delete", "asset", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func assignee(a assets.Asset) string {
	if a.AssignedTo == nil {
		return ""
	}
	return *a.AssignedTo
}
