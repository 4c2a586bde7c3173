package fileshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/files"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	Attach(ctx context.Context, in files.Upload) (files.File, error)
	List(ctx context.Context, userID string) ([]files.File, error)
	Get(ctx context.Context, id string) (files.File, error)
	Delete(ctx context.Context, id string) (files.File, error)
}

type Handler struct {
	Service        Service
	Access         middleware.AccessChecker
	Audit          audit.Recorder
	MaxUploadBytes int64
}

func NewHandler(service Service, checker middleware.AccessChecker, recorder audit.Recorder, maxUploadBytes int64) *Handler {
	return &Handler{Service: service, Access: checker, Audit: recorder, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := func(flag string) func(http.Handler) http.Handler {
		return middleware.RequireFormAccess(h.Access, access.FormFiles, flag)
	}

	r.Route("/files", func(r chi.Router) {
		r.With(guard(access.FlagView)).Get("/users/{userID}", h.handleList)
		r.With(guard(access.FlagAdd)).Post("/users/{userID}", h.handleUpload)
		r.With(guard(access.FlagView)).Get("/{fileID}", h.handleGet)
		r.With(guard(access.FlagView)).Get("/{fileID}/download", h.handleDownload)
		r.With(guard(access.FlagDelete)).Delete("/{fileID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	list, err := h.Service.List(r.Context(), userID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	upload, err := shared.ReadUpload(w, r, shared.DefaultUploadField, h.MaxUploadBytes)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	f, err := h.Service.Attach(r.Context(), files.Upload{
		UserID:       userID,
		UploadedBy:   user.UserID,
		OriginalName: upload.Name,
		Data:         upload.Data,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "file.upload", "user_file", f.ID, nil, f)
	api.Created(w, f, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "fileID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	f, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, f, middleware.GetRequestID(r.Context()))
}

// handleDownload redirects to wherever the storage backend serves the file.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "fileID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	f, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	http.Redirect(w, r, f.Path, http.StatusFound)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "fileID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	f, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "file.delete", "user_file", id, f, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
