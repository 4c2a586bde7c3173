package usershandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/users"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, filter users.ListFilter) ([]users.User, int, error)
	Get(ctx context.Context, id string) (users.User, error)
	Create(ctx context.Context, in users.CreateInput) (users.User, error)
	Update(ctx context.Context, id string, in users.UpdateInput) (users.User, error)
	UpdateProfile(ctx context.Context, id string, in users.ProfileInput) (users.User, error)
	ChangeRole(ctx context.Context, id, roleID string) (users.User, error)
	SetActive(ctx context.Context, id string, active bool) (users.User, error)
}

type ImageService interface {
	SetProfileImage(ctx context.Context, userID string, data []byte) (string, error)
}

type Handler struct {
	Service        Service
	Images         ImageService
	Access         middleware.AccessChecker
	Audit          audit.Recorder
	MaxUploadBytes int64
}

func NewHandler(service Service, images ImageService, checker middleware.AccessChecker, recorder audit.Recorder, maxUploadBytes int64) *Handler {
	return &Handler{Service: service, Images: images, Access: checker, Audit: recorder, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := func(flag string) func(http.Handler) http.Handler {
		return middleware.RequireFormAccess(h.Access, access.FormUsers, flag)
	}
	r.Route("/users", func(r chi.Router) {
		r.With(guard(access.FlagView)).Get("/", h.handleList)
		r.With(guard(access.FlagAdd)).Post("/", h.handleCreate)
		r.With(guard(access.FlagView)).Get("/{userID}", h.handleGet)
		r.With(guard(access.FlagEdit)).Put("/{userID}", h.handleUpdate)
		r.With(guard(access.FlagEdit)).Put("/{userID}/role", h.handleChangeRole)
		r.With(guard(access.FlagEdit)).Put("/{userID}/status", h.handleSetStatus)
		r.With(guard(access.FlagEdit)).Post("/{userID}/profile-image", h.handleProfileImage)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", h.handleMe)
		r.Put("/me", h.handleUpdateMe)
		r.Post("/me/profile-image", h.handleMyProfileImage)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	active, err := shared.QueryBool(r, "active")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	list, total, err := h.Service.List(r.Context(), users.ListFilter{
		Query:  r.URL.Query().Get("q"),
		Active: active,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	u, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload users.CreateInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	u, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "user.create", "user", u.ID, nil, u)
	api.Created(w, u, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload users.UpdateInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	u, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "user.update", "user", u.ID, nil, u)
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}

type roleRequest struct {
	RoleID string `json:"roleId" validate:"required,len=24,hexadecimal"`
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload roleRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	u, err := h.Service.ChangeRole(r.Context(), id, payload.RoleID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "user.role_change", "user", u.ID, nil, map[string]string{"roleId": u.RoleID})
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload statusRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	u, err := h.Service.SetActive(r.Context(), id, *payload.IsActive)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	action := "user.deactivate"
	if u.IsActive {
		action = "user.activate"
	}
	shared.RecordAudit(r, h.Audit, action, "user", u.ID, nil, nil)
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	h.storeProfileImage(w, r, id)
}

func (h *Handler) handleMyProfileImage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.storeProfileImage(w, r, user.UserID)
}

func (h *Handler) storeProfileImage(w http.ResponseWriter, r *http.Request, userID string) {
	upload, err := shared.ReadUpload(w, r, shared.DefaultUploadField, h.MaxUploadBytes)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	path, err := h.Images.SetProfileImage(r.Context(), userID, upload.Data)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "user.profile_image", "user", userID, nil, map[string]string{"profileImage": path})
	api.Success(w, map[string]string{"profileImage": path}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	u, err := h.Service.Get(r.Context(), user.UserID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload users.ProfileInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	u, err := h.Service.UpdateProfile(r.Context(), user.UserID, payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "user.profile_update", "user", u.ID, nil, nil)
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}
