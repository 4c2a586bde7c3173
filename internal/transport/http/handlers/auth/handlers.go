package authhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/auth"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, token string) (auth.PasswordReset, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
}

func NewHandler(service Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

// RegisterRoutes mounts the public credential endpoints and the
// signed-in password change.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/request-reset", h.HandleRequestReset)
		r.Get("/reset", h.HandleCheckReset)
		r.Post("/reset", h.HandleReset)
	})
	r.With(middleware.RequireAuth).Put("/me/password", h.HandleChangePassword)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	r = r.WithContext(middleware.WithUser(r.Context(), auth.UserContext{UserID: result.User.ID, Email: result.User.Email}))
	shared.RecordAudit(r, h.Audit, "auth.login", "user", result.User.ID, nil, nil)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

// HandleRequestReset answers the same way whether or not the email exists.
func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}

	if err := h.Service.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, map[string]string{
		"status":  "reset_requested",
		"message": "if the email is registered, a reset link has been sent",
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCheckReset(w http.ResponseWriter, r *http.Request) {
	reset, err := h.Service.CheckResetToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"valid":     true,
		"expiresAt": reset.ExpiresAt.UTC().Format(time.RFC3339),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}

	if err := h.Service.ResetPassword(r.Context(), payload.Token, payload.NewPassword); err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "auth.password_reset", "user", "", nil, nil)
	api.Success(w, map[string]string{"status": "password_reset"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload changePasswordRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}

	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "auth.password_change", "user", user.UserID, nil, nil)
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}
