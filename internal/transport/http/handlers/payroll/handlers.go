package payrollhandler

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/payroll"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	Items(ctx context.Context, itemType payroll.ItemType) ([]payroll.PayItem, error)
	CreateItem(ctx context.Context, in payroll.PayItemInput) (payroll.PayItem, error)
	UpdateItem(ctx context.Context, id string, in payroll.PayItemInput) (payroll.PayItem, error)
	DeleteItem(ctx context.Context, id string) error

	Overview(ctx context.Context) (payroll.Overview, error)
	Setup(ctx context.Context, userID string) (payroll.Setup, error)
	Preview(in payroll.SetupInput) (payroll.Salary, error)
	SaveSetup(ctx context.Context, userID string, in payroll.SetupInput) (payroll.Setup, error)
}

type Handler struct {
	Service Service
	Access  middleware.AccessChecker
	Audit   audit.Recorder
	Now     func() time.Time
}

func NewHandler(service Service, checker middleware.AccessChecker, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Access: checker, Audit: recorder, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := func(form, flag string) func(http.Handler) http.Handler {
		return middleware.RequireFormAccess(h.Access, form, flag)
	}
	items := access.FormPayItems
	setups := access.FormPayroll

	r.Route("/payroll", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.With(guard(items, access.FlagView)).Get("/", h.handleListItems)
			r.With(guard(items, access.FlagAdd)).Post("/", h.handleCreateItem)
			r.With(guard(items, access.FlagEdit)).Put("/{itemID}", h.handleUpdateItem)
			r.With(guard(items, access.FlagDelete)).Delete("/{itemID}", h.handleDeleteItem)
		})
		r.With(guard(setups, access.FlagView)).Get("/options", h.handleOptions)
		r.With(guard(setups, access.FlagView)).Post("/preview", h.handlePreview)
		r.Route("/setups", func(r chi.Router) {
			r.With(guard(setups, access.FlagView)).Get("/", h.handleOverview)
			r.With(guard(setups, access.FlagView)).Get("/export.csv", h.handleExportRegister)
			r.With(guard(setups, access.FlagView)).Get("/{userID}", h.handleGetSetup)
			r.With(guard(setups, access.FlagEdit)).Put("/{userID}", h.handleSaveSetup)
			r.With(guard(setups, access.FlagView)).Get("/{userID}/slip", h.handleDownloadSlip)
		})
	})
}

type itemRequest struct {
	Type        string `json:"type"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func itemType(raw string) payroll.ItemType {
	return payroll.ItemType(strings.ToUpper(strings.TrimSpace(raw)))
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Items(r.Context(), itemType(r.URL.Query().Get("type")))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var payload itemRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	item, err := h.Service.CreateItem(r.Context(), payroll.PayItemInput{
		Type:        itemType(payload.Type),
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "pay_item.create", "pay_item", item.ID, nil, item)
	api.Created(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "itemID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload itemRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	item, err := h.Service.UpdateItem(r.Context(), id, payroll.PayItemInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "pay_item.update", "pay_item", item.ID, nil, item)
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "itemID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if err := h.Service.DeleteItem(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "pay_item.delete", "pay_item", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string][]string{
		"employmentTypes":    payroll.EmploymentTypes,
		"payrollFrequencies": payroll.PayrollFrequencies,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var payload payroll.SetupInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	salary, err := h.Service.Preview(payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, salary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Overview(r.Context())
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, overview, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSetup(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	setup, err := h.Service.Setup(r.Context(), userID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveSetup(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload payroll.SetupInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Enum("employmentType", payload.EmploymentType, payroll.EmploymentTypes, "unknown employment type")
	v.Enum("payrollFrequency", payload.PayrollFrequency, payroll.PayrollFrequencies, "unknown payroll frequency")
	if err := v.Err(); err != nil {
		api.Error(w, r, err)
		return
	}
	setup, err := h.Service.SaveSetup(r.Context(), userID, payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "payroll.save", "payroll_setup", setup.ID, nil, setup)
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadSlip(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	setup, err := h.Service.Setup(r.Context(), userID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	issued := h.Now()
	pdf, err := payroll.SalarySlipPDF(setup, issued)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Attachment(w, "application/pdf", fmt.Sprintf("salary-slip-%s-%s.pdf", userID, issued.Format("2006-01")), pdf)
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Overview(r.Context())
	if err != nil {
		api.Error(w, r, err)
		return
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	_ = writer.Write([]string{"user_id", "name", "email", "role", "employment_type", "payroll_frequency", "basic_salary", "gross_salary", "net_amount", "configured"})
	for _, row := range overview.Rows {
		_ = writer.Write([]string{
			row.UserID,
			row.UserName,
			row.Email,
			row.RoleName,
			row.EmploymentType,
			row.PayrollFrequency,
			money(row.BasicSalary),
			money(row.GrossSalary),
			money(row.NetAmount),
			strconv.FormatBool(row.Configured),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		api.Error(w, r, err)
		return
	}
	api.Attachment(w, "text/csv", "payroll-register.csv", buf.Bytes())
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
