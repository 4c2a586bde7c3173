package evaluationhandler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/evaluation"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Service interface {
	Programs(ctx context.Context) (evaluation.ProgramOverview, error)
	Program(ctx context.Context, id string) (evaluation.Program, error)
	CreateProgram(ctx context.Context, in evaluation.ProgramInput) (evaluation.Program, error)
	UpdateProgram(ctx context.Context, id string, in evaluation.ProgramInput) (evaluation.Program, error)
	DeleteProgram(ctx context.Context, id string) error

	CreateEvaluation(ctx context.Context, in evaluation.EvaluationInput) (evaluation.Evaluation, error)
	UpdateEvaluation(ctx context.Context, id string, in evaluation.EvaluationInput) (evaluation.Evaluation, error)
	DeleteEvaluation(ctx context.Context, id string) error
	Evaluation(ctx context.Context, id string) (evaluation.Evaluation, error)
	Evaluations(ctx context.Context, filter evaluation.Filter) ([]evaluation.Evaluation, error)

	WeeklySummary(ctx context.Context, weekNumber int, weekStart time.Time) (evaluation.WeeklySummary, error)
	MonthlyAverage(ctx context.Context, userID string, year int) ([]evaluation.MonthlyRating, error)
	MonthlySummary(ctx context.Context, month, year int) ([]evaluation.MonthlySummaryRow, error)
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
	programs := access.FormEvaluationPrograms
	weekly := access.FormWeeklyEvaluation

	r.Route("/evaluation", func(r chi.Router) {
		r.Route("/programs", func(r chi.Router) {
			r.With(guard(programs, access.FlagView)).Get("/", h.handleListPrograms)
			r.With(guard(programs, access.FlagAdd)).Post("/", h.handleCreateProgram)
			r.With(guard(programs, access.FlagView)).Get("/{programID}", h.handleGetProgram)
			r.With(guard(programs, access.FlagEdit)).Put("/{programID}", h.handleUpdateProgram)
			r.With(guard(programs, access.FlagDelete)).Delete("/{programID}", h.handleDeleteProgram)
		})
		r.Route("/evaluations", func(r chi.Router) {
			r.With(guard(weekly, access.FlagView)).Get("/", h.handleListEvaluations)
			r.With(guard(weekly, access.FlagAdd)).Post("/", h.handleCreateEvaluation)
			r.With(guard(weekly, access.FlagView)).Get("/{evaluationID}", h.handleGetEvaluation)
			r.With(guard(weekly, access.FlagEdit)).Put("/{evaluationID}", h.handleUpdateEvaluation)
			r.With(guard(weekly, access.FlagDelete)).Delete("/{evaluationID}", h.handleDeleteEvaluation)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Use(guard(access.FormReports, access.FlagView))
			r.Get("/weekly", h.handleWeeklySummary)
			r.Get("/weekly.pdf", h.handleWeeklySummaryPDF)
			r.Get("/monthly", h.handleMonthlySummary)
			r.Get("/monthly/{userID}", h.handleMonthlyAverage)
		})
	})
}

func (h *Handler) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Programs(r.Context())
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, overview, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "programID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	program, err := h.Service.Program(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, program, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var payload evaluation.ProgramInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	program, err := h.Service.CreateProgram(r.Context(), payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "program.create", "evaluation_program", program.ID, nil, program)
	api.Created(w, program, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "programID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload evaluation.ProgramInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	program, err := h.Service.UpdateProgram(r.Context(), id, payload)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "program.update", "evaluation_program", program.ID, nil, program)
	api.Success(w, program, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "programID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if err := h.Service.DeleteProgram(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "program.delete", "evaluation_program", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type evaluationRequest struct {
	UserID     string                `json:"userId"`
	WeekNumber int                   `json:"weekNumber"`
	WeekStart  string                `json:"weekStart"`
	WeekEnd    string                `json:"weekEnd"`
	Scores     []evaluation.RawScore `json:"scores" validate:"dive"`
	Comments   string                `json:"comments" validate:"max=2000"`
}

// input parses the week dates; userRequired is false on updates, where the
// evaluated user cannot change.
func (p evaluationRequest) input(evaluatedBy string, userRequired bool) (evaluation.EvaluationInput, error) {
	v := shared.NewValidator()
	if userRequired {
		v.Required("userId", p.UserID, "is required")
	}
	start, _ := v.Date("weekStart", p.WeekStart)
	end, _ := v.Date("weekEnd", p.WeekEnd)
	v.DateOrder("weekStart", start, "weekEnd", end)
	if err := v.Err(); err != nil {
		return evaluation.EvaluationInput{}, err
	}
	return evaluation.EvaluationInput{
		UserID:      strings.TrimSpace(p.UserID),
		EvaluatedBy: evaluatedBy,
		WeekNumber:  p.WeekNumber,
		WeekStart:   start,
		WeekEnd:     end,
		Scores:      p.Scores,
		Comments:    p.Comments,
	}, nil
}

func (h *Handler) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := evaluation.Filter{
		UserID: strings.TrimSpace(r.URL.Query().Get("userId")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	var err error
	if filter.WeekNumber, err = shared.QueryInt(r, "weekNumber", 0); err != nil {
		api.Error(w, r, err)
		return
	}
	if filter.Month, err = shared.QueryInt(r, "month", 0); err != nil {
		api.Error(w, r, err)
		return
	}
	if filter.Year, err = shared.QueryInt(r, "year", 0); err != nil {
		api.Error(w, r, err)
		return
	}

	list, err := h.Service.Evaluations(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "evaluationID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	e, err := h.Service.Evaluation(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload evaluationRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	in, err := payload.input(user.UserID, true)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	e, err := h.Service.CreateEvaluation(r.Context(), in)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "evaluation.create", "weekly_evaluation", e.ID, nil, e)
	api.Created(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, err := shared.PathID(r, "evaluationID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	var payload evaluationRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Error(w, r, err)
		return
	}
	in, err := payload.input(user.UserID, false)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	e, err := h.Service.UpdateEvaluation(r.Context(), id, in)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "evaluation.update", "weekly_evaluation", e.ID, nil, e)
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "evaluationID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if err := h.Service.DeleteEvaluation(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, "evaluation.delete", "weekly_evaluation", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) weeklySummary(r *http.Request) (evaluation.WeeklySummary, error) {
	week, err := shared.QueryInt(r, "weekNumber", 0)
	if err != nil {
		return evaluation.WeeklySummary{}, err
	}
	if week == 0 {
		if week, err = shared.QueryInt(r, "week", 0); err != nil {
			return evaluation.WeeklySummary{}, err
		}
	}

	var weekStart time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("weekStart")); raw != "" {
		v := shared.NewValidator()
		weekStart, _ = v.Date("weekStart", raw)
		if err := v.Err(); err != nil {
			return evaluation.WeeklySummary{}, err
		}
	} else {
		now := h.Now()
		month, err := shared.QueryInt(r, "month", int(now.Month()))
		if err != nil {
			return evaluation.WeeklySummary{}, err
		}
		year, err := shared.QueryInt(r, "year", now.Year())
		if err != nil {
			return evaluation.WeeklySummary{}, err
		}
		if month < 1 || month > 12 {
			return evaluation.WeeklySummary{}, shared.NewValidatorWith("month", "must be between 1 and 12").Err()
		}
		weekStart = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	}
	return h.Service.WeeklySummary(r.Context(), week, weekStart)
}

func (h *Handler) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.weeklySummary(r)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, roundSummary(summary), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleWeeklySummaryPDF(w http.ResponseWriter, r *http.Request) {
	summary, err := h.weeklySummary(r)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	pdf, err := evaluation.WeeklySummaryPDF(summary)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	name := fmt.Sprintf("weekly-summary-%d-%02d-week%d.pdf", summary.Year, summary.Month, summary.WeekNumber)
	api.Attachment(w, "application/pdf", name, pdf)
}

func (h *Handler) handleMonthlyAverage(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		api.Error(w, r, err)
		return
	}
	year, err := shared.QueryInt(r, "year", h.Now().Year())
	if err != nil {
		api.Error(w, r, err)
		return
	}
	ratings, err := h.Service.MonthlyAverage(r.Context(), userID, year)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, map[string]any{"userId": userID, "year": year, "months": ratings}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	now := h.Now()
	month, err := shared.QueryInt(r, "month", int(now.Month()))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	year, err := shared.QueryInt(r, "year", now.Year())
	if err != nil {
		api.Error(w, r, err)
		return
	}
	rows, err := h.Service.MonthlySummary(r.Context(), month, year)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Success(w, map[string]any{"month": month, "year": year, "rows": rows}, middleware.GetRequestID(r.Context()))
}

// roundSummary rounds for display only; actions were classified on the
// unrounded totals.
func roundSummary(s evaluation.WeeklySummary) evaluation.WeeklySummary {
	rows := make([]evaluation.WeeklySummaryRow, len(s.Rows))
	for i, row := range s.Rows {
		row.TotalScore = evaluation.Round2(row.TotalScore)
		row.TotalWeightedRating = evaluation.Round2(row.TotalWeightedRating)
		rows[i] = row
	}
	s.Rows = rows
	return s
}
