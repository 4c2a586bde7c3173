package evaluation_test

import (
	"bytes"
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/evaluation"
)

const (
	userAda  = "65f1c0ffee65f1c0ffee0b01"
	userBen  = "65f1c0ffee65f1c0ffee0b02"
	userCleo = "65f1c0ffee65f1c0ffee0b03"
)

type fakeStore struct {
	programs    map[string]evaluation.Program
	evaluations map[string]evaluation.Evaluation
	users       map[string]string
	kpiUsers    map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		programs:    map[string]evaluation.Program{},
		evaluations: map[string]evaluation.Evaluation{},
		users:       map[string]string{userAda: "Ada", userBen: "Ben", userCleo: "Cleo"},
		kpiUsers:    map[string]bool{userAda: true, userBen: true},
	}
}

func (f *fakeStore) ListPrograms(context.Context) ([]evaluation.Program, error) {
	var out []evaluation.Program
	for _, p := range f.programs {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetProgram(_ context.Context, id string) (evaluation.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return evaluation.Program{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) othersTotal(excludeID string) float64 {
	var total float64
	for id, p := range f.programs {
		if id != excludeID {
			total += p.Weightage
		}
	}
	return total
}

func (f *fakeStore) CreateProgram(_ context.Context, p evaluation.Program) error {
	if err := evaluation.CheckWeightage(f.othersTotal(""), p.Weightage); err != nil {
		return err
	}
	f.programs[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateProgram(_ context.Context, p evaluation.Program) error {
	if _, ok := f.programs[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	if err := evaluation.CheckWeightage(f.othersTotal(p.ID), p.Weightage); err != nil {
		return err
	}
	f.programs[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteProgram(_ context.Context, id string) error {
	if _, ok := f.programs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.programs, id)
	return nil
}

func (f *fakeStore) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeStore) PeriodTaken(_ context.Context, userID string, week, month, year int, excludeID string) (bool, error) {
	for id, e := range f.evaluations {
		if id != excludeID && e.UserID == userID && e.WeekNumber == week && e.Month == month && e.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) LaterWeekExists(_ context.Context, userID string, week, month, year int) (bool, error) {
	for _, e := range f.evaluations {
		if e.UserID == userID && e.Month == month && e.Year == year && e.WeekNumber > week {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateEvaluation(_ context.Context, e evaluation.Evaluation) error {
	f.evaluations[e.ID] = e
	return nil
}

func (f *fakeStore) GetEvaluation(_ context.Context, id string) (evaluation.Evaluation, error) {
	e, ok := f.evaluations[id]
	if !ok {
		return evaluation.Evaluation{}, pgx.ErrNoRows
	}
	e.UserName = f.users[e.UserID]
	return e, nil
}

func (f *fakeStore) ListEvaluations(context.Context, evaluation.Filter) ([]evaluation.Evaluation, error) {
	var out []evaluation.Evaluation
	for _, e := range f.evaluations {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) UpdateEvaluation(_ context.Context, e evaluation.Evaluation) error {
	if _, ok := f.evaluations[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.evaluations[e.ID] = e
	return nil
}

func (f *fakeStore) DeleteEvaluation(_ context.Context, id string) error {
	if _, ok := f.evaluations[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.evaluations, id)
	return nil
}

func (f *fakeStore) totals(match func(evaluation.Evaluation) bool) []evaluation.UserTotals {
	var out []evaluation.UserTotals
	for id, name := range f.users {
		if !f.kpiUsers[id] {
			continue
		}
		t := evaluation.UserTotals{UserID: id, UserName: name}
		for _, e := range f.evaluations {
			if e.UserID == id && match(e) {
				t.TotalScore += e.TotalScore
				t.TotalWeightedRating += e.TotalWeightedRating
				t.Evaluations++
			}
		}
		out = append(out, t)
	}
	return out
}

func (f *fakeStore) WeeklyTotals(_ context.Context, week, month, year int) ([]evaluation.UserTotals, error) {
	return f.totals(func(e evaluation.Evaluation) bool {
		return e.WeekNumber == week && e.Month == month && e.Year == year
	}), nil
}

func (f *fakeStore) MonthlyTotals(_ context.Context, month, year int) ([]evaluation.UserTotals, error) {
	return f.totals(func(e evaluation.Evaluation) bool {
		return e.Month == month && e.Year == year
	}), nil
}

func (f *fakeStore) WeightedByMonth(_ context.Context, userID string, year int) (map[int]float64, error) {
	out := map[int]float64{}
	for _, e := range f.evaluations {
		if e.UserID == userID && e.Year == year {
			out[e.Month] += e.TotalWeightedRating
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Service", func() {
	var (
		store *fakeStore
		svc   *evaluation.Service
		ctx   context.Context
	)

	BeforeEach(func() {
		store = newFakeStore()
		svc = evaluation.NewService(store)
		svc.Now = func() time.Time { return day(2024, time.March, 10) }
		ctx = context.Background()
	})

	Describe("programs", func() {
		It("rejects a program that would push the total past 100", func() {
			_, err := svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "Delivery", Weightage: 50})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "Quality", Weightage: 60})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))
			appErr, _ := apperr.As(err)
			Expect(appErr.Code).To(Equal("weightage_exceeded"))
			Expect(appErr.Details).To(HaveKeyWithValue("remaining", 50.0))

			_, err = svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "Quality", Weightage: 40})
			Expect(err).NotTo(HaveOccurred())

			overview, err := svc.Programs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(overview.TotalWeightage).To(Equal(90.0))
			Expect(overview.Remaining).To(Equal(10.0))
		})

		It("ignores the program's own weightage on update", func() {
			p, err := svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "Delivery", Weightage: 60})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "Quality", Weightage: 30})
			Expect(err).NotTo(HaveOccurred())

			updated, err := svc.UpdateProgram(ctx, p.ID, evaluation.ProgramInput{Name: "Delivery", Weightage: 70})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Weightage).To(Equal(70.0))

			_, err = svc.UpdateProgram(ctx, p.ID, evaluation.ProgramInput{Name: "Delivery", Weightage: 71})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))
		})

		It("validates name and range", func() {
			_, err := svc.CreateProgram(ctx, evaluation.ProgramInput{Name: " ", Weightage: 10})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
			_, err = svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "X", Weightage: 101})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})

		It("reports missing programs", func() {
			Expect(apperr.KindOf(svc.DeleteProgram(ctx, "missing"))).To(Equal(apperr.KindNotFound))
		})
	})

	Describe("evaluations", func() {
		var delivery, quality evaluation.Program

		BeforeEach(func() {
			var err error
			delivery, err = svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "Delivery", Weightage: 60})
			Expect(err).NotTo(HaveOccurred())
			quality, err = svc.CreateProgram(ctx, evaluation.ProgramInput{Name: "Quality", Weightage: 40})
			Expect(err).NotTo(HaveOccurred())
		})

		input := func(userID string, week int, start time.Time, a, b float64) evaluation.EvaluationInput {
			return evaluation.EvaluationInput{
				UserID:     userID,
				WeekNumber: week,
				WeekStart:  start,
				WeekEnd:    start.AddDate(0, 0, 6),
				Scores: []evaluation.RawScore{
					{KPIID: delivery.ID, Score: a},
					{KPIID: quality.ID, Score: b},
				},
			}
		}

		It("prices scores with program weightage", func() {
			e, err := svc.CreateEvaluation(ctx, input(userAda, 1, day(2024, time.March, 4), 4, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Month).To(Equal(3))
			Expect(e.Year).To(Equal(2024))
			Expect(e.TotalScore).To(Equal(7.0))
			Expect(e.TotalWeightedRating).To(BeNumerically("~", 3.6, 1e-9))
			Expect(e.Scores[0].KPIName).To(Equal("Delivery"))
		})

		It("keeps one evaluation per user and week", func() {
			_, err := svc.CreateEvaluation(ctx, input(userAda, 1, day(2024, time.March, 4), 4, 3))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateEvaluation(ctx, input(userAda, 1, day(2024, time.March, 5), 2, 2))
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))
		})

		DescribeTable("rejects invalid input",
			func(mutate func(*evaluation.EvaluationInput), code string) {
				in := input(userAda, 1, day(2024, time.March, 4), 4, 3)
				mutate(&in)
				_, err := svc.CreateEvaluation(ctx, in)
				appErr, ok := apperr.As(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Kind).To(Equal(apperr.KindValidation))
				Expect(appErr.Code).To(Equal(code))
			},
			Entry("week zero", func(in *evaluation.EvaluationInput) { in.WeekNumber = 0 }, "invalid_week"),
			Entry("week six", func(in *evaluation.EvaluationInput) { in.WeekNumber = 6 }, "invalid_week"),
			Entry("end before start", func(in *evaluation.EvaluationInput) { in.WeekEnd = in.WeekStart.AddDate(0, 0, -1) }, "invalid_week_range"),
			Entry("score above five", func(in *evaluation.EvaluationInput) { in.Scores[0].Score = 5.5 }, "invalid_scores"),
			Entry("duplicate kpi", func(in *evaluation.EvaluationInput) { in.Scores[1].KPIID = in.Scores[0].KPIID }, "invalid_scores"),
			Entry("unknown kpi", func(in *evaluation.EvaluationInput) { in.Scores[0].KPIID = "nope" }, "unknown_kpi"),
		)

		It("only deletes the last evaluated week", func() {
			first, err := svc.CreateEvaluation(ctx, input(userAda, 1, day(2024, time.March, 4), 4, 3))
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.CreateEvaluation(ctx, input(userAda, 2, day(2024, time.March, 11), 4, 3))
			Expect(err).NotTo(HaveOccurred())

			err = svc.DeleteEvaluation(ctx, first.ID)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))

			Expect(svc.DeleteEvaluation(ctx, second.ID)).To(Succeed())
			Expect(svc.DeleteEvaluation(ctx, first.ID)).To(Succeed())
		})

		It("still updates an evaluation whose program was deleted", func() {
			e, err := svc.CreateEvaluation(ctx, input(userAda, 1, day(2024, time.March, 4), 4, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.DeleteProgram(ctx, quality.ID)).To(Succeed())

			in := input(userAda, 1, day(2024, time.March, 4), 5, 2)
			updated, err := svc.UpdateEvaluation(ctx, e.ID, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.TotalScore).To(Equal(7.0))
			Expect(updated.TotalWeightedRating).To(BeNumerically("~", 3.0, 1e-9))
			Expect(updated.Scores[1].Weightage).To(Equal(0.0))
			Expect(updated.Scores[1].KPIName).To(Equal("Quality"))

			in.Scores = append(in.Scores, evaluation.RawScore{KPIID: "65f1c0ffee65f1c0ffee0bff", Score: 1})
			_, err = svc.UpdateEvaluation(ctx, e.ID, in)
			appErr, ok := apperr.As(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal("unknown_kpi"))

			_, err = svc.CreateEvaluation(ctx, input(userBen, 1, day(2024, time.March, 4), 4, 3))
			appErr, ok = apperr.As(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal("unknown_kpi"))
		})

		It("builds a ranked weekly summary for KPI users only", func() {
			start := day(2024, time.March, 4)
			_, err := svc.CreateEvaluation(ctx, input(userAda, 1, start, 2, 2))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateEvaluation(ctx, input(userBen, 1, start, 5, 5))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateEvaluation(ctx, input(userCleo, 1, start, 5, 5))
			Expect(err).NotTo(HaveOccurred())

			summary, err := svc.WeeklySummary(ctx, 1, start)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Rows).To(HaveLen(2))
			Expect(summary.Rows[0].UserID).To(Equal(userBen))
			Expect(summary.Rows[0].Action).To(Equal(evaluation.ActionBonus))
			Expect(summary.Rows[1].UserID).To(Equal(userAda))
			Expect(summary.Rows[1].Action).To(Equal(evaluation.ActionHRMeeting))

			data, err := evaluation.WeeklySummaryPDF(summary)
			Expect(err).NotTo(HaveOccurred())
			Expect(bytes.HasPrefix(data, []byte("%PDF"))).To(BeTrue())
		})

		It("averages months over four weeks", func() {
			_, err := svc.CreateEvaluation(ctx, input(userAda, 1, day(2024, time.March, 4), 5, 5))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateEvaluation(ctx, input(userAda, 2, day(2024, time.March, 11), 5, 0))
			Expect(err).NotTo(HaveOccurred())

			ratings, err := svc.MonthlyAverage(ctx, userAda, 2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(ratings).To(HaveLen(12))
			Expect(ratings[2].Name).To(Equal("March"))
			Expect(ratings[2].Rating).To(Equal(2.0))
			Expect(ratings[0].Rating).To(Equal(0.0))

			_, err = svc.MonthlyAverage(ctx, "missing", 2024)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})
	})
})
