package payroll_test

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/payroll"
)

const userAda = "65f1c0ffee65f1c0ffee0c01"

type fakeStore struct {
	items  map[string]payroll.PayItem
	setups map[string]payroll.Setup
	users  map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:  map[string]payroll.PayItem{},
		setups: map[string]payroll.Setup{},
		users:  map[string]string{userAda: "Ada"},
	}
}

func (f *fakeStore) ListItems(_ context.Context, itemType payroll.ItemType) ([]payroll.PayItem, error) {
	var out []payroll.PayItem
	for _, item := range f.items {
		if item.Type == itemType {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) GetItem(_ context.Context, id string) (payroll.PayItem, error) {
	item, ok := f.items[id]
	if !ok {
		return payroll.PayItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (f *fakeStore) ItemNameTaken(_ context.Context, itemType payroll.ItemType, name, excludeID string) (bool, error) {
	for id, item := range f.items {
		if id != excludeID && item.Type == itemType && strings.EqualFold(item.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateItem(_ context.Context, item payroll.PayItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeStore) UpdateItem(_ context.Context, item payroll.PayItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeStore) ListSetups(context.Context) ([]payroll.SetupSummary, error) {
	var out []payroll.SetupSummary
	for id, name := range f.users {
		row := payroll.SetupSummary{UserID: id, UserName: name}
		if setup, ok := f.setups[id]; ok {
			row.Configured = true
			row.GrossSalary = setup.GrossSalary
			row.NetAmount = setup.NetAmount
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeStore) GetSetup(_ context.Context, userID string) (payroll.Setup, error) {
	setup, ok := f.setups[userID]
	if !ok {
		return payroll.Setup{}, pgx.ErrNoRows
	}
	setup.UserName = f.users[userID]
	return setup, nil
}

func (f *fakeStore) UpsertSetup(_ context.Context, setup payroll.Setup) (payroll.Setup, error) {
	if existing, ok := f.setups[setup.UserID]; ok {
		setup.ID = existing.ID
		setup.CreatedAt = existing.CreatedAt
	} else {
		setup.CreatedAt = setup.UpdatedAt
	}
	f.setups[setup.UserID] = setup
	return setup, nil
}

var _ = Describe("Service", func() {
	var (
		store *fakeStore
		svc   *payroll.Service
		ctx   context.Context
		now   time.Time
	)

	BeforeEach(func() {
		store = newFakeStore()
		svc = payroll.NewService(store)
		now = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
		svc.Now = func() time.Time { return now }
		ctx = context.Background()
	})

	Describe("catalog", func() {
		It("keeps names unique per type regardless of case", func() {
			_, err := svc.CreateItem(ctx, payroll.PayItemInput{Type: payroll.ItemAllowance, Name: "Housing"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.CreateItem(ctx, payroll.PayItemInput{Type: payroll.ItemAllowance, Name: " HOUSING "})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))

			_, err = svc.CreateItem(ctx, payroll.PayItemInput{Type: payroll.ItemDeduction, Name: "housing"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown types", func() {
			_, err := svc.CreateItem(ctx, payroll.PayItemInput{Type: "BONUS", Name: "X"})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
			_, err = svc.Items(ctx, "")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})

		It("blocks renaming onto an existing name", func() {
			_, err := svc.CreateItem(ctx, payroll.PayItemInput{Type: payroll.ItemAllowance, Name: "Housing"})
			Expect(err).NotTo(HaveOccurred())
			transport, err := svc.CreateItem(ctx, payroll.PayItemInput{Type: payroll.ItemAllowance, Name: "Transport"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.UpdateItem(ctx, transport.ID, payroll.PayItemInput{Name: "housing"})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))

			renamed, err := svc.UpdateItem(ctx, transport.ID, payroll.PayItemInput{Name: "transport"})
			Expect(err).NotTo(HaveOccurred())
			Expect(renamed.Name).To(Equal("transport"))
		})
	})

	Describe("setups", func() {
		input := payroll.SetupInput{
			EmploymentType:   "Full Time",
			PayrollFrequency: "Monthly",
			BasicSalary:      50000,
			Allowances:       []payroll.Line{{Name: "Housing", Amount: 5000}},
			Deductions:       []payroll.Line{{Name: "Tax", Amount: 2000}},
		}

		It("computes and upserts one setup per user", func() {
			first, err := svc.SaveSetup(ctx, userAda, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.GrossSalary).To(Equal(55000.0))
			Expect(first.NetAmount).To(Equal(53000.0))
			Expect(first.Allowances[0].ID).NotTo(BeEmpty())

			now = now.Add(time.Hour)
			next := input
			next.BasicSalary = 60000
			second, err := svc.SaveSetup(ctx, userAda, next)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.CreatedAt).To(Equal(first.CreatedAt))
			Expect(second.UpdatedAt).To(Equal(now.UTC()))
			Expect(second.GrossSalary).To(Equal(65000.0))
			Expect(store.setups).To(HaveLen(1))

			overview, err := svc.Overview(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(overview.Totals.Configured).To(Equal(1))
			Expect(overview.Totals.NetAmount).To(Equal(63000.0))
		})

		It("rejects unknown users and negative amounts", func() {
			_, err := svc.SaveSetup(ctx, "missing", input)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))

			bad := input
			bad.Deductions = []payroll.Line{{Name: "Tax", Amount: -1}}
			_, err = svc.SaveSetup(ctx, userAda, bad)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})

		It("previews without storing", func() {
			salary, err := svc.Preview(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(salary.NetAmount).To(Equal(53000.0))
			Expect(store.setups).To(BeEmpty())
		})

		It("renders a salary slip", func() {
			_, err := svc.SaveSetup(ctx, userAda, input)
			Expect(err).NotTo(HaveOccurred())
			setup, err := svc.Setup(ctx, userAda)
			Expect(err).NotTo(HaveOccurred())

			data, err := payroll.SalarySlipPDF(setup, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(bytes.HasPrefix(data, []byte("%PDF"))).To(BeTrue())

			_, err = svc.Setup(ctx, "missing")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})
	})
})
