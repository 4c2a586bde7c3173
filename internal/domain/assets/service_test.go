package assets_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/assets"
)

const userAda = "65f1c0ffee65f1c0ffee0e01"

type fakeStore struct {
	assets map[string]assets.Asset
	users  map[string]string
}

func (f *fakeStore) List(_ context.Context, assignedTo string) ([]assets.Asset, error) {
	var out []assets.Asset
	for _, a := range f.assets {
		if assignedTo == "" || (a.AssignedTo != nil && *a.AssignedTo == assignedTo) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (assets.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return assets.Asset{}, pgx.ErrNoRows
	}
	if a.AssignedTo != nil {
		a.AssigneeName = f.users[*a.AssignedTo]
	}
	return a, nil
}

func (f *fakeStore) save(a assets.Asset) error {
	if a.AssignedTo != nil {
		if _, ok := f.users[*a.AssignedTo]; !ok {
			return &pgconn.PgError{Code: "23503"}
		}
	}
	f.assets[a.ID] = a
	return nil
}

func (f *fakeStore) Create(_ context.Context, a assets.Asset) error {
	return f.save(a)
}

func (f *fakeStore) Update(_ context.Context, a assets.Asset) error {
	if _, ok := f.assets[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	return f.save(a)
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.assets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.assets, id)
	return nil
}

var _ = Describe("Service", func() {
	var (
		store *fakeStore
		svc   *assets.Service
		ctx   context.Context
	)

	BeforeEach(func() {
		store = &fakeStore{assets: map[string]assets.Asset{}, users: map[string]string{userAda: "Ada"}}
		svc = assets.NewService(store)
		svc.Now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
		ctx = context.Background()
	})

	It("assigns and unassigns assets", func() {
		assignee := userAda
		laptop, err := svc.Create(ctx, assets.Input{Name: " Laptop ", Category: "IT", AssignedTo: &assignee})
		Expect(err).NotTo(HaveOccurred())
		Expect(laptop.Name).To(Equal("Laptop"))
		Expect(laptop.AssigneeName).To(Equal("Ada"))

		mine, err := svc.List(ctx, userAda)
		Expect(err).NotTo(HaveOccurred())
		Expect(mine).To(HaveLen(1))

		updated, err := svc.Update(ctx, laptop.ID, assets.Input{Name: "Laptop"})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.AssignedTo).To(BeNil())

		Expect(svc.Delete(ctx, laptop.ID)).To(Succeed())
		Expect(apperr.KindOf(svc.Delete(ctx, laptop.ID))).To(Equal(apperr.KindNotFound))
	})

	It("rejects unknown assignees and blank names", func() {
		ghost := "65f1c0ffee65f1c0ffee0eff"
		_, err := svc.Create(ctx, assets.Input{Name: "Phone", AssignedTo: &ghost})
		Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))

		_, err = svc.Create(ctx, assets.Input{Name: "  "})
		Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
	})
})
