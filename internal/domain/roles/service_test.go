package roles_test

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/roles"
)

type fakeStore struct {
	roles map[string]roles.Role
	users map[string]int
}

func (f *fakeStore) List(context.Context) ([]roles.Role, error) {
	var out []roles.Role
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (roles.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return roles.Role{}, pgx.ErrNoRows
	}
	return r, nil
}

func (f *fakeStore) NameTaken(_ context.Context, name, excludeID string) (bool, error) {
	for id, r := range f.roles {
		if id != excludeID && strings.EqualFold(r.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Create(_ context.Context, role roles.Role) error {
	f.roles[role.ID] = role
	return nil
}

func (f *fakeStore) Update(_ context.Context, role roles.Role) error {
	f.roles[role.ID] = role
	return nil
}

func (f *fakeStore) CountUsers(_ context.Context, id string) (int, error) {
	return f.users[id], nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.roles, id)
	return nil
}

var _ = Describe("Service", func() {
	var (
		store   *fakeStore
		service *roles.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &fakeStore{roles: map[string]roles.Role{}, users: map[string]int{}}
		service = roles.NewService(store)
	})

	It("creates a role with a generated hex id", func() {
		role, err := service.Create(ctx, roles.Input{Name: "  Manager ", Description: "Team leads"})
		Expect(err).NotTo(HaveOccurred())
		Expect(role.ID).To(HaveLen(24))
		Expect(role.Name).To(Equal("Manager"))
	})

	It("rejects names that differ only by case", func() {
		_, err := service.Create(ctx, roles.Input{Name: "Manager"})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Create(ctx, roles.Input{Name: "MANAGER"})
		Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))
	})

	It("lets a role keep its own name on update", func() {
		role, err := service.Create(ctx, roles.Input{Name: "Manager"})
		Expect(err).NotTo(HaveOccurred())

		updated, err := service.Update(ctx, role.ID, roles.Input{Name: "manager", Description: "renamed"})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Name).To(Equal("manager"))
	})

	It("blocks deletion while users reference the role", func() {
		role, err := service.Create(ctx, roles.Input{Name: "Staff"})
		Expect(err).NotTo(HaveOccurred())
		store.users[role.ID] = 2

		err = service.Delete(ctx, role.ID)
		Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))
		Expect(store.roles).To(HaveKey(role.ID))

		store.users[role.ID] = 0
		Expect(service.Delete(ctx, role.ID)).To(Succeed())
		Expect(store.roles).NotTo(HaveKey(role.ID))
	})

	It("reports missing roles", func() {
		_, err := service.Get(ctx, "65f1c0ffee65f1c0ffee0000")
		Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		Expect(apperr.KindOf(service.Delete(ctx, "65f1c0ffee65f1c0ffee0000"))).To(Equal(apperr.KindNotFound))
	})

	It("requires a name", func() {
		_, err := service.Create(ctx, roles.Input{Name: "   "})
		Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
	})
})
