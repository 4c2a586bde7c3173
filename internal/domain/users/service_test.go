package users_test

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/users"
)

const (
	roleStaff   = "65f1c0ffee65f1c0ffee0a01"
	roleManager = "65f1c0ffee65f1c0ffee0a02"
)

type fakeStore struct {
	users     map[string]users.User
	passwords map[string]string
	roles     map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]users.User{},
		passwords: map[string]string{},
		roles:     map[string]string{roleStaff: "Staff", roleManager: "Manager"},
	}
}

func (f *fakeStore) List(context.Context, users.ListFilter) ([]users.User, int, error) {
	var out []users.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeStore) Get(_ context.Context, id string) (users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return users.User{}, pgx.ErrNoRows
	}
	u.RoleName = f.roles[u.RoleID]
	return u, nil
}

func (f *fakeStore) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	for id, u := range f.users {
		if id != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) RoleExists(_ context.Context, roleID string) (bool, error) {
	_, ok := f.roles[roleID]
	return ok, nil
}

func (f *fakeStore) CreateWithAccess(_ context.Context, u users.User, hash string) error {
	f.users[u.ID] = u
	f.passwords[u.ID] = hash
	return nil
}

func (f *fakeStore) Update(_ context.Context, u users.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) ChangeRole(_ context.Context, userID, roleID string) error {
	u := f.users[userID]
	u.RoleID = roleID
	f.users[userID] = u
	return nil
}

func (f *fakeStore) SetActive(_ context.Context, userID string, active bool) error {
	u, ok := f.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsActive = active
	f.users[userID] = u
	return nil
}

var _ = Describe("Service", func() {
	var (
		store   *fakeStore
		service *users.Service
		ctx     context.Context
		input   users.CreateInput
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		service = users.NewService(store)
		input = users.CreateInput{
			Name:     "Grace Hopper",
			Email:    "Grace@Example.com ",
			Password: "Compiler1952",
			RoleID:   roleStaff,
		}
	})

	Describe("Create", func() {
		It("hashes the password and flags it for reset", func() {
			u, err := service.Create(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("grace@example.com"))
			Expect(u.ResetPassword).To(BeTrue())
			Expect(u.IsActive).To(BeTrue())
			Expect(u.RoleName).To(Equal("Staff"))
			Expect(auth.CheckPassword(store.passwords[u.ID], "Compiler1952")).To(Succeed())
		})

		It("rejects duplicate emails regardless of case", func() {
			_, err := service.Create(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			input.Email = "GRACE@example.com"
			_, err = service.Create(ctx, input)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindConflict))
		})

		It("requires an existing role", func() {
			input.RoleID = "65f1c0ffee65f1c0ffee0fff"
			_, err := service.Create(ctx, input)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))

			input.RoleID = "staff"
			_, err = service.Create(ctx, input)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})

		It("rejects weak passwords", func() {
			input.Password = "password"
			_, err := service.Create(ctx, input)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})
	})

	It("changes role and status", func() {
		u, err := service.Create(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		u, err = service.ChangeRole(ctx, u.ID, roleManager)
		Expect(err).NotTo(HaveOccurred())
		Expect(u.RoleName).To(Equal("Manager"))

		u, err = service.SetActive(ctx, u.ID, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(u.IsActive).To(BeFalse())
	})

	It("keeps email unchanged on profile edits", func() {
		u, err := service.Create(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		u, err = service.UpdateProfile(ctx, u.ID, users.ProfileInput{Name: "Rear Admiral Hopper", Phone: "555"})
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Name).To(Equal("Rear Admiral Hopper"))
		Expect(u.Email).To(Equal("grace@example.com"))
	})

	It("reports unknown users", func() {
		_, err := service.SetActive(ctx, "65f1c0ffee65f1c0ffee0000", true)
		Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
	})
})
