package auth_test

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/access"
	"hradmin/internal/domain/auth"
)

type fakeStore struct {
	accounts map[string]auth.Account
	resets   map[string]auth.PasswordReset
}

func (f *fakeStore) FindAccountByEmail(_ context.Context, email string) (auth.Account, error) {
	for _, acct := range f.accounts {
		if acct.Email == email {
			return acct, nil
		}
	}
	return auth.Account{}, pgx.ErrNoRows
}

func (f *fakeStore) FindAccountByID(_ context.Context, userID string) (auth.Account, error) {
	acct, ok := f.accounts[userID]
	if !ok {
		return auth.Account{}, pgx.ErrNoRows
	}
	return acct, nil
}

func (f *fakeStore) TouchLastLogin(context.Context, string) error { return nil }

func (f *fakeStore) UpdatePassword(_ context.Context, userID, hash string, resetRequired bool) error {
	acct := f.accounts[userID]
	acct.PasswordHash = hash
	acct.ResetPassword = resetRequired
	f.accounts[userID] = acct
	return nil
}

func (f *fakeStore) CreatePasswordReset(_ context.Context, reset auth.PasswordReset) error {
	f.resets[reset.TokenHash] = reset
	return nil
}

func (f *fakeStore) FindPasswordReset(_ context.Context, tokenHash string) (auth.PasswordReset, error) {
	reset, ok := f.resets[tokenHash]
	if !ok {
		return auth.PasswordReset{}, pgx.ErrNoRows
	}
	return reset, nil
}

func (f *fakeStore) MarkPasswordResetNotified(_ context.Context, resetID string) error {
	for hash, reset := range f.resets {
		if reset.ID == resetID {
			reset.Notified = true
			f.resets[hash] = reset
		}
	}
	return nil
}

func (f *fakeStore) ConsumePasswordReset(_ context.Context, resetID, userID, hash string) error {
	for tokenHash, reset := range f.resets {
		if reset.ID != resetID {
			continue
		}
		if reset.Used {
			return auth.ErrResetConsumed
		}
		reset.Used = true
		f.resets[tokenHash] = reset
		return f.UpdatePassword(context.Background(), userID, hash, false)
	}
	return auth.ErrResetConsumed
}

type fakeAccess struct {
	matrix map[string][]access.FormAccess
}

func (f *fakeAccess) UserMatrix(_ context.Context, userID string) ([]access.FormAccess, error) {
	return f.matrix[userID], nil
}

type fakeMailer struct {
	to    string
	link  string
	fails bool
}

func (f *fakeMailer) SendResetEmail(_ context.Context, to, link string) error {
	if f.fails {
		return errors.New("smtp down")
	}
	f.to = to
	f.link = link
	return nil
}

var _ = Describe("Service", func() {
	var (
		store   *fakeStore
		grants  *fakeAccess
		mailer  *fakeMailer
		service *auth.Service
		now     time.Time
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		hash, err := auth.HashPassword("Password123")
		Expect(err).NotTo(HaveOccurred())

		store = &fakeStore{
			accounts: map[string]auth.Account{
				"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: hash, IsActive: true, RoleID: "r1", RoleName: "Admin", ResetPassword: true},
				"u2": {ID: "u2", Name: "Ben", Email: "ben@example.com", PasswordHash: hash, IsActive: false, RoleID: "r1", RoleName: "Admin"},
				"u3": {ID: "u3", Name: "Cy", Email: "cy@example.com", PasswordHash: hash, IsActive: true, RoleID: "r2", RoleName: "Staff"},
			},
			resets: map[string]auth.PasswordReset{},
		}
		grants = &fakeAccess{matrix: map[string][]access.FormAccess{
			"u1": {access.NewFormAccess(access.Encode("f1", access.Full()), access.FormDashboard)},
			"u3": {access.NewFormAccess(access.Encode("f1", access.None()), access.FormDashboard)},
		}}
		mailer = &fakeMailer{}
		now = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
		service = auth.NewService(store, grants, mailer, auth.Options{Secret: "secret", BaseURL: "https://hr.example.com"})
		service.Now = func() time.Time { return now }
	})

	Describe("Login", func() {
		It("issues a one hour token carrying id, email and role", func() {
			result, err := service.Login(ctx, "ada@example.com", "Password123")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ResetPassword).To(BeTrue())
			Expect(result.ExpiresAt).To(Equal(now.Add(time.Hour)))
			Expect(result.Access).To(HaveLen(1))

			claims, err := auth.ParseToken("secret", result.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("u1"))
			Expect(claims.Email).To(Equal("ada@example.com"))
			Expect(claims.RoleName).To(Equal("Admin"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Login(ctx, "ada@example.com", "nope")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindUnauthorized))
		})

		It("rejects unknown users the same way", func() {
			_, err := service.Login(ctx, "ghost@example.com", "Password123")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindUnauthorized))
		})

		It("forbids inactive accounts", func() {
			_, err := service.Login(ctx, "ben@example.com", "Password123")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindForbidden))
		})

		It("forbids accounts without any usable form access", func() {
			_, err := service.Login(ctx, "cy@example.com", "Password123")
			appErr, ok := apperr.As(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal("no_access"))
		})
	})

	Describe("password reset", func() {
		tokenFromLink := func(link string) string {
			parsed, err := url.Parse(link)
			Expect(err).NotTo(HaveOccurred())
			return parsed.Query().Get("token")
		}

		It("mails a link whose token resets the password once", func() {
			Expect(service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			Expect(mailer.to).To(Equal("ada@example.com"))
			Expect(mailer.link).To(HavePrefix("https://hr.example.com/reset-password?token="))

			token := tokenFromLink(mailer.link)
			reset, err := service.CheckResetToken(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(reset.ExpiresAt).To(Equal(now.Add(15 * time.Minute)))
			Expect(store.resets[auth.HashToken(token)].Notified).To(BeTrue())

			Expect(service.ResetPassword(ctx, token, "NewPassword9")).To(Succeed())
			Expect(auth.CheckPassword(store.accounts["u1"].PasswordHash, "NewPassword9")).To(Succeed())
			Expect(store.accounts["u1"].ResetPassword).To(BeFalse())

			err = service.ResetPassword(ctx, token, "OtherPassword9")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})

		It("rejects expired tokens at consumption time", func() {
			Expect(service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			token := tokenFromLink(mailer.link)

			now = now.Add(15 * time.Minute)
			err := service.ResetPassword(ctx, token, "NewPassword9")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})

		It("stays silent for unknown emails", func() {
			Expect(service.RequestPasswordReset(ctx, "ghost@example.com")).To(Succeed())
			Expect(mailer.link).To(BeEmpty())
			Expect(store.resets).To(BeEmpty())
		})

		It("surfaces mail failures", func() {
			mailer.fails = true
			err := service.RequestPasswordReset(ctx, "ada@example.com")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindInternal))
		})

		It("enforces the password policy", func() {
			Expect(service.RequestPasswordReset(ctx, "ada@example.com")).To(Succeed())
			err := service.ResetPassword(ctx, tokenFromLink(mailer.link), "short")
			appErr, ok := apperr.As(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal("weak_password"))
		})
	})

	Describe("ChangePassword", func() {
		It("requires the current password", func() {
			err := service.ChangePassword(ctx, "u1", "wrong", "NewPassword9")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindUnauthorized))

			Expect(service.ChangePassword(ctx, "u1", "Password123", "NewPassword9")).To(Succeed())
			Expect(auth.CheckPassword(store.accounts["u1"].PasswordHash, "NewPassword9")).To(Succeed())
		})
	})
})

var _ = Describe("BuildResetLink", func() {
	DescribeTable("joins base url and token",
		func(base, token, want string) {
			Expect(auth.BuildResetLink(base, token)).To(Equal(want))
		},
		Entry("default base", "", "abc", "http://localhost:8080/reset-password?token=abc"),
		Entry("custom host", "https://hr.example.com", "t1", "https://hr.example.com/reset-password?token=t1"),
		Entry("custom path", "https://hr.example.com/app/", "xyz", "https://hr.example.com/app/reset-password?token=xyz"),
		Entry("invalid base", "not a url", "abc", "http://localhost:8080/reset-password?token=abc"),
	)
})
