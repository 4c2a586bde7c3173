package access_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/access"
)

type fakeStore struct {
	records   map[string]access.Record
	forms     map[string]access.Form
	failSave  map[string]bool
	saveCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  map[string]access.Record{},
		forms:    map[string]access.Form{},
		failSave: map[string]bool{},
	}
}

func key(userID, formID string) string { return userID + "/" + formID }

func partialValue(raw string) access.PartialValue {
	var v access.PartialValue
	Expect(json.Unmarshal([]byte(raw), &v)).To(Succeed())
	return v
}

func (f *fakeStore) ListForms(context.Context) ([]access.Form, error) {
	var out []access.Form
	for _, form := range f.forms {
		out = append(out, form)
	}
	return out, nil
}

func (f *fakeStore) GetForm(_ context.Context, formID string) (access.Form, error) {
	form, ok := f.forms[formID]
	if !ok {
		return access.Form{}, pgx.ErrNoRows
	}
	return form, nil
}

func (f *fakeStore) ListUserAccess(_ context.Context, userID string) ([]access.FormAccess, error) {
	var out []access.FormAccess
	for formID, form := range f.forms {
		if rec, ok := f.records[key(userID, formID)]; ok {
			out = append(out, access.NewFormAccess(rec, form.Name))
		}
	}
	return out, nil
}

func (f *fakeStore) ListFormUsers(context.Context, string) ([]access.UserFormAccess, error) {
	return nil, nil
}

func (f *fakeStore) GetRecord(_ context.Context, userID, formID string) (access.Record, error) {
	rec, ok := f.records[key(userID, formID)]
	if !ok {
		return access.Record{}, pgx.ErrNoRows
	}
	return rec, nil
}

func (f *fakeStore) FindRecordByFormName(_ context.Context, userID, formName string) (access.Record, error) {
	for formID, form := range f.forms {
		if form.Name == formName {
			return f.GetRecord(context.Background(), userID, formID)
		}
	}
	return access.Record{}, pgx.ErrNoRows
}

func (f *fakeStore) SaveRecord(_ context.Context, userID string, rec access.Record) error {
	f.saveCalls++
	if f.failSave[userID] {
		return errors.New("write conflict")
	}
	if _, ok := f.records[key(userID, rec.FormID)]; !ok {
		return pgx.ErrNoRows
	}
	f.records[key(userID, rec.FormID)] = rec
	return nil
}

var _ = Describe("Service", func() {
	var (
		store   *fakeStore
		service *access.Service
		ctx     context.Context
	)

	const formID = "65f1c0ffee65f1c0ffee0001"

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		store.forms[formID] = access.Form{ID: formID, Name: access.FormReports}
		store.records[key("alice", formID)] = access.Encode(formID, access.None())
		store.records[key("bob", formID)] = access.Encode(formID, access.None())
		service = access.NewService(store)
	})

	Describe("SetBulkAccessLevel", func() {
		It("counts only known users and does not fail on unknown ids", func() {
			result, err := service.SetBulkAccessLevel(ctx, formID, []string{"alice", "nobody"}, access.LevelFull)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.MatchedCount).To(Equal(1))
			Expect(result.ModifiedCount).To(Equal(1))
			Expect(result.FailedCount).To(Equal(0))

			rec := store.records[key("alice", formID)]
			Expect(rec.FullAccess).To(BeTrue())
			Expect(rec.NoAccess).To(BeFalse())
			Expect(rec.PartialAccess.Enabled).To(BeFalse())
			Expect(rec.SelectedAccessLevel).To(Equal(string(access.LevelFull)))
		})

		It("resets partial permissions when switching to no access", func() {
			store.records[key("alice", formID)] = access.Encode(formID, access.Partial(access.Permissions{access.FlagView: true}))

			result, err := service.SetBulkAccessLevel(ctx, formID, []string{"alice"}, access.LevelNone)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ModifiedCount).To(Equal(1))

			rec := store.records[key("alice", formID)]
			Expect(rec.NoAccess).To(BeTrue())
			Expect(rec.PartialAccess.Enabled).To(BeFalse())
			Expect(rec.PartialAccess.Permissions[access.FlagView]).To(BeFalse())
		})

		It("matches without modifying when the level is already set", func() {
			_, err := service.SetBulkAccessLevel(ctx, formID, []string{"alice"}, access.LevelFull)
			Expect(err).NotTo(HaveOccurred())

			result, err := service.SetBulkAccessLevel(ctx, formID, []string{"alice", "alice"}, access.LevelFull)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(access.BulkResult{MatchedCount: 1}))
		})

		It("keeps going when one write fails", func() {
			store.failSave["alice"] = true

			result, err := service.SetBulkAccessLevel(ctx, formID, []string{"alice", "bob"}, access.LevelFull)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(access.BulkResult{MatchedCount: 2, ModifiedCount: 1, FailedCount: 1}))
			Expect(store.records[key("bob", formID)].FullAccess).To(BeTrue())
		})

		It("rejects partial access", func() {
			_, err := service.SetBulkAccessLevel(ctx, formID, []string{"alice"}, access.LevelPartial)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
			Expect(store.saveCalls).To(BeZero())
		})

		It("rejects unknown levels", func() {
			_, err := service.SetBulkAccessLevel(ctx, formID, []string{"alice"}, access.Level("Admin"))
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))
		})
	})

	Describe("SetPartialAccess", func() {
		It("is idempotent and drops the selected level", func() {
			rec := access.Encode(formID, access.Full())
			rec.SelectedAccessLevel = string(access.LevelFull)
			store.records[key("alice", formID)] = rec

			value := partialValue(`{"view": true, "applyKpi": true}`)
			first, err := service.SetPartialAccess(ctx, formID, "alice", value)
			Expect(err).NotTo(HaveOccurred())
			second, err := service.SetPartialAccess(ctx, formID, "alice", value)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
			stored := store.records[key("alice", formID)]
			Expect(stored.PartialAccess.Enabled).To(BeTrue())
			Expect(stored.FullAccess).To(BeFalse())
			Expect(stored.NoAccess).To(BeFalse())
			Expect(stored.SelectedAccessLevel).To(BeEmpty())
			Expect(stored.PartialAccess.Permissions[access.FlagView]).To(BeTrue())
			Expect(stored.PartialAccess.Permissions[access.FlagEdit]).To(BeFalse())
			Expect(stored.PartialAccess.Permissions).To(HaveKeyWithValue(access.FlagApplyRPT, false))
		})

		It("applies a single boolean to the core flags", func() {
			_, err := service.SetPartialAccess(ctx, formID, "bob", partialValue(`true`))
			Expect(err).NotTo(HaveOccurred())

			perms := store.records[key("bob", formID)].PartialAccess.Permissions
			for _, flag := range access.CoreFlags {
				Expect(perms[flag]).To(BeTrue(), flag)
			}
			Expect(perms[access.FlagApplyIncrement]).To(BeFalse())
		})

		It("reports not found for an unknown pair", func() {
			_, err := service.SetPartialAccess(ctx, formID, "nobody", partialValue(`true`))
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})
	})

	Describe("HasValidAccess and Allows", func() {
		It("denies sign in until something usable is granted", func() {
			ok, err := service.HasValidAccess(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			_, err = service.SetPartialAccess(ctx, formID, "alice", partialValue(`{"view": true}`))
			Expect(err).NotTo(HaveOccurred())

			ok, err = service.HasValidAccess(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			allowed, err := service.Allows(ctx, "alice", access.FormReports, access.FlagView)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())

			allowed, err = service.Allows(ctx, "alice", access.FormReports, access.FlagDelete)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("denies forms the user has no row for", func() {
			allowed, err := service.Allows(ctx, "alice", access.FormPayroll, access.FlagView)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("SetAccessLevel", func() {
		It("routes partial requests to the partial path", func() {
			rec, err := service.SetAccessLevel(ctx, formID, "bob", access.LevelPartial, partialValue(`{"edit": true}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.PartialAccess.Enabled).To(BeTrue())
			Expect(rec.PartialAccess.Permissions[access.FlagEdit]).To(BeTrue())
		})

		It("reports not found for full access on an unknown pair", func() {
			_, err := service.SetAccessLevel(ctx, formID, "nobody", access.LevelFull, access.PartialValue{})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})
	})

	Describe("FormUsers", func() {
		It("reports not found for an unknown form", func() {
			_, err := service.FormUsers(ctx, "65f1c0ffee65f1c0ffee9999")
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})
	})
})
