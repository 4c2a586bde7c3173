package files_test

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hradmin/internal/apperr"
	"hradmin/internal/domain/files"
)

const userAda = "65f1c0ffee65f1c0ffee0d01"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type memoryStorage struct {
	objects map[string][]byte
	deleted []string
}

func (m *memoryStorage) Store(_ context.Context, data []byte, name string) (string, error) {
	path := "/uploads/" + name
	m.objects[path] = data
	return path, nil
}

func (m *memoryStorage) Delete(_ context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	delete(m.objects, path)
	return nil
}

type fakeStore struct {
	profiles map[string]string
	files    map[string]files.File
	setErr   error
}

func (f *fakeStore) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := f.profiles[userID]
	return ok, nil
}

func (f *fakeStore) ProfileImage(_ context.Context, userID string) (string, error) {
	path, ok := f.profiles[userID]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return path, nil
}

func (f *fakeStore) SetProfileImage(_ context.Context, userID, path string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.profiles[userID] = path
	return nil
}

func (f *fakeStore) Create(_ context.Context, file files.File) error {
	f.files[file.ID] = file
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (files.File, error) {
	file, ok := f.files[id]
	if !ok {
		return files.File{}, pgx.ErrNoRows
	}
	return file, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]files.File, error) {
	var out []files.File
	for _, file := range f.files {
		if file.UserID == userID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.files, id)
	return nil
}

var _ = Describe("Service", func() {
	var (
		store   *fakeStore
		backend *memoryStorage
		svc     *files.Service
		ctx     context.Context
		now     time.Time
	)

	BeforeEach(func() {
		store = &fakeStore{profiles: map[string]string{userAda: "/uploads/profile-old.jpg"}, files: map[string]files.File{}}
		backend = &memoryStorage{objects: map[string][]byte{"/uploads/profile-old.jpg": []byte("old")}}
		svc = files.NewService(store, backend)
		now = time.UnixMilli(1712345678000).UTC()
		svc.Now = func() time.Time { return now }
		ctx = context.Background()
	})

	Describe("profile images", func() {
		It("replaces the previous image", func() {
			path, err := svc.SetProfileImage(ctx, userAda, pngHeader)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("/uploads/profile-" + userAda + "-1712345678000.png"))
			Expect(store.profiles[userAda]).To(Equal(path))
			Expect(backend.deleted).To(ConsistOf("/uploads/profile-old.jpg"))
			Expect(backend.objects).To(HaveLen(1))
		})

		It("stores each upload under a new name", func() {
			first, err := svc.SetProfileImage(ctx, userAda, pngHeader)
			Expect(err).NotTo(HaveOccurred())
			backend.deleted = nil
			now = now.Add(time.Second)

			second, err := svc.SetProfileImage(ctx, userAda, pngHeader)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(Equal(first))
			Expect(backend.deleted).To(ConsistOf(first))
			Expect(backend.objects).To(HaveKey(second))
			Expect(backend.objects).To(HaveLen(1))
		})

		It("keeps the current image when the user row cannot be updated", func() {
			current, err := svc.SetProfileImage(ctx, userAda, pngHeader)
			Expect(err).NotTo(HaveOccurred())
			backend.deleted = nil
			now = now.Add(time.Second)
			store.setErr = errors.New("db down")

			_, err = svc.SetProfileImage(ctx, userAda, pngHeader)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindInternal))
			Expect(store.profiles[userAda]).To(Equal(current))
			Expect(backend.objects).To(HaveKey(current))
			Expect(backend.deleted).NotTo(ContainElement(current))
			Expect(backend.objects).To(HaveLen(1))
		})

		It("does not delete the current image when the new path collides with it", func() {
			current, err := svc.SetProfileImage(ctx, userAda, pngHeader)
			Expect(err).NotTo(HaveOccurred())
			backend.deleted = nil
			store.setErr = errors.New("db down")

			_, err = svc.SetProfileImage(ctx, userAda, pngHeader)
			Expect(err).To(HaveOccurred())
			Expect(store.profiles[userAda]).To(Equal(current))
			Expect(backend.objects).To(HaveKey(current))
			Expect(backend.deleted).To(BeEmpty())
		})

		It("rejects non-images and unknown users", func() {
			_, err := svc.SetProfileImage(ctx, userAda, []byte("%PDF-1.4 not an image"))
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))

			_, err = svc.SetProfileImage(ctx, "missing", pngHeader)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})
	})

	Describe("attachments", func() {
		It("prefixes stored names with the upload time", func() {
			f, err := svc.Attach(ctx, files.Upload{
				UserID:       userAda,
				UploadedBy:   "admin",
				OriginalName: "../Offer Letter.pdf",
				Data:         []byte("%PDF-1.4\n"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.FileName).To(Equal("1712345678000-Offer_Letter.pdf"))
			Expect(f.Path).To(Equal("/uploads/1712345678000-Offer_Letter.pdf"))
			Expect(f.ContentType).To(Equal("application/pdf"))

			list, err := svc.List(ctx, userAda)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))

			deleted, err := svc.Delete(ctx, f.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted.ID).To(Equal(f.ID))
			Expect(backend.objects).NotTo(HaveKey(f.Path))

			_, err = svc.Delete(ctx, f.ID)
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})

		It("rejects empty uploads and unknown users", func() {
			_, err := svc.Attach(ctx, files.Upload{UserID: userAda, OriginalName: "a.txt"})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindValidation))

			_, err = svc.Attach(ctx, files.Upload{UserID: "missing", OriginalName: "a.txt", Data: []byte("x")})
			Expect(apperr.KindOf(err)).To(Equal(apperr.KindNotFound))
		})
	})
})
