package files

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jackc/pgx/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/logger"
	"hradmin/internal/platform/storage"
)

type Service struct {
	Store   StoreAPI
	Storage storage.Storage
	Now     func() time.Time
}

func NewService(store StoreAPI, backend storage.Storage) *Service {
	return &Service{Store: store, Storage: backend, Now: time.Now}
}

// SetProfileImage stores the image as profile-<userID>-<unixmillis> and
// removes the previous image once the user row points at the new one.
func (s *Service) SetProfileImage(ctx context.Context, userID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("empty_file", "file is empty")
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", apperr.Validation("invalid_file_type", "profile image must be an image")
	}

	previous, err := s.Store.ProfileImage(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", userNotFound()
		}
		return "", apperr.Internal("failed to load user", err)
	}

	publicPath, err := s.Storage.Store(ctx, data, ProfileImageName(s.Now().UTC(), userID, mime.Extension()))
	if err != nil {
		return "", apperr.Internal("failed to store profile image", err)
	}
	if err := s.Store.SetProfileImage(ctx, userID, publicPath); err != nil {
		if publicPath != previous {
			s.discard(ctx, publicPath)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return "", userNotFound()
		}
		return "", apperr.Internal("failed to update profile image", err)
	}
	if previous != "" && previous != publicPath {
		s.discard(ctx, previous)
	}
	return publicPath, nil
}

// Attach stores a document against a user under a timestamp-prefixed name.
func (s *Service) Attach(ctx context.Context, in Upload) (File, error) {
	if len(in.Data) == 0 {
		return File{}, apperr.Validation("empty_file", "file is empty")
	}
	exists, err := s.Store.UserExists(ctx, in.UserID)
	if err != nil {
		return File{}, apperr.Internal("failed to load user", err)
	}
	if !exists {
		return File{}, userNotFound()
	}

	now := s.Now().UTC()
	name := AttachmentName(now, in.OriginalName)
	publicPath, err := s.Storage.Store(ctx, in.Data, name)
	if err != nil {
		return File{}, apperr.Internal("failed to store file", err)
	}
	f := File{
		ID:           db.NewID(),
		UserID:       in.UserID,
		FileName:     name,
		OriginalName: strings.TrimSpace(in.OriginalName),
		Path:         publicPath,
		ContentType:  mimetype.Detect(in.Data).String(),
		SizeBytes:    int64(len(in.Data)),
		UploadedBy:   in.UploadedBy,
		CreatedAt:    now,
	}
	if err := s.Store.Create(ctx, f); err != nil {
		s.discard(ctx, publicPath)
		return File{}, apperr.Internal("failed to save file", err)
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]File, error) {
	out, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list files", err)
	}
	if out == nil {
		out = []File{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (File, error) {
	f, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, fileNotFound()
		}
		return File{}, apperr.Internal("failed to load file", err)
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id string) (File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return File{}, err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, fileNotFound()
		}
		return File{}, apperr.Internal("failed to delete file", err)
	}
	s.discard(ctx, f.Path)
	return f, nil
}

func (s *Service) discard(ctx context.Context, publicPath string) {
	if err := s.Storage.Delete(ctx, publicPath); err != nil {
		logger.From(ctx).Warn("stored file cleanup failed", "path", publicPath, "err", err)
	}
}

func AttachmentName(at time.Time, original string) string {
	return fmt.Sprintf("%d-%s", at.UnixMilli(), storage.SanitizeName(original))
}

func ProfileImageName(at time.Time, userID, ext string) string {
	return fmt.Sprintf("profile-%s-%d%s", userID, at.UnixMilli(), ext)
}

func userNotFound() error {
	return apperr.NotFound("user_not_found", "user not found")
}

func fileNotFound() error {
	return apperr.NotFound("file_not_found", "file not found")
}
