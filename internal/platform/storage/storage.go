package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"hradmin/internal/platform/config"
)

// Storage keeps uploaded bytes and hands back the path clients use to
// fetch them.
type Storage interface {
	Store(ctx context.Context, data []byte, name string) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

func New(cfg config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageCloudinary:
		return NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	case config.StorageLocal, "":
		return NewLocal(cfg.UploadDir, cfg.UploadPublicPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces an uploaded file name to a safe base name.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	if len(base) > 120 {
		ext := filepath.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:120-len(ext)] + ext
	}
	return base
}
