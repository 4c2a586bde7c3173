package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Local struct {
	Dir    string
	Prefix string
}

func NewLocal(dir, prefix string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if prefix == "" {
		prefix = "/uploads"
	}
	return &Local{Dir: dir, Prefix: "/" + strings.Trim(prefix, "/")}, nil
}

func (l *Local) Store(_ context.Context, data []byte, name string) (string, error) {
	name = SanitizeName(name)
	if err := os.WriteFile(filepath.Join(l.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	return path.Join(l.Prefix, name), nil
}

// Delete ignores paths outside the prefix and files that are already gone.
func (l *Local) Delete(_ context.Context, publicPath string) error {
	name, ok := strings.CutPrefix(publicPath, l.Prefix+"/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return nil
	}
	err := os.Remove(filepath.Join(l.Dir, SanitizeName(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
