package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":            "report.pdf",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\cv 1.docx`: "cv_1.docx",
		"héllo wörld.png":       "h_llo_w_rld.png",
		"...":                   "file",
		"":                      "file",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocalStoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocal(dir, "uploads/")
	if err != nil {
		t.Fatalf("new local: %v", err)
	}
	ctx := context.Background()

	publicPath, err := local.Store(ctx, []byte("hello"), "profile-abc.png")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if publicPath != "/uploads/profile-abc.png" {
		t.Fatalf("unexpected public path %q", publicPath)
	}
	data, err := os.ReadFile(filepath.Join(dir, "profile-abc.png"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("unexpected file content %q %v", data, err)
	}

	if err := local.Delete(ctx, publicPath); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "profile-abc.png")); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, got %v", err)
	}
	if err := local.Delete(ctx, publicPath); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if err := local.Delete(ctx, "https://elsewhere.example.com/x.png"); err != nil {
		t.Fatalf("foreign path should be ignored: %v", err)
	}
}

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url, resourceType, publicID string
		ok                          bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/hradmin/profile-abc.jpg", "image", "hradmin/profile-abc", true},
		{"https://res.cloudinary.com/demo/image/upload/hradmin/profile-abc.png", "image", "hradmin/profile-abc", true},
		{"https://res.cloudinary.com/demo/raw/upload/v1/hradmin/1712345678000-cv.docx", "raw", "hradmin/1712345678000-cv.docx", true},
		{"/uploads/profile-abc.png", "", "", false},
		{"https://res.cloudinary.com/demo/image/fetch/x.png", "", "", false},
	}
	for _, tc := range tests {
		resourceType, publicID, ok := publicIDFromURL(tc.url)
		if ok != tc.ok || resourceType != tc.resourceType || publicID != tc.publicID {
			t.Fatalf("publicIDFromURL(%q) = %q %q %v", tc.url, resourceType, publicID, ok)
		}
	}
}
