package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestDownloadReplacesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new build"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "bot")
	if err := os.WriteFile(path, []byte("old build"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	u := New(Config{URL: srv.URL, Path: path}, zap.NewNop())
	if err := u.Download(context.Background()); err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new build" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestDownloadRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "bot")
	if err := os.WriteFile(path, []byte("old build"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	u := New(Config{URL: srv.URL, Path: path}, zap.NewNop())
	if err := u.Download(context.Background()); err == nil {
		t.Fatalf("expected error for 404")
	}
	got, _ := os.ReadFile(path)
	if string(got) != "old build" {
		t.Fatalf("target must be untouched, got %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestDownloadRequiresConfig(t *testing.T) {
	if err := New(Config{}, zap.NewNop()).Download(context.Background()); err == nil {
		t.Fatalf("expected configuration error")
	}
}
