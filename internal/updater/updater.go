// Package updater downloads a new bot build over HTTP and hands off to a
// process restart.
package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	URL     string
	Path    string
	Timeout time.Duration
}

type Updater struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Updater {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &Updater{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

func (u *Updater) WithHTTPClient(client *http.Client) {
	u.client = client
}

// Download fetches the configured URL and replaces the target file. The
// target is only touched once the whole body has been written.
func (u *Updater) Download(ctx context.Context) error {
	if u.cfg.URL == "" || u.cfg.Path == "" {
		return fmt.Errorf("update url or path not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download: unexpected status %s", resp.Status)
	}

	dir := filepath.Dir(u.cfg.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(u.cfg.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	mode := os.FileMode(0o755)
	if info, err := os.Stat(u.cfg.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write update: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), u.cfg.Path); err != nil {
		return fmt.Errorf("replace %s: %w", u.cfg.Path, err)
	}
	u.logger.Info("update written", zap.String("path", u.cfg.Path), zap.Int64("bytes", n))
	return nil
}
