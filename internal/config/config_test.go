package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
owner_id: "628975539822"
allowed_groups:
  - 120363419880680909@g.us
storage:
  backend: file
  file_dir: /tmp/state
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("RECONNECT_DELAY_SECONDS", "9")
	t.Setenv("LINK_GUARD_HOSTS", "Chat.WhatsApp.com, wa.me")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OwnerID != "628975539822@s.whatsapp.net" {
		t.Fatalf("owner not normalized: %q", cfg.OwnerID)
	}
	if cfg.Storage.Backend != BackendFile || cfg.Storage.FileDir != "/tmp/state" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Reconnect.DelaySeconds != 9 {
		t.Fatalf("expected env override, got %d", cfg.Reconnect.DelaySeconds)
	}
	if len(cfg.LinkGuard.Hosts) != 2 || cfg.LinkGuard.Hosts[0] != "chat.whatsapp.com" {
		t.Fatalf("unexpected hosts %v", cfg.LinkGuard.Hosts)
	}
	if cfg.Sweep.IntervalSeconds != 60 || cfg.Warning.CooldownMinutes != 30 || cfg.Audit.RetentionDays != 14 {
		t.Fatalf("expected defaults to survive")
	}
}

func TestLoadRequiresOwner(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "log_level: debug\n"))
	t.Setenv("OWNER_ID", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing owner error")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "owner_id: \"628111\"\nstorage:\n  backend: mongo\n"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected backend error")
	}
}

func TestLoadRejectsNonGroupWhitelist(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "owner_id: \"628111\"\nallowed_groups: [\"628222\"]\n"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected whitelist error")
	}
}

func TestGroupPolicy(t *testing.T) {
	policy := NewGroupPolicy("628111", []string{"1203@g.us", "1203@g.us"})
	if !policy.IsOwner("628111:5@s.whatsapp.net") {
		t.Fatalf("expected owner match across representations")
	}
	if policy.IsOwner("628222") {
		t.Fatalf("unexpected owner match")
	}
	if !policy.IsAllowed("1203@g.us") || policy.IsAllowed("9999@g.us") {
		t.Fatalf("whitelist mismatch")
	}
	if len(policy.AllowedGroups()) != 1 {
		t.Fatalf("expected deduplicated whitelist")
	}
}
