package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"groupkeeper/internal/identity"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	OwnerID       string          `yaml:"owner_id"`
	AllowedGroups []string        `yaml:"allowed_groups"`
	CommandPrefix string          `yaml:"command_prefix"`
	Timezone      string          `yaml:"timezone"`
	LogLevel      string          `yaml:"log_level"`
	SessionPath   string          `yaml:"session_path"`
	Storage       StorageConfig   `yaml:"storage"`
	Health        HealthConfig    `yaml:"health"`
	Warning       WarningConfig   `yaml:"warning"`
	Sweep         SweepConfig     `yaml:"sweep"`
	Reconnect     ReconnectConfig `yaml:"reconnect"`
	Presence      PresenceConfig  `yaml:"presence"`
	Update        UpdateConfig    `yaml:"update"`
	LinkGuard     LinkGuardConfig `yaml:"link_guard"`
	Audit         AuditConfig     `yaml:"audit"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"`
	SQLitePath    string `yaml:"sqlite_path"`
	FileDir       string `yaml:"file_dir"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type WarningConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Text            string `yaml:"text"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	CooldownMinutes int    `yaml:"cooldown_minutes"`
}

type SweepConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

type ReconnectConfig struct {
	DelaySeconds int `yaml:"delay_seconds"`
}

type PresenceConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

type UpdateConfig struct {
	URL            string `yaml:"url"`
	Path           string `yaml:"path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AuditConfig only applies to the sqlite backend, the one that keeps audit
// rows. A zero SummaryHours disables the owner digest.
type AuditConfig struct {
	RetentionDays int `yaml:"retention_days"`
	SummaryHours  int `yaml:"summary_hours"`
}

type LinkGuardConfig struct {
	Hosts []string `yaml:"hosts"`
}

// GroupPolicy is the static whitelist and owner identity. It is derived once
// from Config and never mutated.
type GroupPolicy struct {
	OwnerID string
	allowed map[string]struct{}
	ordered []string
}

func NewGroupPolicy(ownerID string, allowedGroups []string) GroupPolicy {
	ordered := identity.NormalizeAll(allowedGroups)
	allowed := make(map[string]struct{}, len(ordered))
	for _, id := range ordered {
		allowed[id] = struct{}{}
	}
	return GroupPolicy{OwnerID: identity.Normalize(ownerID), allowed: allowed, ordered: ordered}
}

func (p GroupPolicy) IsAllowed(groupID string) bool {
	_, ok := p.allowed[identity.Normalize(groupID)]
	return ok
}

func (p GroupPolicy) IsOwner(id string) bool {
	return p.OwnerID != "" && identity.Normalize(id) == p.OwnerID
}

func (p GroupPolicy) AllowedGroups() []string {
	return append([]string(nil), p.ordered...)
}

func (c Config) Policy() GroupPolicy {
	return NewGroupPolicy(c.OwnerID, c.AllowedGroups)
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func DefaultConfig() Config {
	return Config{
		CommandPrefix: ".",
		Timezone:      "Asia/Jakarta",
		LogLevel:      "info",
		SessionPath:   "/data/session.db",
		Storage: StorageConfig{
			Backend:     BackendSQLite,
			SQLitePath:  "/data/groupkeeper.db",
			FileDir:     "/data",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "groupkeeper:",
		},
		Health: HealthConfig{Enabled: false, Addr: ":8080"},
		Warning: WarningConfig{
			Enabled:         false,
			Text:            "⚠️ Demi keamanan, mohon selalu gunakan *Midman Admin* saat transaksi di grup ini.",
			IntervalSeconds: 60,
			CooldownMinutes: 30,
		},
		Sweep:     SweepConfig{IntervalSeconds: 60},
		Reconnect: ReconnectConfig{DelaySeconds: 5},
		Presence:  PresenceConfig{IntervalMinutes: 5},
		Update:    UpdateConfig{Path: "./groupkeeper.new", TimeoutSeconds: 60},
		LinkGuard: LinkGuardConfig{Hosts: []string{"chat.whatsapp.com"}},
		Audit:     AuditConfig{RetentionDays: 14},
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.OwnerID = identity.Normalize(c.OwnerID)
	if c.OwnerID == "" {
		return errors.New("OWNER_ID is required")
	}
	c.AllowedGroups = identity.NormalizeAll(c.AllowedGroups)
	for _, group := range c.AllowedGroups {
		if !identity.IsGroup(group) {
			return fmt.Errorf("allowed group %q is not a group id", group)
		}
	}
	if c.CommandPrefix == "" {
		c.CommandPrefix = "."
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendRedis:
	case "":
		c.Storage.Backend = BackendSQLite
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	hosts := make([]string, 0, len(c.LinkGuard.Hosts))
	for _, host := range c.LinkGuard.Hosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			hosts = append(hosts, host)
		}
	}
	c.LinkGuard.Hosts = hosts
	return nil
}

func applyEnv(cfg *Config) {
	cfg.OwnerID = envString("OWNER_ID", cfg.OwnerID)
	cfg.AllowedGroups = envList("ALLOWED_GROUPS", cfg.AllowedGroups)
	cfg.CommandPrefix = envString("COMMAND_PREFIX", cfg.CommandPrefix)
	cfg.Timezone = envString("TIMEZONE", cfg.Timezone)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.SessionPath = envString("SESSION_PATH", cfg.SessionPath)
	cfg.Storage.Backend = envString("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.SQLitePath = envString("DATABASE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.FileDir = envString("STATE_DIR", cfg.Storage.FileDir)
	cfg.Storage.RedisAddr = envString("REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = envString("REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.RedisDB = envInt("REDIS_DB", cfg.Storage.RedisDB)
	cfg.Storage.RedisPrefix = envString("REDIS_PREFIX", cfg.Storage.RedisPrefix)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Warning.Enabled = envBool("WARNING_ENABLED", cfg.Warning.Enabled)
	cfg.Warning.Text = envString("WARNING_TEXT", cfg.Warning.Text)
	cfg.Warning.IntervalSeconds = envInt("WARNING_INTERVAL_SECONDS", cfg.Warning.IntervalSeconds)
	cfg.Warning.CooldownMinutes = envInt("WARNING_COOLDOWN_MINUTES", cfg.Warning.CooldownMinutes)
	cfg.Sweep.IntervalSeconds = envInt("SWEEP_INTERVAL_SECONDS", cfg.Sweep.IntervalSeconds)
	cfg.Reconnect.DelaySeconds = envInt("RECONNECT_DELAY_SECONDS", cfg.Reconnect.DelaySeconds)
	cfg.Presence.IntervalMinutes = envInt("PRESENCE_INTERVAL_MINUTES", cfg.Presence.IntervalMinutes)
	cfg.Update.URL = envString("UPDATE_URL", cfg.Update.URL)
	cfg.Update.Path = envString("UPDATE_PATH", cfg.Update.Path)
	cfg.Update.TimeoutSeconds = envInt("UPDATE_TIMEOUT_SECONDS", cfg.Update.TimeoutSeconds)
	cfg.LinkGuard.Hosts = envList("LINK_GUARD_HOSTS", cfg.LinkGuard.Hosts)
	cfg.Audit.RetentionDays = envInt("AUDIT_RETENTION_DAYS", cfg.Audit.RetentionDays)
	cfg.Audit.SummaryHours = envInt("AUDIT_SUMMARY_HOURS", cfg.Audit.SummaryHours)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
