package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"groupkeeper/internal/config"
)

var ErrNotFound = errors.New("document not found")

// Document names. Each document is rewritten in full on every change.
const (
	ModeDocument     = "maintenance"
	CampaignDocument = "giveaway"
)

// DocumentStore loads and saves whole JSON documents by name. Load returns
// ErrNotFound when the document was never written.
type DocumentStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, body []byte) error
	Close() error
}

type ModeState struct {
	Active bool `json:"active"`
}

// LoadJSON decodes document name into v. A missing document leaves v
// untouched and reports false.
func LoadJSON(ctx context.Context, store DocumentStore, name string, v any) (bool, error) {
	body, err := store.Load(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", name, err)
	}
	if len(body) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func SaveJSON(ctx context.Context, store DocumentStore, name string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := store.Save(ctx, name, body); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func LoadMode(ctx context.Context, store DocumentStore) (ModeState, error) {
	var mode ModeState
	_, err := LoadJSON(ctx, store, ModeDocument, &mode)
	return mode, err
}

func SaveMode(ctx context.Context, store DocumentStore, mode ModeState) error {
	return SaveJSON(ctx, store, ModeDocument, mode)
}

// Open builds the backend selected in cfg. The sqlite backend is migrated
// before it is returned.
func Open(ctx context.Context, cfg config.StorageConfig) (DocumentStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.FileDir)
	case config.BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		store, err := New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	}
}
