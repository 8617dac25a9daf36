// Package state holds the process-wide mutable flags and ties them, together
// with the campaign table, to durable documents.
package state

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"groupkeeper/internal/campaign"
	"groupkeeper/internal/storage"
)

// Runtime is the explicit home of the flags commands toggle. Maintenance is
// durable; the warning toggle lives for the process only.
type Runtime struct {
	maintenance atomic.Bool
	warnings    atomic.Bool
}

func (r *Runtime) Maintenance() bool { return r.maintenance.Load() }

func (r *Runtime) SetMaintenance(active bool) { r.maintenance.Store(active) }

func (r *Runtime) Warnings() bool { return r.warnings.Load() }

func (r *Runtime) SetWarnings(enabled bool) { r.warnings.Store(enabled) }

// ToggleWarnings flips the warning broadcast flag and returns the new value.
func (r *Runtime) ToggleWarnings() bool {
	for {
		current := r.warnings.Load()
		if r.warnings.CompareAndSwap(current, !current) {
			return !current
		}
	}
}

// Store loads state at startup and rewrites a whole document on every
// mutation. Writes are serialized so a slow write cannot land after a newer
// one.
type Store struct {
	mu        sync.Mutex
	docs      storage.DocumentStore
	runtime   *Runtime
	campaigns *campaign.Engine
}

func NewStore(docs storage.DocumentStore, runtime *Runtime, campaigns *campaign.Engine) *Store {
	return &Store{docs: docs, runtime: runtime, campaigns: campaigns}
}

func (s *Store) Load(ctx context.Context) error {
	mode, err := storage.LoadMode(ctx, s.docs)
	if err != nil {
		return err
	}
	s.runtime.SetMaintenance(mode.Active)

	table := campaign.Table{}
	if _, err := storage.LoadJSON(ctx, s.docs, storage.CampaignDocument, &table); err != nil {
		return err
	}
	s.campaigns.Restore(table)
	return nil
}

// Persist snapshots the named document at call time and writes it.
func (s *Store) Persist(ctx context.Context, document string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch document {
	case storage.ModeDocument:
		return storage.SaveMode(ctx, s.docs, storage.ModeState{Active: s.runtime.Maintenance()})
	case storage.CampaignDocument:
		return storage.SaveJSON(ctx, s.docs, storage.CampaignDocument, s.campaigns.Snapshot())
	default:
		return fmt.Errorf("unknown document %q", document)
	}
}
