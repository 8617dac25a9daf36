// Package bot wires the moderation pipeline to the transport: events are
// classified, passed through the policy gate, dispatched as commands, and
// the resulting actions executed in order.
package bot

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"groupkeeper/internal/analytics"
	"groupkeeper/internal/authz"
	"groupkeeper/internal/broadcast"
	"groupkeeper/internal/campaign"
	"groupkeeper/internal/config"
	"groupkeeper/internal/dispatch"
	"groupkeeper/internal/gate"
	"groupkeeper/internal/modules/antilink"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/report"
	"groupkeeper/internal/schedule"
	"groupkeeper/internal/state"
	"groupkeeper/internal/storage"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

// Updater fetches a new build for the restart command.
type Updater interface {
	Download(ctx context.Context) error
}

// AuditStore is implemented by backends that keep audit rows.
type AuditStore interface {
	analytics.Source
	CleanupAuditLogs(ctx context.Context, retentionDays int) error
}

type Options struct {
	Config     config.Config
	Logger     *zap.Logger
	Transport  transport.Facade
	Documents  storage.DocumentStore
	Audit      *audit.Logger
	AuditStore AuditStore
	Updater    Updater
	// Exit terminates the process after a successful update.
	Exit   func(code int)
	SelfID func() string
	Clock  schedule.Clock
	Rand   *rand.Rand
}

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	transport transport.Facade
	clock     schedule.Clock
	runtime   *state.Runtime
	campaigns *campaign.Engine
	state     *state.Store
	gate      *gate.Gate
	dispatch  *dispatch.Dispatcher
	fanout    *broadcast.Fanout
	warner    *broadcast.Warner
	reporter  *report.Reporter
	audit     *audit.Logger
	auditDB   AuditStore
	analytics *analytics.Service
	updater   Updater
	exit      func(code int)
	selfID    func() string

	baseCtx  context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	spawnMu  sync.Mutex
	closed   bool
}

func New(opts Options) (*Bot, error) {
	if opts.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if opts.Documents == nil {
		return nil, errors.New("document store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auditLogger := opts.Audit
	if auditLogger == nil {
		auditLogger = audit.NewLogger(nil, logger)
	}
	clock := opts.Clock
	if clock == nil {
		clock = schedule.RealClock()
	}
	selfID := opts.SelfID
	if selfID == nil {
		selfID = func() string { return "" }
	}
	exit := opts.Exit
	if exit == nil {
		exit = func(int) {}
	}

	cfg := opts.Config
	policy := cfg.Policy()
	runtime := &state.Runtime{}
	runtime.SetWarnings(cfg.Warning.Enabled)
	campaigns := campaign.New(clock, opts.Rand)
	oracle := authz.New(opts.Transport, logger.Named("authz"))
	fanout := broadcast.NewFanout(opts.Transport, policy, logger.Named("broadcast"))

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		transport: opts.Transport,
		clock:     clock,
		runtime:   runtime,
		campaigns: campaigns,
		state:     state.NewStore(opts.Documents, runtime, campaigns),
		gate:      gate.New(policy, runtime, antilink.New(cfg.LinkGuard.Hosts, auditLogger), oracle, auditLogger, logger.Named("gate")),
		dispatch: dispatch.New(dispatch.Options{
			Prefix:    cfg.CommandPrefix,
			Policy:    policy,
			Admins:    oracle,
			Groups:    opts.Transport,
			Campaigns: campaigns,
			Runtime:   runtime,
			Location:  cfg.Location(),
			Audit:     auditLogger,
			Logger:    logger.Named("dispatch"),
		}),
		fanout:   fanout,
		reporter: report.New(opts.Transport, policy.OwnerID, logger.Named("report")),
		audit:    auditLogger,
		auditDB:  opts.AuditStore,
		updater:  opts.Updater,
		exit:     exit,
		selfID:   selfID,
		baseCtx:  context.Background(),
	}
	b.warner = broadcast.NewWarner(broadcast.Config{
		Text:     cfg.Warning.Text,
		Cooldown: time.Duration(cfg.Warning.CooldownMinutes) * time.Minute,
	}, runtime, fanout, auditLogger, logger.Named("warning"))
	b.warner.WithClock(clock)
	if opts.AuditStore != nil {
		b.analytics = analytics.New(opts.AuditStore)
	}
	return b, nil
}

// Load restores the operating mode and campaign table from storage.
func (b *Bot) Load(ctx context.Context) error {
	if err := b.state.Load(ctx); err != nil {
		return err
	}
	b.logger.Info("state loaded",
		zap.Bool("maintenance", b.runtime.Maintenance()),
		zap.Int("campaigns", len(b.campaigns.Snapshot())),
	)
	return nil
}

type loop struct {
	name     string
	interval time.Duration
	fn       func(context.Context)
}

// Start launches the background loops. They stop when ctx is cancelled or
// Close is called.
func (b *Bot) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.baseCtx = ctx

	loops := []loop{
		{"giveaway_sweep", time.Duration(b.cfg.Sweep.IntervalSeconds) * time.Second, b.sweep},
		{"warning", time.Duration(b.cfg.Warning.IntervalSeconds) * time.Second, b.warn},
		{"presence", time.Duration(b.cfg.Presence.IntervalMinutes) * time.Minute, b.keepAlive},
	}
	if b.auditDB != nil {
		loops = append(loops, loop{"audit_cleanup", 24 * time.Hour, b.cleanupAudit})
		if b.cfg.Audit.SummaryHours > 0 {
			loops = append(loops, loop{"audit_digest", time.Duration(b.cfg.Audit.SummaryHours) * time.Hour, b.digest})
		}
	}

	for _, l := range loops {
		b.spawn(func() {
			schedule.Every(ctx, l.name, l.interval, b.logger, b.onLoopPanic, l.fn)
		})
	}
}

// spawn runs fn on its own goroutine tracked by Close. After Close it is a
// no-op, so WaitGroup.Add never races the final Wait.
func (b *Bot) spawn(fn func()) bool {
	b.spawnMu.Lock()
	defer b.spawnMu.Unlock()
	if b.closed || b.baseCtx.Err() != nil {
		return false
	}
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		fn()
	}()
	return true
}

// Close stops the loops and waits for in-flight handlers.
func (b *Bot) Close(ctx context.Context) {
	b.spawnMu.Lock()
	b.closed = true
	b.spawnMu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("shutdown timed out waiting for handlers")
	}
}

func (b *Bot) Runtime() *state.Runtime { return b.runtime }

func (b *Bot) Campaigns() *campaign.Engine { return b.campaigns }

func (b *Bot) onLoopPanic(name string, recovered any, stack []byte) {
	b.reporter.Panic(b.baseCtx, recovered, stack)
}
