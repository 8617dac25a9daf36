package broadcast

import (
	"context"
	"strconv"
	"sync"
	"time"

	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/schedule"

	"go.uber.org/zap"
)

// Toggle reports whether the periodic warning is switched on.
type Toggle interface {
	Warnings() bool
}

type Config struct {
	Text     string
	Cooldown time.Duration
}

// Warner sends the safety warning at most once per cooldown while the toggle
// is on.
type Warner struct {
	mu      sync.Mutex
	cfg     Config
	clock   schedule.Clock
	toggle  Toggle
	fanout  *Fanout
	audit   *audit.Logger
	logger  *zap.Logger
	cooling bool
}

func NewWarner(cfg Config, toggle Toggle, fanout *Fanout, auditLogger *audit.Logger, logger *zap.Logger) *Warner {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Minute
	}
	return &Warner{
		cfg:    cfg,
		clock:  schedule.RealClock(),
		toggle: toggle,
		fanout: fanout,
		audit:  auditLogger,
		logger: logger,
	}
}

func (w *Warner) WithClock(clock schedule.Clock) {
	w.clock = clock
}

func (w *Warner) Cooling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cooling
}

// Tick runs one warning attempt. It reports whether a broadcast was made.
// The cooldown starts even when delivery fails.
func (w *Warner) Tick(ctx context.Context) (bool, error) {
	if !w.toggle.Warnings() {
		return false, nil
	}
	w.mu.Lock()
	if w.cooling {
		w.mu.Unlock()
		return false, nil
	}
	w.cooling = true
	w.mu.Unlock()

	sent, err := w.fanout.Send(ctx, w.cfg.Text)
	w.clock.AfterFunc(w.cfg.Cooldown, func() {
		w.mu.Lock()
		w.cooling = false
		w.mu.Unlock()
		w.logger.Debug("warning cooldown ended")
	})
	w.audit.Log(ctx, audit.LevelInfo, "", "", "warning_broadcast", "groups="+strconv.Itoa(sent))
	return true, err
}
