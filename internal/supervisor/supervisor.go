// Package supervisor re-establishes the transport connection after it drops.
package supervisor

import (
	"errors"
	"sync"
	"time"

	"groupkeeper/internal/schedule"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

type Connector interface {
	Connect() error
}

// Supervisor schedules one reconnect at a time. Attempts that fail are
// rescheduled with the same delay until a logout ends supervision.
type Supervisor struct {
	mu       sync.Mutex
	conn     Connector
	clock    schedule.Clock
	delay    time.Duration
	logger   *zap.Logger
	pending  bool
	stopped  bool
	attempts int
	onLogout func(reason string)
}

func New(conn Connector, delay time.Duration, logger *zap.Logger) *Supervisor {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Supervisor{conn: conn, clock: schedule.RealClock(), delay: delay, logger: logger}
}

func (s *Supervisor) WithClock(clock schedule.Clock) {
	s.clock = clock
}

// OnLogout registers a callback for when the session is invalidated.
func (s *Supervisor) OnLogout(fn func(reason string)) {
	s.onLogout = fn
}

// HandleEvent reacts to connection lifecycle events and ignores the rest.
func (s *Supervisor) HandleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Connected:
		s.mu.Lock()
		s.attempts = 0
		s.mu.Unlock()
	case *events.Disconnected:
		s.Schedule("disconnected")
	case *events.StreamReplaced:
		s.Schedule("stream replaced")
	case *events.ConnectFailure:
		if v.Reason.IsLoggedOut() {
			s.stop("connect failure: " + v.Reason.String())
			return
		}
		s.Schedule("connect failure: " + v.Reason.String())
	case *events.LoggedOut:
		s.stop("logged out: " + v.Reason.String())
	}
}

// Schedule arranges a reconnect after the delay unless one is already
// pending or supervision has stopped. It reports whether a new attempt was
// scheduled.
func (s *Supervisor) Schedule(reason string) bool {
	s.mu.Lock()
	if s.stopped || s.pending {
		s.mu.Unlock()
		return false
	}
	s.pending = true
	s.mu.Unlock()

	s.logger.Warn("connection lost, reconnect scheduled", zap.String("reason", reason), zap.Duration("delay", s.delay))
	s.clock.AfterFunc(s.delay, s.attempt)
	return true
}

func (s *Supervisor) attempt() {
	s.mu.Lock()
	if s.stopped {
		s.pending = false
		s.mu.Unlock()
		return
	}
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	err := s.conn.Connect()
	if errors.Is(err, whatsmeow.ErrAlreadyConnected) {
		err = nil
	}

	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
		s.Schedule("retry")
		return
	}
	s.logger.Info("reconnected", zap.Int("attempt", attempt))
}

// Stop ends supervision; pending attempts become no-ops.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *Supervisor) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Supervisor) stop(reason string) {
	s.mu.Lock()
	already := s.stopped
	s.stopped = true
	s.mu.Unlock()
	if already {
		return
	}
	s.logger.Error("session logged out, reconnect disabled", zap.String("reason", reason))
	if s.onLogout != nil {
		s.onLogout(reason)
	}
}
