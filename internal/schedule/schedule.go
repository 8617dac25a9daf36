package schedule

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}

// PanicHandler receives the recovered value and stack of a crashed tick.
type PanicHandler func(name string, recovered any, stack []byte)

// Every runs fn on each tick of interval until ctx is cancelled. A panic in
// fn is recovered and handed to onPanic so one bad tick does not stop the
// loop.
func Every(ctx context.Context, name string, interval time.Duration, logger *zap.Logger, onPanic PanicHandler, fn func(context.Context)) {
	if interval <= 0 {
		logger.Warn("loop disabled", zap.String("loop", name))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("loop started", zap.String("loop", name), zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("loop stopped", zap.String("loop", name))
			return
		case <-ticker.C:
			runTick(ctx, name, logger, onPanic, fn)
		}
	}
}

func runTick(ctx context.Context, name string, logger *zap.Logger, onPanic PanicHandler, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("loop tick panicked", zap.String("loop", name), zap.Any("panic", r), zap.ByteString("stack", stack))
			if onPanic != nil {
				onPanic(name, r, stack)
			}
		}
	}()
	fn(ctx)
}
