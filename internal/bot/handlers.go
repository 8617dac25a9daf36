package bot

import (
	"context"
	"runtime/debug"

	"groupkeeper/internal/classify"
	"groupkeeper/internal/messages"

	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// HandleEvent is registered as the whatsmeow event handler. Messages are
// processed off the event goroutine so slow metadata lookups do not stall
// the connection.
func (b *Bot) HandleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		ev, ok := classify.FromMessage(v, b.selfID())
		if !ok {
			return
		}
		b.spawn(func() { b.HandleMessage(b.baseCtx, ev) })
	case *events.Connected:
		b.logger.Info("connected")
		b.spawn(func() { b.keepAlive(b.baseCtx) })
	case *events.Disconnected:
		b.logger.Warn("disconnected")
	case *events.LoggedOut:
		b.logger.Error("logged out", zap.String("reason", v.Reason.String()))
	}
}

// HandleMessage runs one classified event through the gate and the
// dispatcher and executes the outcome. A panic anywhere in that path is
// reported to the owner and does not escape.
func (b *Bot) HandleMessage(ctx context.Context, ev classify.Event) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			b.logger.Error("message handler panicked", zap.Any("panic", r), zap.ByteString("stack", stack))
			b.reporter.Panic(ctx, r, stack)
		}
	}()

	b.logger.Debug("message",
		zap.String("origin", ev.OriginID),
		zap.String("user_id", ev.SenderID),
		zap.Stringer("kind", ev.Kind),
		zap.Bool("group", ev.IsGroup),
	)

	verdict := b.gate.Evaluate(ctx, ev)
	if !verdict.Proceed {
		if verdict.Reason != "" {
			b.logger.Debug("message stopped at gate", zap.String("origin", ev.OriginID), zap.String("reason", string(verdict.Reason)))
		}
		b.run(ctx, verdict.Actions)
		return
	}
	b.run(ctx, b.dispatch.Dispatch(ctx, ev))
}

func (b *Bot) reportError(ctx context.Context, label string, err error) {
	if label == "" {
		label = messages.ErrorLabelProcessing
	}
	b.reporter.Error(ctx, label, err)
}
