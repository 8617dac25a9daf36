// Package report delivers error reports to the bot owner's direct chat.
package report

import (
	"context"
	"fmt"
	"runtime/debug"

	"groupkeeper/internal/messages"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

type Reporter struct {
	sender transport.Sender
	owner  string
	logger *zap.Logger
}

func New(sender transport.Sender, ownerID string, logger *zap.Logger) *Reporter {
	return &Reporter{sender: sender, owner: ownerID, logger: logger}
}

// Report sends label and detail to the owner. Delivery failures are logged
// and swallowed.
func (r *Reporter) Report(ctx context.Context, label, detail string) {
	r.logger.Error("owner report", zap.String("label", label), zap.String("detail", messages.Truncate(detail, messages.MaxReportLength)))
	if r.owner == "" {
		return
	}
	msg := transport.Message{Text: messages.OwnerReport(label, detail)}
	if err := r.sender.SendMessage(ctx, r.owner, msg); err != nil {
		r.logger.Warn("owner report not delivered", zap.String("label", label), zap.Error(err))
	}
}

func (r *Reporter) Error(ctx context.Context, label string, err error) {
	if err == nil {
		return
	}
	r.Report(ctx, label, err.Error())
}

// Panic reports a recovered panic with its stack.
func (r *Reporter) Panic(ctx context.Context, recovered any, stack []byte) {
	if stack == nil {
		stack = debug.Stack()
	}
	r.Report(ctx, messages.ErrorLabelUncaught, fmt.Sprintf("%v\n\n%s", recovered, stack))
}
