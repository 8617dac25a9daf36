// Package broadcast fans a text out to every joined group on the whitelist
// and drives the periodic safety warning.
package broadcast

import (
	"context"
	"errors"
	"fmt"

	"groupkeeper/internal/config"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

type Transport interface {
	transport.Sender
	JoinedGroups(ctx context.Context) ([]transport.Group, error)
}

type Fanout struct {
	transport Transport
	policy    config.GroupPolicy
	logger    *zap.Logger
}

func NewFanout(t Transport, policy config.GroupPolicy, logger *zap.Logger) *Fanout {
	return &Fanout{transport: t, policy: policy, logger: logger}
}

// Send delivers text to every joined whitelisted group. A failing group does
// not stop delivery to the rest; all failures are joined into the returned
// error. The count is the number of groups that received the text.
func (f *Fanout) Send(ctx context.Context, text string) (int, error) {
	groups, err := f.transport.JoinedGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("list joined groups: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, group := range groups {
		if !f.policy.IsAllowed(group.ID) {
			continue
		}
		if err := f.transport.SendMessage(ctx, group.ID, transport.Message{Text: text}); err != nil {
			f.logger.Warn("broadcast send failed", zap.String("group_id", group.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", group.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
