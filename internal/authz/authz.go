// Package authz answers whether an identity holds admin rights in a group.
package authz

import (
	"context"

	"groupkeeper/internal/identity"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

// Oracle queries fresh group metadata on every call. Failures resolve to
// false and are logged, never returned.
type Oracle struct {
	groups transport.GroupReader
	logger *zap.Logger
}

func New(groups transport.GroupReader, logger *zap.Logger) *Oracle {
	return &Oracle{groups: groups, logger: logger}
}

func (o *Oracle) IsAdmin(ctx context.Context, groupID, id string) bool {
	id = identity.Normalize(id)
	group, err := o.groups.GroupInfo(ctx, groupID)
	if err != nil {
		o.logger.Warn("admin check failed", zap.String("group_id", groupID), zap.String("user_id", id), zap.Error(err))
		return false
	}
	for _, p := range group.Participants {
		if p.Matches(id) {
			admin := p.Elevated()
			o.logger.Debug("admin check", zap.String("group_id", groupID), zap.String("user_id", id), zap.Bool("admin", admin))
			return admin
		}
	}
	o.logger.Warn("participant not found", zap.String("group_id", groupID), zap.String("user_id", id))
	return false
}
