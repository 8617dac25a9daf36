package bot

import (
	"context"
	"fmt"
	"time"

	"groupkeeper/internal/analytics"
	"groupkeeper/internal/dispatch"
	"groupkeeper/internal/messages"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/storage"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

// sweep concludes expired campaigns, persists the table once, then announces
// each result in its group.
func (b *Bot) sweep(ctx context.Context) {
	results := b.campaigns.Sweep(b.clock.Now())
	if len(results) == 0 {
		return
	}
	if err := b.state.Persist(ctx, storage.CampaignDocument); err != nil {
		b.logger.Error("persist after sweep failed", zap.Error(err))
		b.reportError(ctx, messages.ErrorLabelPersist, err)
	}
	for _, result := range results {
		b.audit.Log(ctx, audit.LevelInfo, result.GroupID, "", "giveaway_end",
			fmt.Sprintf("expired winners=%d participants=%d", len(result.Winners), result.Participants))
		msg := dispatch.ResultMessage(result)
		if err := b.transport.SendMessage(ctx, msg.To, msg.Message); err != nil {
			b.logger.Error("giveaway result not delivered", zap.String("group_id", result.GroupID), zap.Error(err))
			b.reportError(ctx, messages.ErrorLabelSweep, err)
		}
	}
}

func (b *Bot) warn(ctx context.Context) {
	if !b.transport.IsConnected() {
		return
	}
	if _, err := b.warner.Tick(ctx); err != nil {
		b.logger.Error("warning broadcast failed", zap.Error(err))
	}
}

func (b *Bot) keepAlive(ctx context.Context) {
	if !b.transport.IsConnected() {
		return
	}
	if err := b.transport.MarkAvailable(ctx); err != nil {
		b.logger.Warn("presence update failed", zap.Error(err))
	}
}

func (b *Bot) cleanupAudit(ctx context.Context) {
	if b.cfg.Audit.RetentionDays <= 0 {
		return
	}
	if err := b.auditDB.CleanupAuditLogs(ctx, b.cfg.Audit.RetentionDays); err != nil {
		b.logger.Warn("audit cleanup failed", zap.Error(err))
	}
}

// digest sends the owner a per-group summary of the audit trail covering
// the last summary window.
func (b *Bot) digest(ctx context.Context) {
	window := time.Duration(b.cfg.Audit.SummaryHours) * time.Hour
	reports, err := b.analytics.Reports(ctx, b.cfg.Policy().AllowedGroups(), b.clock.Now().Add(-window))
	if err != nil {
		b.logger.Warn("audit digest failed", zap.Error(err))
		return
	}
	if len(reports) == 0 {
		return
	}
	owner := b.cfg.Policy().OwnerID
	if err := b.transport.SendMessage(ctx, owner, transport.Message{Text: analytics.Format(messages.AuditDigestHeader, reports)}); err != nil {
		b.logger.Warn("audit digest not delivered", zap.Error(err))
	}
}
