package bot

import (
	"context"
	"fmt"

	"groupkeeper/internal/action"
	"groupkeeper/internal/messages"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

// run executes actions in order. A failed action is logged and, for
// transport faults, reported to the owner; later actions still run.
func (b *Bot) run(ctx context.Context, actions []action.Action) {
	for _, a := range actions {
		b.execute(ctx, a)
	}
}

func (b *Bot) execute(ctx context.Context, a action.Action) {
	switch a := a.(type) {
	case action.Send:
		if err := b.transport.SendMessage(ctx, a.To, a.Message); err != nil {
			b.logger.Error("send failed", zap.String("to", a.To), zap.Error(err))
			b.reportError(ctx, messages.ErrorLabelProcessing, err)
		}

	case action.ChangeMembers:
		b.changeMembers(ctx, a)

	case action.AddMember:
		b.addMember(ctx, a)

	case action.SetAnnounce:
		b.confirm(ctx, a.GroupID, a.OnSuccess, b.transport.SetAnnounce(ctx, a.GroupID, a.AdminsOnly))

	case action.SetName:
		b.confirm(ctx, a.GroupID, a.OnSuccess, b.transport.SetName(ctx, a.GroupID, a.Name))

	case action.SetDescription:
		b.confirm(ctx, a.GroupID, a.OnSuccess, b.transport.SetDescription(ctx, a.GroupID, a.Description))

	case action.LeaveGroup:
		if err := b.transport.LeaveGroup(ctx, a.GroupID); err != nil {
			b.logger.Error("leave group failed", zap.String("group_id", a.GroupID), zap.Error(err))
			b.reportError(ctx, messages.ErrorLabelProcessing, err)
		}

	case action.Broadcast:
		sent, err := b.fanout.Send(ctx, a.Text)
		b.logger.Info("broadcast", zap.Int("groups", sent), zap.Error(err))
		if err != nil {
			b.reportError(ctx, a.ErrorLabel, err)
		}

	case action.Persist:
		if err := b.state.Persist(ctx, a.Document); err != nil {
			b.logger.Error("persist failed", zap.String("document", a.Document), zap.Error(err))
			b.reportError(ctx, messages.ErrorLabelPersist, err)
		}

	case action.ReportOwner:
		b.reporter.Report(ctx, a.Label, a.Detail)

	case action.Restart:
		b.restart(ctx, a)

	default:
		b.logger.Warn("unknown action", zap.String("type", fmt.Sprintf("%T", a)))
	}
}

func (b *Bot) confirm(ctx context.Context, groupID, text string, err error) {
	if err != nil {
		b.logger.Error("group update failed", zap.String("group_id", groupID), zap.Error(err))
		b.reportError(ctx, messages.ErrorLabelProcessing, err)
		return
	}
	if text != "" {
		b.execute(ctx, action.Reply(groupID, text))
	}
}

// changeMembers confirms when at least one identity was changed.
func (b *Bot) changeMembers(ctx context.Context, a action.ChangeMembers) {
	results, err := b.transport.UpdateMembers(ctx, a.GroupID, a.IDs, a.Change)
	if err != nil {
		b.logger.Error("membership change failed", zap.String("group_id", a.GroupID), zap.String("change", string(a.Change)), zap.Error(err))
		b.reportError(ctx, messages.ErrorLabelProcessing, err)
		return
	}
	changed := 0
	for _, r := range results {
		if r.OK() {
			changed++
			continue
		}
		b.logger.Warn("membership change refused", zap.String("group_id", a.GroupID), zap.String("user_id", r.ID), zap.Int("code", r.Code))
	}
	if changed > 0 && a.OnSuccess != "" {
		b.execute(ctx, action.Reply(a.GroupID, a.OnSuccess))
	}
}

// addMember falls back to sharing the invite link when the server refuses
// a direct add, typically because of the target's privacy settings.
func (b *Bot) addMember(ctx context.Context, a action.AddMember) {
	results, err := b.transport.UpdateMembers(ctx, a.GroupID, []string{a.ID}, transport.ChangeAdd)
	if err != nil {
		b.logger.Error("add member failed", zap.String("group_id", a.GroupID), zap.String("user_id", a.ID), zap.Error(err))
		b.reportError(ctx, a.ErrorLabel, err)
		return
	}
	if len(results) > 0 && results[0].OK() {
		b.execute(ctx, action.Reply(a.GroupID, a.OnSuccess))
		return
	}

	code := -1
	if len(results) > 0 {
		code = results[0].Code
	}
	b.logger.Info("direct add refused, sharing invite link", zap.String("group_id", a.GroupID), zap.String("user_id", a.ID), zap.Int("code", code))
	link, err := b.transport.InviteLink(ctx, a.GroupID)
	if err != nil {
		b.logger.Error("invite link failed", zap.String("group_id", a.GroupID), zap.Error(err))
		b.reportError(ctx, a.ErrorLabel, err)
		return
	}
	b.execute(ctx, action.Reply(a.GroupID, fmt.Sprintf(a.FallbackFormat, link)))
}

// restart downloads the new build and exits so the process manager starts
// it. A failed download leaves the process running.
func (b *Bot) restart(ctx context.Context, a action.Restart) {
	if b.updater == nil {
		b.execute(ctx, action.Reply(a.ReplyTo, fmt.Sprintf(messages.RestartFailed, "updater not configured")))
		return
	}
	if err := b.updater.Download(ctx); err != nil {
		b.logger.Error("update failed", zap.Error(err))
		b.execute(ctx, action.Reply(a.ReplyTo, fmt.Sprintf(messages.RestartFailed, err.Error())))
		return
	}
	b.audit.Log(ctx, audit.LevelWarn, "", a.ReplyTo, "restart", "update downloaded")
	b.execute(ctx, action.Reply(a.ReplyTo, messages.RestartDone))
	b.logger.Info("exiting for restart")
	b.exit(0)
}
