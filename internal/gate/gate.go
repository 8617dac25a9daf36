// Package gate applies the environment filters every classified event passes
// before command dispatch. The first filter that triggers ends evaluation.
package gate

import (
	"context"

	"groupkeeper/internal/action"
	"groupkeeper/internal/classify"
	"groupkeeper/internal/config"
	"groupkeeper/internal/messages"
	"groupkeeper/internal/modules/antilink"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/state"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, groupID, id string) bool
}

type Reason string

const (
	ReasonNone        Reason = ""
	ReasonMaintenance Reason = "maintenance"
	ReasonWhitelist   Reason = "whitelist"
	ReasonInviteLink  Reason = "invite_link"
)

type Verdict struct {
	Proceed bool
	Reason  Reason
	Actions []action.Action
}

type Gate struct {
	policy  config.GroupPolicy
	runtime *state.Runtime
	links   *antilink.Module
	admins  AdminChecker
	audit   *audit.Logger
	logger  *zap.Logger
}

func New(policy config.GroupPolicy, runtime *state.Runtime, links *antilink.Module, admins AdminChecker, auditLogger *audit.Logger, logger *zap.Logger) *Gate {
	return &Gate{policy: policy, runtime: runtime, links: links, admins: admins, audit: auditLogger, logger: logger}
}

func (g *Gate) Evaluate(ctx context.Context, ev classify.Event) Verdict {
	if g.runtime.Maintenance() && !g.policy.IsOwner(ev.SenderID) {
		return Verdict{Reason: ReasonMaintenance}
	}

	if ev.IsGroup && !g.policy.IsAllowed(ev.OriginID) {
		g.logger.Warn("group not whitelisted, leaving", zap.String("group_id", ev.OriginID))
		g.audit.Log(ctx, audit.LevelWarn, ev.OriginID, ev.SenderID, "group_leave", "group not whitelisted")
		return Verdict{
			Reason: ReasonWhitelist,
			Actions: []action.Action{
				action.Reply(ev.OriginID, messages.LeaveNotice),
				action.LeaveGroup{GroupID: ev.OriginID},
			},
		}
	}

	if ev.IsGroup {
		exempt := func(ctx context.Context) bool { return g.admins.IsAdmin(ctx, ev.OriginID, ev.SenderID) }
		if flagged, link := g.links.HandleMessage(ctx, ev.OriginID, ev.SenderID, ev.Body, exempt); flagged {
			g.logger.Info("invite link removed", zap.String("group_id", ev.OriginID), zap.String("user_id", ev.SenderID), zap.String("url", link))
			return Verdict{
				Reason: ReasonInviteLink,
				Actions: []action.Action{
					action.Reply(ev.OriginID, messages.InviteLinkNotice),
					action.ChangeMembers{GroupID: ev.OriginID, IDs: []string{ev.SenderID}, Change: transport.ChangeRemove},
				},
			}
		}
	}

	return Verdict{Proceed: true}
}
