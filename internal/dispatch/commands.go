package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"groupkeeper/internal/action"
	"groupkeeper/internal/campaign"
	"groupkeeper/internal/classify"
	"groupkeeper/internal/duration"
	"groupkeeper/internal/identity"
	"groupkeeper/internal/messages"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/storage"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

// changeMentioned applies change to the mentioned identities. No mentions
// means no action and no reply.
func (d *Dispatcher) changeMentioned(ev classify.Event, change transport.MembershipChange, done string) []action.Action {
	if len(ev.Mentions) == 0 {
		return nil
	}
	return []action.Action{action.ChangeMembers{
		GroupID:   ev.OriginID,
		IDs:       append([]string(nil), ev.Mentions...),
		Change:    change,
		OnSuccess: done,
	}}
}

func (d *Dispatcher) add(ev classify.Event, cmd Command) []action.Action {
	var id string
	if len(cmd.Args) > 0 {
		id = identity.FromDigits(cmd.Args[0])
	}
	if id == "" {
		return d.reply(ev, messages.AddUsage(d.prefix))
	}
	return []action.Action{action.AddMember{
		GroupID:        ev.OriginID,
		ID:             id,
		OnSuccess:      messages.AddDone,
		FallbackFormat: messages.AddFallback,
		ErrorLabel:     messages.AddErrorLabel,
	}}
}

func (d *Dispatcher) setName(ev classify.Event, cmd Command) []action.Action {
	name := strings.Join(cmd.Args, " ")
	if name == "" {
		return nil
	}
	return []action.Action{action.SetName{GroupID: ev.OriginID, Name: name, OnSuccess: messages.SetNameDone}}
}

func (d *Dispatcher) setDescription(ev classify.Event, cmd Command) []action.Action {
	desc := strings.Join(cmd.Args, " ")
	if desc == "" {
		return nil
	}
	return []action.Action{action.SetDescription{GroupID: ev.OriginID, Description: desc, OnSuccess: messages.SetDescDone}}
}

func (d *Dispatcher) tagAll(ctx context.Context, ev classify.Event, cmd Command) []action.Action {
	group, err := d.groups.GroupInfo(ctx, ev.OriginID)
	if err != nil {
		d.logger.Error("tagall metadata failed", zap.String("group_id", ev.OriginID), zap.Error(err))
		return []action.Action{action.ReportOwner{Label: messages.ErrorLabelProcessing, Detail: err.Error()}}
	}
	mentions := make([]string, 0, len(group.Participants))
	for _, p := range group.Participants {
		mentions = append(mentions, p.ID)
	}
	text := strings.Join(cmd.Args, " ")
	if text == "" {
		text = messages.TagAllDefault
	}
	msg := d.quoted(ev, text)
	msg.Message.Mentions = mentions
	return []action.Action{msg}
}

func (d *Dispatcher) toggleWarning(ctx context.Context, ev classify.Event) []action.Action {
	enabled := d.runtime.ToggleWarnings()
	d.audit.Log(ctx, audit.LevelInfo, ev.OriginID, ev.SenderID, "warning_toggle", messages.OnOff(enabled))
	return d.reply(ev, fmt.Sprintf(messages.WarningToggled, messages.OnOff(enabled)))
}

// maintenance is owner-only in direct chats. Anyone else gets no reply so
// the owner identity is never confirmed.
func (d *Dispatcher) maintenance(ctx context.Context, ev classify.Event, cmd Command) []action.Action {
	if ev.IsGroup || !d.policy.IsOwner(ev.SenderID) {
		return nil
	}
	if len(cmd.Args) == 0 {
		return d.reply(ev, messages.MaintenanceUsage(d.prefix))
	}

	switch mode := strings.ToLower(cmd.Args[0]); mode {
	case "on", "off":
		active := mode == "on"
		d.runtime.SetMaintenance(active)
		d.audit.Log(ctx, audit.LevelWarn, "", ev.SenderID, "maintenance", mode)
		text := messages.MaintenanceBroadcastOff
		if active {
			text = messages.MaintenanceBroadcastOn
		}
		return []action.Action{
			action.Persist{Document: storage.ModeDocument},
			action.Reply(ev.OriginID, fmt.Sprintf(messages.MaintenanceSet, messages.OnOff(active))),
			action.Broadcast{Text: text, ErrorLabel: messages.MaintenanceErrorLabel},
		}
	case "status":
		return d.reply(ev, fmt.Sprintf(messages.MaintenanceStatus, messages.ActiveLabel(d.runtime.Maintenance())))
	default:
		return d.reply(ev, messages.MaintenanceBad(d.prefix))
	}
}

func (d *Dispatcher) restart(ev classify.Event) []action.Action {
	if ev.IsGroup {
		return nil
	}
	if !d.policy.IsOwner(ev.SenderID) {
		return d.reply(ev, messages.RestartOwnerOnly)
	}
	return []action.Action{
		action.Reply(ev.OriginID, messages.RestartStarting),
		action.Restart{ReplyTo: ev.OriginID},
	}
}

func (d *Dispatcher) startGiveaway(ctx context.Context, ev classify.Event, cmd Command) []action.Action {
	fields := strings.Split(cmd.Rest, ",")
	if len(fields) != 3 {
		return d.reply(ev, messages.GiveawayUsage(d.prefix))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	description, winnersField, durationField := fields[0], fields[1], fields[2]

	winners, err := strconv.Atoi(winnersField)
	if err != nil || winners < 1 {
		return d.reply(ev, messages.GiveawayBadWinners)
	}
	length := duration.Parse(strings.ToLower(durationField))
	if length <= 0 {
		return d.reply(ev, messages.GiveawayBadDuration)
	}

	c, err := d.campaigns.Start(ev.OriginID, description, winners, length)
	if err != nil {
		if errors.Is(err, campaign.ErrActive) {
			return d.reply(ev, messages.GiveawayActive)
		}
		d.logger.Error("giveaway start failed", zap.String("group_id", ev.OriginID), zap.Error(err))
		return d.reply(ev, messages.GiveawayUsage(d.prefix))
	}
	d.audit.Log(ctx, audit.LevelInfo, ev.OriginID, ev.SenderID, "giveaway_start", fmt.Sprintf("description=%q winners=%d duration=%s", description, winners, length))

	return []action.Action{
		action.Persist{Document: storage.CampaignDocument},
		action.Reply(ev.OriginID, messages.GiveawayStarted(d.prefix, description, winners, durationField, c.Start(), c.End(), d.loc)),
	}
}

func (d *Dispatcher) joinGiveaway(ev classify.Event) []action.Action {
	outcome, err := d.campaigns.Join(ev.OriginID, ev.SenderID)
	if err != nil {
		return d.reply(ev, messages.GiveawayNoneNow)
	}
	if outcome == campaign.AlreadyJoined {
		return d.reply(ev, messages.GiveawayAlready)
	}
	return []action.Action{
		action.Persist{Document: storage.CampaignDocument},
		action.Reply(ev.OriginID, messages.GiveawayJoined),
	}
}

func (d *Dispatcher) listGiveaway(ev classify.Event) []action.Action {
	c, ok := d.campaigns.Active(ev.OriginID)
	if !ok {
		return d.reply(ev, messages.GiveawayNone)
	}
	if len(c.Participants) == 0 {
		return d.reply(ev, messages.GiveawayNoEntrants)
	}
	return []action.Action{action.Send{
		To:      ev.OriginID,
		Message: transport.Message{Text: messages.Roster(c.Participants), Mentions: c.Participants},
	}}
}

func (d *Dispatcher) endGiveaway(ctx context.Context, ev classify.Event) []action.Action {
	result, err := d.campaigns.End(ev.OriginID)
	if err != nil {
		return d.reply(ev, messages.GiveawayNone)
	}
	d.audit.Log(ctx, audit.LevelInfo, ev.OriginID, ev.SenderID, "giveaway_end", fmt.Sprintf("manual winners=%d participants=%d", len(result.Winners), result.Participants))
	return []action.Action{
		action.Persist{Document: storage.CampaignDocument},
		ResultMessage(result),
	}
}

// ResultMessage announces a concluded campaign in its group, mentioning the
// winners.
func ResultMessage(result campaign.Result) action.Send {
	return action.Send{
		To: result.GroupID,
		Message: transport.Message{
			Text:     messages.GiveawayResult(result.Description, result.Winners),
			Mentions: append([]string(nil), result.Winners...),
		},
	}
}
