// Package dispatch parses prefixed text commands, enforces each command's
// authorization class once, and turns the command into an action list.
package dispatch

import (
	"context"
	"strings"
	"time"
	"unicode"

	"groupkeeper/internal/action"
	"groupkeeper/internal/campaign"
	"groupkeeper/internal/classify"
	"groupkeeper/internal/config"
	"groupkeeper/internal/messages"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/state"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, groupID, id string) bool
}

type class int

const (
	classAnywhere class = iota
	// classGroup commands are ignored outside groups.
	classGroup
	// classGroupAdmin commands are ignored outside groups and answered with
	// the not-admin notice for non-admins.
	classGroupAdmin
)

var commandClasses = map[string]class{
	"kick":          classGroupAdmin,
	"add":           classGroupAdmin,
	"promote":       classGroupAdmin,
	"demote":        classGroupAdmin,
	"close":         classGroupAdmin,
	"open":          classGroupAdmin,
	"setname":       classGroupAdmin,
	"setdesc":       classGroupAdmin,
	"tagall":        classGroupAdmin,
	"togglewarning": classGroupAdmin,
	"giveaway":      classGroupAdmin,
	"endgiveaway":   classGroupAdmin,
	"listgiveaway":  classGroupAdmin,
	"joingiveaway":  classGroup,
}

// Command is a parsed command line.
type Command struct {
	Name string
	Args []string
	// Rest is everything after the command word, untouched.
	Rest string
}

// Parse splits body into a command when it starts with prefix. The command
// word is lowercased; arguments keep their case.
func Parse(prefix, body string) (Command, bool) {
	body = strings.TrimSpace(body)
	if prefix == "" || !strings.HasPrefix(body, prefix) {
		return Command{}, false
	}
	head, rest := body, ""
	if idx := strings.IndexFunc(body, unicode.IsSpace); idx >= 0 {
		head, rest = body[:idx], strings.TrimSpace(body[idx:])
	}
	return Command{
		Name: strings.ToLower(strings.TrimPrefix(head, prefix)),
		Args: strings.Fields(rest),
		Rest: rest,
	}, true
}

type Dispatcher struct {
	prefix    string
	policy    config.GroupPolicy
	admins    AdminChecker
	groups    transport.GroupReader
	campaigns *campaign.Engine
	runtime   *state.Runtime
	loc       *time.Location
	audit     *audit.Logger
	logger    *zap.Logger
}

type Options struct {
	Prefix    string
	Policy    config.GroupPolicy
	Admins    AdminChecker
	Groups    transport.GroupReader
	Campaigns *campaign.Engine
	Runtime   *state.Runtime
	Location  *time.Location
	Audit     *audit.Logger
	Logger    *zap.Logger
}

func New(opts Options) *Dispatcher {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		prefix:    opts.Prefix,
		policy:    opts.Policy,
		admins:    opts.Admins,
		groups:    opts.Groups,
		campaigns: opts.Campaigns,
		runtime:   opts.Runtime,
		loc:       loc,
		audit:     opts.Audit,
		logger:    opts.Logger,
	}
}

// Dispatch decides what ev asks for. Exactly one command branch runs per
// event; non-command text yields no actions.
func (d *Dispatcher) Dispatch(ctx context.Context, ev classify.Event) []action.Action {
	cmd, ok := Parse(d.prefix, ev.Body)
	if !ok {
		return nil
	}

	switch commandClasses[cmd.Name] {
	case classGroup:
		if !ev.IsGroup {
			return nil
		}
	case classGroupAdmin:
		if !ev.IsGroup {
			return nil
		}
		if !d.admins.IsAdmin(ctx, ev.OriginID, ev.SenderID) {
			d.logger.Info("command blocked", zap.String("group_id", ev.OriginID), zap.String("user_id", ev.SenderID), zap.String("command", cmd.Name))
			return []action.Action{d.quoted(ev, messages.NotAdmin)}
		}
	}

	d.logger.Debug("command", zap.String("origin", ev.OriginID), zap.String("user_id", ev.SenderID), zap.String("command", cmd.Name))

	switch cmd.Name {
	case "menu":
		return d.reply(ev, messages.Menu(d.prefix))
	case "kick":
		return d.changeMentioned(ev, transport.ChangeRemove, messages.KickDone)
	case "promote":
		return d.changeMentioned(ev, transport.ChangePromote, messages.PromoteDone)
	case "demote":
		return d.changeMentioned(ev, transport.ChangeDemote, messages.DemoteDone)
	case "add":
		return d.add(ev, cmd)
	case "close":
		return []action.Action{action.SetAnnounce{GroupID: ev.OriginID, AdminsOnly: true, OnSuccess: messages.CloseDone}}
	case "open":
		return []action.Action{action.SetAnnounce{GroupID: ev.OriginID, AdminsOnly: false, OnSuccess: messages.OpenDone}}
	case "setname":
		return d.setName(ev, cmd)
	case "setdesc":
		return d.setDescription(ev, cmd)
	case "tagall":
		return d.tagAll(ctx, ev, cmd)
	case "togglewarning":
		return d.toggleWarning(ctx, ev)
	case "maintenance":
		return d.maintenance(ctx, ev, cmd)
	case "restart":
		return d.restart(ev)
	case "giveaway":
		return d.startGiveaway(ctx, ev, cmd)
	case "joingiveaway":
		return d.joinGiveaway(ev)
	case "listgiveaway":
		return d.listGiveaway(ev)
	case "endgiveaway":
		return d.endGiveaway(ctx, ev)
	default:
		return d.reply(ev, messages.UnknownCommand(d.prefix))
	}
}

func (d *Dispatcher) reply(ev classify.Event, text string) []action.Action {
	return []action.Action{action.Reply(ev.OriginID, text)}
}

func (d *Dispatcher) quoted(ev classify.Event, text string) action.Send {
	return action.Send{To: ev.OriginID, Message: transport.Message{Text: text, Quote: ev.Quote()}}
}
