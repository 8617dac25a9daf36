package gate

import (
	"context"
	"testing"

	"groupkeeper/internal/action"
	"groupkeeper/internal/classify"
	"groupkeeper/internal/config"
	"groupkeeper/internal/modules/antilink"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/state"
	"groupkeeper/internal/transport"

	"go.uber.org/zap"
)

const (
	owner   = "628975539822@s.whatsapp.net"
	allowed = "120363419880680909@g.us"
	foreign = "999999@g.us"
	member  = "628111@s.whatsapp.net"
)

type stubAdmins struct {
	admin bool
	calls int
}

func (s *stubAdmins) IsAdmin(ctx context.Context, groupID, id string) bool {
	s.calls++
	return s.admin
}

func newGate(admin bool) (*Gate, *state.Runtime, *stubAdmins) {
	rt := &state.Runtime{}
	admins := &stubAdmins{admin: admin}
	auditLogger := audit.NewLogger(nil, zap.NewNop())
	g := New(config.NewGroupPolicy(owner, []string{allowed}), rt, antilink.New([]string{"chat.whatsapp.com"}, auditLogger), admins, auditLogger, zap.NewNop())
	return g, rt, admins
}

func groupEvent(origin, sender, body string) classify.Event {
	return classify.Event{MessageID: "M1", OriginID: origin, SenderID: sender, IsGroup: true, Body: body}
}

func TestMaintenanceDropsNonOwner(t *testing.T) {
	g, rt, _ := newGate(false)
	rt.SetMaintenance(true)

	verdict := g.Evaluate(context.Background(), groupEvent(allowed, member, ".menu"))
	if verdict.Proceed || verdict.Reason != ReasonMaintenance || len(verdict.Actions) != 0 {
		t.Fatalf("expected silent drop, got %+v", verdict)
	}

	direct := classify.Event{OriginID: owner, SenderID: owner, Body: ".maintenance off"}
	if verdict := g.Evaluate(context.Background(), direct); !verdict.Proceed {
		t.Fatalf("expected owner to pass, got %+v", verdict)
	}
}

func TestWhitelistLeavesForeignGroup(t *testing.T) {
	g, _, admins := newGate(true)
	verdict := g.Evaluate(context.Background(), groupEvent(foreign, member, ".kick @x"))
	if verdict.Proceed || verdict.Reason != ReasonWhitelist {
		t.Fatalf("expected whitelist verdict, got %+v", verdict)
	}
	if len(verdict.Actions) != 2 {
		t.Fatalf("expected notice and leave, got %+v", verdict.Actions)
	}
	send, ok := verdict.Actions[0].(action.Send)
	if !ok || send.To != foreign {
		t.Fatalf("expected notice first, got %#v", verdict.Actions[0])
	}
	leave, ok := verdict.Actions[1].(action.LeaveGroup)
	if !ok || leave.GroupID != foreign {
		t.Fatalf("expected leave second, got %#v", verdict.Actions[1])
	}
	if admins.calls != 0 {
		t.Fatalf("no admin lookup expected after whitelist trigger")
	}
}

func TestInviteLinkRemovesMember(t *testing.T) {
	g, _, _ := newGate(false)
	verdict := g.Evaluate(context.Background(), groupEvent(allowed, member, "gabung https://chat.whatsapp.com/AbC"))
	if verdict.Proceed || verdict.Reason != ReasonInviteLink {
		t.Fatalf("expected invite verdict, got %+v", verdict)
	}
	change, ok := verdict.Actions[1].(action.ChangeMembers)
	if !ok || change.Change != transport.ChangeRemove || len(change.IDs) != 1 || change.IDs[0] != member {
		t.Fatalf("expected removal of sender, got %#v", verdict.Actions[1])
	}
}

func TestInviteLinkAllowedForAdmin(t *testing.T) {
	g, _, admins := newGate(true)
	verdict := g.Evaluate(context.Background(), groupEvent(allowed, member, "https://chat.whatsapp.com/AbC"))
	if !verdict.Proceed || admins.calls != 1 {
		t.Fatalf("expected admin to pass, got %+v calls=%d", verdict, admins.calls)
	}
}

func TestDirectMessagePasses(t *testing.T) {
	g, _, _ := newGate(false)
	ev := classify.Event{OriginID: member, SenderID: member, Body: "chat.whatsapp.com/abc"}
	if verdict := g.Evaluate(context.Background(), ev); !verdict.Proceed {
		t.Fatalf("expected direct message to pass, got %+v", verdict)
	}
}
