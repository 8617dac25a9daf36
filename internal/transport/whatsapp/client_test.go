package whatsapp

import (
	"testing"

	"groupkeeper/internal/transport"

	"go.mau.fi/whatsmeow/types"
)

func TestBuildMessagePlain(t *testing.T) {
	msg := BuildMessage(transport.Message{Text: "halo"})
	if msg.GetConversation() != "halo" || msg.GetExtendedTextMessage() != nil {
		t.Fatalf("expected plain conversation, got %v", msg)
	}
}

func TestBuildMessageMentionsAndQuote(t *testing.T) {
	msg := BuildMessage(transport.Message{
		Text:     "@628111",
		Mentions: []string{"628111@s.whatsapp.net"},
		Quote:    &transport.Quote{MessageID: "ABC", Sender: "628222@s.whatsapp.net", Text: ".tagall"},
	})
	ext := msg.GetExtendedTextMessage()
	if ext == nil || ext.GetText() != "@628111" {
		t.Fatalf("expected extended text message")
	}
	info := ext.GetContextInfo()
	if len(info.GetMentionedJID()) != 1 || info.GetMentionedJID()[0] != "628111@s.whatsapp.net" {
		t.Fatalf("unexpected mentions %v", info.GetMentionedJID())
	}
	if info.GetStanzaID() != "ABC" || info.GetParticipant() != "628222@s.whatsapp.net" {
		t.Fatalf("unexpected quote reference")
	}
	if info.GetQuotedMessage().GetConversation() != ".tagall" {
		t.Fatalf("unexpected quoted body")
	}
}

func TestConvertGroupRoles(t *testing.T) {
	info := &types.GroupInfo{
		JID: types.NewJID("120363419880680909", types.GroupServer),
		Participants: []types.GroupParticipant{
			{JID: types.NewJID("628111", types.DefaultUserServer), IsSuperAdmin: true, IsAdmin: true},
			{JID: types.NewJID("628222", types.DefaultUserServer), IsAdmin: true},
			{JID: types.NewJID("628333", types.DefaultUserServer)},
		},
	}
	group := convertGroup(info)
	if group.ID != "120363419880680909@g.us" {
		t.Fatalf("unexpected group id %q", group.ID)
	}
	want := []transport.Role{transport.RoleSuperAdmin, transport.RoleAdmin, transport.RoleMember}
	for i, p := range group.Participants {
		if p.Role != want[i] {
			t.Fatalf("participant %d role %q, want %q", i, p.Role, want[i])
		}
	}
}

func TestParticipantIDPrefersPhoneNumberForLID(t *testing.T) {
	p := types.GroupParticipant{
		JID:         types.NewJID("99887766", types.HiddenUserServer),
		PhoneNumber: types.NewJID("628444", types.DefaultUserServer),
	}
	if got := participantID(p); got != "628444@s.whatsapp.net" {
		t.Fatalf("unexpected participant id %q", got)
	}

	group := convertGroup(&types.GroupInfo{JID: types.NewJID("1203", types.GroupServer), Participants: []types.GroupParticipant{p}})
	member := group.Participants[0]
	if !member.Matches("628444@s.whatsapp.net") || !member.Matches("99887766@lid") {
		t.Fatalf("expected participant to match both addresses, got %+v", member)
	}
}

func TestParticipantChangeRejectsUnknown(t *testing.T) {
	if _, err := participantChange("ban"); err == nil {
		t.Fatalf("expected error")
	}
}
