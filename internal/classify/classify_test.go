package classify

import (
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

const (
	groupID = "120363419880680909@g.us"
	selfID  = "628000@s.whatsapp.net"
)

func groupMessage(sender string, msg *waE2E.Message) *events.Message {
	evt := &events.Message{Message: msg}
	evt.Info.ID = "MSG1"
	evt.Info.Chat = types.NewJID("120363419880680909", types.GroupServer)
	evt.Info.Sender = types.NewJID(sender, types.DefaultUserServer)
	evt.Info.IsGroup = true
	return evt
}

func TestFromMessageConversation(t *testing.T) {
	evt := groupMessage("628111", &waE2E.Message{Conversation: proto.String(".menu")})
	got, ok := FromMessage(evt, selfID)
	if !ok {
		t.Fatalf("expected event")
	}
	if got.Body != ".menu" || got.Kind != KindConversation {
		t.Fatalf("unexpected body %q kind %s", got.Body, got.Kind)
	}
	if !got.IsGroup || got.OriginID != groupID || got.SenderID != "628111@s.whatsapp.net" {
		t.Fatalf("unexpected origin/sender %+v", got)
	}
}

func TestFromMessageExtendedTextWithMentions(t *testing.T) {
	evt := groupMessage("628111", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
		Text: proto.String(".kick @628222"),
		ContextInfo: &waE2E.ContextInfo{
			MentionedJID: []string{"628222:3@s.whatsapp.net", "628222@s.whatsapp.net"},
		},
	}})
	got, ok := FromMessage(evt, selfID)
	if !ok || got.Kind != KindExtendedText || got.Body != ".kick @628222" {
		t.Fatalf("unexpected event %+v", got)
	}
	if len(got.Mentions) != 1 || got.Mentions[0] != "628222@s.whatsapp.net" {
		t.Fatalf("expected one canonical mention, got %v", got.Mentions)
	}
}

func TestFromMessageCaptions(t *testing.T) {
	evt := groupMessage("628111", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("lihat ini")}})
	got, ok := FromMessage(evt, selfID)
	if !ok || got.Kind != KindImageCaption || got.Body != "lihat ini" {
		t.Fatalf("unexpected caption event %+v", got)
	}
}

func TestFromMessageUnsupportedYieldsEmptyBody(t *testing.T) {
	evt := groupMessage("628111", &waE2E.Message{StickerMessage: &waE2E.StickerMessage{}})
	got, ok := FromMessage(evt, selfID)
	if !ok {
		t.Fatalf("expected sticker to be classified")
	}
	if got.Body != "" || got.Kind != KindNone {
		t.Fatalf("expected empty body, got %q", got.Body)
	}
}

func TestFromMessageSkipsSelfAndEmpty(t *testing.T) {
	own := groupMessage("628000", &waE2E.Message{Conversation: proto.String("hi")})
	own.Info.IsFromMe = true
	if _, ok := FromMessage(own, selfID); ok {
		t.Fatalf("expected own message to be skipped")
	}

	echo := groupMessage("628000", &waE2E.Message{Conversation: proto.String("hi")})
	echo.Info.Sender = types.NewADJID("628000", 0, 7)
	if _, ok := FromMessage(echo, selfID); ok {
		t.Fatalf("expected device echo to be skipped")
	}

	if _, ok := FromMessage(groupMessage("628111", nil), selfID); ok {
		t.Fatalf("expected nil message to be skipped")
	}

	reaction := groupMessage("628111", &waE2E.Message{ReactionMessage: &waE2E.ReactionMessage{Text: proto.String("👍")}})
	if _, ok := FromMessage(reaction, selfID); ok {
		t.Fatalf("expected reaction to be skipped")
	}
}

func TestFromMessageDirectDefaultsSenderToOrigin(t *testing.T) {
	evt := &events.Message{Message: &waE2E.Message{Conversation: proto.String(".maintenance")}}
	evt.Info.Chat = types.NewJID("628975539822", types.DefaultUserServer)
	got, ok := FromMessage(evt, selfID)
	if !ok || got.IsGroup {
		t.Fatalf("expected direct event")
	}
	if got.SenderID != "628975539822@s.whatsapp.net" {
		t.Fatalf("expected sender to default to origin, got %q", got.SenderID)
	}
}

func TestFromMessagePrefersPhoneNumberForHiddenSender(t *testing.T) {
	evt := groupMessage("628111", &waE2E.Message{Conversation: proto.String(".kick @628222")})
	evt.Info.Sender = types.NewJID("123456789012345", types.HiddenUserServer)
	evt.Info.SenderAlt = types.NewJID("628975539822", types.DefaultUserServer)
	got, ok := FromMessage(evt, selfID)
	if !ok {
		t.Fatalf("expected event")
	}
	if got.SenderID != "628975539822@s.whatsapp.net" {
		t.Fatalf("expected phone-number sender, got %q", got.SenderID)
	}

	evt.Info.SenderAlt = types.EmptyJID
	got, _ = FromMessage(evt, selfID)
	if got.SenderID != "123456789012345@lid" {
		t.Fatalf("expected hidden sender without alt, got %q", got.SenderID)
	}
}
