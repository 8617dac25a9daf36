// Package classify turns raw whatsmeow message events into the flat Event
// the policy gate and dispatcher work on.
package classify

import (
	"groupkeeper/internal/identity"
	"groupkeeper/internal/transport"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Kind names the text-bearing variant the body was read from.
type Kind int

const (
	KindNone Kind = iota
	KindConversation
	KindExtendedText
	KindImageCaption
	KindVideoCaption
	KindDocumentCaption
)

func (k Kind) String() string {
	switch k {
	case KindConversation:
		return "conversation"
	case KindExtendedText:
		return "extended_text"
	case KindImageCaption:
		return "image_caption"
	case KindVideoCaption:
		return "video_caption"
	case KindDocumentCaption:
		return "document_caption"
	default:
		return "none"
	}
}

type Event struct {
	MessageID string
	OriginID  string
	SenderID  string
	IsGroup   bool
	Kind      Kind
	Body      string
	Mentions  []string
}

// Quote references the event's message for quoted replies.
func (e Event) Quote() *transport.Quote {
	return &transport.Quote{MessageID: e.MessageID, Sender: e.SenderID, Text: e.Body}
}

// FromMessage classifies evt. It reports false for events that must not be
// processed: no content, protocol noise, or echoes of the bot's own messages
// (selfID is the bot's identity in any representation).
func FromMessage(evt *events.Message, selfID string) (Event, bool) {
	if evt == nil || evt.Message == nil || evt.Info.IsFromMe {
		return Event{}, false
	}

	kind, body := Text(evt.Message)
	if !displayable(evt.Message, body) {
		return Event{}, false
	}

	origin := identity.Normalize(evt.Info.Chat.String())
	sender := origin
	switch {
	case evt.Info.Sender.Server == types.HiddenUserServer && !evt.Info.SenderAlt.IsEmpty():
		// Owner and admin checks compare phone-number JIDs.
		sender = identity.Normalize(evt.Info.SenderAlt.String())
	case !evt.Info.Sender.IsEmpty():
		sender = identity.Normalize(evt.Info.Sender.String())
	}
	if self := identity.Normalize(selfID); self != "" && sender == self {
		return Event{}, false
	}

	return Event{
		MessageID: evt.Info.ID,
		OriginID:  origin,
		SenderID:  sender,
		IsGroup:   identity.IsGroup(origin),
		Kind:      kind,
		Body:      body,
		Mentions:  identity.NormalizeAll(mentions(evt.Message)),
	}, true
}

// Text extracts the plain text of msg. Unsupported variants yield KindNone
// and an empty string.
func Text(msg *waE2E.Message) (Kind, string) {
	switch {
	case msg.GetConversation() != "":
		return KindConversation, msg.GetConversation()
	case msg.GetExtendedTextMessage() != nil:
		return KindExtendedText, msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage() != nil:
		return KindImageCaption, msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage() != nil:
		return KindVideoCaption, msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage() != nil:
		return KindDocumentCaption, msg.GetDocumentMessage().GetCaption()
	default:
		return KindNone, ""
	}
}

func mentions(msg *waE2E.Message) []string {
	var info *waE2E.ContextInfo
	switch {
	case msg.GetExtendedTextMessage() != nil:
		info = msg.GetExtendedTextMessage().GetContextInfo()
	case msg.GetImageMessage() != nil:
		info = msg.GetImageMessage().GetContextInfo()
	case msg.GetVideoMessage() != nil:
		info = msg.GetVideoMessage().GetContextInfo()
	}
	return info.GetMentionedJID()
}

func displayable(msg *waE2E.Message, body string) bool {
	if body != "" {
		return true
	}
	if msg.GetProtocolMessage() != nil || msg.GetReactionMessage() != nil {
		return false
	}
	return msg.GetImageMessage() != nil ||
		msg.GetVideoMessage() != nil ||
		msg.GetAudioMessage() != nil ||
		msg.GetDocumentMessage() != nil ||
		msg.GetStickerMessage() != nil ||
		msg.GetContactMessage() != nil ||
		msg.GetLocationMessage() != nil ||
		msg.GetExtendedTextMessage() != nil
}
