// Package whatsapp implements transport.Facade over a whatsmeow client.
package whatsapp

import (
	"context"
	"fmt"

	"groupkeeper/internal/identity"
	"groupkeeper/internal/transport"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

type Client struct {
	wa *whatsmeow.Client
}

func New(wa *whatsmeow.Client) *Client {
	return &Client{wa: wa}
}

func (c *Client) SendMessage(ctx context.Context, to string, msg transport.Message) error {
	jid, err := parseJID(to)
	if err != nil {
		return err
	}
	if _, err := c.wa.SendMessage(ctx, jid, BuildMessage(msg)); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// BuildMessage renders msg as a plain conversation, or as an extended text
// message when it carries mentions or quotes another message.
func BuildMessage(msg transport.Message) *waE2E.Message {
	if len(msg.Mentions) == 0 && msg.Quote == nil {
		return &waE2E.Message{Conversation: proto.String(msg.Text)}
	}

	info := &waE2E.ContextInfo{}
	if len(msg.Mentions) > 0 {
		info.MentionedJID = append([]string(nil), msg.Mentions...)
	}
	if q := msg.Quote; q != nil {
		info.StanzaID = proto.String(q.MessageID)
		info.Participant = proto.String(q.Sender)
		info.QuotedMessage = &waE2E.Message{Conversation: proto.String(q.Text)}
	}
	return &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(msg.Text),
			ContextInfo: info,
		},
	}
}

func (c *Client) GroupInfo(ctx context.Context, groupID string) (transport.Group, error) {
	jid, err := parseJID(groupID)
	if err != nil {
		return transport.Group{}, err
	}
	info, err := c.wa.GetGroupInfo(ctx, jid)
	if err != nil {
		return transport.Group{}, fmt.Errorf("group info %s: %w", groupID, err)
	}
	return convertGroup(info), nil
}

func (c *Client) JoinedGroups(ctx context.Context) ([]transport.Group, error) {
	infos, err := c.wa.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("joined groups: %w", err)
	}
	groups := make([]transport.Group, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		groups = append(groups, convertGroup(info))
	}
	return groups, nil
}

func (c *Client) UpdateMembers(ctx context.Context, groupID string, ids []string, change transport.MembershipChange) ([]transport.ChangeResult, error) {
	jid, err := parseJID(groupID)
	if err != nil {
		return nil, err
	}
	action, err := participantChange(change)
	if err != nil {
		return nil, err
	}
	targets := make([]types.JID, 0, len(ids))
	for _, id := range ids {
		target, err := parseJID(id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}

	updated, err := c.wa.UpdateGroupParticipants(ctx, jid, targets, action)
	if err != nil {
		return nil, fmt.Errorf("%s participants in %s: %w", change, groupID, err)
	}
	results := make([]transport.ChangeResult, 0, len(updated))
	for _, p := range updated {
		results = append(results, transport.ChangeResult{ID: participantID(p), Code: p.Error})
	}
	return results, nil
}

func (c *Client) SetAnnounce(ctx context.Context, groupID string, adminsOnly bool) error {
	jid, err := parseJID(groupID)
	if err != nil {
		return err
	}
	return c.wa.SetGroupAnnounce(ctx, jid, adminsOnly)
}

func (c *Client) SetName(ctx context.Context, groupID, name string) error {
	jid, err := parseJID(groupID)
	if err != nil {
		return err
	}
	return c.wa.SetGroupName(ctx, jid, name)
}

func (c *Client) SetDescription(ctx context.Context, groupID, description string) error {
	jid, err := parseJID(groupID)
	if err != nil {
		return err
	}
	return c.wa.SetGroupTopic(ctx, jid, "", "", description)
}

func (c *Client) LeaveGroup(ctx context.Context, groupID string) error {
	jid, err := parseJID(groupID)
	if err != nil {
		return err
	}
	return c.wa.LeaveGroup(ctx, jid)
}

func (c *Client) InviteLink(ctx context.Context, groupID string) (string, error) {
	jid, err := parseJID(groupID)
	if err != nil {
		return "", err
	}
	return c.wa.GetGroupInviteLink(ctx, jid, false)
}

func (c *Client) MarkAvailable(ctx context.Context) error {
	if !c.wa.IsConnected() {
		return transport.ErrNotConnected
	}
	return c.wa.SendPresence(ctx, types.PresenceAvailable)
}

func (c *Client) IsConnected() bool {
	return c.wa.IsConnected()
}

func convertGroup(info *types.GroupInfo) transport.Group {
	group := transport.Group{ID: info.JID.String(), Name: info.Name}
	for _, p := range info.Participants {
		role := transport.RoleMember
		switch {
		case p.IsSuperAdmin:
			role = transport.RoleSuperAdmin
		case p.IsAdmin:
			role = transport.RoleAdmin
		}
		participant := transport.Participant{ID: participantID(p), Role: role}
		if alias := identity.Normalize(p.JID.String()); alias != participant.ID {
			participant.Alias = alias
		}
		group.Participants = append(group.Participants, participant)
	}
	return group
}

// participantID prefers the phone-number JID so that LID-addressed groups
// compare equal to senders reported by phone number.
func participantID(p types.GroupParticipant) string {
	if p.JID.Server == types.HiddenUserServer && !p.PhoneNumber.IsEmpty() {
		return identity.Normalize(p.PhoneNumber.String())
	}
	return identity.Normalize(p.JID.String())
}

func participantChange(change transport.MembershipChange) (whatsmeow.ParticipantChange, error) {
	switch change {
	case transport.ChangeAdd:
		return whatsmeow.ParticipantChangeAdd, nil
	case transport.ChangeRemove:
		return whatsmeow.ParticipantChangeRemove, nil
	case transport.ChangePromote:
		return whatsmeow.ParticipantChangePromote, nil
	case transport.ChangeDemote:
		return whatsmeow.ParticipantChangeDemote, nil
	default:
		return "", fmt.Errorf("unknown membership change %q", change)
	}
}

func parseJID(id string) (types.JID, error) {
	jid, err := types.ParseJID(identity.Normalize(id))
	if err != nil {
		return types.JID{}, fmt.Errorf("parse jid %q: %w", id, err)
	}
	return jid, nil
}
