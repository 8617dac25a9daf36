// Package transport describes the messaging operations the bot needs from a
// WhatsApp connection. The whatsapp subpackage implements it over whatsmeow;
// transporttest records calls for tests.
package transport

import (
	"context"
	"errors"
)

var ErrNotConnected = errors.New("transport not connected")

type Role string

const (
	RoleMember     Role = ""
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Participant is one group member. Alias carries the secondary address of
// the same account (its LID when ID is a phone number) when the server
// reports both.
type Participant struct {
	ID    string
	Alias string
	Role  Role
}

// Matches reports whether id names this participant under either address.
func (p Participant) Matches(id string) bool {
	return id != "" && (p.ID == id || p.Alias == id)
}

// Elevated reports whether the participant is an admin or the group creator.
func (p Participant) Elevated() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}

type Group struct {
	ID           string
	Name         string
	Participants []Participant
}

type MembershipChange string

const (
	ChangeAdd     MembershipChange = "add"
	ChangeRemove  MembershipChange = "remove"
	ChangePromote MembershipChange = "promote"
	ChangeDemote  MembershipChange = "demote"
)

// ChangeResult is the per-identity outcome of a membership update. Code 0
// and 200 both mean the change was applied.
type ChangeResult struct {
	ID   string
	Code int
}

func (r ChangeResult) OK() bool {
	return r.Code == 0 || r.Code == 200
}

type Quote struct {
	MessageID string
	Sender    string
	Text      string
}

type Message struct {
	Text     string
	Mentions []string
	Quote    *Quote
}

type Sender interface {
	SendMessage(ctx context.Context, to string, msg Message) error
}

type GroupReader interface {
	GroupInfo(ctx context.Context, groupID string) (Group, error)
	JoinedGroups(ctx context.Context) ([]Group, error)
}

type Facade interface {
	Sender
	GroupReader
	UpdateMembers(ctx context.Context, groupID string, ids []string, change MembershipChange) ([]ChangeResult, error)
	SetAnnounce(ctx context.Context, groupID string, adminsOnly bool) error
	SetName(ctx context.Context, groupID, name string) error
	SetDescription(ctx context.Context, groupID, description string) error
	LeaveGroup(ctx context.Context, groupID string) error
	InviteLink(ctx context.Context, groupID string) (string, error)
	MarkAvailable(ctx context.Context) error
	IsConnected() bool
}
