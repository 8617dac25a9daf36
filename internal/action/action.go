// Package action is the closed set of side effects the gate and dispatcher
// may request. Deciding code returns a slice of these; the bot's runner
// executes them in order.
package action

import (
	"groupkeeper/internal/transport"
)

type Action interface {
	isAction()
}

// Send delivers one message.
type Send struct {
	To      string
	Message transport.Message
}

// ChangeMembers applies a membership change to every listed identity.
// OnSuccess, when set, is sent to the group after the change succeeds.
type ChangeMembers struct {
	GroupID   string
	IDs       []string
	Change    transport.MembershipChange
	OnSuccess string
}

// AddMember adds one identity. When the server refuses the add, the group's
// invite link is shared instead using FallbackFormat (one %s verb). A
// transport error is reported to the owner under ErrorLabel.
type AddMember struct {
	GroupID        string
	ID             string
	OnSuccess      string
	FallbackFormat string
	ErrorLabel     string
}

type SetAnnounce struct {
	GroupID    string
	AdminsOnly bool
	OnSuccess  string
}

type SetName struct {
	GroupID   string
	Name      string
	OnSuccess string
}

type SetDescription struct {
	GroupID     string
	Description string
	OnSuccess   string
}

type LeaveGroup struct {
	GroupID string
}

// Broadcast sends Text to every joined group that is on the whitelist.
// Failures are reported to the owner under ErrorLabel and never reach the
// triggering chat.
type Broadcast struct {
	Text       string
	ErrorLabel string
}

// Persist rewrites one named document from current in-memory state.
type Persist struct {
	Document string
}

type ReportOwner struct {
	Label  string
	Detail string
}

// Restart hands control to the self-updater; ReplyTo receives progress.
type Restart struct {
	ReplyTo string
}

func (Send) isAction()           {}
func (ChangeMembers) isAction()  {}
func (AddMember) isAction()      {}
func (SetAnnounce) isAction()    {}
func (SetName) isAction()        {}
func (SetDescription) isAction() {}
func (LeaveGroup) isAction()     {}
func (Broadcast) isAction()      {}
func (Persist) isAction()        {}
func (ReportOwner) isAction()    {}
func (Restart) isAction()        {}

// Reply is shorthand for a Send with no mentions.
func Reply(to, text string) Send {
	return Send{To: to, Message: transport.Message{Text: text}}
}
