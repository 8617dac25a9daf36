// Package transporttest provides an in-memory transport.Facade that records
// every call.
package transporttest

import (
	"context"
	"fmt"
	"sync"

	"groupkeeper/internal/transport"
)

type Sent struct {
	To      string
	Message transport.Message
}

type MemberCall struct {
	GroupID string
	IDs     []string
	Change  transport.MembershipChange
}

type Fake struct {
	mu sync.Mutex

	Groups    map[string]transport.Group
	Connected bool

	// Optional failure injection.
	GroupInfoErr    error
	JoinedErr       error
	SendErr         error
	SendErrFor      map[string]error
	UpdateErr       error
	InviteErr       error
	UpdateCode      int
	InviteLinkValue string

	Sent         []Sent
	MemberCalls  []MemberCall
	Announce     map[string]bool
	Names        map[string]string
	Descriptions map[string]string
	Left         []string
	InviteCalls  int
	Presence     int
}

func New() *Fake {
	return &Fake{
		Groups:       make(map[string]transport.Group),
		Connected:    true,
		Announce:     make(map[string]bool),
		Names:        make(map[string]string),
		Descriptions: make(map[string]string),
	}
}

// AddGroup registers a group whose members are given as id to role.
func (f *Fake) AddGroup(id string, members map[string]transport.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := transport.Group{ID: id, Name: id}
	for member, role := range members {
		group.Participants = append(group.Participants, transport.Participant{ID: member, Role: role})
	}
	f.Groups[id] = group
}

func (f *Fake) SendMessage(ctx context.Context, to string, msg transport.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	if err := f.SendErrFor[to]; err != nil {
		return err
	}
	f.Sent = append(f.Sent, Sent{To: to, Message: msg})
	return nil
}

func (f *Fake) GroupInfo(ctx context.Context, groupID string) (transport.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GroupInfoErr != nil {
		return transport.Group{}, f.GroupInfoErr
	}
	group, ok := f.Groups[groupID]
	if !ok {
		return transport.Group{}, fmt.Errorf("group %s not found", groupID)
	}
	return group, nil
}

func (f *Fake) JoinedGroups(ctx context.Context) ([]transport.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.JoinedErr != nil {
		return nil, f.JoinedErr
	}
	groups := make([]transport.Group, 0, len(f.Groups))
	for _, group := range f.Groups {
		groups = append(groups, group)
	}
	return groups, nil
}

func (f *Fake) UpdateMembers(ctx context.Context, groupID string, ids []string, change transport.MembershipChange) ([]transport.ChangeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MemberCalls = append(f.MemberCalls, MemberCall{GroupID: groupID, IDs: append([]string(nil), ids...), Change: change})
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	results := make([]transport.ChangeResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, transport.ChangeResult{ID: id, Code: f.UpdateCode})
	}
	return results, nil
}

func (f *Fake) SetAnnounce(ctx context.Context, groupID string, adminsOnly bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Announce[groupID] = adminsOnly
	return nil
}

func (f *Fake) SetName(ctx context.Context, groupID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Names[groupID] = name
	return nil
}

func (f *Fake) SetDescription(ctx context.Context, groupID, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Descriptions[groupID] = description
	return nil
}

func (f *Fake) LeaveGroup(ctx context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Left = append(f.Left, groupID)
	return nil
}

func (f *Fake) InviteLink(ctx context.Context, groupID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InviteCalls++
	if f.InviteErr != nil {
		return "", f.InviteErr
	}
	if f.InviteLinkValue != "" {
		return f.InviteLinkValue, nil
	}
	return "https://chat.whatsapp.com/INVITE", nil
}

func (f *Fake) MarkAvailable(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Presence++
	return nil
}

func (f *Fake) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// SentTo returns the messages delivered to one target.
func (f *Fake) SentTo(to string) []transport.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []transport.Message
	for _, s := range f.Sent {
		if s.To == to {
			out = append(out, s.Message)
		}
	}
	return out
}

func (f *Fake) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
