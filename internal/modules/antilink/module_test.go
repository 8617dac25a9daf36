package antilink

import (
	"context"
	"testing"

	"groupkeeper/internal/modules/audit"

	"go.uber.org/zap"
)

func newModule() *Module {
	return New([]string{"chat.whatsapp.com"}, audit.NewLogger(nil, zap.NewNop()))
}

func TestFindInviteLink(t *testing.T) {
	m := newModule()
	cases := map[string]bool{
		"join https://chat.whatsapp.com/AbC123":  true,
		"CHAT.WHATSAPP.COM/abc":                  true,
		"ayo chat.whatsapp.com/Xyz ke sini":      true,
		"chat.whatsapp.com":                      false,
		"https://chat.whatsapp.com/":             false,
		"https://example.com/chat.whatsapp.com":  false,
		"tidak ada link di sini":                 false,
		"join chat.whatsapp.com/AbCdEf123#%":     true,
		"join https://chat.whatsapp.com/Ab%zz":   true,
		"HTTPS://Chat.WhatsApp.com:443/Ab%zz":    true,
		"https://example.com/%zz":                false,
	}
	for content, want := range cases {
		if _, got := m.FindInviteLink(content); got != want {
			t.Fatalf("FindInviteLink(%q) = %v, want %v", content, got, want)
		}
	}
}

func TestHandleMessageExemptsAdmins(t *testing.T) {
	m := newModule()
	calls := 0
	admin := func(context.Context) bool { calls++; return true }
	if flagged, _ := m.HandleMessage(context.Background(), "g1", "u1", "https://chat.whatsapp.com/abc", admin); flagged {
		t.Fatalf("expected admin to be exempt")
	}
	if calls != 1 {
		t.Fatalf("expected one exemption check, got %d", calls)
	}

	if flagged, _ := m.HandleMessage(context.Background(), "g1", "u1", "halo semua", admin); flagged || calls != 1 {
		t.Fatalf("expected no lookup without link")
	}
}

func TestHandleMessageFlagsMembers(t *testing.T) {
	m := newModule()
	member := func(context.Context) bool { return false }
	flagged, link := m.HandleMessage(context.Background(), "g1", "u1", "gabung chat.whatsapp.com/Abc", member)
	if !flagged || link != "https://chat.whatsapp.com/Abc" {
		t.Fatalf("expected flag, got %v %q", flagged, link)
	}
}
