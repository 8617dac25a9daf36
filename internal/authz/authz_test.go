package authz

import (
	"context"
	"errors"
	"testing"

	"groupkeeper/internal/transport"
	"groupkeeper/internal/transport/transporttest"

	"go.uber.org/zap"
)

const group = "120363419880680909@g.us"

func TestIsAdmin(t *testing.T) {
	fake := transporttest.New()
	fake.AddGroup(group, map[string]transport.Role{
		"628111@s.whatsapp.net": transport.RoleSuperAdmin,
		"628222@s.whatsapp.net": transport.RoleAdmin,
		"628333@s.whatsapp.net": transport.RoleMember,
	})
	oracle := New(fake, zap.NewNop())
	ctx := context.Background()

	cases := map[string]bool{
		"628111":                  true,
		"628222:4@s.whatsapp.net": true,
		"628333@s.whatsapp.net":   false,
		"628444":                  false,
	}
	for id, want := range cases {
		if got := oracle.IsAdmin(ctx, group, id); got != want {
			t.Fatalf("IsAdmin(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestIsAdminFailsClosed(t *testing.T) {
	fake := transporttest.New()
	fake.GroupInfoErr = errors.New("timeout")
	oracle := New(fake, zap.NewNop())
	if oracle.IsAdmin(context.Background(), group, "628111") {
		t.Fatalf("expected false on metadata failure")
	}
}

func TestIsAdminSeesFreshState(t *testing.T) {
	fake := transporttest.New()
	fake.AddGroup(group, map[string]transport.Role{"628111@s.whatsapp.net": transport.RoleMember})
	oracle := New(fake, zap.NewNop())
	if oracle.IsAdmin(context.Background(), group, "628111") {
		t.Fatalf("expected member")
	}
	fake.AddGroup(group, map[string]transport.Role{"628111@s.whatsapp.net": transport.RoleAdmin})
	if !oracle.IsAdmin(context.Background(), group, "628111") {
		t.Fatalf("expected promotion to be visible without caching")
	}
}
