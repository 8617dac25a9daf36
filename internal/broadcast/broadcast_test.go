package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"groupkeeper/internal/config"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/schedule/schedtest"
	"groupkeeper/internal/state"
	"groupkeeper/internal/transport"
	"groupkeeper/internal/transport/transporttest"

	"go.uber.org/zap"
)

const (
	groupA  = "1001@g.us"
	groupB  = "1002@g.us"
	foreign = "9999@g.us"
)

func newFanout() (*Fanout, *transporttest.Fake) {
	fake := transporttest.New()
	for _, id := range []string{groupA, groupB, foreign} {
		fake.AddGroup(id, map[string]transport.Role{})
	}
	policy := config.NewGroupPolicy("62811@s.whatsapp.net", []string{groupA, groupB})
	return NewFanout(fake, policy, zap.NewNop()), fake
}

func TestFanoutOnlyWhitelisted(t *testing.T) {
	fanout, fake := newFanout()
	sent, err := fanout.Send(context.Background(), "halo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 deliveries, got %d", sent)
	}
	if len(fake.SentTo(foreign)) != 0 {
		t.Fatalf("foreign group must not receive broadcasts")
	}
}

func TestFanoutContinuesPastFailure(t *testing.T) {
	fanout, fake := newFanout()
	fake.SendErrFor = map[string]error{groupA: errors.New("rate limited")}
	sent, err := fanout.Send(context.Background(), "halo")
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if sent != 1 || len(fake.SentTo(groupB)) != 1 {
		t.Fatalf("expected delivery to the healthy group, sent=%d", sent)
	}
}

func TestFanoutListFailure(t *testing.T) {
	fanout, fake := newFanout()
	fake.JoinedErr = errors.New("offline")
	if _, err := fanout.Send(context.Background(), "halo"); !errors.Is(err, fake.JoinedErr) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}

func TestWarnerCooldown(t *testing.T) {
	fanout, fake := newFanout()
	rt := &state.Runtime{}
	clock := schedtest.NewClock(time.Unix(0, 0))
	w := NewWarner(Config{Text: "hati-hati", Cooldown: 30 * time.Minute}, rt, fanout, audit.NewLogger(nil, zap.NewNop()), zap.NewNop())
	w.WithClock(clock)
	ctx := context.Background()

	if fired, _ := w.Tick(ctx); fired {
		t.Fatalf("warning must not fire while disabled")
	}

	rt.SetWarnings(true)
	if fired, err := w.Tick(ctx); !fired || err != nil {
		t.Fatalf("expected broadcast, fired=%v err=%v", fired, err)
	}
	if fake.SentCount() != 2 {
		t.Fatalf("expected 2 sends, got %d", fake.SentCount())
	}
	if !w.Cooling() {
		t.Fatalf("expected cooldown")
	}

	for i := 0; i < 29; i++ {
		clock.Advance(time.Minute)
		if fired, _ := w.Tick(ctx); fired {
			t.Fatalf("fired during cooldown at minute %d", i+1)
		}
	}

	clock.Advance(time.Minute)
	if w.Cooling() {
		t.Fatalf("cooldown should have ended")
	}
	if fired, _ := w.Tick(ctx); !fired {
		t.Fatalf("expected second broadcast after cooldown")
	}
	if fake.SentCount() != 4 {
		t.Fatalf("expected 4 sends, got %d", fake.SentCount())
	}
}

func TestWarnerCooldownAfterFailure(t *testing.T) {
	fanout, fake := newFanout()
	fake.JoinedErr = errors.New("offline")
	rt := &state.Runtime{}
	rt.SetWarnings(true)
	clock := schedtest.NewClock(time.Unix(0, 0))
	w := NewWarner(Config{Text: "x"}, rt, fanout, audit.NewLogger(nil, zap.NewNop()), zap.NewNop())
	w.WithClock(clock)

	if fired, err := w.Tick(context.Background()); !fired || err == nil {
		t.Fatalf("expected attempted broadcast with error")
	}
	if !w.Cooling() {
		t.Fatalf("cooldown should start after failure")
	}
	delays := clock.Delays()
	if len(delays) != 1 || delays[0] != 30*time.Minute {
		t.Fatalf("expected default cooldown, got %v", delays)
	}
}
