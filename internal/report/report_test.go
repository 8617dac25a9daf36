package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"groupkeeper/internal/messages"
	"groupkeeper/internal/transport/transporttest"

	"go.uber.org/zap"
)

const owner = "628975539822@s.whatsapp.net"

func TestReportTruncatesDetail(t *testing.T) {
	fake := transporttest.New()
	r := New(fake, owner, zap.NewNop())

	r.Report(context.Background(), "Boom", strings.Repeat("é", 5000))
	sent := fake.SentTo(owner)
	if len(sent) != 1 {
		t.Fatalf("expected one report, got %d", len(sent))
	}
	text := sent[0].Text
	if !strings.HasPrefix(text, "🚨 *Boom*") {
		t.Fatalf("unexpected header %q", text[:20])
	}
	if got := strings.Count(text, "é"); got != messages.MaxReportLength {
		t.Fatalf("expected %d detail characters, got %d", messages.MaxReportLength, got)
	}
	if !utf8.ValidString(text) {
		t.Fatalf("truncation split a rune")
	}
}

func TestPanicUsesUncaughtLabel(t *testing.T) {
	fake := transporttest.New()
	r := New(fake, owner, zap.NewNop())
	r.Panic(context.Background(), "nil map", []byte("goroutine 1"))
	sent := fake.SentTo(owner)
	if len(sent) != 1 || !strings.Contains(sent[0].Text, messages.ErrorLabelUncaught) {
		t.Fatalf("unexpected report %+v", sent)
	}
	if !strings.Contains(sent[0].Text, "goroutine 1") {
		t.Fatalf("stack missing from report")
	}
}

func TestDeliveryFailureSwallowed(t *testing.T) {
	fake := transporttest.New()
	fake.SendErr = errors.New("offline")
	r := New(fake, owner, zap.NewNop())
	r.Error(context.Background(), "x", errors.New("y"))
	r.Error(context.Background(), "x", nil)
	if fake.SentCount() != 0 {
		t.Fatalf("nothing should be recorded")
	}
}
