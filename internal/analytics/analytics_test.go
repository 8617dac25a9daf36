package analytics

import (
	"context"
	"strings"
	"testing"
	"time"

	"groupkeeper/internal/storage"
)

func TestReportsSkipQuietGroups(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	now := time.Now()
	for _, entry := range []storage.AuditLog{
		{GroupID: "1@g.us", Level: "WARN", Event: "invite_link", CreatedAt: now},
		{GroupID: "1@g.us", Level: "WARN", Event: "invite_link", CreatedAt: now},
		{GroupID: "1@g.us", Level: "INFO", Event: "giveaway_end", CreatedAt: now},
		{GroupID: "1@g.us", Level: "INFO", Event: "giveaway_start", CreatedAt: now.Add(-48 * time.Hour)},
	} {
		if err := store.AddAuditLog(ctx, entry); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	svc := New(store)
	reports, err := svc.Reports(ctx, []string{"1@g.us", "2@g.us"}, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	report := reports[0]
	if report.Total != 3 || report.ByLevel["WARN"] != 2 || report.ByEvent["giveaway_start"] != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	text := Format("digest", reports)
	if !strings.Contains(text, "invite_link: 2") || !strings.HasPrefix(text, "digest") {
		t.Fatalf("unexpected digest %q", text)
	}
}
