// Package analytics summarizes the audit trail for the owner digest.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"groupkeeper/internal/storage"
)

type Source interface {
	ListAuditLogs(ctx context.Context, groupID string, since time.Time) ([]storage.AuditLog, error)
}

type Service struct {
	source Source
}

func New(source Source) *Service {
	return &Service{source: source}
}

type Report struct {
	GroupID string
	Total   int
	ByLevel map[string]int
	ByEvent map[string]int
}

func (s *Service) Report(ctx context.Context, groupID string, since time.Time) (Report, error) {
	logs, err := s.source.ListAuditLogs(ctx, groupID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{GroupID: groupID, ByLevel: make(map[string]int), ByEvent: make(map[string]int)}
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
		report.ByEvent[log.Event]++
	}
	return report, nil
}

// Reports builds one report per group, skipping groups with no entries.
func (s *Service) Reports(ctx context.Context, groupIDs []string, since time.Time) ([]Report, error) {
	var out []Report
	for _, groupID := range groupIDs {
		report, err := s.Report(ctx, groupID, since)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", groupID, err)
		}
		if report.Total > 0 {
			out = append(out, report)
		}
	}
	return out, nil
}

// Format renders reports as an owner digest body.
func Format(header string, reports []Report) string {
	var b strings.Builder
	b.WriteString(header)
	for _, report := range reports {
		fmt.Fprintf(&b, "\n\n*%s* (%d)", report.GroupID, report.Total)
		events := make([]string, 0, len(report.ByEvent))
		for event := range report.ByEvent {
			events = append(events, event)
		}
		sort.Strings(events)
		for _, event := range events {
			fmt.Fprintf(&b, "\n• %s: %d", event, report.ByEvent[event])
		}
	}
	return b.String()
}
