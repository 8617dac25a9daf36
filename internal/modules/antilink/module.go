package antilink

import (
	"context"
	"fmt"
	"strings"

	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/utils"
)

// Module flags group invite links posted by non-admins.
type Module struct {
	hosts []string
	audit *audit.Logger
}

func New(hosts []string, auditLogger *audit.Logger) *Module {
	return &Module{hosts: hosts, audit: auditLogger}
}

// FindInviteLink returns the first invite link in content. A bare host
// without a path is not an invite.
func (m *Module) FindInviteLink(content string) (string, bool) {
	for _, raw := range utils.ExtractURLs(content) {
		normalized, host, err := utils.NormalizeURL(raw)
		if err != nil {
			// Clients still open links with broken escapes, so fall back
			// to the raw text.
			normalized = strings.ToLower(raw)
			host = rawHost(normalized)
		}
		if !utils.HostMatch(host, m.hosts) {
			continue
		}
		if !hasPath(normalized, host) {
			continue
		}
		return normalized, true
	}
	return "", false
}

// HandleMessage reports whether content must be interdicted. exempt is only
// consulted once a link was found, so ordinary chatter never costs a
// metadata lookup.
func (m *Module) HandleMessage(ctx context.Context, groupID, userID, content string, exempt func(context.Context) bool) (bool, string) {
	link, found := m.FindInviteLink(content)
	if !found {
		return false, ""
	}
	if exempt != nil && exempt(ctx) {
		return false, ""
	}

	detail := fmt.Sprintf("type=INVITE_LINK url=%s", link)
	if m.audit != nil {
		m.audit.Log(ctx, audit.LevelWarn, groupID, userID, "invite_link", detail)
	}
	return true, link
}

// rawHost takes the host from an unparseable candidate: scheme stripped,
// cut at the first slash, port dropped.
func rawHost(raw string) string {
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.IndexAny(raw, "/?#"); idx >= 0 {
		raw = raw[:idx]
	}
	if idx := strings.LastIndex(raw, ":"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

func hasPath(normalized, host string) bool {
	idx := strings.Index(normalized, host)
	if idx < 0 {
		return false
	}
	rest := strings.TrimLeft(normalized[idx+len(host):], "/")
	return rest != ""
}
