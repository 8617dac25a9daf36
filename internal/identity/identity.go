// Package identity reconciles the different shapes a WhatsApp participant
// handle arrives in (bare number, device-qualified JID, full JID) into one
// canonical string used for every comparison, set lookup and persisted key.
package identity

import (
	"strings"
)

const (
	UserServer  = "s.whatsapp.net"
	GroupServer = "g.us"
)

// Normalize returns the canonical form of raw. Two identities are equal iff
// their normalized forms are equal.
func Normalize(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "@")
	value = strings.TrimPrefix(value, "+")
	if value == "" {
		return ""
	}

	user, server, found := strings.Cut(value, "@")
	if !found || server == "" {
		server = UserServer
	}
	server = strings.ToLower(server)
	if server == "c.us" {
		server = UserServer
	}

	if server != GroupServer {
		if idx := strings.IndexByte(user, ':'); idx >= 0 {
			user = user[:idx]
		}
		if idx := strings.IndexByte(user, '.'); idx >= 0 {
			user = user[:idx]
		}
	}
	if user == "" {
		return ""
	}
	return user + "@" + server
}

// User returns the part before the server.
func User(id string) string {
	user, _, _ := strings.Cut(Normalize(id), "@")
	return user
}

func Mention(id string) string {
	return "@" + User(id)
}

func IsGroup(id string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(id)), "@"+GroupServer)
}

// FromDigits keeps only the digits of raw and returns the user identity they
// form, or "" when no digit is present.
func FromDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + "@" + UserServer
}

// NormalizeAll normalizes every entry, dropping empties and duplicates while
// keeping first-seen order.
func NormalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		id := Normalize(item)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
