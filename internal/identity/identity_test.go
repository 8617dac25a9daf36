package identity

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"628975539822":                   "628975539822@s.whatsapp.net",
		"628975539822@s.whatsapp.net":    "628975539822@s.whatsapp.net",
		"628975539822:12@s.whatsapp.net": "628975539822@s.whatsapp.net",
		"628975539822.0:3@s.whatsapp.net": "628975539822@s.whatsapp.net",
		"+628975539822":                  "628975539822@s.whatsapp.net",
		"@628975539822":                  "628975539822@s.whatsapp.net",
		"628975539822@c.us":              "628975539822@s.whatsapp.net",
		"120363419880680909@g.us":        "120363419880680909@g.us",
		"123456789@lid":                  "123456789@lid",
		"  ":                             "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEqualityAcrossRepresentations(t *testing.T) {
	if Normalize("628111") != Normalize("628111:4@s.whatsapp.net") {
		t.Fatalf("expected bare and device-qualified forms to match")
	}
}

func TestFromDigits(t *testing.T) {
	if got := FromDigits("+62 812-3456"); got != "628123456@s.whatsapp.net" {
		t.Fatalf("unexpected identity %q", got)
	}
	if got := FromDigits("abc"); got != "" {
		t.Fatalf("expected empty identity, got %q", got)
	}
}

func TestMentionAndGroup(t *testing.T) {
	if Mention("628111@s.whatsapp.net") != "@628111" {
		t.Fatalf("unexpected mention")
	}
	if !IsGroup("120363419880680909@g.us") || IsGroup("628111@s.whatsapp.net") {
		t.Fatalf("group detection mismatch")
	}
}

func TestNormalizeAllDedupes(t *testing.T) {
	got := NormalizeAll([]string{"628111", "628111@s.whatsapp.net", "", "628222"})
	if len(got) != 2 || got[0] != "628111@s.whatsapp.net" || got[1] != "628222@s.whatsapp.net" {
		t.Fatalf("unexpected result %v", got)
	}
}
