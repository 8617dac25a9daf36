package duration

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		token string
		want  int64
	}{
		{"1d2h30m", 95_400_000},
		{"45m", 2_700_000},
		{"2H", 7_200_000},
		{"1D", 86_400_000},
		{"3d", 259_200_000},
		{"1h15m", 4_500_000},
		{"", 0},
		{"soon", 0},
		{"30m2h", 1_800_000},
		{" 1d", 0},
		{"99999999999999999999d", 0},
	}
	for _, tc := range cases {
		if got := Parse(tc.token).Milliseconds(); got != tc.want {
			t.Fatalf("Parse(%q) = %dms, want %dms", tc.token, got, tc.want)
		}
	}
}

func TestParseReturnsDuration(t *testing.T) {
	if got := Parse("1h"); got != time.Hour {
		t.Fatalf("expected one hour, got %s", got)
	}
}
