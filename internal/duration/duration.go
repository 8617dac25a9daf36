// Package duration parses the compact giveaway duration tokens such as
// "1d2h30m". Parsing is lenient: the longest prefix made of ordered day, hour
// and minute fragments is used and anything after it is ignored. A zero
// result means no usable duration was found.
package duration

import (
	"regexp"
	"strconv"
	"time"
)

const day = 24 * time.Hour

var tokenPattern = regexp.MustCompile(`^(?i)(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?`)

func Parse(token string) time.Duration {
	match := tokenPattern.FindStringSubmatch(token)
	if match == nil {
		return 0
	}

	var total time.Duration
	units := []time.Duration{day, time.Hour, time.Minute}
	for i, unit := range units {
		part := match[i+1]
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n > int64(maxDuration/unit) {
			return 0
		}
		total += time.Duration(n) * unit
		if total < 0 {
			return 0
		}
	}
	return total
}

const maxDuration = time.Duration(1<<63 - 1)
