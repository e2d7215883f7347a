// Package duration converts human-friendly giveaway durations ("30s", "5m",
// "1h", "1d") to milliseconds.
package duration

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidDuration = errors.New("invalid duration")

var pattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var unitMillis = map[string]int64{
	"s": 1000,
	"m": 60_000,
	"h": 3_600_000,
	"d": 86_400_000,
}

// ParseMillis parses "<integer><unit>" with unit in s/m/h/d. Anything else,
// including negative or non-integer values, yields ErrInvalidDuration. No upper
// bound is enforced here; callers apply their own policy maximum.
func ParseMillis(s string) (int64, error) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, ErrInvalidDuration
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Digits only, so this can only be overflow.
		return 0, ErrInvalidDuration
	}

	unit := unitMillis[m[2]]
	if value > (1<<63-1)/unit {
		return 0, ErrInvalidDuration
	}

	return value * unit, nil
}
