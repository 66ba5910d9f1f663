package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is returned when a duration string cannot be parsed.
var ErrInvalidDuration = errors.New("invalid duration format")

// durationPattern matches a single value-unit pair such as "2h" or "30mo".
// The "mo" token must be listed before "m" so months win the match.
var durationPattern = regexp.MustCompile(`(\d+)(mo|[smhdwy])`)

// Duration unit lengths in seconds. Months and years use fixed civil
// approximations (30 and 365 days).
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 604800
	secondsPerMonth  = 2592000
	secondsPerYear   = 31536000
)

// ParseDuration parses a human duration string like "1d", "2h 30m" or
// "1w 3d 12h" into a time.Duration. Supported units: s, m, h, d, w, mo, y.
// The tokens "permanent", "perm" and "forever" return permanent=true with a
// zero duration.
func ParseDuration(input string) (d time.Duration, permanent bool, err error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, false, fmt.Errorf("%w: empty input", ErrInvalidDuration)
	}

	switch input {
	case "permanent", "perm", "forever":
		return 0, true, nil
	}

	matches := durationPattern.FindAllStringSubmatch(input, -1)
	if len(matches) == 0 {
		return 0, false, fmt.Errorf("%w: %q (use formats like 1d, 2h 30m, 1w 3d)", ErrInvalidDuration, input)
	}

	var totalSeconds int64

	for _, match := range matches {
		value, convErr := strconv.ParseInt(match[1], 10, 64)
		if convErr != nil {
			return 0, false, fmt.Errorf("%w: %q", ErrInvalidDuration, match[1])
		}

		switch match[2] {
		case "s":
			totalSeconds += value
		case "m":
			totalSeconds += value * secondsPerMinute
		case "h":
			totalSeconds += value * secondsPerHour
		case "d":
			totalSeconds += value * secondsPerDay
		case "w":
			totalSeconds += value * secondsPerWeek
		case "mo":
			totalSeconds += value * secondsPerMonth
		case "y":
			totalSeconds += value * secondsPerYear
		}
	}

	if totalSeconds <= 0 {
		return 0, false, fmt.Errorf("%w: duration must be positive", ErrInvalidDuration)
	}

	return time.Duration(totalSeconds) * time.Second, false, nil
}

// FormatDuration renders a duration as a human-readable string such as
// "2 days 3 hours". Zero and negative durations render as "0 seconds".
func FormatDuration(d time.Duration) string {
	seconds := int64(d.Seconds())
	if seconds <= 0 {
		return "0 seconds"
	}

	units := []struct {
		name    string
		seconds int64
	}{
		{"year", secondsPerYear},
		{"month", secondsPerMonth},
		{"week", secondsPerWeek},
		{"day", secondsPerDay},
		{"hour", secondsPerHour},
		{"minute", secondsPerMinute},
		{"second", 1},
	}

	var parts []string

	for _, unit := range units {
		if count := seconds / unit.seconds; count > 0 {
			label := unit.name
			if count > 1 {
				label += "s"
			}

			parts = append(parts, fmt.Sprintf("%d %s", count, label))
			seconds %= unit.seconds
		}
	}

	return strings.Join(parts, " ")
}

// FormatExpiry renders an optional expiry time. A nil expiry means the
// record never expires.
func FormatExpiry(expiresAt *time.Time) string {
	if expiresAt == nil {
		return "Permanent"
	}

	return expiresAt.UTC().Format("2006-01-02 15:04:05 MST")
}

// FormatTimeRemaining renders the time left until an expiry, or "Permanent"
// when expiry is nil and "Expired" when it has already passed.
func FormatTimeRemaining(expiresAt *time.Time, now time.Time) string {
	if expiresAt == nil {
		return "Permanent"
	}

	if !expiresAt.After(now) {
		return "Expired"
	}

	return FormatDuration(expiresAt.Sub(now)) + " remaining"
}
