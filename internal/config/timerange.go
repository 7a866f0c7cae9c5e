package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidTime is returned for timestamps that cannot be parsed.
var ErrInvalidTime = errors.New("invalid time")

const rangeSeparator = " - "

var clockLayouts = []string{"15:04:05", "15:04"}

// ParseTimeRange parses "START" or "START-END". Timestamps without a zone
// are read in now's location; results are UTC with second precision.
//
// Dates contain '-' too, so a space-padded " - " is taken as the separator
// when present. Otherwise a '-' followed by a bare clock time splits the
// range, then the whole string is tried as one timestamp before every '-'
// position is tried as the split point. Zone offsets with a colon after a
// clock time are therefore read as an end time; write them as -0700.
func ParseTimeRange(s string, now time.Time) (start, end time.Time, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty time range", ErrInvalidTime)
	}

	if i := strings.Index(s, rangeSeparator); i >= 0 {
		return parsePair(s[:i], s[i+len(rangeSeparator):], now)
	}

	// A clock after a '-' is an end time, not a zone offset.
	for i := len(s) - 2; i > 0; i-- {
		if s[i] != '-' || !isClock(s[i+1:]) {
			continue
		}
		if start, end, err := parsePair(s[:i], s[i+1:], now); err == nil {
			return start, end, nil
		}
	}

	if t, err := parseTimestamp(s, now); err == nil {
		return t, time.Time{}, nil
	}

	for i := 1; i < len(s)-1; i++ {
		if s[i] != '-' {
			continue
		}
		if start, end, err := parsePair(s[:i], s[i+1:], now); err == nil {
			return start, end, nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

func parsePair(left, right string, now time.Time) (time.Time, time.Time, error) {
	start, err := parseTimestamp(left, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// a bare clock end time falls on the start's day
	end, err := parseTimestamp(right, start.In(now.Location()))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func isClock(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// parseTimestamp accepts a bare clock time (on day's date) or anything
// dateparse understands, including unix seconds. day also supplies the
// location for timestamps without a zone.
func parseTimestamp(s string, day time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidTime)
	}
	loc := day.Location()
	for _, layout := range clockLayouts {
		if c, err := time.ParseInLocation(layout, s, loc); err == nil {
			y, m, d := day.Date()
			t := time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, loc)
			return truncateUTC(t), nil
		}
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTime, s, err)
	}
	return truncateUTC(t), nil
}

func truncateUTC(t time.Time) time.Time {
	return time.Unix(t.Unix(), 0).UTC()
}
