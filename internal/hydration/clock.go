package hydration

import (
	"errors"
	"fmt"
	"strings"
)

// MinutesPerDay is the length of the local day the active window lives in.
const MinutesPerDay = 24 * 60

var ErrMalformedClock = errors.New("malformed clock time")

// ParseClock converts an "HH:MM" wall-clock string into minutes since midnight.
// Malformed or out-of-range input yields 0, which callers read as 00:00.
func ParseClock(s string) int {
	m, err := ParseClockStrict(s)
	if err != nil {
		return 0
	}
	return m
}

// ParseClockStrict accepts the same grammar as ParseClock but reports failures.
// Hours and minutes are one or two ASCII digits separated by a single colon.
func ParseClockStrict(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	h, ok := parseDigits(hh)
	if !ok || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	m, ok := parseDigits(mm)
	if !ok || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	return h*60 + m, nil
}

func parseDigits(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	if minute < 0 {
		minute = 0
	}
	minute %= MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
