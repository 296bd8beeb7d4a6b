package util

import (
	"regexp"
	"time"
)

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FindDate parses the first YYYY-MM-DD token in s as a UTC date.
// Only the first token is considered; an invalid one (e.g. month 13) reports false.
func FindDate(s string) (time.Time, bool) {
	token := isoDatePattern.FindString(s)
	if token == "" {
		return time.Time{}, false
	}
	date, err := time.Parse(time.DateOnly, token)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
