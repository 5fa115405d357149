package market

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Layouts accepted for endDate, tried in order. Layouts without a zone are
// read in the location of the reference instant.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02",
	}
)

var errBadTimestamp = errors.New("unrecognised timestamp")

// ParseEndDate parses an ISO-8601 timestamp. A trailing UTC designator is
// rewritten to an explicit +00:00 offset first. Timestamps without an offset
// are interpreted in loc.
func ParseEndDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadTimestamp
}

// HoursToClose returns the hours from now until endDate, rounded to two
// decimals. It reports false when endDate is empty or unparseable. Past end
// dates give negative values.
func HoursToClose(endDate string, now time.Time) (float64, bool) {
	if endDate == "" {
		return 0, false
	}
	end, err := ParseEndDate(endDate, now.Location())
	if err != nil {
		return 0, false
	}
	hours := end.Sub(now).Hours()
	return math.Round(hours*100) / 100, true
}
