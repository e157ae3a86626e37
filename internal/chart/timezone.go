package chart

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZone is the display zone used until the viewer picks another.
const DefaultZone = "GMT"

var zoneNames = []string{"GMT", "HST", "AKST", "PST", "MST", "CST", "EST"}

var zoneLocations = map[string]string{
	"GMT":  "UTC",
	"HST":  "Pacific/Honolulu",
	"AKST": "America/Anchorage",
	"PST":  "America/Los_Angeles",
	"MST":  "America/Denver",
	"CST":  "America/Chicago",
	"EST":  "America/New_York",
}

// Zones lists the selectable display zones.
func Zones() []string {
	return append([]string(nil), zoneNames...)
}

// Location resolves a display zone abbreviation, case-insensitively.
func Location(zone string) (*time.Location, error) {
	name, ok := zoneLocations[strings.ToUpper(zone)]
	if !ok {
		return nil, fmt.Errorf("unknown time zone %q (want one of %s)", zone, strings.Join(zoneNames, ", "))
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %s: %w", name, err)
	}
	return loc, nil
}

// FormatTime renders an epoch-millisecond UTC timestamp as wall-clock time in zone.
// The stored timestamp is never changed.
func FormatTime(ms int64, zone string) (string, error) {
	loc, err := Location(zone)
	if err != nil {
		return "", err
	}
	return time.UnixMilli(ms).In(loc).Format("3:04 PM"), nil
}

// ParseClock converts an HH:MM wall-clock time in zone, on day's calendar date, to epoch milliseconds.
func ParseClock(s string, day time.Time, zone string) (int64, error) {
	loc, err := Location(zone)
	if err != nil {
		return 0, err
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: want HH:MM", s)
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	return at.UnixMilli(), nil
}
