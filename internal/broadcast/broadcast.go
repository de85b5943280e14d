package broadcast

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// JSTOffsetMinutes is the offset applied when a timezone descriptor is missing or unrecognized.
const JSTOffsetMinutes = 9 * 60

// Spec is a weekly broadcast slot as reported by the metadata provider. Empty fields mean unknown.
type Spec struct {
	Day      string `json:"day,omitempty"`
	Time     string `json:"time,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Known reports whether both the weekday and the time of day parse.
func (s Spec) Known() bool {
	if _, ok := ParseWeekday(s.Day); !ok {
		return false
	}
	_, _, ok := ParseTimeOfDay(s.Time)
	return ok
}

// String renders the slot as "Sundays 00:30 (JST)", or "Unknown" when the day is missing.
func (s Spec) String() string {
	if strings.TrimSpace(s.Day) == "" {
		return "Unknown"
	}
	out := strings.TrimSpace(s.Day)
	if t := strings.TrimSpace(s.Time); t != "" {
		out += " " + t
	}
	if tz := strings.TrimSpace(s.Timezone); tz != "" {
		out += fmt.Sprintf(" (%s)", tz)
	}
	return out
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday matches a canonical or pluralized weekday name ("Monday", "mondays") case-insensitively.
func ParseWeekday(name string) (time.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, "s")
	day, ok := weekdays[key]
	return day, ok
}

// MaxHour is the largest hour ParseTimeOfDay accepts. Past-midnight hours carry at most six days.
const MaxHour = 7*24 - 1

// ParseTimeOfDay extracts hour and minute from a noisy time string such as "00:30 (JST)".
//
// Every rune other than digits and ':' is dropped before splitting. Hours from 24 to [MaxHour] are returned
// as-is; larger hours and minutes of 60 or more do not parse.
func ParseTimeOfDay(raw string) (hour, minute int, ok bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ':' {
			return r
		}
		return -1
	}, raw)

	parts := strings.Split(cleaned, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > MaxHour {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute >= 60 {
		return 0, 0, false
	}
	return hour, minute, true
}

var offsetPattern = regexp.MustCompile(`(?i)([+-])(\d{1,2})(?::?(\d{2}))?`)

// OffsetMinutes maps a timezone descriptor to a fixed UTC offset in minutes.
//
// "JST" and "Asia/Tokyo" are +540, signed forms such as "UTC+9", "UTC-05:00" and "GMT+0530" carry their own
// offset, and a bare "UTC" or "GMT" is zero. Anything else falls back to JST.
func OffsetMinutes(tz string) int {
	trimmed := strings.TrimSpace(tz)
	switch strings.ToUpper(trimmed) {
	case "JST", "ASIA/TOKYO":
		return JSTOffsetMinutes
	case "UTC", "GMT", "Z":
		return 0
	}

	m := offsetPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return JSTOffsetMinutes
	}

	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}

	total := hours*60 + minutes
	if m[1] == "-" {
		total = -total
	}
	return total
}
