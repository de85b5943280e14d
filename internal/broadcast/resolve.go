package broadcast

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Resolve returns the next instant strictly after now at which spec airs.
//
// The returned time is in now's location. It reports false when the weekday or time of day cannot be parsed.
func Resolve(spec Spec, now time.Time) (time.Time, bool) {
	target, ok := ParseWeekday(spec.Day)
	if !ok {
		return time.Time{}, false
	}
	hour, minute, ok := ParseTimeOfDay(spec.Time)
	if !ok {
		return time.Time{}, false
	}

	offset := time.Duration(OffsetMinutes(spec.Timezone)) * time.Minute
	carry := hour / 24
	slot := time.Duration(hour%24)*time.Hour + time.Duration(minute)*time.Minute

	shifted := now.UTC().Add(offset)
	today := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)

	at := func(i int) time.Time {
		start := today.AddDate(0, 0, i+carry)
		return start.Add(slot).Add(-offset).In(now.Location())
	}

	// Scanning starts carry days back so a past-midnight slot belonging to an earlier weekday but airing
	// today is not skipped. Matching weekdays are 7 days apart.
	first := -carry
	first += (int(target) - int(today.AddDate(0, 0, first).Weekday()) + 7) % 7
	for i := first; i <= 6; i += 7 {
		if candidate := at(i); candidate.After(now) {
			return candidate, true
		}
	}

	for i := 7; i <= 13; i++ {
		if today.AddDate(0, 0, i).Weekday() != target {
			continue
		}
		if candidate := at(i); candidate.After(now) {
			return candidate, true
		}
		break
	}

	return time.Time{}, false
}

// Until resolves spec and returns the time remaining from now together with the airing instant.
func Until(spec Spec, now time.Time) (Remaining, time.Time, bool) {
	next, ok := Resolve(spec, now)
	if !ok {
		return Remaining{}, time.Time{}, false
	}
	diff := next.Sub(now)
	if diff <= 0 {
		return Remaining{}, time.Time{}, false
	}
	return Decompose(diff), next, true
}

// Remaining is a countdown split into fixed-size units.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Decompose splits d into whole days, hours, minutes and seconds, truncating sub-second remainders.
// Negative durations decompose to zero.
func Decompose(d time.Duration) Remaining {
	if d <= 0 {
		return Remaining{}
	}
	return Remaining{
		Days:    int(d / day),
		Hours:   int(d % day / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
		Seconds: int(d % time.Minute / time.Second),
	}
}

// Duration recomposes r into a duration.
func (r Remaining) Duration() time.Duration {
	return time.Duration(r.Days)*day +
		time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute +
		time.Duration(r.Seconds)*time.Second
}

// String formats r as "1d 01h 01m 01s", leaving out the day part when it is zero.
func (r Remaining) String() string {
	hms := fmt.Sprintf("%02dh %02dm %02ds", r.Hours, r.Minutes, r.Seconds)
	if r.Days > 0 {
		return fmt.Sprintf("%dd %s", r.Days, hms)
	}
	return hms
}
