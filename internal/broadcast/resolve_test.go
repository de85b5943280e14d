package broadcast

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	t.Run("next day after Saturday evening", func(t *testing.T) {
		now := time.Date(2024, 1, 6, 20, 0, 0, 0, jst)
		got, ok := Resolve(Spec{Day: "Sunday", Time: "00:30 (JST)", Timezone: "JST"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}

		want := time.Date(2024, 1, 7, 0, 30, 0, 0, jst)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("result is in the caller's location", func(t *testing.T) {
		now := time.Date(2024, 1, 6, 11, 0, 0, 0, time.UTC)
		got, ok := Resolve(Spec{Day: "Sundays", Time: "00:30", Timezone: "Asia/Tokyo"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}

		want := time.Date(2024, 1, 6, 15, 30, 0, 0, time.UTC)
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("got %v, want %v in UTC", got, want)
		}
	})

	t.Run("hour 24 carries into the next day", func(t *testing.T) {
		spec := Spec{Day: "Mondays", Time: "24:15", Timezone: "UTC+9"}

		now := time.Date(2024, 1, 8, 0, 0, 0, 0, jst)
		got, ok := Resolve(spec, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		if want := time.Date(2024, 1, 9, 0, 15, 0, 0, jst); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("carried slot still pending today", func(t *testing.T) {
		spec := Spec{Day: "Mondays", Time: "24:15", Timezone: "UTC+9"}

		now := time.Date(2024, 1, 9, 0, 5, 0, 0, jst)
		got, ok := Resolve(spec, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		if want := time.Date(2024, 1, 9, 0, 15, 0, 0, jst); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("carried slot already passed rolls a week", func(t *testing.T) {
		spec := Spec{Day: "Mondays", Time: "24:15", Timezone: "UTC+9"}

		now := time.Date(2024, 1, 9, 1, 0, 0, 0, jst)
		got, ok := Resolve(spec, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		if want := time.Date(2024, 1, 16, 0, 15, 0, 0, jst); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("multi-day carry", func(t *testing.T) {
		now := time.Date(2024, 1, 6, 12, 0, 0, 0, jst)
		got, ok := Resolve(Spec{Day: "Friday", Time: "49:00", Timezone: "JST"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		// Friday 49:00 is Sunday 01:00.
		if want := time.Date(2024, 1, 7, 1, 0, 0, 0, jst); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("largest hour carries six days", func(t *testing.T) {
		now := time.Date(2024, 1, 6, 20, 0, 0, 0, jst)
		got, ok := Resolve(Spec{Day: "Monday", Time: "167:59", Timezone: "JST"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		// Monday Jan 1 167:59 is Sunday Jan 7 23:59.
		if want := time.Date(2024, 1, 7, 23, 59, 0, 0, jst); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("oversized time fields do not resolve", func(t *testing.T) {
		now := time.Date(2024, 1, 6, 20, 0, 0, 0, jst)
		for _, raw := range []string{"00:9999999999", "99999999999:00", "168:00", "12:60"} {
			got, ok := Resolve(Spec{Day: "Monday", Time: raw, Timezone: "JST"}, now)
			if ok {
				t.Errorf("Resolve(%q) = %v, want no instant", raw, got)
			}
			if !got.IsZero() {
				t.Errorf("Resolve(%q) returned non-zero time %v", raw, got)
			}
		}
	})

	t.Run("same day slot already aired skips a week", func(t *testing.T) {
		now := time.Date(2024, 1, 7, 1, 0, 0, 0, jst)
		got, ok := Resolve(Spec{Day: "Sunday", Time: "00:30", Timezone: "JST"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		if want := time.Date(2024, 1, 14, 0, 30, 0, 0, jst); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("exactly at the slot is seven days later", func(t *testing.T) {
		now := time.Date(2024, 1, 7, 0, 30, 0, 0, jst)
		got, ok := Resolve(Spec{Day: "Sunday", Time: "00:30", Timezone: "JST"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		if diff := got.Sub(now); diff != 7*24*time.Hour {
			t.Errorf("expected exactly seven days, got %v", diff)
		}
	})

	t.Run("negative offset", func(t *testing.T) {
		now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
		got, ok := Resolve(Spec{Day: "Friday", Time: "20:00", Timezone: "UTC-05:00"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		if want := time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("missing timezone defaults to JST", func(t *testing.T) {
		now := time.Date(2024, 1, 6, 20, 0, 0, 0, jst)
		withTZ, _ := Resolve(Spec{Day: "Sunday", Time: "00:30", Timezone: "JST"}, now)
		withoutTZ, ok := Resolve(Spec{Day: "Sunday", Time: "00:30"}, now)
		if !ok {
			t.Fatal("expected a resolved instant")
		}
		if !withTZ.Equal(withoutTZ) {
			t.Errorf("got %v, want %v", withoutTZ, withTZ)
		}
	})

	t.Run("unresolvable", func(t *testing.T) {
		now := time.Date(2024, 1, 6, 20, 0, 0, 0, jst)
		specs := []Spec{
			{Time: "18:00"},
			{Day: "Monday"},
			{Day: "Monday", Time: "bad:input"},
			{Day: "Someday", Time: "18:00"},
			{},
		}
		for _, spec := range specs {
			if got, ok := Resolve(spec, now); ok || !got.IsZero() {
				t.Errorf("expected %+v to be unresolvable, got %v", spec, got)
			}
		}
	})
}

func TestResolveProperties(t *testing.T) {
	names := []string{"Sunday", "Mondays", "tuesday", "WEDNESDAYS", "Thursday", "Fridays", "saturday"}
	times := []string{"00:00", "00:30 (JST)", "12:45", "23:59", "24:15", "25:30", "49:00", "167:59"}
	zones := []string{"JST", "UTC+9", "UTC-05:00", "UTC", ""}

	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	var nows []time.Time
	for h := 0; h < 24*8; h += 7 {
		nows = append(nows, start.Add(time.Duration(h)*time.Hour+17*time.Minute))
	}

	for _, name := range names {
		for _, tod := range times {
			for _, tz := range zones {
				spec := Spec{Day: name, Time: tod, Timezone: tz}
				for _, now := range nows {
					got, ok := Resolve(spec, now)
					if !ok {
						t.Fatalf("expected %+v to resolve", spec)
					}
					if !got.After(now) {
						t.Fatalf("%+v at %v resolved to non-future %v", spec, now, got)
					}
					if got.Sub(now) > 7*24*time.Hour {
						t.Fatalf("%+v at %v resolved more than a week out: %v", spec, now, got)
					}

					again, _ := Resolve(spec, now)
					if !again.Equal(got) {
						t.Fatalf("%+v at %v not deterministic: %v vs %v", spec, now, got, again)
					}

					hour, _, _ := ParseTimeOfDay(tod)
					wantDay, _ := ParseWeekday(name)
					offset := time.Duration(OffsetMinutes(tz)) * time.Minute
					airDay := got.UTC().Add(offset).AddDate(0, 0, -hour/24).Weekday()
					if airDay != wantDay {
						t.Fatalf("%+v at %v resolved to %v, a %v in the broadcast frame", spec, now, got, airDay)
					}
				}
			}
		}
	}
}

func TestDecompose(t *testing.T) {
	t.Run("one of each unit", func(t *testing.T) {
		got := Decompose(90_061_000 * time.Millisecond)
		want := Remaining{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("non-positive is zero", func(t *testing.T) {
		if got := Decompose(-time.Second); got != (Remaining{}) {
			t.Errorf("expected zero, got %+v", got)
		}
	})

	t.Run("recomposition bounds", func(t *testing.T) {
		for _, ms := range []int64{1, 999, 1000, 59_999, 3_600_001, 86_399_999, 90_061_000, 604_799_999} {
			d := time.Duration(ms) * time.Millisecond
			back := Decompose(d).Duration()
			if back > d || back <= d-time.Second {
				t.Errorf("%v recomposed to %v", d, back)
			}
		}
	})

	t.Run("String", func(t *testing.T) {
		if got := (Remaining{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}).String(); got != "1d 01h 01m 01s" {
			t.Errorf("unexpected %q", got)
		}
		if got := (Remaining{Hours: 2, Minutes: 3, Seconds: 4}).String(); got != "02h 03m 04s" {
			t.Errorf("unexpected %q", got)
		}
	})
}

func TestUntil(t *testing.T) {
	now := time.Date(2024, 1, 6, 20, 0, 0, 0, jst)

	remaining, next, ok := Until(Spec{Day: "Sunday", Time: "00:30"}, now)
	if !ok {
		t.Fatal("expected a countdown")
	}
	if want := (Remaining{Hours: 4, Minutes: 30}); remaining != want {
		t.Errorf("got %+v, want %+v", remaining, want)
	}
	if !next.Equal(time.Date(2024, 1, 7, 0, 30, 0, 0, jst)) {
		t.Errorf("unexpected next airing %v", next)
	}

	if _, _, ok := Until(Spec{}, now); ok {
		t.Error("expected no countdown for an empty spec")
	}
}
