// Package broadcast resolves weekly broadcast slots into absolute airing instants.
//
// A [Spec] carries the raw weekday, time-of-day and timezone strings reported by the metadata provider
// (for example "Sundays", "00:30 (JST)", "Asia/Tokyo"). [Resolve] maps a Spec and the current instant to the
// next airing instant strictly after now, working in a fixed-offset frame so the host's local zone never leaks
// into the arithmetic. Malformed or missing fields are not errors: Resolve reports false and callers render
// a neutral "no schedule" state.
//
// [Decompose] splits a positive duration into the whole days, hours, minutes and seconds shown by countdowns.
package broadcast
