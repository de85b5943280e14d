// Package models defines domain entities and persistence interfaces for the anitrack watch list.
//
// Persistent entities:
//   - [WatchEntry] : one anime on a user's list with progress, score, dates and its broadcast slot
//
// Value types:
//   - [Status] : the list state of an entry (Watching, Completed, On-Hold, Dropped, Plan to Watch)
//   - [ScoreSummary] : the average score given to a title across all users
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations and [Watchlist] adds the per-user lookups
// the tracker needs.
package models
