// Package tasks orchestrates watch list operations against the Jikan API with real-time progress reporting.
//
// # Core Operations
//
// The [Tracker] interface defines three operations:
//
//  1. [Tracker.Upcoming] : Next airing for every entry being watched
//     - Looks up each entry's broadcast slot concurrently (by MyAnimeList id, else by title)
//     - Stores changed slots back on the entry
//     - Falls back to the stored slot when a lookup fails
//     - Returns entries soonest first, unscheduled entries last
//
//  2. [Tracker.Add] : Add an anime by id or title
//     - Numeric queries fetch the full record, anything else takes the best search match
//     - Copies title, cover and broadcast slot onto the new entry
//
//  3. [Tracker.Export] : Write the watch list as JSON, CSV, Markdown or text
//     - Optionally downloads cover images with [WatchEngine.DownloadCovers]
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [WatchEngine] implements [Tracker] with dependencies on:
//   - [AnimeSource] : the Jikan client
//   - [WatchlistStore] : the SQLite watch list repository
//   - a clockwork clock, so resolution happens at one frozen instant per run
package tasks
