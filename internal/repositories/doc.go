// Package repositories implements SQLite persistence for the watch list and the provider response cache.
//
// Key Implementations:
//   - [WatchlistRepository] : per-user watch list entries with status and title filters, broadcast refresh and score aggregation
//   - [ResponseCacheRepository] : a [cache.Cache] that keeps Jikan responses across runs
//
// Watch entries are soft-deleted via deleted_at timestamps and excluded from queries by default.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables,
// giving entries a stable, human-readable order independent of UUIDs and creation timestamps.
package repositories
