// Package jikan is a retrying, caching client for the Jikan v4 REST API, the public MyAnimeList mirror.
//
// # Retries
//
// Every request is attempted up to [RetryPolicy.Attempts] times in total. Transport failures and any non-2xx
// status, rate limiting (429) included, are retried after an exponentially growing delay capped at
// [RetryPolicy.MaxDelay]. When the budget runs out the caller gets a [*FetchError], which matches
// [shared.ErrFetchFailed] under errors.Is. A well-formed response with no records is not retried and returns
// [shared.ErrEmptyResult].
//
// # Caching
//
// Successful, non-empty responses are stored in the configured [cache.Cache] under a normalized key, so a
// repeated search for "Frieren" and "  frieren " is served without touching the network. Random picks are never
// cached.
//
// # Rate limiting
//
// Requests share one token bucket limiter. Jikan allows about three requests per second per client.
package jikan
