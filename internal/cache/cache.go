// package cache stores provider responses for a bounded time-to-live.
//
// Three backends share the [Cache] interface: [Memory] for a single process, the SQLite-backed
// response cache in the repositories package for persistence across runs, and [Redis] for a cache shared by
// several processes. All of them are safe for concurrent use and resolve concurrent writes to the same key as
// last-write-wins.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long cached responses stay fresh unless configured otherwise.
const DefaultTTL = 10 * time.Minute

// Cache is a key/value store for encoded responses with expiry.
//
// Get reports a miss with ok == false and a nil error. Expired entries are misses.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Stats counts lookups served by a cache.
type Stats struct {
	Hits   int
	Misses int
}

// Nop never stores anything. Every Get is a miss.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }

var _ Cache = Nop{}
