package countdown

import (
	"context"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/anitrack/internal/broadcast"
)

// Update is a [State] published for one board key.
type Update struct {
	Key   string
	State State
	gen   uint64
}

type slot struct {
	spec   broadcast.Spec
	gen    uint64
	handle *Handle
}

// Board runs at most one [Presenter] per key and merges their states into one channel.
//
// Sends never block: when the consumer falls behind an update is dropped and the next tick replaces it.
type Board struct {
	clock   clockwork.Clock
	updates chan Update

	mu     sync.Mutex
	slots  map[string]*slot
	gen    uint64
	closed bool
}

// NewBoard creates a [Board] whose update channel holds up to buffer pending states.
func NewBoard(clock clockwork.Clock, buffer int) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Board{
		clock:   clock,
		updates: make(chan Update, buffer),
		slots:   make(map[string]*slot),
	}
}

// Updates returns the merged state channel. It is closed by [Board.Close].
func (b *Board) Updates() <-chan Update {
	return b.updates
}

// Show starts a countdown for key. An identical spec keeps the running countdown, a different one replaces it.
// It reports whether a new countdown was started.
func (b *Board) Show(key string, spec broadcast.Spec) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if current, ok := b.slots[key]; ok {
		if current.spec == spec {
			return false
		}
		current.handle.Stop()
	}

	b.gen++
	gen := b.gen
	p := NewPresenter(spec, b.clock, func(s State) {
		select {
		case b.updates <- Update{Key: key, State: s, gen: gen}:
		default:
		}
	})
	b.slots[key] = &slot{spec: spec, gen: gen, handle: p.Start(context.Background())}
	return true
}

// Retain stops every countdown whose key is not in keys.
func (b *Board) Retain(keys []string) {
	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		keep[k] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for k, s := range b.slots {
		if !keep[k] {
			s.handle.Stop()
			delete(b.slots, k)
		}
	}
}

// Live reports whether u came from the countdown currently shown for its key.
// Updates already buffered for a removed or replaced countdown are not live.
func (b *Board) Live(u Update) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[u.Key]
	return ok && s.gen == u.gen
}

// Keys lists the keys with a running countdown in sorted order.
func (b *Board) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.slots))
	for k := range b.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close stops every countdown and closes the update channel.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for k, s := range b.slots {
		s.handle.Stop()
		delete(b.slots, k)
	}
	close(b.updates)
}
