// package countdown keeps live airing countdowns up to date.
//
// A [Presenter] re-evaluates one broadcast slot every second from the absolute clock reading and publishes
// the resulting [State]. A [Board] runs one presenter per displayed key and fans their states into a single
// channel for UIs.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/anitrack/internal/broadcast"
)

// Interval is the countdown refresh period.
const Interval = time.Second

// NoSchedule is rendered when a slot cannot be resolved.
const NoSchedule = "No airing schedule available"

// State is one evaluation of a countdown.
type State struct {
	Spec      broadcast.Spec
	Available bool
	Remaining broadcast.Remaining
	Next      time.Time
	At        time.Time
}

// String renders the state as "Next episode in: 1d 01h 01m 01s" or [NoSchedule].
func (s State) String() string {
	if !s.Available {
		return NoSchedule
	}
	return "Next episode in: " + s.Remaining.String()
}

// Evaluate computes the countdown for spec at now.
func Evaluate(spec broadcast.Spec, now time.Time) State {
	state := State{Spec: spec, At: now}
	remaining, next, ok := broadcast.Until(spec, now)
	if !ok {
		return state
	}
	state.Available = true
	state.Remaining = remaining
	state.Next = next
	return state
}

// Presenter publishes a fresh [State] for one broadcast slot on every tick.
type Presenter struct {
	spec     broadcast.Spec
	clock    clockwork.Clock
	interval time.Duration
	publish  func(State)
}

// NewPresenter creates a [Presenter] for spec. A nil clock uses the real clock.
func NewPresenter(spec broadcast.Spec, clock clockwork.Clock, publish func(State)) *Presenter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Presenter{spec: spec, clock: clock, interval: Interval, publish: publish}
}

// Start publishes the current state and then one state per tick until ctx is done or the handle is stopped.
//
// The first state is published before Start returns.
func (p *Presenter) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	ticker := p.clock.NewTicker(p.interval)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	p.publish(Evaluate(p.spec, p.clock.Now()))

	go func() {
		defer close(h.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if ctx.Err() != nil {
					return
				}
				p.publish(Evaluate(p.spec, p.clock.Now()))
			}
		}
	}()

	return h
}

// Handle controls a running [Presenter].
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the tick and waits for the loop to exit. Nothing is published after Stop returns.
// It is safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
