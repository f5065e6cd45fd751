// Package events implements the small cancellable-event-hook seam called
// for in §9's design notes: "emit an event value to a subscriber; if any
// subscriber marks it cancelled, skip the 'after' block; otherwise
// continue with possibly-modified fields." No global plugin machinery is
// needed for the core; a single synchronous dispatcher per named event
// point suffices.
package events

import "sync"

// Named event points the core dispatches. Callers outside this package may
// still define their own Name values for their own Dispatcher instances.
type Name string

const (
	GamemodeChange Name = "gamemode_change"
	Teleport       Name = "teleport"
	WorldChange    Name = "world_change"
)

// Event carries whatever payload a named hook point wants subscribers to
// see and possibly mutate, plus the shared cancellation flag.
type Event struct {
	Name      Name
	Payload   any
	Cancelled bool
}

// Cancel marks the event cancelled; the dispatcher's caller is expected to
// check Cancelled and skip its "after" block when set.
func (e *Event) Cancel() { e.Cancelled = true }

// Subscriber observes (and may mutate or cancel) an event.
type Subscriber func(*Event)

// Dispatcher holds subscribers per named event point and calls them in
// registration order, synchronously, on the calling goroutine.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[Name][]Subscriber
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[Name][]Subscriber)}
}

// Subscribe registers fn to be called whenever name fires.
func (d *Dispatcher) Subscribe(name Name, fn Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[name] = append(d.subs[name], fn)
}

// Fire builds an Event for name/payload, runs every subscriber in order,
// and returns the (possibly mutated, possibly cancelled) event.
func (d *Dispatcher) Fire(name Name, payload any) *Event {
	d.mu.RLock()
	subs := append([]Subscriber(nil), d.subs[name]...)
	d.mu.RUnlock()

	ev := &Event{Name: name, Payload: payload}
	for _, sub := range subs {
		sub(ev)
	}
	return ev
}
