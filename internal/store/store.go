package store

// DefaultMax is the upper bound used when no explicit maximum is configured.
const DefaultMax = 15

// State is a point-in-time reading of the counter.
//
// State is the wire representation used by the snapshot and mutation
// endpoints.
type State struct {
	// Value is the current counter reading, always within [0, Max].
	Value int `json:"value"`

	// Max is the fixed upper bound of the counter.
	Max int `json:"max"`
}

// Listener receives the new counter value after every committed change.
//
// Listeners are invoked synchronously while the store holds its lock, so they
// must return quickly and must not call back into the store.
type Listener func(value int)

// Store defines the bounded counter and its change subscriptions.
//
// Store implementations must be safe for concurrent access. A change is only
// broadcast when the stored value actually moves; setting the current value
// again is a silent no-op.
type Store interface {
	// Get returns the current value.
	Get() int

	// Max returns the fixed upper bound.
	Max() int

	// Set clamps n into [0, Max] and stores it, notifying listeners if the
	// value changed. Non-finite input is treated as 0. Returns the stored value.
	Set(n float64) int

	// Increment adds delta to the current value (clamped) and returns the result.
	Increment(delta int) int

	// Decrement subtracts delta from the current value (clamped) and returns the result.
	Decrement(delta int) int

	// Subscribe registers a listener for future changes.
	// The returned function removes the listener; calling it more than once is a no-op.
	Subscribe(l Listener) (unsubscribe func())

	// Watch atomically reads the current value and registers a listener, so
	// no change can fall between the snapshot and the first notification.
	Watch(l Listener) (current int, unsubscribe func())
}
