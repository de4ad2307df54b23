package store

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// subscription pairs a listener with the id used to remove it.
type subscription struct {
	id       uint64
	listener Listener
}

// Registry is an ordered set of listeners.
//
// Listeners are notified in the order they subscribed. Registry does not
// buffer or replay: a listener only sees changes broadcast after it was added.
// The zero value is not usable; create one with [NewRegistry].
type Registry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
	logger *slog.Logger
}

// NewRegistry creates an empty [Registry]. A nil logger falls back to slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Subscribe appends l to the registry and returns a function that removes it.
//
// The returned function removes exactly this registration, even when the same
// function value was subscribed more than once, and is safe to call repeatedly.
func (r *Registry) Subscribe(l Listener) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription{id: id, listener: l})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *Registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			// copy rather than reslice in place so snapshots taken by
			// an in-flight broadcast keep their original contents
			next := make([]subscription, 0, len(r.subs)-1)
			next = append(next, r.subs[:i]...)
			r.subs = append(next, r.subs[i+1:]...)
			return
		}
	}
}

// Broadcast invokes every registered listener with value, in subscription order.
//
// The listener list is snapshotted first, so a listener may unsubscribe
// itself (or others) while being called.
func (r *Registry) Broadcast(value int) {
	r.mu.RLock()
	subs := r.subs
	r.mu.RUnlock()

	for _, s := range subs {
		r.invokeSafe(s.listener, value)
	}
}

// invokeSafe calls a listener with panic recovery.
// A panicking listener is logged with a correlation ID and skipped.
func (r *Registry) invokeSafe(l Listener, value int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("listener panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", rec),
				"value", value,
				"stack", string(debug.Stack()),
			)
		}
	}()
	l(value)
}
