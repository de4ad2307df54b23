package store

import (
	"log/slog"
	"math"
	"sync"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore holds a single integer in [0, max] for the lifetime of the
// process. Every mutation runs its read, clamp, compare, assign and notify
// steps under one mutex, so observers never see a torn update and listeners
// receive transitions in the order they were committed.
//
// Listeners run inside that critical section. They must not block and must
// not call back into the store; queue the work instead.
type MemoryStore struct {
	mu       sync.Mutex
	value    int
	max      int
	registry *Registry
}

// NewMemoryStore creates a [MemoryStore] starting at 0 with the given upper bound.
//
// A max below 1 falls back to [DefaultMax]. A nil logger falls back to
// slog.Default(); it is used to report listener panics.
func NewMemoryStore(max int, logger *slog.Logger) *MemoryStore {
	if max < 1 {
		max = DefaultMax
	}
	return &MemoryStore{
		max:      max,
		registry: NewRegistry(logger),
	}
}

// Get returns the current value.
func (m *MemoryStore) Get() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Max returns the fixed upper bound.
func (m *MemoryStore) Max() int {
	return m.max
}

// Set stores n after normalizing it into [0, max].
//
// NaN and infinities become 0, values are clamped and then rounded to the
// nearest integer. Listeners are only notified when the stored value changes.
func (m *MemoryStore) Set(n float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(n)
}

// Increment adds delta to the current value. The result is clamped.
func (m *MemoryStore) Increment(delta int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(float64(m.value) + float64(delta))
}

// Decrement subtracts delta from the current value. The result is clamped.
func (m *MemoryStore) Decrement(delta int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(float64(m.value) - float64(delta))
}

// Subscribe registers l for future changes.
func (m *MemoryStore) Subscribe(l Listener) func() {
	// taking the store lock orders the registration against in-flight
	// mutations: l sees every change committed after Subscribe returns
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Subscribe(l)
}

// Watch returns the current value and registers l in one critical section.
func (m *MemoryStore) Watch(l Listener) (int, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.registry.Subscribe(l)
}

// Listeners returns the number of registered listeners.
func (m *MemoryStore) Listeners() int {
	return m.registry.Len()
}

func (m *MemoryStore) setLocked(n float64) int {
	v := m.clamp(n)
	if v == m.value {
		return m.value
	}
	m.value = v
	m.registry.Broadcast(v)
	return v
}

// clamp maps any float onto the valid integer range.
func (m *MemoryStore) clamp(n float64) int {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	n = math.Max(0, math.Min(float64(m.max), n))
	return int(math.Round(n))
}
