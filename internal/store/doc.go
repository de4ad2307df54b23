// Package store provides the bounded counter and its change subscriptions.
//
// This package is internal to FearBoard and owns the single source of truth
// for the fear value. It implements a publish-subscribe pattern so connected
// displays can follow every change in real time.
//
// The main components are:
//
//   - [Store]: Interface defining the counter and subscription operations
//   - [MemoryStore]: In-memory implementation of Store, guarded by a mutex
//   - [Registry]: Ordered listener set with idempotent unsubscribe
//   - [State]: JSON representation of the counter ({value, max})
//
// Listeners are called synchronously on every committed change and only on
// actual transitions: setting the value it already holds notifies nobody.
// Listeners must be non-blocking; the live feed hands values to a per-connection
// queue and returns immediately.
//
// Users of the fearboard library should not need to interact with this
// package directly. The store is owned by [fearboard.FearBoard].
package store
