// Package state provides thread-safe published state for the moor dashboard.
//
// # Overview
//
// The Store is the coordination point between the pollers, which write entity
// snapshots, and the presentation layer, which reads them. It holds, per
// entity kind, the latest snapshot paired with its reconciled selection, plus
// the per-container log filters and the history of the active image.
//
// # Architecture
//
//	Pollers (one per kind):          Consumer (UI):
//	┌──────────────────────┐        ┌────────────────────┐
//	│ fetch → normalize    │        │                    │
//	│      ↓               │        │                    │
//	│ store.UpdateX()      │───────→│ store.Snapshot()   │
//	│  (reconcile inside   │ (mutex)│      ↓             │
//	│   the write lock)    │        │ render             │
//	└──────────────────────┘        └────────────────────┘
//	                                  store.Changes() wakes the consumer
//
// # Update Semantics
//
// Reconciliation runs inside the write lock, so a reader never observes a
// snapshot paired with a selection computed against a different snapshot, and
// a user selection cannot interleave between the two.
//
//	// Success: replace the snapshot, reconcile the selection
//	store.UpdateContainers(items, nil)
//
//	// Failure: keep items and selection, record the error
//	store.UpdateContainers(nil, err)
//
// # Selections
//
// A selection is either empty or the key of an entity in the latest snapshot.
// Select rejects keys that are not in the snapshot with ErrUnknownEntity and
// accepts "" to clear.
//
// # Filters
//
// Filters are scoped to a container id and survive refreshes and selection
// changes, but live only in memory. SetFilter reports whether the value
// changed so callers can restart a log stream exactly once.
//
// # Notifications
//
// Changes returns a channel with a one-slot buffer. Writers never block on it
// and bursts of updates collapse into a single wake-up.
package state
