// Package state provides the bounded, thread-safe item store behind every
// logger.
//
// # Overview
//
// Providers append log entries from their own goroutines while the UI reads
// on its refresh tick. Store mediates between them:
//
//	Producer (provider):           Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ receive line   │            │                 │
//	│      ↓         │            │                 │
//	│ store.Append() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render view    │
//	└────────────────┘            └─────────────────┘
//
// # Bounded Retention
//
// Store keeps at most its capacity of items in a ring. Appending past the
// capacity evicts the oldest item and counts it in Snapshot.Dropped, so memory
// stays O(capacity) no matter how chatty a provider is.
//
// # Snapshots
//
// Snapshot returns items oldest first in a freshly allocated slice. Callers may
// mutate the slice freely. Snapshot.Version changes on every Append and Reset,
// which lets views skip re-rendering unchanged content.
//
// The zero Store is ready to use and retains DefaultCapacity items.
package state
