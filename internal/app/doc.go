// Package app is the composition root of moor and hosts the engine that
// keeps the dashboard's state in sync with the daemon.
//
// # Overview
//
// Run connects to the daemon, builds the shared state.Store and the Engine,
// then runs the pollers and the UI as one errgroup. Quitting the UI cancels
// the group.
//
// # Engine
//
// The Engine is the only writer of published state. It runs:
//
//   - one poller per entity kind, each on its own interval
//   - a history worker that fetches layer history for the selected image
//   - the log stream controller, keyed by the selected container and its
//     filter
//
// Intents from the UI (Select, Move, SetFilter, PauseLogs, ResumeLogs) go
// through the Engine so that selection and filter changes are reflected in
// the log stream immediately rather than on the next tick.
//
// # Data Flow
//
//	poller tick ──> fetch ──> normalize ──> store.UpdateX (reconcile)
//	                                            │
//	                                            ├─> syncStream (containers)
//	                                            └─> requestHistory (images)
//
//	UI intent ──> store.Select / store.SetFilter ──> syncStream
//
//	syncStream: (selected container, filter) ──> logstream.Controller.Activate
//
// # Error Handling
//
// Fetch failures keep the previous snapshot and are recorded on the
// collection. They are logged at warn and retried on the next tick. Nothing
// in the engine ends the process.
package app
