// Package fstore implements a durable, single-node key-value store based on the
// store.IStore interface. It keeps the data in a db.KVDB engine and mirrors it to a
// snapshot file.
//
// Persistence Model:
//
//   - On open, the snapshot file (if present) is loaded with the engine's Load and the
//     write index continues from the highest index in the file.
//   - Every successful write (Set, a SetIfUnset that wrote, a Delete of an existing key)
//     rewrites the whole snapshot: the engine is saved to a temp file in the same
//     directory, synced, and renamed over the snapshot. A crash therefore leaves either
//     the old or the new snapshot, never a torn one.
//   - A failed snapshot returns store.RetCPersistenceError. The in-memory write has
//     already happened at that point and is visible to readers of this process.
//
// The whole collection is re-serialized on each change, which is the intended cost
// model: marketplace collections are small and written once per user action.
//
// Metrics:
//
//	Snapshot latency (timer "fstore.snapshot") and size (histogram
//	"fstore.snapshot.bytes") are recorded in a go-metrics registry.
package fstore
