// Package db provides a standardized interface for key-value database implementations.
// It defines the KVDB interface that allows for consistent interaction with various
// database backends while abstracting implementation details.
//
// Key Components:
//
//   - KVDB Interface: The interface all engines satisfy. It provides basic operations
//     (Set, Get, Has, Delete), the conditional SetIfUnset used to claim unique keys,
//     metadata retrieval (GetInfo) and persistence (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature, so stores can refuse unsupported operations
//     with a proper error instead of failing silently.
//
//   - Database Information: DatabaseInfo reports size, key count, implementation type
//     and implementation-specific metadata.
//
// Write Index:
//
//	All write operations take a write index that serves as a logical timestamp. A write
//	carrying an index lower than the stored entry's index is ignored, which keeps replayed
//	or reordered writes from resurrecting old values. The database tracks the highest index
//	seen (WriteIdx) so a snapshot restores the clock together with the data.
//
// Engines:
//
//	The maple engine (github.com/ValentinKolb/kvmarket/lib/db/engines/maple) is the only
//	implementation. The conformance suite in lib/db/testing should be run against any new one.
package db
