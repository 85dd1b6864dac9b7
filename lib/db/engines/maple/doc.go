// Package maple implements an in-memory key-value database (KVDB) with sharded,
// concurrent access and a compact binary snapshot format. It is the engine behind both
// the local and the file-backed stores.
//
// Key Components:
//
//   - mapleImpl: The database structure implementing db.KVDB. It owns the shards and a
//     monotonically increasing write index. The database does not generate write indices
//     itself, the caller (a store) does.
//
//   - Shard: A partition of the key space backed by an xsync.MapOf keyed by the string
//     key. A seeded FNV-1a hash, right-shifted by 7 bits, only selects the shard, so two
//     keys with the same hash never share an entry.
//
//   - Entry: Stores the key, the value and the write index of the last update.
//
// Stale Write Prevention:
//
//	A write is only applied if its write index is greater than or equal to the stored
//	index of the entry, checked atomically inside xsync's Compute.
//
// Persistence Format:
//
//  1. Magic number "MAPLEDB\x00"
//  2. Version byte (currently 4)
//  3. Number of entries (uint64)
//  4. For each entry: key length (uint32), key, write index (uint64), value length (uint32), value
//
// All integers are little endian. Save takes a fuzzy snapshot without stopping writers;
// Load builds new shards and only swaps them in once the whole file has been read.
package maple
