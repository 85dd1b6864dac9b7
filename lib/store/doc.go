// Package store provides a high-level interface for key-value storage operations
// with unified error handling. It serves as an abstraction layer over the lower-level
// db.KVDB implementations and manages the write index on behalf of the caller.
//
// Key Components:
//
//   - IStore Interface: The abstraction the marketplace stores are written against.
//     Values are opaque byte slices, keys are plain strings (e.g. "products",
//     "cart:<account id>").
//
//   - Error System: *Error carries a RetCode and a message, so callers can tell an
//     unsupported operation from a failed persistence write.
//
//   - DBFactory: A function type that abstracts the creation of the underlying
//     db.KVDB instance.
//
// Implementations:
//
//   - Local Store (lstore): in-memory, lost on exit. Used by tests and the
//     "memory" backend.
//
//   - File Store (fstore): loads a snapshot file on open and rewrites it atomically
//     after every successful write, so state survives process restarts.
package store
