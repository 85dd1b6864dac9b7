// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation that
// manages the write index with an atomic counter and refuses operations the engine
// does not support with store.RetCUnsupportedOperation.
//
// Data is not persisted between process restarts; use fstore for that.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s := lstore.NewLocalStore(factory)
//
//	err := s.Set("products", payload)
//	value, exists, err := s.Get("products")
package lstore
