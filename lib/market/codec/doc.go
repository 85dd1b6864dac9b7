// Package codec serializes the marketplace collections before they are written to the
// key-value store. Each store keeps one collection per key and re-encodes the whole
// collection on every change.
//
// Implementations:
//
//   - jsonCodecImpl: human readable, the default. The stored values can be inspected
//     with "kvmarket kv get <key>".
//
//   - gobCodecImpl: Go's gob format. Smaller for large carts and catalogs but only
//     readable by Go programs.
//
// Switching the serializer of an existing data file makes the old values unreadable;
// the stores report a decode error in that case.
//
// Thread Safety:
//
//	All codec implementations are stateless and safe for concurrent use.
package codec
