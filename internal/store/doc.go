// Package store persists encrypted location records.
//
// It contains the implementations of domain.RecordStore:
//   - RedisRecordStore keeps each ride's records in a Redis list whose TTL is
//     refreshed on every append.
//   - FileRecordStore keeps one JSON file per ride, rewritten atomically.
//
// Stores only ever see ciphertext, nonces and metadata. Session keys never
// reach this package.
package store
