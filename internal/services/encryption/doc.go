// Package encryption provides the Manager, the single entry point for
// per-ride location encryption.
//
// CreateSession runs an ephemeral ECDH exchange with the client, derives the
// session key, and parks the resulting session in a vault. Encrypt, Decrypt
// and EndSession look sessions up by id; an unknown or expired id yields
// domain.ErrSessionNotFound. Managers are plain values built by the caller;
// any number of them can coexist in one process.
package encryption
