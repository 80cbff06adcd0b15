// Package vault keeps the live encryption sessions of one process.
//
// A Vault is a capacity-bounded map from session id to *session.Session.
// The map has its own RWMutex; every session carries its own mutex, so
// crypto on one session never blocks lookups of another. No session is
// locked while the vault lock is held; sessions are ended only after the
// vault lock has been released.
//
// Expired sessions are reclaimed three ways: lazily when Get finds them,
// eagerly when Store hits capacity, and periodically by the sweeper that
// Start launches. Close ends every remaining session and wipes its key.
package vault
