package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyExchange is returned when a peer public key is malformed or not a
	// valid point on the negotiated curve. Retrying needs a new key pair.
	ErrKeyExchange = errors.New("key exchange failed")

	// ErrSessionNotFound is returned when a session id is unknown or was
	// reclaimed as expired at lookup time.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionInactive is returned when a session is already expired or
	// ended.
	ErrSessionInactive = errors.New("session inactive")

	// ErrDecryption is returned when AEAD authentication fails. It must be
	// treated as an integrity incident and never retried with the same input.
	ErrDecryption = errors.New("decryption failed")

	// ErrVaultFull is returned when the vault is at capacity and nothing
	// expired could be reclaimed.
	ErrVaultFull = errors.New("session vault full")

	// ErrVaultClosed is returned once the vault has been shut down.
	ErrVaultClosed = errors.New("session vault closed")

	// ErrDuplicateSession is returned when a session id is stored twice.
	ErrDuplicateSession = errors.New("duplicate session id")

	// ErrInvalidRecord is returned for location records that cannot be
	// encrypted (out of range or non-finite coordinates, missing timestamp).
	ErrInvalidRecord = errors.New("invalid location record")

	// ErrInvalidRide is returned for empty or oversized ride identifiers.
	ErrInvalidRide = errors.New("invalid ride id")
)

// SessionError decorates a sentinel with the operation and session involved.
type SessionError struct {
	Op        string
	SessionID SessionID
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Eviction reasons reported to Observer.SessionEvicted.
const (
	EvictExpired = "expired"
	EvictClosed  = "closed"
)

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) SessionCreated()       {}
func (NopObserver) SessionEnded()         {}
func (NopObserver) SessionEvicted(string) {}
func (NopObserver) Encrypted()            {}
func (NopObserver) Decrypted(bool)        {}
func (NopObserver) KeyExchangeFailed()    {}
func (NopObserver) VaultFull()            {}

var _ Observer = NopObserver{}
