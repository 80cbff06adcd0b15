package types

// SessionID identifies one encryption session. It is opaque to callers.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// RideID identifies the ride whose telemetry a session protects.
type RideID string

// String returns the string form of the ride identifier.
func (id RideID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys written to logs.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
