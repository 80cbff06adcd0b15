package domain

import (
	interfaces "ridecipher/internal/domain/interfaces"
	types "ridecipher/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	SessionID       = types.SessionID
	RideID          = types.RideID
	Fingerprint     = types.Fingerprint
	Location        = types.Location
	EncryptedRecord = types.EncryptedRecord
	StoredRecord    = types.StoredRecord
	SessionState    = types.SessionState
	SessionInfo     = types.SessionInfo
	Handshake       = types.Handshake
	SessionSummary  = types.SessionSummary
	VaultStats      = types.VaultStats
)

// Session states re-exported from the types subpackage.
const (
	StateCreated = types.StateCreated
	StateActive  = types.StateActive
	StateExpired = types.StateExpired
	StateEnded   = types.StateEnded
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	EncryptionService = interfaces.EncryptionService
	RecordStore       = interfaces.RecordStore
	Observer          = interfaces.Observer
	GatewayClient     = interfaces.GatewayClient
)

// Float returns a pointer to v, for filling optional Location fields.
func Float(v float64) *float64 { return types.Float(v) }
