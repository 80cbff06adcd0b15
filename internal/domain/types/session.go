package types

import "time"

// SessionState is the lifecycle position of an encryption session.
type SessionState int

const (
	// StateCreated is a session that has not encrypted or decrypted yet.
	StateCreated SessionState = iota
	// StateActive is a session that has been used at least once.
	StateActive
	// StateExpired is a session whose age exceeded its max age.
	StateExpired
	// StateEnded is a session that was terminated and had its key wiped.
	StateEnded
)

// String returns the lowercase name of the state.
func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Usable reports whether encrypt/decrypt is permitted in this state.
func (s SessionState) Usable() bool { return s == StateCreated || s == StateActive }

// SessionInfo is a point-in-time view of a session. It never carries key
// material.
type SessionInfo struct {
	SessionID  SessionID     `json:"session_id"`
	RideID     RideID        `json:"ride_id"`
	State      string        `json:"state"`
	CreatedAt  time.Time     `json:"created_at"`
	LastUsedAt time.Time     `json:"last_used_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	UseCount   uint64        `json:"use_count"`
	Age        time.Duration `json:"age"`
}

// Handshake is returned to the client after key agreement.
type Handshake struct {
	SessionID       SessionID   `json:"session_id"`
	RideID          RideID      `json:"ride_id"`
	ServerPublicKey []byte      `json:"server_public_key"`
	Fingerprint     Fingerprint `json:"fingerprint"`
	ExpiresAt       time.Time   `json:"expires_at"`
}

// SessionSummary is the final accounting for an ended session.
type SessionSummary struct {
	SessionID SessionID     `json:"session_id"`
	RideID    RideID        `json:"ride_id"`
	EndedAt   time.Time     `json:"ended_at"`
	UseCount  uint64        `json:"use_count"`
	Duration  time.Duration `json:"duration"`
}

// VaultStats describes vault occupancy.
type VaultStats struct {
	Total              int     `json:"total_sessions"`
	Active             int     `json:"active_sessions"`
	Expired            int     `json:"expired_sessions"`
	Capacity           int     `json:"capacity"`
	UtilizationPercent float64 `json:"utilization_percent"`
}
