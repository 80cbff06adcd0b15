package gateway

import (
	"fmt"
	"time"

	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
)

// CreateSessionRequest starts a key exchange.
type CreateSessionRequest struct {
	RideID          string `json:"ride_id"`
	ClientPublicKey string `json:"client_public_key"`
}

// HandshakeResponse completes a key exchange.
type HandshakeResponse struct {
	SessionID       string    `json:"session_id"`
	RideID          string    `json:"ride_id"`
	ServerPublicKey string    `json:"server_public_key"`
	Fingerprint     string    `json:"fingerprint"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// EncryptRequest carries one location fix.
type EncryptRequest struct {
	Location domain.Location `json:"location"`
}

// Record is the wire form of an encrypted record.
type Record struct {
	ID         string     `json:"id,omitempty"`
	StoredAt   *time.Time `json:"stored_at,omitempty"`
	Ciphertext string     `json:"ciphertext"`
	Nonce      string     `json:"nonce"`
	Sequence   uint64     `json:"sequence"`
	Timestamp  time.Time  `json:"timestamp"`
	SessionID  string     `json:"session_id"`
	RideID     string     `json:"ride_id"`
}

// DecryptRequest carries what is needed to open a record of the session in
// the URL.
type DecryptRequest struct {
	Ciphertext string    `json:"ciphertext"`
	Nonce      string    `json:"nonce"`
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	RideID     string    `json:"ride_id,omitempty"`
}

// FinalStats summarises an ended session.
type FinalStats struct {
	UseCount        uint64  `json:"use_count"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// EndSessionResponse is returned by DELETE /v1/sessions/{id}.
type EndSessionResponse struct {
	SessionID  string     `json:"session_id"`
	EndedAt    time.Time  `json:"ended_at"`
	FinalStats FinalStats `json:"final_stats"`
}

// RecordList is returned by GET /v1/rides/{ride}/records.
type RecordList struct {
	RideID  string   `json:"ride_id"`
	Records []Record `json:"records"`
}

// EncodeRecord converts a domain record to its wire form.
func EncodeRecord(rec domain.EncryptedRecord) Record {
	return Record{
		Ciphertext: crypto.B64(rec.Ciphertext),
		Nonce:      crypto.B64(rec.Nonce),
		Sequence:   rec.Sequence,
		Timestamp:  rec.Timestamp,
		SessionID:  string(rec.SessionID),
		RideID:     string(rec.RideID),
	}
}

// Decode converts the wire form back to a domain record.
func (r Record) Decode() (domain.EncryptedRecord, error) {
	return DecryptRequest{
		Ciphertext: r.Ciphertext,
		Nonce:      r.Nonce,
		Sequence:   r.Sequence,
		Timestamp:  r.Timestamp,
		RideID:     r.RideID,
	}.Decode(domain.SessionID(r.SessionID))
}

// Decode builds the domain record for session id.
func (d DecryptRequest) Decode(id domain.SessionID) (domain.EncryptedRecord, error) {
	ct, err := crypto.FromB64(d.Ciphertext)
	if err != nil {
		return domain.EncryptedRecord{}, fmt.Errorf("%w: ciphertext: %v", ErrMalformed, err)
	}
	nonce, err := crypto.FromB64(d.Nonce)
	if err != nil {
		return domain.EncryptedRecord{}, fmt.Errorf("%w: nonce: %v", ErrMalformed, err)
	}
	return domain.EncryptedRecord{
		Ciphertext: ct,
		Nonce:      nonce,
		Sequence:   d.Sequence,
		Timestamp:  d.Timestamp,
		SessionID:  id,
		RideID:     domain.RideID(d.RideID),
	}, nil
}

// EncodeHandshake converts a handshake to its wire form.
func EncodeHandshake(hs domain.Handshake) HandshakeResponse {
	return HandshakeResponse{
		SessionID:       string(hs.SessionID),
		RideID:          string(hs.RideID),
		ServerPublicKey: crypto.B64(hs.ServerPublicKey),
		Fingerprint:     string(hs.Fingerprint),
		ExpiresAt:       hs.ExpiresAt,
	}
}

// EncodeSummary converts a session summary to its wire form.
func EncodeSummary(s domain.SessionSummary) EndSessionResponse {
	return EndSessionResponse{
		SessionID: string(s.SessionID),
		EndedAt:   s.EndedAt,
		FinalStats: FinalStats{
			UseCount:        s.UseCount,
			DurationSeconds: s.Duration.Seconds(),
		},
	}
}
