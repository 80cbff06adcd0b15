package types

import "time"

// EncryptedRecord is the unit exchanged for one location fix. The whole tuple
// is what a persistence collaborator stores and later hands back for
// decryption.
//
// Sequence is the session use count at sealing time. It is bound into the
// associated data and must travel with the record unchanged.
type EncryptedRecord struct {
	Ciphertext []byte    `json:"ciphertext"`
	Nonce      []byte    `json:"nonce"`
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  SessionID `json:"session_id"`
	RideID     RideID    `json:"ride_id"`
}

// StoredRecord is an EncryptedRecord as returned by a RecordStore.
type StoredRecord struct {
	ID       string          `json:"id"`
	StoredAt time.Time       `json:"stored_at"`
	Record   EncryptedRecord `json:"record"`
}
