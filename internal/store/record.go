package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ridecipher/internal/domain"
)

// ErrStoreUnavailable wraps backend failures.
var ErrStoreUnavailable = errors.New("record store unavailable")

func newStoredRecord(rec domain.EncryptedRecord, now time.Time) (domain.StoredRecord, error) {
	if rec.RideID == "" || rec.SessionID == "" {
		return domain.StoredRecord{}, fmt.Errorf("%w: record needs session and ride ids", domain.ErrInvalidRecord)
	}
	if len(rec.Ciphertext) == 0 || len(rec.Nonce) == 0 {
		return domain.StoredRecord{}, fmt.Errorf("%w: empty ciphertext or nonce", domain.ErrInvalidRecord)
	}
	return domain.StoredRecord{
		ID:       uuid.NewString(),
		StoredAt: now.UTC(),
		Record:   rec,
	}, nil
}
