package interfaces

import (
	"context"

	domaintypes "ridecipher/internal/domain/types"
)

// RecordStore persists encrypted records on behalf of the transport layer.
// Implementations only ever see ciphertext, nonces and metadata.
type RecordStore interface {
	Append(ctx context.Context, rec domaintypes.EncryptedRecord) (string, error)
	List(ctx context.Context, ride domaintypes.RideID) ([]domaintypes.StoredRecord, error)
	DeleteRide(ctx context.Context, ride domaintypes.RideID) error
	Close() error
}
