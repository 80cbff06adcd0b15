package interfaces

import (
	"context"

	domaintypes "ridecipher/internal/domain/types"
)

// EncryptionService is the inbound boundary of the encryption core.
type EncryptionService interface {
	CreateSession(
		ctx context.Context,
		ride domaintypes.RideID,
		clientPublicKey []byte,
	) (domaintypes.Handshake, error)
	Encrypt(
		ctx context.Context,
		id domaintypes.SessionID,
		loc domaintypes.Location,
	) (domaintypes.EncryptedRecord, error)
	Decrypt(
		ctx context.Context,
		rec domaintypes.EncryptedRecord,
	) (domaintypes.Location, error)
	EndSession(
		ctx context.Context,
		id domaintypes.SessionID,
	) (domaintypes.SessionSummary, bool)
	Stats() domaintypes.VaultStats
}
