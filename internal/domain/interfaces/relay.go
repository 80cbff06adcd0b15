package interfaces

import (
	"context"

	domaintypes "ridecipher/internal/domain/types"
)

// GatewayClient is how a telemetry producer talks to the encryption gateway.
type GatewayClient interface {
	CreateSession(ctx context.Context, ride domaintypes.RideID, clientPublicKey []byte) (domaintypes.Handshake, error)
	Encrypt(ctx context.Context, id domaintypes.SessionID, loc domaintypes.Location) (domaintypes.EncryptedRecord, error)
	Decrypt(ctx context.Context, rec domaintypes.EncryptedRecord) (domaintypes.Location, error)
	EndSession(ctx context.Context, id domaintypes.SessionID) (domaintypes.SessionSummary, error)
	Stats(ctx context.Context) (domaintypes.VaultStats, error)
}
