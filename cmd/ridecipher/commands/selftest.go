package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/services/encryption"
	"ridecipher/internal/session"
	"ridecipher/internal/vault"
)

func selftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run key exchange and record round trips for every curve and suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, curve := range []crypto.Curve{crypto.CurveP256, crypto.CurveX25519} {
				for _, suite := range []session.Suite{session.SuiteAES256GCM, session.SuiteChaCha20Poly1305} {
					if err := roundTrip(ctx, curve, suite); err != nil {
						return fmt.Errorf("%s/%s: %w", curve, suite, err)
					}
					fmt.Printf("%-7s %-18s ok\n", curve, suite)
				}
			}
			return nil
		},
	}
}

// roundTrip plays both sides of one ride against an in-process manager.
func roundTrip(ctx context.Context, curve crypto.Curve, suite session.Suite) error {
	mgr := encryption.New(vault.New(vault.Options{Capacity: 1}), encryption.Options{Curve: curve, Suite: suite})
	defer mgr.Close(context.Background())

	kp, err := crypto.GenerateKeyPair(curve)
	if err != nil {
		return err
	}
	defer kp.Destroy()

	hs, err := mgr.CreateSession(ctx, "selftest", kp.PublicBytes())
	if err != nil {
		return err
	}
	if crypto.Fingerprint(hs.ServerPublicKey) != hs.Fingerprint {
		return errors.New("server key fingerprint mismatch")
	}
	key, err := kp.DeriveSharedKey(hs.ServerPublicKey)
	if err != nil {
		return err
	}
	local, err := session.New(hs.SessionID, hs.RideID, key, session.Options{Suite: suite})
	if err != nil {
		return err
	}
	defer local.End(time.Now())

	fix := domain.Location{Latitude: 6.5244, Longitude: 3.3792, Speed: domain.Float(11.2), Timestamp: time.Now()}
	rec, err := mgr.Encrypt(ctx, hs.SessionID, fix)
	if err != nil {
		return err
	}
	got, err := local.Decrypt(rec)
	if err != nil {
		return fmt.Errorf("client open: %w", err)
	}
	if got.Latitude != fix.Latitude || got.Longitude != fix.Longitude {
		return errors.New("client decrypted a different location")
	}

	up, err := local.Encrypt(fix)
	if err != nil {
		return err
	}
	if _, err := mgr.Decrypt(ctx, up); err != nil {
		return fmt.Errorf("server open: %w", err)
	}

	up.Sequence++
	if _, err := mgr.Decrypt(ctx, up); !errors.Is(err, domain.ErrDecryption) {
		return fmt.Errorf("tampered record accepted: %v", err)
	}

	if _, ok := mgr.EndSession(ctx, hs.SessionID); !ok {
		return errors.New("session vanished before end")
	}
	return nil
}
