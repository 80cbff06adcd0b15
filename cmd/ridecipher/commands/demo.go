package commands

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/session"
)

// demo drives a gateway the way a rider's device would: key exchange, a
// short stream of fixes, a local check that each record opens with the
// client-side key, then the end of the ride.
func demoCmd() *cobra.Command {
	var (
		ride   string
		points int
		curve  string
		suite  string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Stream synthetic locations through a running gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if client == nil {
				return fmt.Errorf("no gateway configured. use --gateway")
			}
			c, err := crypto.ParseCurve(curve)
			if err != nil {
				return err
			}
			s, err := session.ParseSuite(suite)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			kp, err := crypto.GenerateKeyPair(c)
			if err != nil {
				return err
			}
			defer kp.Destroy()

			hs, err := client.CreateSession(ctx, domain.RideID(ride), kp.PublicBytes())
			if err != nil {
				return err
			}
			if crypto.Fingerprint(hs.ServerPublicKey) != hs.Fingerprint {
				return errors.New("gateway key does not match its fingerprint")
			}
			fmt.Printf("session %s  server key %s  expires %s\n", hs.SessionID, hs.Fingerprint, hs.ExpiresAt.Format(time.RFC3339))

			key, err := kp.DeriveSharedKey(hs.ServerPublicKey)
			if err != nil {
				return err
			}
			local, err := session.New(hs.SessionID, hs.RideID, key, session.Options{Suite: s})
			if err != nil {
				return err
			}
			defer local.End(time.Now())

			start := time.Now()
			for i := 0; i < points; i++ {
				fix := syntheticFix(i, start)
				rec, err := client.Encrypt(ctx, hs.SessionID, fix)
				if err != nil {
					return err
				}
				got, err := local.Decrypt(rec)
				if err != nil {
					return fmt.Errorf("record %d: %w", rec.Sequence, err)
				}
				fmt.Printf("#%d  %d bytes  %.5f,%.5f\n", rec.Sequence, len(rec.Ciphertext), got.Latitude, got.Longitude)
			}

			sum, err := client.EndSession(ctx, hs.SessionID)
			if err != nil {
				return err
			}
			fmt.Printf("ended: %d operations over %s\n", sum.UseCount, sum.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&ride, "ride", "demo-ride", "ride id")
	cmd.Flags().IntVar(&points, "points", 5, "number of fixes to send")
	cmd.Flags().StringVar(&curve, "curve", string(crypto.CurveP256), "ECDH curve the gateway uses")
	cmd.Flags().StringVar(&suite, "suite", string(session.SuiteAES256GCM), "cipher suite the gateway uses")
	return cmd
}

// syntheticFix walks a small circle around Lagos.
func syntheticFix(i int, start time.Time) domain.Location {
	theta := float64(i) * math.Pi / 18
	return domain.Location{
		Latitude:  6.5244 + 0.01*math.Sin(theta),
		Longitude: 3.3792 + 0.01*math.Cos(theta),
		Speed:     domain.Float(9.5),
		Bearing:   domain.Float(math.Mod(90+float64(i)*10, 360)),
		Timestamp: start.Add(time.Duration(i) * time.Second),
	}
}
