package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ridecipher/internal/access"
	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/gateway"
	"ridecipher/internal/metrics"
	"ridecipher/internal/services/encryption"
	"ridecipher/internal/session"
	"ridecipher/internal/store"
	"ridecipher/internal/vault"
)

// Wire bundles the vault, the manager, the record sink and the gateway.
type Wire struct {
	Metrics  *metrics.Metrics
	Vault    *vault.Vault
	Manager  *encryption.Manager
	Records  domain.RecordStore // nil when persistence is off
	Verifier *access.TokenVerifier
	Gateway  *gateway.Server
}

// NewWire constructs the dependency graph from cfg. The sweeper is not
// started; callers own that lifecycle.
func NewWire(ctx context.Context, cfg Config, log *slog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	curve, _ := crypto.ParseCurve(cfg.Curve)
	suite, _ := session.ParseSuite(cfg.CipherSuite)

	m := metrics.New()
	v := vault.New(vault.Options{
		Capacity:      cfg.VaultCapacity,
		SweepInterval: cfg.SweepInterval,
		Logger:        log,
		Observer:      m,
	})
	mgr := encryption.New(v, encryption.Options{
		Curve:    curve,
		Suite:    suite,
		MaxAge:   cfg.SessionMaxAge,
		Logger:   log,
		Observer: m,
	})
	m.WatchVault(mgr.Stats)

	records, err := newRecordStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var verifier *access.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier, err = access.NewTokenVerifier([]byte(cfg.JWTSecret), 0)
		if err != nil {
			if records != nil {
				_ = records.Close()
			}
			return nil, err
		}
	} else {
		log.Warn("auth.disabled", "reason", "no jwt secret")
	}

	gw := gateway.New(gateway.Options{
		Service:     mgr,
		Records:     records,
		Verifier:    verifier,
		Metrics:     m,
		Logger:      log,
		CreateRate:  cfg.CreateRate,
		CreateBurst: cfg.CreateBurst,
	})

	return &Wire{
		Metrics:  m,
		Vault:    v,
		Manager:  mgr,
		Records:  records,
		Verifier: verifier,
		Gateway:  gw,
	}, nil
}

func newRecordStore(ctx context.Context, cfg Config, log *slog.Logger) (domain.RecordStore, error) {
	switch {
	case cfg.RedisURL != "":
		rs, err := store.OpenRedis(ctx, cfg.RedisURL, cfg.RecordTTL)
		if err != nil {
			return nil, fmt.Errorf("record store: %w", err)
		}
		log.Info("records.enabled", "backend", "redis", "ttl", cfg.RecordTTL.String())
		return rs, nil
	case cfg.RecordDir != "":
		fs, err := store.NewFileRecordStore(cfg.RecordDir)
		if err != nil {
			return nil, fmt.Errorf("record store: %w", err)
		}
		log.Info("records.enabled", "backend", "file", "dir", cfg.RecordDir)
		return fs, nil
	default:
		log.Info("records.disabled")
		return nil, nil
	}
}

// Close ends every live session and releases the record store.
func (w *Wire) Close(ctx context.Context) error {
	err := w.Manager.Close(ctx)
	if w.Records != nil {
		err = errors.Join(err, w.Records.Close())
	}
	return err
}
