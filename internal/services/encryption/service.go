package encryption

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"

	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/session"
	"ridecipher/internal/vault"
)

// MaxRideIDLength bounds ride identifiers accepted by CreateSession.
const MaxRideIDLength = 128

// Options configures a Manager. Zero values fall back to P-256, AES-256-GCM
// and session.DefaultMaxAge.
type Options struct {
	Curve    crypto.Curve
	Suite    session.Suite
	MaxAge   time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
	Observer domain.Observer
}

// Manager orchestrates key exchange, session storage and per-record crypto.
type Manager struct {
	vault  *vault.Vault
	curve  crypto.Curve
	suite  session.Suite
	maxAge time.Duration
	now    func() time.Time
	log    *slog.Logger
	obs    domain.Observer
}

var _ domain.EncryptionService = (*Manager)(nil)

// New returns a Manager backed by v.
func New(v *vault.Vault, opts Options) *Manager {
	if opts.Curve == "" {
		opts.Curve = crypto.CurveP256
	}
	if opts.Suite == "" {
		opts.Suite = session.SuiteAES256GCM
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = session.DefaultMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Observer == nil {
		opts.Observer = domain.NopObserver{}
	}
	return &Manager{
		vault:  v,
		curve:  opts.Curve,
		suite:  opts.Suite,
		maxAge: opts.MaxAge,
		now:    opts.Now,
		log:    opts.Logger,
		obs:    opts.Observer,
	}
}

// Curve returns the ECDH curve clients must generate keys on.
func (m *Manager) Curve() crypto.Curve { return m.curve }

// Suite returns the AEAD suite new sessions use.
func (m *Manager) Suite() session.Suite { return m.suite }

// CreateSession agrees a key with the client's public key and registers a new
// session for ride. The server key pair is discarded once the key is derived.
func (m *Manager) CreateSession(
	ctx context.Context,
	ride domain.RideID,
	clientPublicKey []byte,
) (domain.Handshake, error) {
	const op = "create_session"
	if err := ctx.Err(); err != nil {
		return domain.Handshake{}, err
	}
	if err := validateRide(ride); err != nil {
		return domain.Handshake{}, &domain.SessionError{Op: op, Err: err}
	}

	kp, err := crypto.GenerateKeyPair(m.curve)
	if err != nil {
		return domain.Handshake{}, &domain.SessionError{Op: op, Err: err}
	}
	defer kp.Destroy()

	key, err := kp.DeriveSharedKey(clientPublicKey)
	if err != nil {
		m.obs.KeyExchangeFailed()
		m.log.Warn("session.key_exchange_failed",
			"ride_id", ride,
			"curve", string(m.curve),
			"client_key_len", len(clientPublicKey),
		)
		return domain.Handshake{}, &domain.SessionError{Op: op, Err: err}
	}

	now := m.now()
	id, err := newSessionID(now)
	if err != nil {
		key.Destroy()
		return domain.Handshake{}, &domain.SessionError{Op: op, Err: err}
	}

	s, err := session.New(id, ride, key, session.Options{Suite: m.suite, MaxAge: m.maxAge, Now: m.now})
	if err != nil {
		key.Destroy()
		return domain.Handshake{}, &domain.SessionError{Op: op, SessionID: id, Err: err}
	}
	if err := m.vault.Store(s); err != nil {
		s.End(now)
		return domain.Handshake{}, &domain.SessionError{Op: op, SessionID: id, Err: err}
	}

	serverPub := kp.PublicBytes()
	hs := domain.Handshake{
		SessionID:       id,
		RideID:          ride,
		ServerPublicKey: serverPub,
		Fingerprint:     crypto.Fingerprint(serverPub),
		ExpiresAt:       s.ExpiresAt(),
	}
	m.obs.SessionCreated()
	m.log.Info("session.created",
		"session_id", id,
		"ride_id", ride,
		"curve", string(m.curve),
		"suite", string(m.suite),
		"client_fp", crypto.Fingerprint(clientPublicKey),
		"server_fp", hs.Fingerprint,
		"expires_at", hs.ExpiresAt,
	)
	return hs, nil
}

// Encrypt seals loc under the session's key.
func (m *Manager) Encrypt(
	ctx context.Context,
	id domain.SessionID,
	loc domain.Location,
) (domain.EncryptedRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.EncryptedRecord{}, err
	}
	s, ok := m.vault.Get(id)
	if !ok {
		return domain.EncryptedRecord{}, &domain.SessionError{Op: "encrypt", SessionID: id, Err: domain.ErrSessionNotFound}
	}
	rec, err := s.Encrypt(loc)
	if err != nil {
		return domain.EncryptedRecord{}, err
	}
	m.obs.Encrypted()
	return rec, nil
}

// Decrypt opens rec with the key of the session named in rec.SessionID.
func (m *Manager) Decrypt(ctx context.Context, rec domain.EncryptedRecord) (domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return domain.Location{}, err
	}
	s, ok := m.vault.Get(rec.SessionID)
	if !ok {
		return domain.Location{}, &domain.SessionError{Op: "decrypt", SessionID: rec.SessionID, Err: domain.ErrSessionNotFound}
	}
	loc, err := s.Decrypt(rec)
	if err != nil {
		if errors.Is(err, domain.ErrDecryption) {
			m.obs.Decrypted(false)
			m.log.Warn("session.decrypt_failed",
				"session_id", rec.SessionID,
				"ride_id", s.RideID(),
				"sequence", rec.Sequence,
			)
		}
		return domain.Location{}, err
	}
	m.obs.Decrypted(true)
	return loc, nil
}

// EndSession terminates the session and wipes its key. It reports false when
// the id is unknown.
func (m *Manager) EndSession(ctx context.Context, id domain.SessionID) (domain.SessionSummary, bool) {
	summary, ok := m.vault.End(id)
	if !ok {
		return domain.SessionSummary{}, false
	}
	m.obs.SessionEnded()
	m.log.Info("session.ended",
		"session_id", id,
		"ride_id", summary.RideID,
		"use_count", summary.UseCount,
		"duration", summary.Duration.String(),
	)
	return summary, true
}

// Stats returns vault occupancy.
func (m *Manager) Stats() domain.VaultStats {
	return m.vault.Stats()
}

// Close shuts the vault down, ending every live session.
func (m *Manager) Close(ctx context.Context) error {
	return m.vault.Close(ctx)
}

func newSessionID(now time.Time) (domain.SessionID, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return domain.SessionID(id.String()), nil
}

func validateRide(ride domain.RideID) error {
	if ride == "" {
		return fmt.Errorf("%w: empty", domain.ErrInvalidRide)
	}
	if len(ride) > MaxRideIDLength {
		return fmt.Errorf("%w: longer than %d bytes", domain.ErrInvalidRide, MaxRideIDLength)
	}
	for _, r := range string(ride) {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", domain.ErrInvalidRide)
		}
	}
	return nil
}
