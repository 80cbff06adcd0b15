package session

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
)

// DefaultMaxAge applies when Options.MaxAge is not set.
const DefaultMaxAge = 24 * time.Hour

// maxSeals caps messages per key so random 96-bit nonces stay far from the
// birthday bound.
const maxSeals = 1 << 32

// Options tunes a Session. The zero value is usable.
type Options struct {
	Suite  Suite
	MaxAge time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Session is one ride's encryption context.
type Session struct {
	id        domain.SessionID
	ride      domain.RideID
	suite     Suite
	maxAge    time.Duration
	now       func() time.Time
	createdAt time.Time

	mu         sync.Mutex
	key        *crypto.SecretKey
	aead       cipher.AEAD
	state      domain.SessionState
	lastUsedAt time.Time
	useCount   uint64
}

// New wraps key in an AEAD and returns a session in the created state. The
// session takes ownership of key and destroys it on End.
func New(id domain.SessionID, ride domain.RideID, key *crypto.SecretKey, opts Options) (*Session, error) {
	if id == "" || ride == "" {
		return nil, fmt.Errorf("session: id and ride are required")
	}
	if key == nil || key.Len() != crypto.SessionKeySize {
		return nil, fmt.Errorf("session: key must be %d bytes", crypto.SessionKeySize)
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Suite == "" {
		opts.Suite = SuiteAES256GCM
	}

	var aead cipher.AEAD
	err := key.Use(func(k []byte) error {
		var err error
		aead, err = opts.Suite.newAEAD(k)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	now := opts.Now().UTC()
	return &Session{
		id:         id,
		ride:       ride,
		suite:      opts.Suite,
		maxAge:     opts.MaxAge,
		now:        opts.Now,
		createdAt:  now,
		key:        key,
		aead:       aead,
		state:      domain.StateCreated,
		lastUsedAt: now,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() domain.SessionID { return s.id }

// RideID returns the ride the session protects.
func (s *Session) RideID() domain.RideID { return s.ride }

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// ExpiresAt returns the instant after which the session is expired.
func (s *Session) ExpiresAt() time.Time { return s.createdAt.Add(s.maxAge) }

// Suite returns the AEAD suite in use.
func (s *Session) Suite() Suite { return s.suite }

// Encrypt seals one location fix.
func (s *Session) Encrypt(loc domain.Location) (domain.EncryptedRecord, error) {
	if err := validateLocation(loc); err != nil {
		return domain.EncryptedRecord{}, s.fail("encrypt", err)
	}
	ts := loc.Timestamp.UTC()
	plaintext := encodeLocation(loc)
	defer crypto.Wipe(plaintext)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if err := s.usableLocked(now); err != nil {
		return domain.EncryptedRecord{}, s.fail("encrypt", err)
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return domain.EncryptedRecord{}, s.fail("encrypt", err)
	}
	seq := s.useCount
	ct := s.aead.Seal(nil, nonce, plaintext, associatedData(s.id, s.ride, seq, ts))
	s.touchLocked(now)

	return domain.EncryptedRecord{
		Ciphertext: ct,
		Nonce:      nonce,
		Sequence:   seq,
		Timestamp:  ts,
		SessionID:  s.id,
		RideID:     s.ride,
	}, nil
}

// Decrypt opens a record sealed by this session. Any authentication failure
// returns domain.ErrDecryption and no plaintext.
func (s *Session) Decrypt(rec domain.EncryptedRecord) (domain.Location, error) {
	if rec.SessionID != "" && rec.SessionID != s.id {
		return domain.Location{}, s.fail("decrypt", fmt.Errorf("%w: record belongs to another session", domain.ErrDecryption))
	}
	if rec.RideID != "" && rec.RideID != s.ride {
		return domain.Location{}, s.fail("decrypt", fmt.Errorf("%w: record belongs to another ride", domain.ErrDecryption))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if err := s.usableLocked(now); err != nil {
		return domain.Location{}, s.fail("decrypt", err)
	}
	if len(rec.Nonce) != s.aead.NonceSize() || len(rec.Ciphertext) < s.aead.Overhead() {
		return domain.Location{}, s.fail("decrypt", fmt.Errorf("%w: malformed record", domain.ErrDecryption))
	}

	ad := associatedData(s.id, s.ride, rec.Sequence, rec.Timestamp)
	plaintext, err := s.aead.Open(nil, rec.Nonce, rec.Ciphertext, ad)
	if err != nil {
		return domain.Location{}, s.fail("decrypt", domain.ErrDecryption)
	}
	defer crypto.Wipe(plaintext)

	loc, err := decodeLocation(plaintext)
	if err != nil {
		return domain.Location{}, s.fail("decrypt", fmt.Errorf("%w: %v", domain.ErrDecryption, err))
	}
	s.touchLocked(now)
	return loc, nil
}

// IsExpired reports whether the session's age at now exceeds its max age.
func (s *Session) IsExpired(now time.Time) bool {
	return now.Sub(s.createdAt) > s.maxAge
}

// State returns the lifecycle state at now.
func (s *Session) State(now time.Time) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStateLocked(now)
	return s.state
}

// Info returns a snapshot of the session's metadata.
func (s *Session) Info(now time.Time) domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStateLocked(now)
	return domain.SessionInfo{
		SessionID:  s.id,
		RideID:     s.ride,
		State:      s.state.String(),
		CreatedAt:  s.createdAt,
		LastUsedAt: s.lastUsedAt,
		ExpiresAt:  s.ExpiresAt(),
		UseCount:   s.useCount,
		Age:        now.Sub(s.createdAt),
	}
}

// End terminates the session and zeroes its key. The boolean is false when
// the session had already ended.
func (s *Session) End(now time.Time) (domain.SessionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := domain.SessionSummary{
		SessionID: s.id,
		RideID:    s.ride,
		EndedAt:   now.UTC(),
		UseCount:  s.useCount,
		Duration:  now.Sub(s.createdAt),
	}
	if s.state == domain.StateEnded {
		return summary, false
	}
	s.state = domain.StateEnded
	s.aead = nil
	s.key.Destroy()
	return summary, true
}

func (s *Session) usableLocked(now time.Time) error {
	s.refreshStateLocked(now)
	if !s.state.Usable() {
		return fmt.Errorf("%w: %s", domain.ErrSessionInactive, s.state)
	}
	if s.useCount >= maxSeals {
		return fmt.Errorf("%w: key usage limit reached", domain.ErrSessionInactive)
	}
	return nil
}

func (s *Session) refreshStateLocked(now time.Time) {
	if s.state.Usable() && s.IsExpired(now) {
		s.state = domain.StateExpired
	}
}

func (s *Session) touchLocked(now time.Time) {
	s.useCount++
	s.lastUsedAt = now
	s.state = domain.StateActive
}

func (s *Session) fail(op string, err error) error {
	return &domain.SessionError{Op: op, SessionID: s.id, Err: err}
}
