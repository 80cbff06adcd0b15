package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ridecipher/internal/domain"
	"ridecipher/internal/session"
)

// Defaults applied to zero-valued Options.
const (
	DefaultCapacity      = 10000
	DefaultSweepInterval = 30 * time.Minute
)

// Options configures a Vault.
type Options struct {
	Capacity      int
	SweepInterval time.Duration
	Now           func() time.Time
	Logger        *slog.Logger
	Observer      domain.Observer
}

// Vault is a concurrency-safe registry of sessions.
type Vault struct {
	capacity int
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
	obs      domain.Observer

	mu       sync.RWMutex
	sessions map[domain.SessionID]*session.Session
	closed   bool

	sweepMu sync.Mutex
	sweeper *sweeper
}

// New returns an empty vault.
func New(opts Options) *Vault {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
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
	return &Vault{
		capacity: opts.Capacity,
		interval: opts.SweepInterval,
		now:      opts.Now,
		log:      opts.Logger,
		obs:      opts.Observer,
		sessions: make(map[domain.SessionID]*session.Session, min(opts.Capacity, 1024)),
	}
}

// Capacity returns the maximum number of sessions the vault holds.
func (v *Vault) Capacity() int { return v.capacity }

// Store registers s. When the vault is full, expired sessions are purged
// first; if none can be reclaimed Store returns domain.ErrVaultFull.
func (v *Vault) Store(s *session.Session) error {
	now := v.now()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return domain.ErrVaultClosed
	}
	if _, dup := v.sessions[s.ID()]; dup {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSession, s.ID())
	}
	var evicted []*session.Session
	if len(v.sessions) >= v.capacity {
		evicted = v.takeExpiredLocked(now)
	}
	full := len(v.sessions) >= v.capacity
	if !full {
		v.sessions[s.ID()] = s
	}
	size := len(v.sessions)
	v.mu.Unlock()

	v.retire(evicted, domain.EvictExpired, now)
	if len(evicted) > 0 {
		v.log.Info("vault.purge", "reclaimed", len(evicted), "size", size)
	}
	if full {
		v.obs.VaultFull()
		v.log.Warn("vault.full", "capacity", v.capacity)
		return fmt.Errorf("%w: capacity %d", domain.ErrVaultFull, v.capacity)
	}
	return nil
}

// Get returns the session for id. An expired session is removed and ended
// on the spot and reported as absent.
func (v *Vault) Get(id domain.SessionID) (*session.Session, bool) {
	v.mu.RLock()
	s, ok := v.sessions[id]
	v.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := v.now()
	if !s.IsExpired(now) {
		return s, true
	}

	v.mu.Lock()
	cur, ok := v.sessions[id]
	owned := ok && cur == s
	if owned {
		delete(v.sessions, id)
	}
	v.mu.Unlock()
	if owned {
		v.retire([]*session.Session{s}, domain.EvictExpired, now)
	}
	return nil, false
}

// End removes the session for id and ends it, returning its final summary.
func (v *Vault) End(id domain.SessionID) (domain.SessionSummary, bool) {
	v.mu.Lock()
	s, ok := v.sessions[id]
	if ok {
		delete(v.sessions, id)
	}
	v.mu.Unlock()
	if !ok {
		return domain.SessionSummary{}, false
	}
	return s.End(v.now())
}

// Remove removes and ends the session for id. It reports whether the id was
// present.
func (v *Vault) Remove(id domain.SessionID) bool {
	_, ok := v.End(id)
	return ok
}

// Sweep removes and ends every expired session and returns how many it
// reclaimed.
func (v *Vault) Sweep() int {
	now := v.now()
	v.mu.Lock()
	expired := v.takeExpiredLocked(now)
	v.mu.Unlock()

	v.retire(expired, domain.EvictExpired, now)
	return len(expired)
}

// Len returns the number of stored sessions, expired ones included.
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.sessions)
}

// Stats returns occupancy figures at the current time.
func (v *Vault) Stats() domain.VaultStats {
	now := v.now()
	v.mu.RLock()
	defer v.mu.RUnlock()

	st := domain.VaultStats{Total: len(v.sessions), Capacity: v.capacity}
	for _, s := range v.sessions {
		if s.IsExpired(now) {
			st.Expired++
		}
	}
	st.Active = st.Total - st.Expired
	st.UtilizationPercent = float64(st.Total) * 100 / float64(v.capacity)
	return st
}

// Close rejects further sessions, stops the sweeper and ends every stored
// session. The context bounds the wait for the sweeper.
func (v *Vault) Close(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.mu.Unlock()

	stopErr := v.Stop(ctx)

	v.mu.Lock()
	remaining := make([]*session.Session, 0, len(v.sessions))
	for id, s := range v.sessions {
		remaining = append(remaining, s)
		delete(v.sessions, id)
	}
	v.mu.Unlock()

	v.retire(remaining, domain.EvictClosed, v.now())
	v.log.Info("vault.closed", "ended", len(remaining))
	return stopErr
}

func (v *Vault) takeExpiredLocked(now time.Time) []*session.Session {
	var out []*session.Session
	for id, s := range v.sessions {
		if s.IsExpired(now) {
			out = append(out, s)
			delete(v.sessions, id)
		}
	}
	return out
}

// retire ends sessions already unlinked from the map. Keys are wiped before
// any observer runs.
func (v *Vault) retire(ss []*session.Session, reason string, now time.Time) {
	for _, s := range ss {
		s.End(now)
	}
	for _, s := range ss {
		v.log.Debug("session.evicted", "session_id", s.ID(), "reason", reason)
		v.obs.SessionEvicted(reason)
	}
}
